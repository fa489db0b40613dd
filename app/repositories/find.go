package repositories

import (
	"cmp"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"yabe/app/models"
	"yabe/app/query"
)

// Find runs expr against every entity of kind. See package query for the
// accepted expressions; args bind to the conditions in order.
func (s *Store) Find(kind models.Kind, expr string, args ...any) *Result[models.Entity] {
	return find[models.Entity](s, kind, expr, args)
}

func find[T models.Entity](s *Store, kind models.Kind, expr string, args []any) *Result[T] {
	sch, err := schemaFor(kind)
	if err != nil {
		return failedResult[T](err)
	}
	e, err := query.Parse(expr)
	if err != nil {
		return failedResult[T](err)
	}
	if err := checkExpression(sch, e, args); err != nil {
		return failedResult[T](err)
	}
	return &Result[T]{
		run: func(offset, limit int) ([]models.Entity, error) {
			return s.execute(sch, e, args, offset, limit)
		},
	}
}

func checkExpression(sch *schema, e query.Expression, args []any) error {
	if len(args) != e.Arity() {
		return errors.Wrapf(query.ErrInvalidExpression, "%q expects %d argument(s), got %d", e.Source, e.Arity(), len(args))
	}
	for _, c := range e.Conditions {
		if err := sch.checkPath(c.Path); err != nil {
			return err
		}
	}
	for _, o := range e.Orders {
		if err := sch.checkPath([]string{o.Field}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) execute(sch *schema, e query.Expression, args []any, offset, limit int) ([]models.Entity, error) {
	var out []models.Entity
	err := s.db.View(func(txn *badger.Txn) error {
		l := newLoader(txn)
		candidates, err := l.candidates(sch, e, args)
		if err != nil {
			return err
		}

		var matched []models.Entity
		for _, c := range candidates {
			ok, err := l.matches(sch, c, e.Conditions, args)
			if err != nil {
				return err
			}
			if ok {
				matched = append(matched, c)
			}
		}

		if len(e.Orders) > 0 {
			sort.SliceStable(matched, func(i, j int) bool {
				for _, o := range e.Orders {
					a, _ := sch.value(matched[i], o.Field)
					b, _ := sch.value(matched[j], o.Field)
					if c := compareValues(a, b); c != 0 {
						return (c < 0) != o.Desc
					}
				}
				return false
			})
		}

		if offset > len(matched) {
			offset = len(matched)
		}
		matched = matched[offset:]
		if limit >= 0 && limit < len(matched) {
			matched = matched[:limit]
		}

		for _, m := range matched {
			if err := l.hydrate(m); err != nil {
				return err
			}
		}
		out = matched
		return nil
	})
	return out, err
}

// loader reads entities inside one read transaction and caches them, so a
// path like post.author.email loads each post and user at most once.
type loader struct {
	txn   *badger.Txn
	cache map[models.Kind]map[int]models.Entity
}

func newLoader(txn *badger.Txn) *loader {
	return &loader{txn: txn, cache: make(map[models.Kind]map[int]models.Entity)}
}

func (l *loader) get(sch *schema, id int) (models.Entity, error) {
	if e, ok := l.cache[sch.kind][id]; ok {
		return e, nil
	}
	e, err := loadEntity(l.txn, sch, id)
	if err != nil {
		return nil, err
	}
	l.put(e)
	return e, nil
}

func (l *loader) put(e models.Entity) {
	byID, ok := l.cache[e.Kind()]
	if !ok {
		byID = make(map[int]models.Entity)
		l.cache[e.Kind()] = byID
	}
	byID[e.GetID()] = e
}

func (l *loader) all(sch *schema) ([]models.Entity, error) {
	var entities []models.Entity
	it := l.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := entityPrefix(sch.kind)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		e := sch.newEntity()
		if err := it.Item().Value(func(val []byte) error {
			return unmarshalEntity(val, e)
		}); err != nil {
			return nil, err
		}
		if cached, ok := l.cache[sch.kind][e.GetID()]; ok {
			e = cached
		} else {
			l.put(e)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (l *loader) byIDs(sch *schema, ids []int) ([]models.Entity, error) {
	entities := make([]models.Entity, 0, len(ids))
	for _, id := range ids {
		e, err := l.get(sch, id)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// candidates narrows the scan with an index when the first direct
// condition is on a reference or a unique field.
func (l *loader) candidates(sch *schema, e query.Expression, args []any) ([]models.Entity, error) {
	for i, c := range e.Conditions {
		if len(c.Path) != 1 {
			continue
		}
		name := c.Path[0]
		if _, ok := sch.refs[name]; ok {
			parentID, ok := idOf(args[i])
			if !ok {
				return nil, nil
			}
			ids, err := childIDs(l.txn, sch.kind, name, parentID)
			if err != nil {
				return nil, err
			}
			return l.byIDs(sch, ids)
		}
		for _, u := range sch.unique {
			if u != name {
				continue
			}
			value, ok := args[i].(string)
			if !ok {
				return nil, nil
			}
			item, err := l.txn.Get(uniqueKey(sch.kind, name, value))
			if err == badger.ErrKeyNotFound {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			var id int
			if err := item.Value(func(val []byte) error {
				id, err = decodeID(val)
				return err
			}); err != nil {
				return nil, err
			}
			return l.byIDs(sch, []int{id})
		}
	}
	return l.all(sch)
}

func (l *loader) matches(sch *schema, e models.Entity, conditions []query.Condition, args []any) (bool, error) {
	for i, c := range conditions {
		v, ok, err := l.resolve(sch, e, c.Path)
		if err != nil {
			return false, err
		}
		if !ok || !equalValues(v, args[i]) {
			return false, nil
		}
	}
	return true, nil
}

// resolve follows the references named by path and returns the leaf value.
// A dangling reference resolves to nothing.
func (l *loader) resolve(sch *schema, e models.Entity, path []string) (any, bool, error) {
	for _, segment := range path[:len(path)-1] {
		ref := sch.refs[segment]
		target := registry[ref.target]
		next, err := l.get(target, ref.id(e))
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		sch, e = target, next
	}
	v, ok := sch.value(e, path[len(path)-1])
	return v, ok, nil
}

// hydrate fills the pointer fields the JSON encoding leaves out: the
// referenced owner and, for posts, the comment collection.
func (l *loader) hydrate(e models.Entity) error {
	switch v := e.(type) {
	case *models.Post:
		if author, err := l.get(registry[models.KindUser], v.AuthorID); err == nil {
			v.Author = author.(*models.User)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		ids, err := childIDs(l.txn, models.KindComment, "post", v.ID)
		if err != nil {
			return err
		}
		comments, err := l.byIDs(registry[models.KindComment], ids)
		if err != nil {
			return err
		}
		v.Comments = make([]*models.Comment, 0, len(comments))
		for _, c := range comments {
			comment := c.(*models.Comment)
			comment.Post = v
			v.Comments = append(v.Comments, comment)
		}
	case *models.Comment:
		post, err := l.get(registry[models.KindPost], v.PostID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		v.Post = post.(*models.Post)
		if v.Post.Author == nil {
			if author, err := l.get(registry[models.KindUser], v.Post.AuthorID); err == nil {
				v.Post.Author = author.(*models.User)
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
		}
	}
	return nil
}

// idOf accepts either an entity or a bare ID as a reference argument.
func idOf(arg any) (int, bool) {
	switch a := arg.(type) {
	case int:
		return a, true
	case int64:
		return int(a), true
	case *models.User:
		if a != nil {
			return a.ID, true
		}
	case *models.Post:
		if a != nil {
			return a.ID, true
		}
	case *models.Comment:
		if a != nil {
			return a.ID, true
		}
	}
	return 0, false
}

func equalValues(v, arg any) bool {
	switch x := v.(type) {
	case int:
		id, ok := idOf(arg)
		return ok && id == x
	case string:
		a, ok := arg.(string)
		return ok && a == x
	case bool:
		a, ok := arg.(bool)
		return ok && a == x
	case time.Time:
		a, ok := arg.(time.Time)
		return ok && a.Equal(x)
	}
	return false
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case int:
		return cmp.Compare(x, b.(int))
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	}
	return 0
}
