package repositories

import (
	"io"
	"log"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"yabe/app/models"
)

// Options configures a Store.
type Options struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// Logger receives badger's own log output. Nil silences it.
	Logger *log.Logger
	// Clock supplies timestamps for postedAt. Defaults to time.Now.
	Clock func() time.Time
}

// Store persists users, posts and comments in a badger database and
// enforces the unique and ownership constraints declared in the schema
// registry. Every write runs in a single badger transaction, so readers
// never observe half of a save or of a cascading delete.
type Store struct {
	db     *badger.DB
	mutex  sync.Mutex
	clock  func() time.Time
	lastTS time.Time

	users    *BadgerUserRepository
	posts    *BadgerPostRepository
	comments *BadgerCommentRepository
}

// Open opens (or creates) a store.
func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	switch {
	case opts.InMemory:
		bopts = badger.DefaultOptions("").WithInMemory(true)
	case opts.Path != "":
		bopts = badger.DefaultOptions(opts.Path)
	default:
		return nil, errors.New("store path is required unless running in memory")
	}

	bopts = bopts.
		WithLogger(newBadgerLogger(opts.Logger)).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "opening badger")
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Store{db: db, clock: clock}
	s.users = NewBadgerUserRepository(s)
	s.posts = NewBadgerPostRepository(s)
	s.comments = NewBadgerCommentRepository(s)
	return s, nil
}

// OpenInMemory opens a throwaway store, mostly for tests.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.Close()
}

// Users returns the user repository.
func (s *Store) Users() *BadgerUserRepository { return s.users }

// Posts returns the post repository.
func (s *Store) Posts() *BadgerPostRepository { return s.posts }

// Comments returns the comment repository.
func (s *Store) Comments() *BadgerCommentRepository { return s.comments }

// Clear wipes every entity of every kind and resets the ID sequences.
func (s *Store) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.db.DropAll(); err != nil {
		return errors.Wrap(err, "dropping all keys")
	}
	s.lastTS = time.Time{}
	return nil
}

// Backup writes a full dump of the store to w.
func (s *Store) Backup(w io.Writer) (uint64, error) {
	return s.db.Backup(w, 0)
}

// Restore loads a dump written by Backup.
func (s *Store) Restore(r io.Reader) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.Load(r, 16)
}

// now returns a strictly increasing UTC timestamp.
func (s *Store) now() time.Time {
	t := s.clock().UTC().Round(0)
	if !t.After(s.lastTS) {
		t = s.lastTS.Add(time.Nanosecond)
	}
	s.lastTS = t
	return t
}

// Save inserts e when it has no ID and updates it otherwise. Generated
// fields are assigned before validation.
func (s *Store) Save(e models.Entity) error {
	if isNil(e) {
		return errors.Wrap(ErrConstraintViolation, "cannot save a nil entity")
	}
	sch, err := schemaFor(e.Kind())
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	e.BeforeCreate(s.now())
	if err := e.Validate(); err != nil {
		return errors.Wrapf(ErrConstraintViolation, "invalid %s: %v", sch.kind, err)
	}

	isNew := e.GetID() == 0
	err = s.db.Update(func(txn *badger.Txn) error {
		var previous models.Entity
		if !isNew {
			previous, err = loadEntity(txn, sch, e.GetID())
			if err != nil {
				return err
			}
		}

		for name, ref := range sch.refs {
			parentID := ref.id(e)
			if _, err := txn.Get(entityKey(ref.target, parentID)); err == badger.ErrKeyNotFound {
				return errors.Wrapf(ErrConstraintViolation, "%s.%s references missing %s %d", sch.kind, name, ref.target, parentID)
			} else if err != nil {
				return err
			}
		}

		id := e.GetID()
		if isNew {
			if id, err = getNextID(txn, seqKey(sch.kind)); err != nil {
				return err
			}
		}

		for _, field := range sch.unique {
			value, _ := sch.value(e, field)
			key := uniqueKey(sch.kind, field, value.(string))
			item, err := txn.Get(key)
			switch {
			case err == badger.ErrKeyNotFound:
			case err != nil:
				return err
			default:
				var owner int
				if err := item.Value(func(val []byte) error {
					owner, err = decodeID(val)
					return err
				}); err != nil {
					return err
				}
				if owner != id {
					return errors.Wrapf(ErrConstraintViolation, "%s with %s %q already exists", sch.kind, field, value)
				}
			}
			if previous != nil {
				old, _ := sch.value(previous, field)
				if old != value {
					if err := txn.Delete(uniqueKey(sch.kind, field, old.(string))); err != nil {
						return err
					}
				}
			}
			if err := txn.Set(key, encodeID(id)); err != nil {
				return err
			}
		}

		for name, ref := range sch.refs {
			if previous != nil {
				if old := ref.id(previous); old != ref.id(e) {
					if err := txn.Delete(refKey(sch.kind, name, old, id)); err != nil {
						return err
					}
				}
			}
			if err := txn.Set(refKey(sch.kind, name, ref.id(e), id), nil); err != nil {
				return err
			}
		}

		e.SetID(id)
		data, err := marshalEntity(e)
		if err != nil {
			return err
		}
		return txn.Set(entityKey(sch.kind, id), data)
	})
	if err != nil && isNew {
		e.SetID(0)
	}
	return err
}

// Delete removes e together with everything it owns through Cascade edges.
// Deleting a nil entity, one that was never saved, or one that is already
// gone is a no-op. If any part of the cascade fails nothing is deleted.
// On success e's ID is reset to 0, so saving it again inserts a new row.
func (s *Store) Delete(e models.Entity) error {
	if isNil(e) {
		return nil
	}
	sch, err := schemaFor(e.Kind())
	if err != nil {
		return err
	}
	if e.GetID() == 0 {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		target, err := loadEntity(txn, sch, e.GetID())
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return deleteTree(txn, sch, target)
	})
	if err != nil {
		return err
	}
	e.SetID(0)
	return nil
}

func isNil(e models.Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// deleteTree removes the owned subtree bottom-up, then e itself.
func deleteTree(txn *badger.Txn, sch *schema, e models.Entity) error {
	for _, child := range ownedKinds(sch.kind) {
		ids, err := childIDs(txn, child.kind, child.ownedBy.ref, e.GetID())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue
		}
		if child.ownedBy.policy == Restrict {
			return errors.Wrapf(ErrConstraintViolation, "%s %d still owns %d %s(s)", sch.kind, e.GetID(), len(ids), child.kind)
		}
		for _, id := range ids {
			c, err := loadEntity(txn, child, id)
			if err != nil {
				return &CascadeError{Kind: child.kind, ID: id, Err: err}
			}
			if err := deleteTree(txn, child, c); err != nil {
				if errors.Is(err, ErrConstraintViolation) || errors.Is(err, ErrCascadeFailure) {
					return err
				}
				return &CascadeError{Kind: child.kind, ID: id, Err: err}
			}
		}
	}
	return deleteEntity(txn, sch, e)
}

func deleteEntity(txn *badger.Txn, sch *schema, e models.Entity) error {
	for _, field := range sch.unique {
		value, _ := sch.value(e, field)
		if err := txn.Delete(uniqueKey(sch.kind, field, value.(string))); err != nil {
			return err
		}
	}
	for name, ref := range sch.refs {
		if err := txn.Delete(refKey(sch.kind, name, ref.id(e), e.GetID())); err != nil {
			return err
		}
	}
	return txn.Delete(entityKey(sch.kind, e.GetID()))
}

// Count returns the number of persisted entities of kind.
func (s *Store) Count(kind models.Kind) (int, error) {
	if _, err := schemaFor(kind); err != nil {
		return 0, err
	}
	var count int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := entityPrefix(kind)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Get loads one entity by ID with its references hydrated.
func (s *Store) Get(kind models.Kind, id int) (models.Entity, error) {
	sch, err := schemaFor(kind)
	if err != nil {
		return nil, err
	}
	var e models.Entity
	err = s.db.View(func(txn *badger.Txn) error {
		l := newLoader(txn)
		var err error
		if e, err = l.get(sch, id); err != nil {
			return err
		}
		return l.hydrate(e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func loadEntity(txn *badger.Txn, sch *schema, id int) (models.Entity, error) {
	item, err := txn.Get(entityKey(sch.kind, id))
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(ErrNotFound, "%s %d", sch.kind, id)
	}
	if err != nil {
		return nil, err
	}
	e := sch.newEntity()
	if err := item.Value(func(val []byte) error {
		return unmarshalEntity(val, e)
	}); err != nil {
		return nil, err
	}
	return e, nil
}

// childIDs lists, in insertion order, the IDs of kind whose field points
// at parentID.
func childIDs(txn *badger.Txn, kind models.Kind, field string, parentID int) ([]int, error) {
	var ids []int
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := refPrefix(kind, field, parentID)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		id, err := strconv.Atoi(string(it.Item().Key()[len(prefix):]))
		if err != nil {
			return nil, errors.Wrapf(err, "malformed reference key %q", it.Item().Key())
		}
		ids = append(ids, id)
	}
	return ids, nil
}
