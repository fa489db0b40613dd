package repositories

import (
	"github.com/pkg/errors"

	"yabe/app/models"
)

// DeletePolicy says what deleting an owner does to the entities it owns.
type DeletePolicy int

const (
	// Cascade deletes the owned entities together with the owner.
	Cascade DeletePolicy = iota + 1
	// Restrict refuses to delete an owner that still owns entities.
	Restrict
)

type fieldFunc func(e models.Entity) any

// reference is a field holding the ID of another entity.
type reference struct {
	target models.Kind
	id     func(e models.Entity) int
}

// ownership is the edge from a child to the owner named by one of its
// references.
type ownership struct {
	ref    string
	policy DeletePolicy
}

type schema struct {
	kind      models.Kind
	newEntity func() models.Entity
	fields    map[string]fieldFunc
	refs      map[string]reference
	unique    []string
	ownedBy   *ownership
}

func (s *schema) owner() (models.Kind, bool) {
	if s.ownedBy == nil {
		return "", false
	}
	return s.refs[s.ownedBy.ref].target, true
}

var registry = map[models.Kind]*schema{
	models.KindUser: {
		kind:      models.KindUser,
		newEntity: func() models.Entity { return &models.User{} },
		fields: map[string]fieldFunc{
			"id":       func(e models.Entity) any { return e.(*models.User).ID },
			"email":    func(e models.Entity) any { return e.(*models.User).Email },
			"password": func(e models.Entity) any { return e.(*models.User).PasswordHash },
			"fullname": func(e models.Entity) any { return e.(*models.User).Fullname },
			"isAdmin":  func(e models.Entity) any { return e.(*models.User).IsAdmin },
		},
		unique: []string{"email"},
	},
	models.KindPost: {
		kind:      models.KindPost,
		newEntity: func() models.Entity { return &models.Post{} },
		fields: map[string]fieldFunc{
			"id":       func(e models.Entity) any { return e.(*models.Post).ID },
			"title":    func(e models.Entity) any { return e.(*models.Post).Title },
			"content":  func(e models.Entity) any { return e.(*models.Post).Content },
			"postedAt": func(e models.Entity) any { return e.(*models.Post).PostedAt },
		},
		refs: map[string]reference{
			"author": {target: models.KindUser, id: func(e models.Entity) int { return e.(*models.Post).AuthorID }},
		},
		ownedBy: &ownership{ref: "author", policy: Restrict},
	},
	models.KindComment: {
		kind:      models.KindComment,
		newEntity: func() models.Entity { return &models.Comment{} },
		fields: map[string]fieldFunc{
			"id":       func(e models.Entity) any { return e.(*models.Comment).ID },
			"author":   func(e models.Entity) any { return e.(*models.Comment).Author },
			"content":  func(e models.Entity) any { return e.(*models.Comment).Content },
			"postedAt": func(e models.Entity) any { return e.(*models.Comment).PostedAt },
		},
		refs: map[string]reference{
			"post": {target: models.KindPost, id: func(e models.Entity) int { return e.(*models.Comment).PostID }},
		},
		ownedBy: &ownership{ref: "post", policy: Cascade},
	},
}

func schemaFor(kind models.Kind) (*schema, error) {
	s, ok := registry[kind]
	if !ok {
		return nil, errors.Errorf("unknown entity kind %q", kind)
	}
	return s, nil
}

// ownedKinds returns the schemas whose ownership edge points at kind.
func ownedKinds(kind models.Kind) []*schema {
	var owned []*schema
	for _, k := range []models.Kind{models.KindUser, models.KindPost, models.KindComment} {
		s := registry[k]
		if owner, ok := s.owner(); ok && owner == kind {
			owned = append(owned, s)
		}
	}
	return owned
}

// value returns the leaf value named by name: a scalar field, or the
// referenced ID for a reference field.
func (s *schema) value(e models.Entity, name string) (any, bool) {
	if f, ok := s.fields[name]; ok {
		return f(e), true
	}
	if r, ok := s.refs[name]; ok {
		return r.id(e), true
	}
	return nil, false
}

// checkPath verifies that every segment but the last is a reference and the
// last names a field or reference of the kind reached.
func (s *schema) checkPath(path []string) error {
	current := s
	for i, segment := range path {
		if i == len(path)-1 {
			if _, ok := current.fields[segment]; ok {
				return nil
			}
			if _, ok := current.refs[segment]; ok {
				return nil
			}
			return errors.Wrapf(ErrUnknownField, "%s has no field %q", current.kind, segment)
		}
		r, ok := current.refs[segment]
		if !ok {
			return errors.Wrapf(ErrUnknownField, "%s has no reference %q", current.kind, segment)
		}
		current = registry[r.target]
	}
	return errors.Wrap(ErrUnknownField, "empty path")
}
