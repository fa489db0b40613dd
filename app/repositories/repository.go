package repositories

import (
	"yabe/app/models"
)

// entityRepository carries the operations shared by every kind.
type entityRepository[T models.Entity] struct {
	store *Store
	kind  models.Kind
}

// Save persists entity and returns it for chaining.
func (r entityRepository[T]) Save(entity T) (T, error) {
	if err := r.store.Save(entity); err != nil {
		var zero T
		return zero, err
	}
	return entity, nil
}

func (r entityRepository[T]) GetByID(id int) (T, error) {
	var zero T
	e, err := r.store.Get(r.kind, id)
	if err != nil {
		return zero, err
	}
	return e.(T), nil
}

func (r entityRepository[T]) Find(expr string, args ...any) *Result[T] {
	return find[T](r.store, r.kind, expr, args)
}

// All returns every entity in insertion order.
func (r entityRepository[T]) All() *Result[T] {
	return find[T](r.store, r.kind, "order by id", nil)
}

func (r entityRepository[T]) Count() (int, error) {
	return r.store.Count(r.kind)
}

func (r entityRepository[T]) Delete(entity T) error {
	return r.store.Delete(entity)
}
