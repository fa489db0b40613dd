package repositories

import "yabe/app/models"

// Result is a lazily evaluated query. Nothing is read until First, Fetch,
// FetchN or Count is called, and every call runs the query again against
// the current state of the store.
type Result[T models.Entity] struct {
	run    func(offset, limit int) ([]models.Entity, error)
	offset int
}

func failedResult[T models.Entity](err error) *Result[T] {
	return &Result[T]{
		run: func(int, int) ([]models.Entity, error) { return nil, err },
	}
}

// From returns a copy of the query that skips the first offset matches.
func (r *Result[T]) From(offset int) *Result[T] {
	if offset < 0 {
		offset = 0
	}
	return &Result[T]{run: r.run, offset: offset}
}

// First returns the first match, or the zero value (a nil pointer) when
// nothing matches. An empty result is not an error.
func (r *Result[T]) First() (T, error) {
	var zero T
	items, err := r.fetch(1)
	if err != nil || len(items) == 0 {
		return zero, err
	}
	return items[0], nil
}

// Fetch returns every match.
func (r *Result[T]) Fetch() ([]T, error) {
	return r.fetch(-1)
}

// FetchN returns at most n matches.
func (r *Result[T]) FetchN(n int) ([]T, error) {
	if n < 0 {
		n = 0
	}
	return r.fetch(n)
}

// Count returns the number of matches.
func (r *Result[T]) Count() (int, error) {
	items, err := r.run(r.offset, -1)
	return len(items), err
}

func (r *Result[T]) fetch(limit int) ([]T, error) {
	items, err := r.run(r.offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, item.(T))
	}
	return out, nil
}
