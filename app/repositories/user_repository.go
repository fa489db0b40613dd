package repositories

import "yabe/app/models"

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	entityRepository[*models.User]
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(store *Store) *BadgerUserRepository {
	return &BadgerUserRepository{entityRepository[*models.User]{store: store, kind: models.KindUser}}
}

// ByEmail returns the user with email, or nil.
func (r *BadgerUserRepository) ByEmail(email string) (*models.User, error) {
	return r.Find("byEmail", email).First()
}
