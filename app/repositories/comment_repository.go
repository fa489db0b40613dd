package repositories

import "yabe/app/models"

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	entityRepository[*models.Comment]
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(store *Store) *BadgerCommentRepository {
	return &BadgerCommentRepository{entityRepository[*models.Comment]{store: store, kind: models.KindComment}}
}
