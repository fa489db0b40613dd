package repositories

import (
	"github.com/pkg/errors"

	"yabe/app/models"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	entityRepository[*models.Post]
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(store *Store) *BadgerPostRepository {
	return &BadgerPostRepository{entityRepository[*models.Post]{store: store, kind: models.KindPost}}
}

// Comments lists the comments of post in the order they were added.
func (r *BadgerPostRepository) Comments(post *models.Post) ([]*models.Comment, error) {
	if post == nil {
		return nil, nil
	}
	comments, err := find[*models.Comment](r.store, models.KindComment, "byPost", []any{post.ID}).Fetch()
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		c.Post = post
	}
	return comments, nil
}

// AddComment creates and saves a comment on post, then refreshes
// post.Comments so the new comment is visible on return.
func (r *BadgerPostRepository) AddComment(post *models.Post, author, content string) (*models.Comment, error) {
	if post == nil || post.ID == 0 {
		return nil, errors.Wrap(ErrNotFound, "post must be saved before it can be commented")
	}

	comment := models.NewComment(post, author, content)
	if err := r.store.Save(comment); err != nil {
		return nil, err
	}

	comments, err := r.Comments(post)
	if err != nil {
		return nil, err
	}
	post.Comments = comments
	return comment, nil
}
