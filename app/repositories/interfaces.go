package repositories

import "yabe/app/models"

// UserRepository defines the interface for user data access
type UserRepository interface {
	Save(user *models.User) (*models.User, error)
	GetByID(id int) (*models.User, error)
	Find(expr string, args ...any) *Result[*models.User]
	All() *Result[*models.User]
	Count() (int, error)
	Delete(user *models.User) error
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	Save(post *models.Post) (*models.Post, error)
	GetByID(id int) (*models.Post, error)
	Find(expr string, args ...any) *Result[*models.Post]
	All() *Result[*models.Post]
	Count() (int, error)
	Delete(post *models.Post) error
	Comments(post *models.Post) ([]*models.Comment, error)
	AddComment(post *models.Post, author, content string) (*models.Comment, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Save(comment *models.Comment) (*models.Comment, error)
	GetByID(id int) (*models.Comment, error)
	Find(expr string, args ...any) *Result[*models.Comment]
	All() *Result[*models.Comment]
	Count() (int, error)
	Delete(comment *models.Comment) error
}

var (
	_ UserRepository    = (*BadgerUserRepository)(nil)
	_ PostRepository    = (*BadgerPostRepository)(nil)
	_ CommentRepository = (*BadgerCommentRepository)(nil)
)
