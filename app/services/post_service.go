package services

import (
	"github.com/pkg/errors"

	"yabe/app/models"
	"yabe/app/repositories"
)

// PostService handles business logic for blog posts
type PostService struct {
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
}

// Publish saves a new post by author
func (s *PostService) Publish(author *models.User, title, content string) (*models.Post, error) {
	if author == nil || author.ID == 0 {
		return nil, errors.Wrap(repositories.ErrNotFound, "author must be saved before publishing")
	}
	return s.postRepo.Save(models.NewPost(author, title, content))
}

// GetPost retrieves a post by ID with its comments
func (s *PostService) GetPost(id int) (*models.Post, error) {
	return s.postRepo.GetByID(id)
}

// FrontPage returns the most recent post, or nil when there is none
func (s *PostService) FrontPage() (*models.Post, error) {
	return s.postRepo.Find("order by postedAt desc").First()
}

// OlderPosts returns up to limit posts after the front page post
func (s *PostService) OlderPosts(limit int) ([]*models.Post, error) {
	return s.postRepo.Find("order by postedAt desc").From(1).FetchN(limit)
}

// ByAuthor lists the posts written by author in the order they were saved
func (s *PostService) ByAuthor(author *models.User) ([]*models.Post, error) {
	return s.postRepo.Find("byAuthor", author).Fetch()
}

// AddComment posts a comment on post; post.Comments includes it on return
func (s *PostService) AddComment(post *models.Post, author, content string) (*models.Comment, error) {
	return s.postRepo.AddComment(post, author, content)
}

// Comments lists the comments on post, oldest first
func (s *PostService) Comments(post *models.Post) ([]*models.Comment, error) {
	if post == nil || post.ID == 0 {
		return nil, nil
	}
	comments, err := s.commentRepo.Find("byPost", post).Fetch()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list comments of post %d", post.ID)
	}
	return comments, nil
}

// DeletePost deletes a post and all its comments
func (s *PostService) DeletePost(post *models.Post) error {
	if err := s.postRepo.Delete(post); err != nil {
		return errors.Wrapf(err, "failed to delete post %d", post.ID)
	}
	return nil
}
