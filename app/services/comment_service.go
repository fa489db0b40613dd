package services

import (
	"yabe/app/models"
	"yabe/app/repositories"
)

// CommentService handles read access and moderation of comments
type CommentService struct {
	commentRepo repositories.CommentRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

// ForPostsBy lists every comment left on posts written by the user with email
func (s *CommentService) ForPostsBy(email string) ([]*models.Comment, error) {
	return s.commentRepo.Find("post.author.email", email).Fetch()
}

// Recent returns the latest comments across all posts
func (s *CommentService) Recent(limit int) ([]*models.Comment, error) {
	return s.commentRepo.Find("order by postedAt desc").FetchN(limit)
}

// DeleteComment deletes a comment by ID
func (s *CommentService) DeleteComment(id int) error {
	comment, err := s.commentRepo.GetByID(id)
	if err != nil {
		return err
	}
	return s.commentRepo.Delete(comment)
}
