package models

import (
	"time"

	"github.com/pkg/errors"
)

// NewComment builds an unsaved comment on post.
func NewComment(post *Post, author, content string) *Comment {
	c := &Comment{Author: author, Content: content}
	if post != nil {
		c.Post = post
		c.PostID = post.ID
	}
	return c
}

func (c *Comment) Kind() Kind   { return KindComment }
func (c *Comment) GetID() int   { return c.ID }
func (c *Comment) SetID(id int) { c.ID = id }

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.PostedAt.IsZero() {
		return errors.New("posted_at cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate(now time.Time) {
	if c.PostID == 0 && c.Post != nil {
		c.PostID = c.Post.ID
	}
	if c.PostedAt.IsZero() {
		c.PostedAt = now
	}
}
