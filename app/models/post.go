package models

import (
	"time"

	"github.com/pkg/errors"
)

// NewPost builds an unsaved post owned by author.
func NewPost(author *User, title, content string) *Post {
	p := &Post{Title: title, Content: content}
	p.SetAuthor(author)
	return p
}

func (p *Post) Kind() Kind   { return KindPost }
func (p *Post) GetID() int   { return p.ID }
func (p *Post) SetID(id int) { p.ID = id }

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.PostedAt.IsZero() {
		return errors.New("posted_at cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate(now time.Time) {
	if p.AuthorID == 0 && p.Author != nil {
		p.AuthorID = p.Author.ID
	}
	if p.PostedAt.IsZero() {
		p.PostedAt = now
	}
}

// SetAuthor sets the owning user and updates the AuthorID
func (p *Post) SetAuthor(author *User) {
	p.Author = author
	if author != nil {
		p.AuthorID = author.ID
	}
}
