package models

import "time"

// Kind names an entity type in the store.
type Kind string

const (
	KindUser    Kind = "user"
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// Entity is implemented by every persisted model. An ID of zero means the
// entity has not been saved yet.
type Entity interface {
	Kind() Kind
	GetID() int
	SetID(id int)
	BeforeCreate(now time.Time)
	Validate() error
}

// User represents a blog author. Email is unique across the store.
type User struct {
	ID           int    `json:"id" validate:"gte=0"`
	Email        string `json:"email" validate:"required,email,max=254"`
	PasswordHash string `json:"password" validate:"required"`
	Fullname     string `json:"fullname" validate:"required,max=100"`
	IsAdmin      bool   `json:"isAdmin"`
}

// Post represents a blog post with comments.
type Post struct {
	ID       int        `json:"id" validate:"gte=0"`
	AuthorID int        `json:"authorId" validate:"required,gt=0"`
	Title    string     `json:"title" validate:"required,max=200"`
	Content  string     `json:"content" validate:"required"`
	PostedAt time.Time  `json:"postedAt"`
	Author   *User      `json:"-" validate:"-"`
	Comments []*Comment `json:"-" validate:"-"`
}

// Comment represents a comment on a blog post. Author is a display name,
// not a User reference.
type Comment struct {
	ID       int       `json:"id" validate:"gte=0"`
	PostID   int       `json:"postId" validate:"required,gt=0"`
	Author   string    `json:"author" validate:"required,max=100"`
	Content  string    `json:"content" validate:"required,max=1000"`
	PostedAt time.Time `json:"postedAt"`
	Post     *Post     `json:"-" validate:"-"`
}
