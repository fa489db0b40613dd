package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostValidation(t *testing.T) {
	tests := []struct {
		name    string
		post    *Post
		wantErr bool
	}{
		{
			name: "valid post",
			post: &Post{
				AuthorID: 1,
				Title:    "My first Post",
				Content:  "Loram ipsum agas sdhooo fu awuwu akuffff snssi dmuro.",
				PostedAt: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "missing author",
			post: &Post{
				Title:    "My first Post",
				Content:  "Some content",
				PostedAt: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "empty title",
			post: &Post{
				AuthorID: 1,
				Content:  "Some content",
				PostedAt: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "title too long",
			post: &Post{
				AuthorID: 1,
				Title:    strings.Repeat("a", 201),
				Content:  "Some content",
				PostedAt: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "zero posted time",
			post: &Post{
				AuthorID: 1,
				Title:    "My first Post",
				Content:  "Some content",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostBeforeCreate(t *testing.T) {
	post := &Post{Title: "Test Post", Content: "Test Content"}
	now := time.Date(2009, 6, 14, 0, 0, 0, 0, time.UTC)

	assert.True(t, post.PostedAt.IsZero())
	post.BeforeCreate(now)
	assert.Equal(t, now, post.PostedAt)

	t.Run("keeps an explicit time", func(t *testing.T) {
		post.BeforeCreate(now.Add(time.Hour))
		assert.Equal(t, now, post.PostedAt)
	})
}

func TestNewPost(t *testing.T) {
	author := &User{ID: 7, Email: "foo@goo.moo", Fullname: "foo"}

	post := NewPost(author, "My first Post", "content")
	assert.Equal(t, 7, post.AuthorID)
	assert.Same(t, author, post.Author)
	assert.Equal(t, 0, post.ID)
}
