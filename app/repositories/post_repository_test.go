package repositories

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yabe/app/models"
)

func TestPostRepository(t *testing.T) {
	store := newTestStore(t)
	foo := createUser(t, store, "foo@goo.moo", "foo")

	t.Run("create and get post", func(t *testing.T) {
		post := createPost(t, store, foo, "My first Post")

		retrieved, err := store.Posts().GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, "My first Post", retrieved.Title)
		assert.Equal(t, loremIpsum, retrieved.Content)
		assert.Equal(t, foo.ID, retrieved.AuthorID)
		require.NotNil(t, retrieved.Author)
		assert.Equal(t, "foo", retrieved.Author.Fullname)
		assert.True(t, post.PostedAt.Equal(retrieved.PostedAt))
		assert.Empty(t, retrieved.Comments)
	})

	t.Run("get missing post", func(t *testing.T) {
		_, err := store.Posts().GetByID(999)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("add comments", func(t *testing.T) {
		post := createPost(t, store, foo, "Commented Post")

		jeff, err := store.Posts().AddComment(post, "Jeff", "Nice Post")
		require.NoError(t, err)
		assert.Greater(t, jeff.ID, 0)
		assert.False(t, jeff.PostedAt.IsZero())
		require.Len(t, post.Comments, 1)

		_, err = store.Posts().AddComment(post, "Tom", "Yes i knew that!")
		require.NoError(t, err)
		require.Len(t, post.Comments, 2)
		assert.Equal(t, "Jeff", post.Comments[0].Author)
		assert.Equal(t, "Tom", post.Comments[1].Author)
		assert.Same(t, post, post.Comments[1].Post)

		reloaded, err := store.Posts().GetByID(post.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Comments, 2)
		assert.Equal(t, "Jeff", reloaded.Comments[0].Author)
	})

	t.Run("add comment to an unsaved post", func(t *testing.T) {
		_, err := store.Posts().AddComment(models.NewPost(foo, "draft", "draft"), "Jeff", "Nice Post")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("invalid comment is not added", func(t *testing.T) {
		post := createPost(t, store, foo, "Strict Post")
		_, err := store.Posts().AddComment(post, "", "anonymous")
		assert.True(t, errors.Is(err, ErrConstraintViolation))
		assert.Empty(t, post.Comments)
	})

	t.Run("list all", func(t *testing.T) {
		posts, err := store.Posts().All().Fetch()
		require.NoError(t, err)
		assert.Len(t, posts, 3)
		assert.Equal(t, "My first Post", posts[0].Title)
	})
}

func TestCommentRepository(t *testing.T) {
	store := newTestStore(t)
	foo := createUser(t, store, "foo@goo.moo", "foo")
	post := createPost(t, store, foo, "My first Post")

	comment, err := store.Comments().Save(models.NewComment(post, "Jeff", "Nice Post"))
	require.NoError(t, err)

	retrieved, err := store.Comments().GetByID(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jeff", retrieved.Author)
	require.NotNil(t, retrieved.Post)
	assert.Equal(t, "My first Post", retrieved.Post.Title)
	require.NotNil(t, retrieved.Post.Author)
	assert.Equal(t, "foo@goo.moo", retrieved.Post.Author.Email)

	require.NoError(t, store.Comments().Delete(retrieved))
	count, err := store.Comments().Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	remaining, err := store.Posts().Count()
	require.NoError(t, err)
	assert.Equal(t, 1, remaining, "deleting a comment leaves its post")
}
