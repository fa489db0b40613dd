package repositories

import (
	"bytes"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yabe/app/models"
)

func TestOpen(t *testing.T) {
	t.Run("on disk", func(t *testing.T) {
		store, err := Open(Options{Path: t.TempDir()})
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})

	t.Run("path required", func(t *testing.T) {
		_, err := Open(Options{})
		assert.Error(t, err)
	})
}

func TestStoreSave(t *testing.T) {
	store := newTestStore(t)

	t.Run("insert assigns an id and returns the entity", func(t *testing.T) {
		user, err := models.NewUser("foo@goo.moo", "secret", "foo")
		require.NoError(t, err)

		saved, err := store.Users().Save(user)
		require.NoError(t, err)
		assert.Same(t, user, saved)
		assert.Equal(t, 1, user.ID)
	})

	t.Run("posts get a postedAt", func(t *testing.T) {
		author := createUser(t, store, "poster@goo.moo", "poster")
		post := createPost(t, store, author, "My first Post")

		assert.Greater(t, post.ID, 0)
		assert.False(t, post.PostedAt.IsZero())
		assert.Equal(t, author.ID, post.AuthorID)
	})

	t.Run("postedAt is strictly increasing", func(t *testing.T) {
		author := createUser(t, store, "fast@goo.moo", "fast")
		first := createPost(t, store, author, "one")
		second := createPost(t, store, author, "two")
		assert.True(t, second.PostedAt.After(first.PostedAt))
	})

	t.Run("update keeps the id", func(t *testing.T) {
		user := createUser(t, store, "rename@goo.moo", "before")
		user.Fullname = "after"

		_, err := store.Users().Save(user)
		require.NoError(t, err)

		reloaded, err := store.Users().GetByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", reloaded.Fullname)
	})

	t.Run("update of a missing entity", func(t *testing.T) {
		ghost := &models.User{ID: 999, Email: "ghost@goo.moo", PasswordHash: "x", Fullname: "ghost"}
		_, err := store.Users().Save(ghost)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("invalid entity", func(t *testing.T) {
		_, err := store.Users().Save(&models.User{Email: "not-an-email", PasswordHash: "x", Fullname: "x"})
		assert.True(t, errors.Is(err, ErrConstraintViolation))
	})

	t.Run("reference to a missing owner", func(t *testing.T) {
		post := &models.Post{AuthorID: 999, Title: "orphan", Content: "orphan"}
		_, err := store.Posts().Save(post)
		assert.True(t, errors.Is(err, ErrConstraintViolation))
		assert.Equal(t, 0, post.ID)
	})
}

func TestStoreUniqueEmail(t *testing.T) {
	store := newTestStore(t)
	createUser(t, store, "foo@goo.moo", "foo")

	t.Run("duplicate insert is rejected", func(t *testing.T) {
		dup, err := models.NewUser("foo@goo.moo", "other", "dup")
		require.NoError(t, err)

		_, err = store.Users().Save(dup)
		assert.True(t, errors.Is(err, ErrConstraintViolation))
		assert.Equal(t, 0, dup.ID)

		count, err := store.Users().Count()
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("changing email frees the old one", func(t *testing.T) {
		user := createUser(t, store, "old@goo.moo", "mover")
		user.Email = "new@goo.moo"
		_, err := store.Users().Save(user)
		require.NoError(t, err)

		found, err := store.Users().ByEmail("old@goo.moo")
		require.NoError(t, err)
		assert.Nil(t, found)

		createUser(t, store, "old@goo.moo", "newcomer")
	})
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	t.Run("unsaved entity is a no-op", func(t *testing.T) {
		user, err := models.NewUser("nobody@goo.moo", "secret", "nobody")
		require.NoError(t, err)
		assert.NoError(t, store.Users().Delete(user))
	})

	t.Run("already deleted entity is a no-op", func(t *testing.T) {
		user := createUser(t, store, "twice@goo.moo", "twice")
		stale := *user
		require.NoError(t, store.Users().Delete(user))
		assert.NoError(t, store.Users().Delete(&stale))
	})

	t.Run("nil entity is a no-op", func(t *testing.T) {
		assert.NoError(t, store.Posts().Delete(nil))
		assert.NoError(t, store.Delete(nil))
	})

	t.Run("deleted entity can be saved again", func(t *testing.T) {
		require.NoError(t, store.Clear())
		foo := createUser(t, store, "foo@goo.moo", "foo")
		post := createPost(t, store, foo, "My first Post")

		require.NoError(t, store.Posts().Delete(post))
		assert.Zero(t, post.ID)

		_, err := store.Posts().Save(post)
		require.NoError(t, err)
		assert.NotZero(t, post.ID)

		_, posts, _ := countAll(t, store)
		assert.Equal(t, 1, posts)
	})

	t.Run("deleting a post deletes its comments", func(t *testing.T) {
		require.NoError(t, store.Clear())
		foo := createUser(t, store, "foo@goo.moo", "foo")
		post := createPost(t, store, foo, "My first Post")
		other := createPost(t, store, foo, "Another Post")

		_, err := store.Posts().AddComment(post, "Jeff", "Nice Post")
		require.NoError(t, err)
		_, err = store.Posts().AddComment(post, "Tom", "Yes i knew that!")
		require.NoError(t, err)
		_, err = store.Posts().AddComment(other, "Jim", "Hello guys")
		require.NoError(t, err)

		postID := post.ID
		require.NoError(t, store.Posts().Delete(post))

		users, posts, comments := countAll(t, store)
		assert.Equal(t, 1, users)
		assert.Equal(t, 1, posts)
		assert.Equal(t, 1, comments)

		left, err := store.Comments().Find("byPost", postID).Fetch()
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("a user with posts cannot be deleted", func(t *testing.T) {
		require.NoError(t, store.Clear())
		foo := createUser(t, store, "foo@goo.moo", "foo")
		createPost(t, store, foo, "My first Post")

		err := store.Users().Delete(foo)
		assert.True(t, errors.Is(err, ErrConstraintViolation))

		users, posts, _ := countAll(t, store)
		assert.Equal(t, 1, users)
		assert.Equal(t, 1, posts)
	})

	t.Run("deleting a user frees the email", func(t *testing.T) {
		require.NoError(t, store.Clear())
		foo := createUser(t, store, "foo@goo.moo", "foo")
		require.NoError(t, store.Users().Delete(foo))
		createUser(t, store, "foo@goo.moo", "foo again")
	})
}

func TestCascadeError(t *testing.T) {
	cause := errors.New("disk on fire")
	err := error(&CascadeError{Kind: models.KindComment, ID: 3, Err: cause})

	assert.True(t, errors.Is(err, ErrCascadeFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "comment 3")
}

func TestStoreDeleteIsAllOrNothing(t *testing.T) {
	store := newTestStore(t)
	foo := createUser(t, store, "foo@goo.moo", "foo")
	post := createPost(t, store, foo, "My first Post")
	_, err := store.Posts().AddComment(post, "Jeff", "Nice Post")
	require.NoError(t, err)
	broken, err := store.Posts().AddComment(post, "Tom", "Yes i knew that!")
	require.NoError(t, err)

	require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entityKey(models.KindComment, broken.ID), []byte("{not json"))
	}))

	err = store.Posts().Delete(post)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCascadeFailure))
	assert.NotZero(t, post.ID)

	users, posts, comments := countAll(t, store)
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, posts)
	assert.Equal(t, 2, comments)

	require.NoError(t, store.db.View(func(txn *badger.Txn) error {
		ids, err := childIDs(txn, models.KindComment, "post", post.ID)
		require.NoError(t, err)
		assert.Len(t, ids, 2)
		return nil
	}))
}

func TestStoreSaveNil(t *testing.T) {
	store := newTestStore(t)
	err := store.Save(nil)
	assert.True(t, errors.Is(err, ErrConstraintViolation))
	_, err = store.Posts().Save(nil)
	assert.True(t, errors.Is(err, ErrConstraintViolation))
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)
	foo := createUser(t, store, "foo@goo.moo", "foo")
	createPost(t, store, foo, "My first Post")

	require.NoError(t, store.Clear())

	users, posts, comments := countAll(t, store)
	assert.Zero(t, users)
	assert.Zero(t, posts)
	assert.Zero(t, comments)

	again := createUser(t, store, "foo@goo.moo", "foo")
	assert.Equal(t, 1, again.ID, "sequences restart after a reset")
}

func TestStoreClock(t *testing.T) {
	fixed := time.Date(2009, 6, 14, 10, 0, 0, 0, time.UTC)
	store, err := Open(Options{InMemory: true, Clock: func() time.Time { return fixed }})
	require.NoError(t, err)
	defer store.Close()

	foo := createUser(t, store, "foo@goo.moo", "foo")
	first := createPost(t, store, foo, "one")
	second := createPost(t, store, foo, "two")

	assert.WithinDuration(t, fixed, first.PostedAt, time.Microsecond)
	assert.True(t, second.PostedAt.After(first.PostedAt))
}

func TestStoreBackupRestore(t *testing.T) {
	source := newTestStore(t)
	foo := createUser(t, source, "foo@goo.moo", "foo")
	post := createPost(t, source, foo, "My first Post")
	_, err := source.Posts().AddComment(post, "Jeff", "Nice Post")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = source.Backup(&buf)
	require.NoError(t, err)

	target := newTestStore(t)
	require.NoError(t, target.Restore(&buf))

	users, posts, comments := countAll(t, target)
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, posts)
	assert.Equal(t, 1, comments)

	restored, err := target.Users().ByEmail("foo@goo.moo")
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.True(t, restored.CheckPassword("secret"))
}
