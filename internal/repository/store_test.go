package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connecthub/internal/model"
	"connecthub/internal/seed"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	data, err := seed.Default(now)
	require.NoError(t, err)
	n := 0
	return NewStore(data,
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func(prefix string) string {
			n++
			return prefix + "-" + string(rune('a'+n-1))
		}),
	)
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	store := newSeededStore(t)
	posts := NewPostRepository()
	boom := errors.New("boom")

	err := store.Update(context.Background(), func(tx *Tx) error {
		if _, err := posts.ToggleLike(tx, "p1", "u1"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, store.View(context.Background(), func(tx *Tx) error {
		p, err := posts.GetByID(tx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"u2", "u3"}, p.Likes)
		return nil
	}))
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	store := newSeededStore(t)
	err := store.View(context.Background(), func(tx *Tx) error {
		_, err := NewPostRepository().ToggleLike(tx, "p1", "u1")
		return err
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestStore_SnapshotsAreStable(t *testing.T) {
	store := newSeededStore(t)
	posts := NewPostRepository()
	ctx := context.Background()

	var before []model.Post
	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		before = posts.List(tx)
		return nil
	}))

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		_, err := posts.ToggleLike(tx, "p1", "u1")
		return err
	}))

	assert.Equal(t, []string{"u2", "u3"}, before[0].Likes)
}

func TestStore_CancelledContext(t *testing.T) {
	store := newSeededStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Update(ctx, func(tx *Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestPostRepository_CreatePrependsAndToggles(t *testing.T) {
	store := newSeededStore(t)
	posts := NewPostRepository()
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		_, err := posts.Create(tx, model.Post{ID: tx.NewID("p"), AuthorID: "u1", Text: "hello", CreatedAt: tx.Now()})
		return err
	}))

	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		all := posts.List(tx)
		require.Len(t, all, 4)
		assert.Equal(t, "p-a", all[0].ID)
		assert.Equal(t, 2, posts.CountByAuthor(tx, "u1"))
		return nil
	}))

	var liked []bool
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Update(ctx, func(tx *Tx) error {
			l, err := posts.ToggleLike(tx, "p2", "u1")
			liked = append(liked, l)
			return err
		}))
	}
	assert.Equal(t, []bool{false, true}, liked)
}

func TestPostRepository_UpdateUnknownIsNoop(t *testing.T) {
	store := newSeededStore(t)
	var updated bool
	require.NoError(t, store.Update(context.Background(), func(tx *Tx) error {
		var err error
		updated, err = NewPostRepository().UpdateText(tx, "missing", "x")
		return err
	}))
	assert.False(t, updated)
}

func TestFollowRepository_ToggleKeepsBothSides(t *testing.T) {
	store := newSeededStore(t)
	follows := NewFollowRepository()
	users := NewUserRepository()
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		followed, err := follows.Toggle(tx, "u3", "u2")
		require.NoError(t, err)
		assert.True(t, followed)
		return nil
	}))

	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		u3, _ := users.GetByID(tx, "u3")
		u2, _ := users.GetByID(tx, "u2")
		assert.Equal(t, []string{"u1", "u2"}, u3.Following)
		assert.Contains(t, u2.Followers, "u3")
		assert.Equal(t, 2, follows.FollowingCount(tx, "u3"))
		return nil
	}))

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		followed, err := follows.Toggle(tx, "u3", "u2")
		assert.False(t, followed)
		return err
	}))

	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		u3, _ := users.GetByID(tx, "u3")
		u2, _ := users.GetByID(tx, "u2")
		assert.Equal(t, []string{"u1"}, u3.Following)
		assert.Equal(t, []string{"u1"}, u2.Followers)
		return nil
	}))
}

func TestUserRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	store := newSeededStore(t)
	err := store.Update(context.Background(), func(tx *Tx) error {
		_, err := NewUserRepository().Create(tx, model.User{ID: "u9", Username: "x", Email: "alex@example.com"})
		return err
	})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestUserRepository_Search(t *testing.T) {
	store := newSeededStore(t)
	require.NoError(t, store.View(context.Background(), func(tx *Tx) error {
		got := NewUserRepository().Search(tx, "DES", 10)
		require.Len(t, got, 1)
		assert.Equal(t, "sarah_design", got[0].Username)
		return nil
	}))
}

func TestNotificationRepository_MarkAllAsReadScope(t *testing.T) {
	store := newSeededStore(t)
	notifs := NewNotificationRepository()
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		_, err := notifs.Create(tx, model.Notification{ID: "n2", RecipientID: "u2", ActorID: "u1", Kind: model.NotificationFollow})
		return err
	}))

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		changed, err := notifs.MarkAllAsRead(tx, "u1")
		assert.Equal(t, 1, changed)
		return err
	}))

	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		assert.Equal(t, 0, notifs.UnreadCount(tx, "u1"))
		assert.Equal(t, 1, notifs.UnreadCount(tx, "u2"))
		return nil
	}))
}

func TestStore_ConcurrentTogglesSerialize(t *testing.T) {
	store := newSeededStore(t)
	posts := NewPostRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, func(tx *Tx) error {
				_, err := posts.ToggleLike(tx, "p3", "u2")
				return err
			})
		}()
	}
	wg.Wait()

	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		p, err := posts.GetByID(tx, "p3")
		require.NoError(t, err)
		assert.Empty(t, p.Likes)
		return nil
	}))
}
