package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connecthub/internal/model"
)

type mockDirectory struct {
	users    []model.User
	addCalls int
}

func (m *mockDirectory) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			out := u.Clone()
			return &out, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *mockDirectory) AddUser(_ context.Context, user model.User) (*model.User, error) {
	m.addCalls++
	user.ID = "u-new"
	m.users = append(m.users, user)
	return &user, nil
}

func newTestStore(dir Directory, storage Storage) *Store {
	return NewStore(dir, storage, NewCodec("test-secret"), Options{})
}

func alexDirectory() *mockDirectory {
	return &mockDirectory{users: []model.User{
		{ID: "u1", Username: "alex_dev", Email: "alex@example.com", Followers: []string{"u2"}, Following: []string{}},
	}}
}

func TestLogin_UnknownEmail(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(alexDirectory(), storage)

	_, _, err := s.Login(context.Background(), "nobody@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)

	var nf *model.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Try: alex@example.com", nf.Hint)

	_, ok := s.Current()
	assert.False(t, ok)
	_, err = storage.Get(context.Background(), DefaultKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestLogin_PersistsSnapshot(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(alexDirectory(), storage)

	user, token, err := s.Login(context.Background(), "alex@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	persisted, err := storage.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, token, persisted)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "alex_dev", current.Username)

	decoded, err := s.Decode(persisted)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, decoded.Followers)
}

func TestLogin_HonoursLatencyAndCancellation(t *testing.T) {
	s := NewStore(alexDirectory(), NewMemoryStorage(), NewCodec("k"), Options{Latency: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err := s.Login(ctx, "alex@example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegister_ConflictAndSuccess(t *testing.T) {
	dir := alexDirectory()
	storage := NewMemoryStorage()
	s := newTestStore(dir, storage)
	ctx := context.Background()

	_, _, err := s.Register(ctx, "someone", "alex@example.com")
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, 0, dir.addCalls)

	user, _, err := s.Register(ctx, "Jane Doe", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-new", user.ID)
	assert.Equal(t, "https://ui-avatars.com/api/?name=Jane+Doe&background=random", user.Avatar)
	assert.Empty(t, user.Followers)
	assert.Empty(t, user.Following)
	assert.Equal(t, 1, dir.addCalls)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", current.Email)
}

func TestLogoutRemovesKey(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(alexDirectory(), storage)
	ctx := context.Background()

	_, _, err := s.Login(ctx, "alex@example.com")
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, s.Token())
	_, err = storage.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	first := newTestStore(alexDirectory(), storage)
	_, _, err := first.Login(ctx, "alex@example.com")
	require.NoError(t, err)

	restarted := newTestStore(alexDirectory(), storage)
	user := restarted.Restore(ctx)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)

	require.NoError(t, storage.Set(ctx, DefaultKey, "not-a-token"))
	corrupted := newTestStore(alexDirectory(), storage)
	assert.Nil(t, corrupted.Restore(ctx))
	_, ok := corrupted.Current()
	assert.False(t, ok)

	empty := newTestStore(alexDirectory(), NewMemoryStorage())
	assert.Nil(t, empty.Restore(ctx))
}

func TestCorruptFileRestoresLoggedOutAndAllowsLogin(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	storage, err := NewFileStorage(path)
	require.NoError(t, err)

	s := newTestStore(alexDirectory(), storage)
	assert.Nil(t, s.Restore(ctx))

	user, token, err := s.Login(ctx, "alex@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	restarted := newTestStore(alexDirectory(), storage)
	restored := restarted.Restore(ctx)
	require.NotNil(t, restored)
	assert.Equal(t, token, restarted.Token())

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, newTestStore(alexDirectory(), storage).Restore(ctx))
}

func TestRestore_UserMissingFromDirectory(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	token, err := NewCodec("test-secret").Encode(model.User{ID: "u-gone", Email: "gone@example.com"})
	require.NoError(t, err)
	require.NoError(t, storage.Set(ctx, DefaultKey, token))

	s := newTestStore(alexDirectory(), storage)
	assert.Nil(t, s.Restore(ctx))
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestRestore_RejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	token, err := NewCodec("other-secret").Encode(model.User{ID: "u1", Email: "alex@example.com"})
	require.NoError(t, err)
	require.NoError(t, storage.Set(ctx, DefaultKey, token))

	s := newTestStore(alexDirectory(), storage)
	assert.Nil(t, s.Restore(ctx))
}

func TestCurrentReturnsCopy(t *testing.T) {
	s := newTestStore(alexDirectory(), NewMemoryStorage())
	_, _, err := s.Login(context.Background(), "alex@example.com")
	require.NoError(t, err)

	u, _ := s.Current()
	u.Username = "changed"
	u.Followers[0] = "zz"

	again, _ := s.Current()
	assert.Equal(t, "alex_dev", again.Username)
	assert.Equal(t, []string{"u2"}, again.Followers)
}

func TestAvatarURL(t *testing.T) {
	assert.True(t, strings.HasPrefix(AvatarURL("a&b"), "https://ui-avatars.com/api/?name=a%26b"))
}
