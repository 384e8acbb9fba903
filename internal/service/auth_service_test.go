package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/config"
	"github.com/wind-smp/market-backend/internal/model"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByDiscordID(_ context.Context, discordID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.DiscordID != nil && *u.DiscordID == discordID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	users    *fakeUserRepo
}

func newFakeSessionRepo(users *fakeUserRepo) *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*model.Session{}, users: users}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.Token] = &cp
	return nil
}

func (f *fakeSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	f.mu.Lock()
	s, ok := f.sessions[token]
	f.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	if f.users != nil {
		if u, err := f.users.FindByID(ctx, s.UserID); err == nil {
			cp.User = *u
		}
	}
	return &cp, nil
}

func (f *fakeSessionRepo) DeleteByToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionRepo) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func authConfig() *config.Config {
	return &config.Config{AdminUsername: "admin", SessionTTLDays: 30}
}

func TestRegisterValidatesUsernameAndPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users, newFakeSessionRepo(users), authConfig())

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"too short username", "ab", "password123"},
		{"too long username", strings.Repeat("a", 25), "password123"},
		{"illegal characters", "not ok!", "password123"},
		{"short password", "steve", "short"},
		{"long password", "steve", strings.Repeat("p", 73)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tc.username, tc.password)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo(users)
	svc := NewAuthService(users, sessions, authConfig())

	user, sess, err := svc.Register(context.Background(), "steve", "password123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Len(t, sess.Token, 64)
	assert.True(t, sess.ExpiresAt.After(time.Now().AddDate(0, 0, 29)))

	resolved, err := svc.Authenticate(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	// username lookup is case-insensitive
	_, _, err = svc.Login(context.Background(), "STEVE", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "steve", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, _, err = svc.Register(context.Background(), "Steve", "password123")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterGrantsAdminRole(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users, newFakeSessionRepo(users), authConfig())

	user, _, err := svc.Register(context.Background(), "Admin", "password123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
}

func TestAuthenticateDropsExpiredSession(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo(users)
	svc := NewAuthService(users, sessions, authConfig())

	_, sess, err := svc.Register(context.Background(), "steve", "password123")
	require.NoError(t, err)

	sessions.mu.Lock()
	sessions.sessions[sess.Token].ExpiresAt = time.Now().Add(-time.Hour)
	sessions.mu.Unlock()

	_, err = svc.Authenticate(context.Background(), sess.Token)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = sessions.FindByToken(context.Background(), sess.Token)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLoginBannedAccount(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo(users)
	svc := NewAuthService(users, sessions, authConfig())

	user, _, err := svc.Register(context.Background(), "griefer", "password123")
	require.NoError(t, err)

	reason := "scamming"
	user.IsBanned = true
	user.BanReason = &reason
	require.NoError(t, users.Update(context.Background(), user))

	_, _, err = svc.Login(context.Background(), "griefer", "password123")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Contains(t, apperr.FromError(err).Message, "scamming")
}

func TestLogoutRevokesSession(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo(users)
	svc := NewAuthService(users, sessions, authConfig())

	_, sess, err := svc.Register(context.Background(), "steve", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), sess.Token))

	_, err = svc.Authenticate(context.Background(), sess.Token)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestSanitizeUsername(t *testing.T) {
	cases := map[string]string{
		"plain_name":    "plain_name",
		"with.dots#42":  "withdots42",
		"ab":            "player",
		"ü":             "player",
		strings.Repeat("x", 40): strings.Repeat("x", 24),
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeUsername(in), "input %q", in)
	}
}

func TestResolveUniqueUsernameAppendsSuffix(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo(users)
	svc := NewAuthService(users, sessions, authConfig()).(*authService)

	_, _, err := svc.Register(context.Background(), "steve", "password123")
	require.NoError(t, err)

	name, err := svc.resolveUniqueUsername(context.Background(), "steve")
	require.NoError(t, err)
	assert.Equal(t, "steve_1", name)
}
