package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type memProfiles struct {
	mu   sync.Mutex
	byID map[string]domain.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{byID: make(map[string]domain.Profile)}
}

func (m *memProfiles) ProfileByEmail(_ context.Context, email string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return domain.Profile{}, domain.ErrNotFound
}

func (m *memProfiles) ProfileByID(_ context.Context, id string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memProfiles) InsertProfile(_ context.Context, p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == p.Email {
			return domain.ErrConflict
		}
	}
	m.byID[p.ID] = p
	return nil
}

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(newMemProfiles(), Options{Secret: "0123456789abcdef0123456789abcdef"}, logger.NewNop())
}

func signIn(t *testing.T, m *Manager, email, password string) (*http.Cookie, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	if _, err := m.SignIn(rec, req, email, password); err != nil {
		return nil, err
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionName {
			return c, nil
		}
	}
	t.Fatal("no session cookie set")
	return nil, nil
}

func TestSignInAndCurrent(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	p, err := m.CreateProfile(ctx, " Admin@Example.com ", "Admin", "hunter2", true)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", p.Email)
	assert.NotEqual(t, "hunter2", p.PasswordHash)

	var events []Event
	m.Broker().Subscribe(func(ev Event) { events = append(events, ev) })

	cookie, err := signIn(t, m, "ADMIN@example.com", "hunter2")
	require.NoError(t, err)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookie)
	cur, ok, err := m.Current(req)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.ID, cur.ID)

	require.Len(t, events, 1)
	assert.Equal(t, EventSignedIn, events[0].Kind)
	assert.Equal(t, p.ID, events[0].ProfileID)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	_, err := m.CreateProfile(ctx, "a@example.com", "A", "right", false)
	require.NoError(t, err)

	_, err = signIn(t, m, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = signIn(t, m, "nobody@example.com", "right")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCurrentWithoutCookie(t *testing.T) {
	m := newManager(t)
	_, ok, err := m.Current(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.False(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "garbage"})
	_, ok, err = m.Current(req)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	_, err := m.CreateProfile(ctx, "a@example.com", "A", "pw", false)
	require.NoError(t, err)
	cookie, err := signIn(t, m, "a@example.com", "pw")
	require.NoError(t, err)

	var kinds []EventKind
	unsubscribe := m.Broker().Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })
	defer unsubscribe()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	require.NoError(t, m.SignOut(rec, req))

	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.True(t, cleared[0].MaxAge < 0)
	assert.Equal(t, []EventKind{EventSignedOut}, kinds)

	err = m.SignOut(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	admin, err := m.CreateProfile(ctx, "admin@example.com", "Admin", "pw", true)
	require.NoError(t, err)
	_, err = m.CreateProfile(ctx, "user@example.com", "User", "pw", false)
	require.NoError(t, err)

	adminCookie, err := signIn(t, m, "admin@example.com", "pw")
	require.NoError(t, err)
	userCookie, err := signIn(t, m, "user@example.com", "pw")
	require.NoError(t, err)

	var seen domain.Profile
	h := m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ProfileFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"non-admin", userCookie, http.StatusForbidden},
		{"admin", adminCookie, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/posts", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, admin.ID, seen.ID)
}

func TestCreateProfileDuplicate(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	_, err := m.CreateProfile(ctx, "a@example.com", "A", "pw", false)
	require.NoError(t, err)
	_, err = m.CreateProfile(ctx, "A@example.com", "A", "pw", false)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = m.CreateProfile(ctx, "", "A", "pw", false)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}
