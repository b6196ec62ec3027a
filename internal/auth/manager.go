package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const (
	// SessionName is the cookie name.
	SessionName = "shelf_session"

	sessionProfileID = "profile_id"
	sessionSignedAt  = "signed_at"
)

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNoSession is returned by SignOut when nobody is signed in.
	ErrNoSession = errors.New("no session")
)

// dummyHash keeps sign-in timing similar for unknown emails.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("shelf-dummy-password"), bcrypt.MinCost)

// Profiles is the identity storage.
type Profiles interface {
	ProfileByEmail(ctx context.Context, email string) (domain.Profile, error)
	ProfileByID(ctx context.Context, id string) (domain.Profile, error)
	InsertProfile(ctx context.Context, p domain.Profile) error
}

// Options configures the cookie.
type Options struct {
	Secret string        // signs the cookie; random per process when empty
	Secure bool          // send over https only
	MaxAge time.Duration // cookie lifetime
}

// Manager signs profiles in and out and guards admin routes.
type Manager struct {
	profiles Profiles
	store    *sessions.CookieStore
	broker   *Broker
	logger   logger.Logger
	now      func() time.Time
}

// NewManager builds a manager over profiles.
func NewManager(profiles Profiles, opts Options, log logger.Logger) *Manager {
	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		log.Warn("no session secret configured, sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7 * 24 * time.Hour
	}

	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(opts.MaxAge / time.Second))

	return &Manager{
		profiles: profiles,
		store:    store,
		broker:   NewBroker(),
		logger:   log,
		now:      time.Now,
	}
}

// Broker returns the session event broker.
func (m *Manager) Broker() *Broker { return m.broker }

// SignIn checks the credentials and stores the profile id in the session cookie.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, email, password string) (domain.Profile, error) {
	p, err := m.profiles.ProfileByEmail(r.Context(), normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return domain.Profile{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.Profile{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return domain.Profile{}, ErrInvalidCredentials
	}

	// A decode error only means a stale or foreign cookie; a new session replaces it.
	sess, _ := m.store.Get(r, SessionName)
	now := m.now()
	sess.Values[sessionProfileID] = p.ID
	sess.Values[sessionSignedAt] = now.Unix()
	if err := sess.Save(r, w); err != nil {
		return domain.Profile{}, fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Info("signed in", logger.String("profile", p.ID), logger.Bool("admin", p.IsAdmin))
	m.broker.Publish(Event{Kind: EventSignedIn, ProfileID: p.ID, At: now})
	return p, nil
}

// SignOut expires the session cookie.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, SessionName)
	if err != nil || sess.IsNew {
		return ErrNoSession
	}
	id, _ := sess.Values[sessionProfileID].(string)

	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	m.logger.Info("signed out", logger.String("profile", id))
	m.broker.Publish(Event{Kind: EventSignedOut, ProfileID: id, At: m.now()})
	return nil
}

// Current returns the signed-in profile, if any.
func (m *Manager) Current(r *http.Request) (domain.Profile, bool, error) {
	sess, err := m.store.Get(r, SessionName)
	if err != nil || sess.IsNew {
		return domain.Profile{}, false, nil
	}
	id, ok := sess.Values[sessionProfileID].(string)
	if !ok || id == "" {
		return domain.Profile{}, false, nil
	}

	p, err := m.profiles.ProfileByID(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{}, false, nil
	}
	if err != nil {
		return domain.Profile{}, false, err
	}
	return p, true, nil
}

// CreateProfile hashes password and stores a new profile.
func (m *Manager) CreateProfile(ctx context.Context, email, fullName, password string, admin bool) (domain.Profile, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Profile{}, &domain.ValidationError{Field: "email", Message: "Email and password are required"}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return domain.Profile{}, err
	}

	p := domain.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		IsAdmin:      admin,
		PasswordHash: hash,
		CreatedAt:    m.now().UTC(),
	}
	if err := m.profiles.InsertProfile(ctx, p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
