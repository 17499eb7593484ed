package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"club-site/internal/docstore"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName = "club_session"
	sidKey     = "sid"

	// LoginFailedMessage is shown for every failed sign-in, whatever the cause.
	LoginFailedMessage = "Error al iniciar sesión. Verifica tus credenciales."
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service is the e-mail/password Auth Service. The cookie only carries a
// signed session id; who that id belongs to lives in the Registry.
type Service struct {
	users    UserStore
	cookies  sessions.Store
	registry *Registry
	logger   *log.Logger
}

func NewService(users UserStore, cookies sessions.Store, registry *Registry, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if registry == nil {
		registry = NewRegistry()
	}

	return &Service{
		users:    users,
		cookies:  cookies,
		registry: registry,
		logger:   logger,
	}
}

// NewCookieStore signs session cookies with secret. They last a week.
func NewCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(SessionMaxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// Authenticate checks credentials without touching any session.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates, issues a fresh session id and binds the user to it.
// The id the browser held before is dropped; its live views follow the new
// id and flip their gate on the next frame.
func (s *Service) Login(w http.ResponseWriter, r *http.Request, email, password string) (Session, error) {
	u, err := s.Authenticate(r.Context(), email, password)
	if err != nil {
		s.logger.Printf("auth: login failed for %q: %v", NormalizeEmail(email), err)
		return Session{}, err
	}

	previous, err := s.sessionID(w, r)
	if err != nil {
		return Session{}, err
	}
	sid, err := s.rotate(w, r)
	if err != nil {
		return Session{}, err
	}

	s.registry.Rotate(previous, sid, u)
	s.logger.Printf("auth: %s signed in", u.Email)
	return s.registry.Get(sid), nil
}

func (s *Service) Logout(w http.ResponseWriter, r *http.Request) error {
	sid, err := s.sessionID(w, r)
	if err != nil {
		return err
	}

	if sess := s.registry.Get(sid); sess.Authenticated() {
		s.logger.Printf("auth: %s signed out", sess.Email())
	}
	s.registry.Clear(sid)
	return nil
}

// Middleware attaches the Session of every request to its context,
// issuing a session id cookie to first-time visitors.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := s.sessionID(w, r)
		if err != nil {
			s.logger.Printf("auth: session cookie: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s.registry.Get(sid))))
	})
}

// sessionID reads the signed id from the cookie, minting and saving a new
// one when absent or unreadable.
func (s *Service) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	// an invalid cookie still yields a fresh session alongside the error
	sess, _ := s.cookies.Get(r, CookieName)
	if sess == nil {
		return "", errors.New("auth: no session available")
	}

	if sid, ok := sess.Values[sidKey].(string); ok && sid != "" {
		return sid, nil
	}

	sid := uuid.NewString()
	sess.Values[sidKey] = sid
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("auth: save session: %w", err)
	}
	return sid, nil
}

// rotate replaces the cookie's session id with a new one.
func (s *Service) rotate(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, _ := s.cookies.Get(r, CookieName)
	if sess == nil {
		return "", errors.New("auth: no session available")
	}

	sid := uuid.NewString()
	sess.Values[sidKey] = sid
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("auth: save session: %w", err)
	}
	return sid, nil
}

// EnsureUser creates the account or resets its password.
func (s *Service) EnsureUser(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return errors.New("auth: email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		u.ID = existing.ID
		u.CreatedAt = existing.CreatedAt
	case !errors.Is(err, docstore.ErrNotFound):
		return fmt.Errorf("auth: lookup user: %w", err)
	}

	if err := s.users.Save(ctx, u); err != nil {
		return fmt.Errorf("auth: save user: %w", err)
	}
	s.logger.Printf("auth: ensured user %s", email)
	return nil
}
