// Package session mirrors the backend's authentication state: a
// process-wide store fed by the backend client's auth-state
// notifications, plus the signed-cookie glue that carries a browser's
// identity between requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/litartclub/gallery/internal/supabase"
	"github.com/litartclub/gallery/validation"
)

// ErrWeakPassword rejects sign-ups before any backend call is made.
var ErrWeakPassword = errors.New("please choose a stronger password")

// State is the store's lifecycle position.
type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Store caches the current session and identity. It has exactly one
// writer: the auth-state subscription registered at construction. All
// transitions between Authenticated and Anonymous are driven by backend
// notifications, never inferred locally.
type Store struct {
	client     *supabase.Client
	redirectTo string
	log        *logrus.Entry

	mu          sync.RWMutex
	state       State
	sess        *supabase.Session
	unsubscribe func()
}

// NewStore builds a store subscribed to the client's auth-state channel.
// redirectTo is the fixed callback address passed to sign-up. Callers
// own the store for the application lifetime and must Close it on
// teardown.
func NewStore(client *supabase.Client, redirectTo string, log *logrus.Logger) *Store {
	s := &Store{
		client:     client,
		redirectTo: redirectTo,
		log:        log.WithField("component", "session"),
		state:      Uninitialized,
	}
	s.unsubscribe = client.OnAuthStateChange(s.onAuthChange)
	return s
}

// onAuthChange is the store's sole writer.
func (s *Store) onAuthChange(event supabase.AuthEvent, sess *supabase.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess = sess
	if sess != nil {
		s.state = Authenticated
	} else {
		s.state = Anonymous
	}
	s.log.WithField("event", string(event)).Debug("auth state changed")
}

// Init resolves the initial session fetch. The server process never has
// a persisted session of its own, so this lands on Anonymous; until it
// runs, Current reports nothing.
func (s *Store) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Loading
	// A notification may already have raced in from an early sign-in;
	// only the initial fetch itself resolves Loading to Anonymous.
	if s.sess == nil {
		s.state = Anonymous
	} else {
		s.state = Authenticated
	}
}

// Current returns the cached session, or false before the initial fetch
// resolves or while signed out.
func (s *Store) Current() (*supabase.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated || s.sess == nil {
		return nil, false
	}
	return s.sess, true
}

// State returns the store's lifecycle position.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SignIn delegates to the backend. No retry, no rate-limiting; the
// cache updates through the notification the client emits on success.
func (s *Store) SignIn(ctx context.Context, email, password string) (*supabase.Session, error) {
	sess, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return sess, nil
}

// SignUp registers a new identity. Passwords below the strong
// classification are rejected here, before any backend call. The
// backend's email-not-authorized denial passes through as a
// distinguished condition.
func (s *Store) SignUp(ctx context.Context, email, password string) (*supabase.Session, error) {
	if validation.PasswordStrength(password) != validation.Strong {
		return nil, ErrWeakPassword
	}
	sess, err := s.client.SignUp(ctx, email, password, s.redirectTo)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return sess, nil
}

// SignOut invalidates the session. It always succeeds locally: the
// client emits the signed-out notification regardless of the network
// outcome, so a failed revocation is only logged.
func (s *Store) SignOut(ctx context.Context, accessToken string) {
	if err := s.client.SignOut(ctx, accessToken); err != nil {
		s.log.WithError(err).Warn("remote sign-out failed")
	}
}

// Close deregisters the auth-state subscription.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
