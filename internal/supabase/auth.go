package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// User is the backend's view of an authenticated identity.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	EmailConfirmedAt string `json:"email_confirmed_at"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// Session is an issued token pair with its owning user. It is owned by
// the backend; callers mirror it, they never mint one.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// AuthEvent identifies an authentication state transition.
type AuthEvent string

const (
	SignedIn       AuthEvent = "SIGNED_IN"
	SignedOut      AuthEvent = "SIGNED_OUT"
	TokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthChangeFunc observes authentication state transitions. The session
// is nil for SignedOut.
type AuthChangeFunc func(event AuthEvent, session *Session)

// OnAuthStateChange registers an observer for auth state transitions and
// returns its deregistration handle. Observers are invoked synchronously
// on every sign-in, sign-out and token refresh performed through this
// client.
func (c *Client) OnAuthStateChange(fn AuthChangeFunc) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Client) emit(event AuthEvent, session *Session) {
	c.mu.Lock()
	fns := make([]AuthChangeFunc, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// SignUp registers a new user. redirectTo is the address the backend
// sends the user back to after email confirmation. When confirmation is
// pending the returned session carries the user but no access token.
func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) (*Session, error) {
	reqURL := c.baseURL + "/auth/v1/signup"
	if redirectTo != "" {
		reqURL += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	sess, err := c.authRequest(ctx, reqURL, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if sess.AccessToken != "" {
		c.emit(SignedIn, sess)
	}
	return sess, nil
}

// SignIn exchanges credentials for a session (password grant).
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := c.authRequest(ctx, c.baseURL+"/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	c.emit(SignedIn, sess)
	return sess, nil
}

// Refresh exchanges a refresh token for a fresh session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	sess, err := c.authRequest(ctx, c.baseURL+"/auth/v1/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	c.emit(TokenRefreshed, sess)
	return sess, nil
}

// SignOut revokes the token server-side. The SignedOut notification is
// emitted regardless of the network outcome so local state always clears.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	defer c.emit(SignedOut, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, accessToken)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.Err()
}

// UserFromToken fetches the identity owning an access token.
func (c *Client) UserFromToken(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, accessToken)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var user User
	if err := resp.JSON(&user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (c *Client) authRequest(ctx context.Context, reqURL string, payload map[string]string) (*Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var sess Session
	if err := resp.JSON(&sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	// Confirmation-pending signups return the bare user object instead
	// of a session.
	if sess.User == nil {
		var user User
		if err := resp.JSON(&user); err == nil && user.ID != "" {
			sess.User = &user
		}
	}
	return &sess, nil
}
