// Package client is the Go SDK for applications embedding the admin API. It
// mirrors the server-side session for instant permission checks; the server
// re-resolves grants on every request, so the mirror is advisory only.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	roleAdmin     = "admin"
	tenantHeader  = "X-Tenant"
	authScheme    = "Bearer "
	defaultClient = 15 * time.Second
)

// TokenStore persists the bearer token between process runs. The zero-value
// client uses an in-memory store.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type memoryStore struct {
	mu    sync.Mutex
	token string
}

func (s *memoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *memoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Session is the client-side mirror of the authenticated user.
type Session struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Role        string   `json:"role"`
	Roles       RoleList `json:"roles"`
	Permissions []string `json:"permissions"`
}

// RoleList accepts both plain strings and {"name": ...} objects, so the
// mirror keeps working across server payload versions.
type RoleList []string

// UnmarshalJSON normalizes the two accepted role encodings.
func (l *RoleList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			out = append(out, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		if obj.Name != "" {
			out = append(out, obj.Name)
		}
	}
	*l = out
	return nil
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore swaps the token store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

// WithTenant sets the tenant slug sent with every request.
func WithTenant(slug string) Option {
	return func(c *Client) { c.tenant = slug }
}

// Client talks to the admin API and keeps a local session mirror.
type Client struct {
	baseURL    string
	tenant     string
	httpClient *http.Client
	store      TokenStore

	group singleflight.Group

	mu      sync.RWMutex
	session *Session
}

// New constructs a client for the given API base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultClient},
		store:      &memoryStore{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates and stores the returned token and session mirror.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out struct {
		Token string  `json:"token"`
		User  Session `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out, false)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(out.Token); err != nil {
		return nil, err
	}
	c.setSession(&out.User)
	return c.Session(), nil
}

// Logout notifies the server, then discards the token and mirror. The local
// state clears even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, true)
	c.reset()
	return err
}

// Hydrate refreshes the mirror from GET /auth/me. Concurrent callers share a
// single request. Any failure discards the stored token: a mirror that cannot
// be confirmed is treated as logged out.
func (c *Client) Hydrate(ctx context.Context) (*Session, error) {
	// The flight is shared between coalesced callers, so it runs detached
	// from the initiating context: one caller cancelling locally must not
	// fail the others or discard the token.
	reqCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do("hydrate", func() (any, error) {
		var out struct {
			User Session `json:"user"`
		}
		if err := c.do(reqCtx, http.MethodGet, "/auth/me", nil, &out, true); err != nil {
			c.reset()
			return nil, err
		}
		c.setSession(&out.User)
		return c.Session(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Session returns a copy of the current mirror, or nil when logged out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	cp.Roles = append(RoleList(nil), c.session.Roles...)
	cp.Permissions = append([]string(nil), c.session.Permissions...)
	return &cp
}

// Token returns the stored bearer token, empty when logged out.
func (c *Client) Token() string {
	token, err := c.store.Load()
	if err != nil {
		return ""
	}
	return token
}

// HasRole reports whether the mirrored session carries the role.
func (c *Client) HasRole(name string) bool {
	sess := c.Session()
	if sess == nil {
		return false
	}
	for _, role := range sess.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether the mirrored session grants the permission.
// Admins pass every check, matching the server-side gate.
func (c *Client) HasPermission(name string) bool {
	sess := c.Session()
	if sess == nil {
		return false
	}
	if c.HasRole(roleAdmin) {
		return true
	}
	for _, perm := range sess.Permissions {
		if perm == name {
			return true
		}
	}
	return false
}

func (c *Client) setSession(sess *Session) {
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
}

func (c *Client) reset() {
	_ = c.store.Clear()
	c.setSession(nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tenant != "" {
		req.Header.Set(tenantHeader, c.tenant)
	}
	if authed {
		token, err := c.store.Load()
		if err != nil || token == "" {
			return &APIError{StatusCode: http.StatusUnauthorized, Message: "not logged in"}
		}
		req.Header.Set("Authorization", authScheme+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); readErr == nil {
			if json.Unmarshal(data, &payload) == nil {
				apiErr.Message = payload.Message
			}
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
