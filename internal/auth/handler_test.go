package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/chatlift/chatlift/internal/auth"
	"github.com/chatlift/chatlift/internal/rbac"
	"github.com/chatlift/chatlift/internal/shared"
	_ "github.com/chatlift/chatlift/testing"
)

type stubRepo struct {
	users  map[int64]*auth.User
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[int64]*auth.User{}, nextID: 1}
}

func (s *stubRepo) add(u auth.User) *auth.User {
	u.ID = s.nextID
	s.nextID++
	cp := u
	s.users[cp.ID] = &cp
	return &cp
}

func (s *stubRepo) FindByEmail(ctx context.Context, tenantID int64, email string) (*auth.User, error) {
	for _, u := range s.users {
		if u.TenantID == tenantID && u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, user auth.User) (*auth.User, error) {
	if _, err := s.FindByEmail(ctx, user.TenantID, user.Email); err == nil {
		return nil, shared.ErrDuplicate
	}
	user.IsActive = true
	return s.add(user), nil
}

func (s *stubRepo) TouchLastLogin(ctx context.Context, id int64) error { return nil }

func (s *stubRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type stubResolver struct {
	grants map[int64]rbac.Grants
}

func (s *stubResolver) Resolve(ctx context.Context, userID int64) (rbac.Grants, error) {
	return s.grants[userID], nil
}

func newAuthRouter(t *testing.T, repo *stubRepo, resolver *stubResolver) (http.Handler, *auth.TokenManager) {
	t.Helper()
	if resolver == nil {
		resolver = &stubResolver{}
	}
	service := auth.NewService(repo, resolver, nil, nil, 10)
	tokens := auth.NewTokenManager("handler-test-secret", time.Hour)
	handler := auth.NewHandler(nil, service, tokens, nil, nil, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithTenantID(req.Context(), 1)))
		})
	})
	r.Route("/auth", handler.MountRoutes)
	return r, tokens
}

func newThrottledAuthRouter(t *testing.T, repo *stubRepo, throttle *auth.Throttle) http.Handler {
	t.Helper()
	service := auth.NewService(repo, &stubResolver{}, nil, nil, 10)
	tokens := auth.NewTokenManager("handler-test-secret", time.Hour)
	handler := auth.NewHandler(nil, service, tokens, throttle, nil, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithTenantID(req.Context(), 1)))
		})
	})
	r.Route("/auth", handler.MountRoutes)
	return r
}

func postJSONFrom(t *testing.T, router http.Handler, path, remoteAddr string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func postJSON(t *testing.T, router http.Handler, path string, body map[string]any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	u := repo.add(auth.User{TenantID: 1, Email: "admin@t.test", PasswordHash: string(hash), FullName: "Admin", IsActive: true})
	resolver := &stubResolver{grants: map[int64]rbac.Grants{
		u.ID: {Roles: []rbac.Role{{ID: 1, Name: "admin"}}},
	}}
	router, tokens := newAuthRouter(t, repo, resolver)

	res := postJSON(t, router, "/auth/login", map[string]any{
		"email": "admin@t.test", "password": "correct-pass",
	}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var body struct {
		Token string `json:"token"`
		User  struct {
			Email       string   `json:"email"`
			Role        string   `json:"role"`
			Roles       []string `json:"roles"`
			Permissions []string `json:"permissions"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "admin@t.test", body.User.Email)
	assert.Equal(t, "admin", body.User.Role)
	assert.Equal(t, []string{"admin"}, body.User.Roles)
	assert.NotNil(t, body.User.Permissions)

	subject, err := tokens.Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, subject)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newStubRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	repo.add(auth.User{TenantID: 1, Email: "user@t.test", PasswordHash: string(hash), IsActive: true})
	router, _ := newAuthRouter(t, repo, nil)

	for name, creds := range map[string]map[string]any{
		"wrong password": {"email": "user@t.test", "password": "wrong-pass"},
		"unknown email":  {"email": "ghost@t.test", "password": "correct-pass"},
	} {
		res := postJSON(t, router, "/auth/login", creds, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code, name)
		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		// One indistinguishable message for both failure modes.
		assert.Equal(t, "Invalid credentials", body.Message, name)
	}
}

func TestLoginValidation(t *testing.T) {
	router, _ := newAuthRouter(t, newStubRepo(), nil)

	res := postJSON(t, router, "/auth/login", map[string]any{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	repo := newStubRepo()
	repo.add(auth.User{TenantID: 1, Email: "taken@t.test", PasswordHash: "x", IsActive: true})
	router, _ := newAuthRouter(t, repo, nil)

	res := postJSON(t, router, "/auth/register", map[string]any{
		"email": "taken@t.test", "full_name": "Dup User", "password": "long-enough-pw",
	}, nil)
	assert.Equal(t, http.StatusConflict, res.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "Email already registered", body.Message)
}

func TestRegisterIssuesToken(t *testing.T) {
	repo := newStubRepo()
	router, tokens := newAuthRouter(t, repo, nil)

	res := postJSON(t, router, "/auth/register", map[string]any{
		"email": "new@t.test", "full_name": "New User", "password": "long-enough-pw",
	}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	_, err := tokens.Verify(body.Token)
	assert.NoError(t, err)
}

func TestLoginThrottleKeyedByHostNotPort(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newStubRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	repo.add(auth.User{TenantID: 1, Email: "user@t.test", PasswordHash: string(hash), IsActive: true})
	router := newThrottledAuthRouter(t, repo, auth.NewThrottle(client, 2, time.Minute, nil))

	creds := map[string]any{"email": "user@t.test", "password": "wrong-pass"}

	// A fresh source port per attempt must not reset the counter.
	for i, want := range []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests} {
		res := postJSONFrom(t, router, "/auth/login", fmt.Sprintf("10.0.0.9:%d", 50001+i), creds)
		assert.Equal(t, want, res.Code, "attempt %d", i+1)
	}

	// A different host keeps its own budget.
	res := postJSONFrom(t, router, "/auth/login", "10.0.0.8:50001", creds)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMeRequiresToken(t *testing.T) {
	router, _ := newAuthRouter(t, newStubRepo(), nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMeReturnsLiveGrants(t *testing.T) {
	repo := newStubRepo()
	u := repo.add(auth.User{TenantID: 1, Email: "me@t.test", PasswordHash: "x", IsActive: true})
	resolver := &stubResolver{grants: map[int64]rbac.Grants{
		u.ID: {
			Roles:       []rbac.Role{{ID: 2, Name: "editor"}},
			Permissions: []rbac.Permission{{ID: 1, Name: "widgets.view"}},
		},
	}}
	router, tokens := newAuthRouter(t, repo, resolver)

	token, err := tokens.Issue(&auth.User{ID: u.ID, Email: u.Email}, []string{"stale-role"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var body struct {
		User struct {
			Roles       []string `json:"roles"`
			Permissions []string `json:"permissions"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	// The embedded token claims are ignored; grants come from the live graph.
	assert.Equal(t, []string{"editor"}, body.User.Roles)
	assert.Equal(t, []string{"widgets.view"}, body.User.Permissions)
}

func TestDeactivatedUserTokenRejected(t *testing.T) {
	repo := newStubRepo()
	u := repo.add(auth.User{TenantID: 1, Email: "off@t.test", PasswordHash: "x", IsActive: true})
	router, tokens := newAuthRouter(t, repo, nil)

	token, err := tokens.Issue(&auth.User{ID: u.ID, Email: u.Email}, nil)
	require.NoError(t, err)

	// Deactivate after issuance; the still-valid token must stop working.
	repo.users[u.ID].IsActive = false

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
