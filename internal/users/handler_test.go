package users_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlift/chatlift/internal/auth"
	"github.com/chatlift/chatlift/internal/rbac"
	"github.com/chatlift/chatlift/internal/shared"
	"github.com/chatlift/chatlift/internal/users"
	_ "github.com/chatlift/chatlift/testing"
)

type stubUserRepo struct{}

func (stubUserRepo) List(ctx context.Context, tenantID int64, limit, offset int) ([]users.User, int, error) {
	return nil, 0, nil
}

func (stubUserRepo) Get(ctx context.Context, tenantID, id int64) (users.User, error) {
	return users.User{}, shared.ErrNotFound
}

func (stubUserRepo) SetActive(ctx context.Context, tenantID, id int64, active bool) (users.User, error) {
	return users.User{}, shared.ErrNotFound
}

func (stubUserRepo) Delete(ctx context.Context, tenantID, id int64) error {
	return shared.ErrNotFound
}

type stubCreator struct {
	created []auth.User
	err     error
}

func (s *stubCreator) Register(ctx context.Context, tenantID int64, email, fullName, password string) (*auth.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u := auth.User{ID: int64(len(s.created) + 1), TenantID: tenantID, Email: email, FullName: fullName, IsActive: true}
	s.created = append(s.created, u)
	return &u, nil
}

func newUsersRouter(t *testing.T, creator users.Creator, sess *shared.Session) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := users.NewHandler(logger, users.NewService(stubUserRepo{}), nil, creator, rbac.Gate{Logger: logger})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/users", handler.MountRoutes)
	return r
}

func postUsers(t *testing.T, router http.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestAdminCreatesUser(t *testing.T) {
	creator := &stubCreator{}
	sess := &shared.Session{
		User:  shared.SessionUser{ID: 1, TenantID: 7},
		Roles: []string{shared.RoleAdmin},
	}
	router := newUsersRouter(t, creator, sess)

	res := postUsers(t, router, map[string]any{
		"email": "new@t.test", "full_name": "New User", "password": "long-enough-pw",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	require.Len(t, creator.created, 1)
	// The new user lands in the caller's tenant; the body cannot pick one.
	assert.Equal(t, int64(7), creator.created[0].TenantID)

	var body struct {
		User struct {
			Email    string `json:"email"`
			TenantID int64  `json:"tenant_id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "new@t.test", body.User.Email)
	assert.Equal(t, int64(7), body.User.TenantID)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	creator := &stubCreator{}
	sess := &shared.Session{
		User:  shared.SessionUser{ID: 2, TenantID: 7},
		Roles: []string{shared.RoleUser},
	}
	router := newUsersRouter(t, creator, sess)

	res := postUsers(t, router, map[string]any{
		"email": "new@t.test", "full_name": "New User", "password": "long-enough-pw",
	})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Empty(t, creator.created)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	creator := &stubCreator{err: shared.ErrDuplicate}
	sess := &shared.Session{
		User:  shared.SessionUser{ID: 1, TenantID: 7},
		Roles: []string{shared.RoleAdmin},
	}
	router := newUsersRouter(t, creator, sess)

	res := postUsers(t, router, map[string]any{
		"email": "taken@t.test", "full_name": "Dup User", "password": "long-enough-pw",
	})
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestCreateUserValidation(t *testing.T) {
	creator := &stubCreator{}
	sess := &shared.Session{
		User:  shared.SessionUser{ID: 1, TenantID: 7},
		Roles: []string{shared.RoleAdmin},
	}
	router := newUsersRouter(t, creator, sess)

	res := postUsers(t, router, map[string]any{
		"email": "new@t.test", "full_name": "New User", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Empty(t, creator.created)
}
