package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIServer(t *testing.T, valid string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var meCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "correct-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "Invalid credentials", "status": 401})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": valid,
			"user": map[string]any{
				"id": 1, "email": creds.Email, "full_name": "Tester",
				"role":        "editor",
				"roles":       []string{"editor"},
				"permissions": []string{"widgets.view"},
			},
		})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+valid {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "Invalid or expired token", "status": 401})
			return
		}
		// Roles as objects: older payload shape the mirror must tolerate.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{
				"id": 1, "email": "tester@t.test", "full_name": "Tester",
				"role":        "editor",
				"roles":       []map[string]any{{"id": 2, "name": "editor"}, {"id": 3, "name": "support"}},
				"permissions": []string{"widgets.view", "widgets.edit"},
			},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Logged out"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &meCalls
}

func TestLoginStoresTokenAndMirror(t *testing.T) {
	server, _ := newAPIServer(t, "valid-token")
	c := New(server.URL, WithTenant("acme"))

	sess, err := c.Login(context.Background(), "tester@t.test", "correct-pass")
	require.NoError(t, err)
	assert.Equal(t, "valid-token", c.Token())
	assert.Equal(t, []string{"editor"}, []string(sess.Roles))
	assert.True(t, c.HasRole("editor"))
	assert.True(t, c.HasPermission("widgets.view"))
	assert.False(t, c.HasPermission("widgets.edit"))
}

func TestLoginFailureLeavesLoggedOut(t *testing.T) {
	server, _ := newAPIServer(t, "valid-token")
	c := New(server.URL)

	_, err := c.Login(context.Background(), "tester@t.test", "wrong-pass")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Empty(t, c.Token())
	assert.Nil(t, c.Session())
}

func TestHydrateNormalizesRoleObjects(t *testing.T) {
	server, _ := newAPIServer(t, "valid-token")
	c := New(server.URL)
	require.NoError(t, c.store.Save("valid-token"))

	sess, err := c.Hydrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"editor", "support"}, []string(sess.Roles))
	assert.True(t, c.HasRole("support"))
	assert.True(t, c.HasPermission("widgets.edit"))
}

func TestHydrateFailureDiscardsToken(t *testing.T) {
	server, _ := newAPIServer(t, "valid-token")
	c := New(server.URL)
	require.NoError(t, c.store.Save("revoked-token"))

	_, err := c.Hydrate(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// An unconfirmable mirror means logged out.
	assert.Empty(t, c.Token())
	assert.Nil(t, c.Session())
	assert.False(t, c.HasRole("editor"))
}

func TestHydrateIgnoresCallerCancellation(t *testing.T) {
	server, meCalls := newAPIServer(t, "valid-token")
	c := New(server.URL)

	_, err := c.Login(context.Background(), "tester@t.test", "correct-pass")
	require.NoError(t, err)

	// A locally cancelled caller must not fail the shared flight or throw
	// the stored token away.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess, err := c.Hydrate(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, int64(1), meCalls.Load())
	assert.Equal(t, "valid-token", c.Token())
}

func TestHydrateWithoutTokenFails(t *testing.T) {
	server, meCalls := newAPIServer(t, "valid-token")
	c := New(server.URL)

	_, err := c.Hydrate(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Zero(t, meCalls.Load(), "no request should reach the server")
}

func TestLogoutClearsStateEvenOnServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL)
	require.NoError(t, c.store.Save("some-token"))
	c.setSession(&Session{ID: 1, Roles: RoleList{"editor"}})

	err := c.Logout(context.Background())
	assert.Error(t, err)
	assert.Empty(t, c.Token())
	assert.Nil(t, c.Session())
}

func TestAdminBypassInMirror(t *testing.T) {
	c := New("http://unused.invalid")
	c.setSession(&Session{ID: 1, Roles: RoleList{"admin"}})

	assert.True(t, c.HasPermission("anything.at-all"))
	assert.False(t, c.HasRole("auditor"))
}

func TestSessionReturnsCopy(t *testing.T) {
	c := New("http://unused.invalid")
	c.setSession(&Session{ID: 1, Roles: RoleList{"editor"}, Permissions: []string{"widgets.view"}})

	sess := c.Session()
	sess.Roles[0] = "tampered"
	sess.Permissions[0] = "tampered"

	assert.True(t, c.HasRole("editor"))
	assert.True(t, c.HasPermission("widgets.view"))
}
