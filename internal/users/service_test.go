package users

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlift/chatlift/internal/shared"
)

type mockRepo struct {
	users  map[int64]User
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: map[int64]User{}, nextID: 1}
}

func (m *mockRepo) add(tenantID int64, email string, active bool) User {
	u := User{ID: m.nextID, TenantID: tenantID, Email: email, IsActive: active}
	m.nextID++
	m.users[u.ID] = u
	return u
}

func (m *mockRepo) tenantUsers(tenantID int64) []User {
	var out []User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockRepo) List(ctx context.Context, tenantID int64, limit, offset int) ([]User, int, error) {
	all := m.tenantUsers(tenantID)
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) Get(ctx context.Context, tenantID, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok || u.TenantID != tenantID {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) SetActive(ctx context.Context, tenantID, id int64, active bool) (User, error) {
	u, err := m.Get(ctx, tenantID, id)
	if err != nil {
		return User{}, err
	}
	u.IsActive = active
	m.users[id] = u
	return u, nil
}

func (m *mockRepo) Delete(ctx context.Context, tenantID, id int64) error {
	if _, err := m.Get(ctx, tenantID, id); err != nil {
		return err
	}
	delete(m.users, id)
	return nil
}

func TestListPagination(t *testing.T) {
	repo := newMockRepo()
	for i := 0; i < 25; i++ {
		repo.add(1, "u@t.test", true)
	}
	repo.add(2, "other@t.test", true)
	svc := NewService(repo)

	list, page, err := svc.List(context.Background(), 1, 2, 10)
	require.NoError(t, err)
	assert.Len(t, list, 10)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)

	// Out-of-range pages come back empty, not as an error.
	list, page, err = svc.List(context.Background(), 1, 9, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 25, page.Total)
}

func TestListIsTenantScoped(t *testing.T) {
	repo := newMockRepo()
	repo.add(1, "a@t.test", true)
	repo.add(2, "b@t.test", true)
	svc := NewService(repo)

	list, page, err := svc.List(context.Background(), 2, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b@t.test", list[0].Email)
	assert.Equal(t, 1, page.Total)
}

func TestGetCrossTenantHidden(t *testing.T) {
	repo := newMockRepo()
	u := repo.add(1, "a@t.test", true)
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), 2, u.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSetActive(t *testing.T) {
	repo := newMockRepo()
	u := repo.add(1, "a@t.test", true)
	svc := NewService(repo)

	updated, err := svc.SetActive(context.Background(), 1, u.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	updated, err = svc.SetActive(context.Background(), 1, u.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
}
