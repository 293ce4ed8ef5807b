package rbac

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

type memoryRepo struct {
	nextID      int64
	groups      map[string]*Group
	perms       map[string]*Permission
	grants      map[int64]map[int64]struct{}
	memberships map[int64][]UserGroup
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		groups:      make(map[string]*Group),
		perms:       make(map[string]*Permission),
		grants:      make(map[int64]map[int64]struct{}),
		memberships: make(map[int64][]UserGroup),
	}
}

func (m *memoryRepo) FirstGroup(ctx context.Context, userID int64) (int64, error) {
	rows := m.memberships[userID]
	if len(rows) == 0 {
		return 0, authz.ErrNoGroup
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AssignedAt.Equal(rows[j].AssignedAt) {
			return rows[i].GroupID < rows[j].GroupID
		}
		return rows[i].AssignedAt.Before(rows[j].AssignedAt)
	})
	return rows[0].GroupID, nil
}

func (m *memoryRepo) GroupHasCodename(ctx context.Context, groupID int64, codename string) (bool, error) {
	perm, ok := m.perms[codename]
	if !ok {
		return false, nil
	}
	_, held := m.grants[groupID][perm.ID]
	return held, nil
}

func (m *memoryRepo) Codenames(ctx context.Context) (map[string]struct{}, error) {
	known := make(map[string]struct{}, len(m.perms))
	for codename := range m.perms {
		known[codename] = struct{}{}
	}
	return known, nil
}

func (m *memoryRepo) ListGroups(ctx context.Context) ([]Group, error) {
	var out []Group
	for _, g := range m.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryRepo) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	g, ok := m.groups[name]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (m *memoryRepo) EnsureGroup(ctx context.Context, name string) (int64, error) {
	if g, ok := m.groups[name]; ok {
		return g.ID, nil
	}
	m.nextID++
	m.groups[name] = &Group{ID: m.nextID, Name: name, CreatedAt: time.Now()}
	m.grants[m.nextID] = make(map[int64]struct{})
	return m.nextID, nil
}

func (m *memoryRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	var out []Permission
	for _, p := range m.perms {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codename < out[j].Codename })
	return out, nil
}

func (m *memoryRepo) EnsurePermission(ctx context.Context, codename, label string) (int64, error) {
	if p, ok := m.perms[codename]; ok {
		return p.ID, nil
	}
	m.nextID++
	m.perms[codename] = &Permission{ID: m.nextID, Codename: codename, Label: label}
	return m.nextID, nil
}

func (m *memoryRepo) GroupPermissions(ctx context.Context, groupID int64) ([]Permission, error) {
	var out []Permission
	for _, p := range m.perms {
		if _, held := m.grants[groupID][p.ID]; held {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codename < out[j].Codename })
	return out, nil
}

func (m *memoryRepo) AttachPermission(ctx context.Context, groupID, permissionID int64) error {
	if m.grants[groupID] == nil {
		m.grants[groupID] = make(map[int64]struct{})
	}
	m.grants[groupID][permissionID] = struct{}{}
	return nil
}

func (m *memoryRepo) DetachPermission(ctx context.Context, groupID, permissionID int64) error {
	delete(m.grants[groupID], permissionID)
	return nil
}

func (m *memoryRepo) ReplaceUserGroup(ctx context.Context, userID, groupID int64) error {
	m.memberships[userID] = []UserGroup{{UserID: userID, GroupID: groupID, AssignedAt: time.Now()}}
	return nil
}

func (m *memoryRepo) RemoveUserGroup(ctx context.Context, userID, groupID int64) error {
	var kept []UserGroup
	for _, row := range m.memberships[userID] {
		if row.GroupID != groupID {
			kept = append(kept, row)
		}
	}
	m.memberships[userID] = kept
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func provisioned(t *testing.T) (*memoryRepo, *Service) {
	t.Helper()
	repo := newMemoryRepo()
	require.NoError(t, Provision(context.Background(), repo, discardLogger()))
	return repo, NewService(repo, discardLogger())
}

func TestProvisionSeedsFullCatalog(t *testing.T) {
	repo, svc := provisioned(t)

	known, err := svc.Codenames(context.Background())
	require.NoError(t, err)
	assert.Len(t, known, len(Resources)*len(authz.Actions))

	for _, resource := range Resources {
		for _, action := range authz.Actions {
			assert.Contains(t, known, authz.Codename(action, resource))
		}
	}

	groups, err := repo.ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 4)
}

func TestProvisionIsIdempotent(t *testing.T) {
	repo, _ := provisioned(t)
	before := len(repo.perms)

	require.NoError(t, Provision(context.Background(), repo, discardLogger()))
	assert.Equal(t, before, len(repo.perms))
	assert.Len(t, repo.groups, 4)
}

func TestProvisionPreservesOperatorGrants(t *testing.T) {
	repo, svc := provisioned(t)

	detail, err := svc.SetGroupPermissions(context.Background(), shared.RoleUser, []string{"view_orders", "delete_users"})
	require.NoError(t, err)
	require.Len(t, detail.Permissions, 2)

	require.NoError(t, Provision(context.Background(), repo, discardLogger()))

	// Reprovisioning restores defaults additively without dropping the
	// operator's extra grant.
	group, err := repo.GetGroupByName(context.Background(), shared.RoleUser)
	require.NoError(t, err)
	held, err := repo.GroupHasCodename(context.Background(), group.ID, "delete_users")
	require.NoError(t, err)
	assert.True(t, held)
}

func TestSuperAdminHoldsEverything(t *testing.T) {
	repo, _ := provisioned(t)

	group, err := repo.GetGroupByName(context.Background(), shared.RoleSuperAdmin)
	require.NoError(t, err)

	perms, err := repo.GroupPermissions(context.Background(), group.ID)
	require.NoError(t, err)
	assert.Len(t, perms, len(Resources)*len(authz.Actions))
}

func TestAdminCannotMutateGroupsOrPermissions(t *testing.T) {
	repo, _ := provisioned(t)

	group, err := repo.GetGroupByName(context.Background(), shared.RoleAdmin)
	require.NoError(t, err)

	for _, codename := range []string{"view_groups", "view_permissions"} {
		held, err := repo.GroupHasCodename(context.Background(), group.ID, codename)
		require.NoError(t, err)
		assert.True(t, held, codename)
	}
	for _, codename := range []string{"add_groups", "change_groups", "delete_groups", "change_permissions"} {
		held, err := repo.GroupHasCodename(context.Background(), group.ID, codename)
		require.NoError(t, err)
		assert.False(t, held, codename)
	}
}

func TestSetGroupPermissionsReplacesGrants(t *testing.T) {
	_, svc := provisioned(t)

	detail, err := svc.SetGroupPermissions(context.Background(), shared.RoleUser, []string{"view_orders"})
	require.NoError(t, err)
	require.Len(t, detail.Permissions, 1)
	assert.Equal(t, "view_orders", detail.Permissions[0].Codename)
}

func TestSetGroupPermissionsRejectsUnknownCodename(t *testing.T) {
	_, svc := provisioned(t)

	_, err := svc.SetGroupPermissions(context.Background(), shared.RoleUser, []string{"fly_orders"})
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrUnprocessable)
}

func TestAssignRoleKeepsSingleGroup(t *testing.T) {
	repo, svc := provisioned(t)

	require.NoError(t, svc.AssignRole(context.Background(), 7, shared.RoleUser))
	require.NoError(t, svc.AssignRole(context.Background(), 7, shared.RoleAdmin))

	require.Len(t, repo.memberships[7], 1)
	adminGroup, err := repo.GetGroupByName(context.Background(), shared.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, adminGroup.ID, repo.memberships[7][0].GroupID)
}

func TestAssignRoleUnknownGroup(t *testing.T) {
	_, svc := provisioned(t)

	err := svc.AssignRole(context.Background(), 7, "MODERATOR")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestGateAgainstProvisionedStore(t *testing.T) {
	_, svc := provisioned(t)
	require.NoError(t, svc.AssignRole(context.Background(), 11, shared.RoleUser))

	gate := authz.NewGate(svc)
	id := shared.Identity{UserID: 11, Role: shared.RoleUser, Authenticated: true}

	allowed, err := gate.Authorize(context.Background(), id, http.MethodGet, "orders")
	require.NoError(t, err)
	assert.True(t, allowed, "USER group may view orders")

	allowed, err = gate.Authorize(context.Background(), id, http.MethodDelete, "users")
	require.NoError(t, err)
	assert.False(t, allowed, "USER group may not delete users")
}

func TestRegistryValidatesAgainstProvisionedCatalog(t *testing.T) {
	_, svc := provisioned(t)

	registry := authz.NewRegistry()
	gate := authz.Middleware{Gate: authz.NewGate(svc), Registry: registry}
	for _, resource := range Resources {
		_ = gate.Require(resource)
	}

	assert.NoError(t, registry.Validate(context.Background(), svc))
}
