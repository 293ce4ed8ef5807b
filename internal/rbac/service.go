package rbac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Service exposes group and permission management and backs the
// authorization gate's lookups.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// FirstGroup implements authz.PermissionSource.
func (s *Service) FirstGroup(ctx context.Context, userID int64) (int64, error) {
	return s.repo.FirstGroup(ctx, userID)
}

// GroupHasCodename implements authz.PermissionSource.
func (s *Service) GroupHasCodename(ctx context.Context, groupID int64, codename string) (bool, error) {
	return s.repo.GroupHasCodename(ctx, groupID, codename)
}

// Codenames implements authz.CatalogSource.
func (s *Service) Codenames(ctx context.Context) (map[string]struct{}, error) {
	return s.repo.Codenames(ctx)
}

// ListGroups returns every group.
func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.repo.ListGroups(ctx)
}

// ListPermissions returns the permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// GroupDetail bundles a group with its granted permissions.
type GroupDetail struct {
	Group       Group        `json:"group"`
	Permissions []Permission `json:"permissions"`
}

// GetGroup returns a group and its grants by name.
func (s *Service) GetGroup(ctx context.Context, name string) (*GroupDetail, error) {
	group, err := s.repo.GetGroupByName(ctx, name)
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.GroupPermissions(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	return &GroupDetail{Group: *group, Permissions: perms}, nil
}

// SetGroupPermissions replaces a group's grants with the given
// codenames. Unknown codenames are rejected; the catalog is fixed.
func (s *Service) SetGroupPermissions(ctx context.Context, name string, codenames []string) (*GroupDetail, error) {
	group, err := s.repo.GetGroupByName(ctx, name)
	if err != nil {
		return nil, err
	}

	catalog, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	byCodename := make(map[string]Permission, len(catalog))
	for _, p := range catalog {
		byCodename[p.Codename] = p
	}

	wanted := make(map[string]struct{}, len(codenames))
	for _, codename := range codenames {
		if _, ok := byCodename[codename]; !ok {
			return nil, fmt.Errorf("unknown permission codename %q: %w", codename, httpx.ErrUnprocessable)
		}
		wanted[codename] = struct{}{}
	}

	current, err := s.repo.GroupPermissions(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	held := make(map[string]Permission, len(current))
	for _, p := range current {
		held[p.Codename] = p
	}

	for codename := range wanted {
		if _, ok := held[codename]; ok {
			continue
		}
		if err := s.repo.AttachPermission(ctx, group.ID, byCodename[codename].ID); err != nil {
			return nil, err
		}
	}
	for codename, p := range held {
		if _, ok := wanted[codename]; ok {
			continue
		}
		if err := s.repo.DetachPermission(ctx, group.ID, p.ID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("group permissions replaced",
		slog.String("group", name),
		slog.Int("count", len(wanted)))
	return s.GetGroup(ctx, name)
}

// AssignRole moves a user into the group named after the role,
// replacing any existing assignment.
func (s *Service) AssignRole(ctx context.Context, userID int64, role string) error {
	group, err := s.repo.GetGroupByName(ctx, role)
	if err != nil {
		return fmt.Errorf("assign role %s: %w", role, err)
	}
	if err := s.repo.ReplaceUserGroup(ctx, userID, group.ID); err != nil {
		return err
	}
	s.logger.Info("user group assigned",
		slog.Int64("user_id", userID),
		slog.String("group", role))
	return nil
}

// RemoveFromGroup takes a user out of the named group. The user loses
// every capability until reassigned.
func (s *Service) RemoveFromGroup(ctx context.Context, userID int64, name string) error {
	group, err := s.repo.GetGroupByName(ctx, name)
	if err != nil {
		return err
	}
	return s.repo.RemoveUserGroup(ctx, userID, group.ID)
}
