package rbac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Resources is the canonical list of gated resource names. Every route
// group mounted behind the gate must appear here so its codenames exist
// in the catalog before startup validation runs.
var Resources = []string{
	"users",
	"groups",
	"permissions",
	"categories",
	"providers",
	"locations",
	"profilerequests",
	"products",
	"productrates",
	"services",
	"servicerates",
	"cart",
	"orders",
	"rejectedorders",
	"deliveries",
	"appointments",
	"rejectedappointments",
	"notifications",
	"contactus",
}

// defaultGrants maps each role group to the codenames it starts with.
// SUPER_ADMIN is omitted; it receives the full catalog.
var defaultGrants = map[string][]string{
	shared.RoleUser: {
		"view_categories",
		"view_providers",
		"view_locations",
		"view_products",
		"view_productrates", "add_productrates", "change_productrates",
		"view_services",
		"view_servicerates", "add_servicerates", "change_servicerates",
		"view_cart", "add_cart", "change_cart", "delete_cart",
		"view_orders", "add_orders",
		"view_rejectedorders", "change_rejectedorders",
		"view_deliveries",
		"view_appointments", "add_appointments", "delete_appointments",
		"view_rejectedappointments", "change_rejectedappointments",
		"view_notifications", "change_notifications",
		"add_contactus",
	},
	shared.RoleServiceProvider: {
		"view_categories",
		"view_providers", "add_providers",
		"view_locations", "add_locations", "change_locations", "delete_locations",
		"add_profilerequests", "view_profilerequests",
		"view_products", "add_products", "change_products", "delete_products",
		"view_productrates",
		"view_services", "add_services", "change_services", "delete_services",
		"view_servicerates",
		"view_orders", "change_orders",
		"add_rejectedorders", "view_rejectedorders",
		"view_deliveries", "add_deliveries", "change_deliveries",
		"view_appointments", "change_appointments",
		"add_rejectedappointments", "view_rejectedappointments",
		"view_notifications", "change_notifications", "add_notifications",
	},
}

// adminReadOnly lists resources admins may inspect but not mutate.
// Everything else they hold in full.
var adminReadOnly = map[string]struct{}{
	"groups":      {},
	"permissions": {},
}

// Provision seeds the permission catalog and the four role groups, then
// grants each group its defaults. It is idempotent and safe to run on
// every startup; grants added by operators afterwards are preserved.
func Provision(ctx context.Context, repo RepositoryPort, logger *slog.Logger) error {
	permIDs := make(map[string]int64, len(Resources)*len(authz.Actions))
	for _, resource := range Resources {
		for _, action := range authz.Actions {
			codename := authz.Codename(action, resource)
			label := fmt.Sprintf("Can %s %s", action, resource)
			id, err := repo.EnsurePermission(ctx, codename, label)
			if err != nil {
				return fmt.Errorf("ensure permission %s: %w", codename, err)
			}
			permIDs[codename] = id
		}
	}

	roles := []string{shared.RoleUser, shared.RoleAdmin, shared.RoleServiceProvider, shared.RoleSuperAdmin}
	for _, role := range roles {
		groupID, err := repo.EnsureGroup(ctx, role)
		if err != nil {
			return fmt.Errorf("ensure group %s: %w", role, err)
		}
		for _, codename := range grantsFor(role) {
			if err := repo.AttachPermission(ctx, groupID, permIDs[codename]); err != nil {
				return fmt.Errorf("grant %s to %s: %w", codename, role, err)
			}
		}
	}

	logger.Info("rbac provisioned",
		slog.Int("permissions", len(permIDs)),
		slog.Int("groups", len(roles)))
	return nil
}

func grantsFor(role string) []string {
	switch role {
	case shared.RoleSuperAdmin:
		return allCodenames()
	case shared.RoleAdmin:
		var grants []string
		for _, resource := range Resources {
			if _, readOnly := adminReadOnly[resource]; readOnly {
				grants = append(grants, authz.Codename(authz.ActionView, resource))
				continue
			}
			for _, action := range authz.Actions {
				grants = append(grants, authz.Codename(action, resource))
			}
		}
		return grants
	default:
		return defaultGrants[role]
	}
}

func allCodenames() []string {
	grants := make([]string, 0, len(Resources)*len(authz.Actions))
	for _, resource := range Resources {
		for _, action := range authz.Actions {
			grants = append(grants, authz.Codename(action, resource))
		}
	}
	return grants
}
