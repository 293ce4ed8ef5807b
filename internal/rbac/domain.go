package rbac

import "time"

// Group is a named bucket of permissions. One exists per role tag,
// created at provisioning time.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Permission is one granular capability, identified by its codename
// ("{action}_{resource}"). The catalog is effectively immutable after
// provisioning.
type Permission struct {
	ID       int64  `json:"id"`
	Codename string `json:"codename"`
	Label    string `json:"label"`
}

// UserGroup links a user to a group. Provisioning assigns exactly one
// group per user; assigned_at orders legacy multi-row data.
type UserGroup struct {
	UserID     int64     `json:"user_id"`
	GroupID    int64     `json:"group_id"`
	AssignedAt time.Time `json:"assigned_at"`
}
