// Package authz answers yes/no capability questions already granted by
// the surrounding application. The pipeline never decides policy; it only
// checks the gate before orchestration runs.
package authz

import (
	"context"
	"strings"
)

type Role string

const (
	RoleViewer  Role = "viewer"
	RoleEditor  Role = "editor"
	RoleManager Role = "manager"
)

var roleRank = map[Role]int{
	RoleViewer:  1,
	RoleEditor:  2,
	RoleManager: 3,
}

// RoleChecker reports whether a user holds at least minRole on a project.
type RoleChecker interface {
	HasRole(ctx context.Context, userID, projectID string, minRole Role) (bool, error)
}

// StaticRoleChecker resolves roles from configured grants of the form
// "user:project:role"; "*" as project grants the role everywhere. An empty
// grant list allows everything, which keeps local runs unauthenticated.
type StaticRoleChecker struct {
	grants map[string]Role
	open   bool
}

func NewStaticRoleChecker(grants []string) *StaticRoleChecker {
	parsed := make(map[string]Role)
	for _, grant := range grants {
		parts := strings.Split(strings.TrimSpace(grant), ":")
		if len(parts) != 3 {
			continue
		}
		user := strings.TrimSpace(parts[0])
		project := strings.TrimSpace(parts[1])
		role := Role(strings.TrimSpace(parts[2]))
		if user == "" || project == "" || roleRank[role] == 0 {
			continue
		}
		parsed[user+":"+project] = role
	}
	return &StaticRoleChecker{grants: parsed, open: len(parsed) == 0}
}

func (c *StaticRoleChecker) HasRole(_ context.Context, userID, projectID string, minRole Role) (bool, error) {
	if c.open {
		return true, nil
	}

	role, ok := c.grants[userID+":"+projectID]
	if !ok {
		role, ok = c.grants[userID+":*"]
	}
	if !ok {
		return false, nil
	}
	return roleRank[role] >= roleRank[minRole], nil
}
