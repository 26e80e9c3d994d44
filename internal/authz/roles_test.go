package authz

import (
	"context"
	"testing"
)

func TestStaticRoleCheckerGrants(t *testing.T) {
	checker := NewStaticRoleChecker([]string{
		"ana:proj-1:manager",
		"bruno:proj-1:viewer",
		"carla:*:editor",
		"broken grant",
		"dani:proj-2:root",
	})

	cases := []struct {
		name    string
		user    string
		project string
		minRole Role
		want    bool
	}{
		{"manager passes manager gate", "ana", "proj-1", RoleManager, true},
		{"manager passes viewer gate", "ana", "proj-1", RoleViewer, true},
		{"viewer fails manager gate", "bruno", "proj-1", RoleManager, false},
		{"viewer passes viewer gate", "bruno", "proj-1", RoleViewer, true},
		{"wildcard editor on any project", "carla", "proj-9", RoleEditor, true},
		{"wildcard editor fails manager gate", "carla", "proj-9", RoleManager, false},
		{"unknown user denied", "eva", "proj-1", RoleViewer, false},
		{"grant on other project denied", "ana", "proj-2", RoleViewer, false},
		{"malformed grant ignored", "broken grant", "proj-1", RoleViewer, false},
		{"unknown role ignored", "dani", "proj-2", RoleViewer, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := checker.HasRole(context.Background(), tc.user, tc.project, tc.minRole)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("HasRole(%s, %s, %s) = %v, want %v", tc.user, tc.project, tc.minRole, got, tc.want)
			}
		})
	}
}

func TestStaticRoleCheckerOpenWhenUnconfigured(t *testing.T) {
	checker := NewStaticRoleChecker(nil)

	allowed, err := checker.HasRole(context.Background(), "", "proj-1", RoleManager)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected open checker to allow anonymous manager access")
	}

	onlyBroken := NewStaticRoleChecker([]string{"not-a-grant"})
	allowed, err = onlyBroken.HasRole(context.Background(), "ana", "proj-1", RoleViewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected checker with no valid grants to stay open")
	}
}
