package rbac

import (
	"context"
	"testing"
)

func TestRolePermissions(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role string
		perm string
		want bool
	}{
		{RoleUser, "solve:start", true},
		{RoleUser, "stats:view-own", true},
		{RoleUser, "content:create", false},
		{RoleUser, "broadcast:send", false},
		{RoleAdmin, "content:import", true},
		{RoleAdmin, "questions:manage", true},
		{RoleAdmin, "admins:manage", false},
		{RoleAdmin, "broadcast:send", false},
		{RoleSuperadmin, "broadcast:send", true},
		{RoleSuperadmin, "admins:manage", true},
		{"", "solve:start", false},
		{"ghost", "solve:start", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestMatchPermWildcard(t *testing.T) {
	if !matchPerm("solve:*", "solve:answer") {
		t.Error("prefix wildcard should match")
	}
	if matchPerm("solve:*", "stats:view-own") {
		t.Error("wildcard must not match a different prefix")
	}
	if !matchPerm("*", "anything") {
		t.Error("bare star matches everything")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := WithRole(context.Background(), RoleAdmin)
	if RoleFromContext(ctx) != RoleAdmin {
		t.Error("role round trip failed")
	}
	if RoleFromContext(context.Background()) != "" {
		t.Error("missing role should be empty")
	}

	ctx = WithTgID(context.Background(), 42)
	id, ok := TgIDFromContext(ctx)
	if !ok || id != 42 {
		t.Errorf("tg id round trip = %d, %v", id, ok)
	}
	if _, ok := TgIDFromContext(context.Background()); ok {
		t.Error("missing tg id should report absent")
	}
}
