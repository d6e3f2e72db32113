package webauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edupulse/quizbot/internal/rbac"
)

type fakeAdmins struct{ admins map[int64]bool }

func (f fakeAdmins) IsAdmin(_ context.Context, tgID int64) (bool, error) {
	return f.admins[tgID], nil
}

func TestJWTRoundTrip(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT(42, "Ada")
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	claims, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.TgID != 42 || claims.Name != "Ada" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewAuthService("secret-a").IssueJWT(42, "Ada")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuthService("secret-b").Parse(tok); err == nil {
		t.Fatal("token signed with another secret should be rejected")
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	var gotID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = rbac.TgIDFromContext(r.Context())
	})
	h := JWTMiddleware(a)(next)

	// No token.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing bearer: status %d", rec.Code)
	}

	// Valid token.
	tok, err := a.IssueJWT(42, "Ada")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid bearer: status %d", rec.Code)
	}
	if gotID != 42 {
		t.Errorf("tg id in context = %d, want 42", gotID)
	}
}

func TestAttachRole(t *testing.T) {
	admins := fakeAdmins{admins: map[int64]bool{2: true}}
	isSuper := func(id int64) bool { return id == 3 }

	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = rbac.RoleFromContext(r.Context())
	})
	h := AttachRole(admins, isSuper)(next)

	cases := []struct {
		tgID int64
		want string
	}{
		{1, rbac.RoleUser},
		{2, rbac.RoleAdmin},
		{3, rbac.RoleSuperadmin},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(rbac.WithTgID(req.Context(), tc.tgID))
		h.ServeHTTP(httptest.NewRecorder(), req)
		if gotRole != tc.want {
			t.Errorf("tg %d: role = %q, want %q", tc.tgID, gotRole, tc.want)
		}
	}

	// No identity in context at all.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("missing identity: status %d", rec.Code)
	}
}
