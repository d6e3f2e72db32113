// Package webauth issues and validates the short-lived JWTs handed out
// after a login code is verified.
package webauth

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/edupulse/quizbot/internal/rbac"
)

const sessionTTL = 8 * time.Hour

type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

type Claims struct {
	TgID int64  `json:"tg_id"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(tgID int64, name string) (string, error) {
	now := time.Now()
	claims := &Claims{
		TgID: tgID,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "quizbot-web",
			Subject:   strconv.FormatInt(tgID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// JWTMiddleware validates the bearer token and puts the caller's Telegram
// id into the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithTgID(r.Context(), claims.TgID)))
		})
	}
}

// AdminLookup reports whether a Telegram id is in the admins table.
type AdminLookup interface {
	IsAdmin(ctx context.Context, tgID int64) (bool, error)
}

// AttachRole resolves the caller's role from the admin list and the
// configured superadmin set. Superadmin wins; a lookup error degrades the
// caller to a plain user rather than failing the request.
func AttachRole(admins AdminLookup, isSuper func(tgID int64) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tgID, ok := rbac.TgIDFromContext(ctx)
			if !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			role := rbac.RoleUser
			if isSuper(tgID) {
				role = rbac.RoleSuperadmin
			} else if isAdmin, err := admins.IsAdmin(ctx, tgID); err == nil && isAdmin {
				role = rbac.RoleAdmin
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
		})
	}
}
