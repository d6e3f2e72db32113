// Package http contains the gateway's HTTP handlers. Handlers are plain
// closures over their dependencies; route wiring and auth middleware live
// in cmd/gateway.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/logincode"
	"github.com/edupulse/quizbot/internal/rbac"
	"github.com/edupulse/quizbot/internal/transport"
	"github.com/edupulse/quizbot/internal/webauth"
)

// POST /auth/request-code  { "login": "<tg id or @username>" }
// The code travels over the chat channel, never over HTTP.
func RequestCodeHandler(store content.Store, codes *logincode.Service, sender transport.Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Login string `json:"login"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		login := strings.TrimSpace(req.Login)
		if login == "" {
			http.Error(w, "login required", 400)
			return
		}

		var (
			user content.User
			err  error
		)
		if tgID, convErr := strconv.ParseInt(login, 10, 64); convErr == nil {
			user, err = store.UserByTgID(r.Context(), tgID)
		} else {
			user, err = store.UserByUsername(r.Context(), content.NormalizeUsername(login))
		}
		if errors.Is(err, content.ErrNotFound) {
			http.Error(w, "user not found, open the bot first", 404)
			return
		}
		if err != nil {
			http.Error(w, "lookup failed", 500)
			return
		}

		code, err := codes.Issue(r.Context(), user.TgID)
		if err != nil {
			http.Error(w, "could not issue code", 500)
			return
		}
		msg := "Your login code: " + code + "\nIt expires in 10 minutes."
		if err := sender.Send(r.Context(), user.TgID, msg); err != nil {
			http.Error(w, "could not deliver code", 502)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
	}
}

// POST /auth/verify-code  { "tg_id": ..., "code": "123456" }
func VerifyCodeHandler(codes *logincode.Service, auth *webauth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TgID int64  `json:"tg_id"`
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		user, err := codes.Verify(r.Context(), req.TgID, req.Code)
		if errors.Is(err, logincode.ErrInvalidCode) {
			http.Error(w, "invalid or expired code", http.StatusUnauthorized)
			return
		}
		if err != nil {
			http.Error(w, "verification failed", 500)
			return
		}
		tok, err := auth.IssueJWT(user.TgID, user.FullName)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok})
	}
}

// GET /me
func MeHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tgID, ok := rbac.TgIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		user, err := store.UserByTgID(r.Context(), tgID)
		if err != nil {
			http.Error(w, "user not found", 404)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": user,
			"role": rbac.RoleFromContext(r.Context()),
		})
	}
}
