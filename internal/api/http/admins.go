package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/rbac"
)

// GET /admins
func ListAdminsHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := store.ListAdmins(r.Context())
		if err != nil {
			http.Error(w, "list failed", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tg_ids": ids})
	}
}

// POST /admins  { "tg_id": ... }
func AddAdminHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := rbac.TgIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			TgID int64 `json:"tg_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TgID == 0 {
			http.Error(w, "tg_id required", 400)
			return
		}
		added, err := store.AddAdmin(r.Context(), req.TgID, &callerID)
		if err != nil {
			http.Error(w, "add failed", 500)
			return
		}
		if !added {
			http.Error(w, "already an admin", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// DELETE /admins/{tgID}
func RemoveAdminHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tgID, err := strconv.ParseInt(chi.URLParam(r, "tgID"), 10, 64)
		if err != nil {
			http.Error(w, "bad tg id", 400)
			return
		}
		removed, err := store.RemoveAdmin(r.Context(), tgID)
		if err != nil {
			http.Error(w, "remove failed", 500)
			return
		}
		if !removed {
			http.Error(w, "not an admin", 404)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
