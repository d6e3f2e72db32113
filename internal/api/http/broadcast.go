package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/edupulse/quizbot/internal/broadcast"
	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/rbac"
)

const (
	broadcastMinLen = 3
	broadcastMaxLen = 3500
)

// POST /broadcast  { "text": "..." }
// The sender never receives their own broadcast.
func BroadcastHandler(store content.Store, disp *broadcast.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tgID, ok := rbac.TgIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		text := strings.TrimSpace(req.Text)
		if n := len([]rune(text)); n < broadcastMinLen || n > broadcastMaxLen {
			http.Error(w, "text must be 3 to 3500 characters", 400)
			return
		}
		recipients, err := store.ListUserTgIDs(r.Context())
		if err != nil {
			http.Error(w, "recipient lookup failed", 500)
			return
		}
		rep := disp.Broadcast(r.Context(), tgID, text, recipients)
		_ = json.NewEncoder(w).Encode(rep)
	}
}
