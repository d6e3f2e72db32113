package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/edupulse/quizbot/internal/charts"
	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/rbac"
	"github.com/edupulse/quizbot/internal/stats"
)

const (
	defaultStatDays   = 7
	topTopicsLimit    = 10
	recentAttemptsMax = 10
)

// GET /stats?days=7
func StatsHandler(store content.Store, rec *stats.Recorder) http.HandlerFunc {
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
		days, _ := strconv.Atoi(r.URL.Query().Get("days"))
		if days < 1 || days > 90 {
			days = defaultStatDays
		}

		total, correct, err := rec.Totals(r.Context(), user.ID)
		if err != nil {
			http.Error(w, "stats failed", 500)
			return
		}
		byTopic, err := rec.SolvedByTopic(r.Context(), user.ID, topTopicsLimit)
		if err != nil {
			http.Error(w, "stats failed", 500)
			return
		}
		daily, err := rec.AccuracyByDay(r.Context(), user.ID, days)
		if err != nil {
			http.Error(w, "stats failed", 500)
			return
		}
		recent, err := rec.Recent(r.Context(), user.ID, recentAttemptsMax)
		if err != nil {
			http.Error(w, "stats failed", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total":    total,
			"correct":  correct,
			"accuracy": stats.Accuracy(correct, total),
			"by_topic": byTopic,
			"daily":    daily,
			"streak":   stats.Streak(daily),
			"recent":   recent,
		})
	}
}

// GET /stats/topics.png
func TopicsChartHandler(store content.Store, rec *stats.Recorder) http.HandlerFunc {
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
		byTopic, err := rec.SolvedByTopic(r.Context(), user.ID, topTopicsLimit)
		if err != nil {
			http.Error(w, "stats failed", 500)
			return
		}
		png, err := charts.TopicsPNG(byTopic)
		if errors.Is(err, charts.ErrNoData) {
			http.Error(w, "no attempts yet", 404)
			return
		}
		if err != nil {
			http.Error(w, "render failed", 500)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}
