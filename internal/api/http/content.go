package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edupulse/quizbot/internal/content"
)

// GET /subjects
func ListSubjectsHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := store.ListSubjects(r.Context())
		if err != nil {
			http.Error(w, "list failed", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(subs)
	}
}

// POST /subjects  { "code": "...", "name": "..." }
func CreateSubjectHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		req.Code = strings.ToLower(strings.TrimSpace(req.Code))
		req.Name = strings.TrimSpace(req.Name)
		if req.Code == "" || req.Name == "" {
			http.Error(w, "code and name required", 400)
			return
		}
		if _, err := store.SubjectByCode(r.Context(), req.Code); err == nil {
			http.Error(w, "subject code already exists", http.StatusConflict)
			return
		}
		id, err := store.CreateSubject(r.Context(), req.Code, req.Name)
		if err != nil {
			http.Error(w, "create failed", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int64{"id": id})
	}
}

// GET /subjects/{subjectID}/topics
func ListTopicsHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, err := strconv.ParseInt(chi.URLParam(r, "subjectID"), 10, 64)
		if err != nil {
			http.Error(w, "bad subject id", 400)
			return
		}
		topics, err := store.ListTopics(r.Context(), subjectID)
		if err != nil {
			http.Error(w, "list failed", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(topics)
	}
}

// POST /topics  { "subject_id": ..., "name": "..." }
// Get-or-create: posting an existing name returns its id.
func CreateTopicHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SubjectID int64  `json:"subject_id"`
			Name      string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.SubjectID == 0 || req.Name == "" {
			http.Error(w, "subject_id and name required", 400)
			return
		}
		id, err := store.GetOrCreateTopic(r.Context(), req.SubjectID, req.Name)
		if err != nil {
			http.Error(w, "create failed", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int64{"id": id})
	}
}

// GET /topics/{topicID}/subtopics
func ListSubtopicsHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID, err := strconv.ParseInt(chi.URLParam(r, "topicID"), 10, 64)
		if err != nil {
			http.Error(w, "bad topic id", 400)
			return
		}
		subs, err := store.ListSubtopics(r.Context(), topicID)
		if err != nil {
			http.Error(w, "list failed", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(subs)
	}
}

// GET /questions?subject_id=&topic_id=&page=&per_page=
func ListQuestionsHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		subjectID := optionalID(q.Get("subject_id"))
		topicID := optionalID(q.Get("topic_id"))

		page, _ := strconv.Atoi(q.Get("page"))
		if page < 1 {
			page = 1
		}
		perPage, _ := strconv.Atoi(q.Get("per_page"))
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		total, err := store.CountQuestions(r.Context(), subjectID, topicID)
		if err != nil {
			http.Error(w, "count failed", 500)
			return
		}
		items, err := store.ListQuestionsPage(r.Context(), (page-1)*perPage, perPage, subjectID, topicID)
		if err != nil {
			http.Error(w, "list failed", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total":    total,
			"page":     page,
			"per_page": perPage,
			"items":    items,
		})
	}
}

// GET /questions/{questionID} returns the full question including which
// options are correct; this route is admin-only.
func GetQuestionHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			http.Error(w, "bad question id", 400)
			return
		}
		question, err := store.GetQuestion(r.Context(), id)
		if errors.Is(err, content.ErrNotFound) {
			http.Error(w, "question not found", 404)
			return
		}
		if err != nil {
			http.Error(w, "lookup failed", 500)
			return
		}
		opts, err := store.ListOptions(r.Context(), id)
		if err != nil {
			http.Error(w, "lookup failed", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"question": question,
			"options":  opts,
		})
	}
}

// DELETE /questions/{questionID}
// Past attempts referencing the question stay in the log.
func DeleteQuestionHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			http.Error(w, "bad question id", 400)
			return
		}
		deleted, err := store.DeleteQuestion(r.Context(), id)
		if err != nil {
			http.Error(w, "delete failed", 500)
			return
		}
		if !deleted {
			http.Error(w, "question not found", 404)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func optionalID(s string) *int64 {
	if s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
