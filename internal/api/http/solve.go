package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/quiz"
	"github.com/edupulse/quizbot/internal/rbac"
	"github.com/edupulse/quizbot/internal/solveflow"
	"github.com/edupulse/quizbot/internal/stats"
)

// optionView hides correctness from solving clients.
type optionView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type questionView struct {
	ID       int64         `json:"id"`
	Text     string        `json:"text"`
	ImageRef string        `json:"image_ref,omitempty"`
	QType    content.QType `json:"qtype"`
	Options  []optionView  `json:"options"`
}

// SolveDeps bundles what the solving endpoints share.
type SolveDeps struct {
	Store    content.Store
	Sessions *solveflow.Sessions
	Picker   *quiz.Picker
	Recorder *stats.Recorder
}

// POST /solve/start  { "subject_id": ..., "topic_id": ..., "subtopic_ids": [...] }
// Replaces any previous session and returns the first question.
func StartSolveHandler(d SolveDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tgID, ok := rbac.TgIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			SubjectID   int64   `json:"subject_id"`
			TopicID     int64   `json:"topic_id"`
			SubtopicIDs []int64 `json:"subtopic_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.SubjectID == 0 || req.TopicID == 0 {
			http.Error(w, "subject_id and topic_id required", 400)
			return
		}
		subtopics, err := d.Store.ListSubtopics(r.Context(), req.TopicID)
		if err != nil {
			http.Error(w, "lookup failed", 500)
			return
		}

		sess := d.Sessions.Start(tgID)
		if err := sess.PickSubject(req.SubjectID); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		started, err := sess.PickTopic(req.TopicID, subtopics)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		if !started {
			if len(req.SubtopicIDs) == 0 {
				err = sess.ChooseAll()
			} else {
				if err = sess.ChoosePick(); err == nil {
					for _, id := range req.SubtopicIDs {
						if err = sess.ToggleSubtopic(id); err != nil {
							break
						}
					}
				}
				if err == nil {
					err = sess.StartWithSelected()
				}
			}
			if err != nil {
				http.Error(w, err.Error(), 400)
				return
			}
		}
		serveNextQuestion(w, r, d, tgID, sess)
	}
}

// GET /solve/question returns the pending question, picking a new one when
// the previous answer has been graded.
func CurrentQuestionHandler(d SolveDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tgID, ok := rbac.TgIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		sess := d.Sessions.Get(tgID)
		if sess == nil || sess.Phase != solveflow.PhaseSolving {
			http.Error(w, "no active session", 404)
			return
		}
		if sess.CurrentQID != 0 {
			writeQuestion(w, r.Context(), d.Store, sess.CurrentQID)
			return
		}
		serveNextQuestion(w, r, d, tgID, sess)
	}
}

// POST /solve/answer  { "question_id": ..., "option_ids": [...] }
func AnswerHandler(d SolveDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tgID, ok := rbac.TgIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			QuestionID int64   `json:"question_id"`
			OptionIDs  []int64 `json:"option_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		sess := d.Sessions.Get(tgID)
		if sess == nil {
			http.Error(w, "no active session", 404)
			return
		}
		if err := sess.GuardAnswer(req.QuestionID); err != nil {
			if errors.Is(err, solveflow.ErrStale) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), 400)
			return
		}
		if len(req.OptionIDs) == 0 {
			http.Error(w, solveflow.ErrNoPending.Error(), 400)
			return
		}
		user, err := d.Store.UserByTgID(r.Context(), tgID)
		if err != nil {
			http.Error(w, "user not found", 404)
			return
		}
		correct, err := d.Recorder.Record(r.Context(), user.ID, req.QuestionID, req.OptionIDs)
		if err != nil {
			http.Error(w, "grading failed", 500)
			return
		}
		question, err := d.Store.GetQuestion(r.Context(), req.QuestionID)
		if err != nil {
			http.Error(w, "lookup failed", 500)
			return
		}
		sess.FinishQuestion(correct)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"correct":     correct,
			"explanation": question.Explanation,
			"solved":      sess.Solved,
			"score":       sess.Correct,
		})
	}
}

// POST /solve/stop returns the session summary and discards the session.
func StopSolveHandler(d SolveDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tgID, ok := rbac.TgIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		sess := d.Sessions.Get(tgID)
		if sess == nil {
			http.Error(w, "no active session", 404)
			return
		}
		summary := map[string]any{
			"solved":   sess.Solved,
			"correct":  sess.Correct,
			"accuracy": stats.Accuracy(sess.Correct, sess.Solved),
		}
		d.Sessions.Clear(tgID)
		_ = json.NewEncoder(w).Encode(summary)
	}
}

func serveNextQuestion(w http.ResponseWriter, r *http.Request, d SolveDeps, tgID int64, sess *solveflow.Session) {
	user, err := d.Store.UserByTgID(r.Context(), tgID)
	if err != nil {
		http.Error(w, "user not found", 404)
		return
	}
	qid, err := d.Picker.Pick(r.Context(), user.ID, sess.SubjectID, sess.TopicID, sess.SubtopicIDs)
	if errors.Is(err, quiz.ErrExhausted) {
		http.Error(w, "no new questions in this selection", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "selection failed", 500)
		return
	}
	if err := sess.BeginQuestion(qid); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	writeQuestion(w, r.Context(), d.Store, qid)
}

func writeQuestion(w http.ResponseWriter, ctx context.Context, store content.Store, qid int64) {
	question, err := store.GetQuestion(ctx, qid)
	if err != nil {
		http.Error(w, "lookup failed", 500)
		return
	}
	opts, err := store.ListOptions(ctx, qid)
	if err != nil {
		http.Error(w, "lookup failed", 500)
		return
	}
	view := questionView{
		ID:       question.ID,
		Text:     question.Text,
		ImageRef: question.ImageRef,
		QType:    question.QType,
	}
	for _, o := range opts {
		view.Options = append(view.Options, optionView{ID: o.ID, Text: o.Text})
	}
	_ = json.NewEncoder(w).Encode(view)
}
