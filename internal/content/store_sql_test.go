package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/edupulse/quizbot/internal/db"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return NewSQLStore(dbh)
}

func seedTopic(t *testing.T, s *SQLStore) (subjectID, topicID int64) {
	t.Helper()
	ctx := context.Background()
	subjectID, err := s.CreateSubject(ctx, "biology", "Biology")
	if err != nil {
		t.Fatalf("seed subject: %v", err)
	}
	topicID, err = s.CreateTopic(ctx, subjectID, "Cells")
	if err != nil {
		t.Fatalf("seed topic: %v", err)
	}
	return subjectID, topicID
}

func seedQuestion(t *testing.T, s *SQLStore, subjectID, topicID int64) int64 {
	t.Helper()
	id, err := s.CreateQuestion(context.Background(), NewQuestion{
		SubjectID:   subjectID,
		TopicID:     topicID,
		Text:        "What contains DNA?",
		QType:       QTypeSingle,
		Explanation: "The nucleus stores the genome.",
		Options: []NewOption{
			{Text: "nucleus", IsCorrect: true},
			{Text: "ribosome"},
			{Text: "membrane"},
		},
	})
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return id
}

func TestCreateQuestionWithOptions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subjectID, topicID := seedTopic(t, s)
	qid := seedQuestion(t, s, subjectID, topicID)

	q, err := s.GetQuestion(ctx, qid)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Text != "What contains DNA?" || q.QType != QTypeSingle || q.SubtopicID != nil {
		t.Errorf("question = %+v", q)
	}
	opts, err := s.ListOptions(ctx, qid)
	if err != nil {
		t.Fatalf("ListOptions: %v", err)
	}
	if len(opts) != 3 {
		t.Fatalf("want 3 options, got %d", len(opts))
	}
	correct, err := s.CorrectOptionIDs(ctx, qid)
	if err != nil {
		t.Fatalf("CorrectOptionIDs: %v", err)
	}
	if len(correct) != 1 {
		t.Errorf("want 1 correct option, got %d", len(correct))
	}
	if _, ok := correct[opts[0].ID]; !ok {
		t.Error("first option should be the correct one")
	}
}

func TestCreateQuestionRejectsBadType(t *testing.T) {
	s := newTestStore(t)
	subjectID, topicID := seedTopic(t, s)
	_, err := s.CreateQuestion(context.Background(), NewQuestion{
		SubjectID: subjectID, TopicID: topicID, Text: "x", QType: "essay",
	})
	if err == nil {
		t.Fatal("invalid qtype should be rejected")
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subjectID, topicID := seedTopic(t, s)

	again, err := s.GetOrCreateTopic(ctx, subjectID, "Cells")
	if err != nil {
		t.Fatalf("GetOrCreateTopic: %v", err)
	}
	if again != topicID {
		t.Errorf("existing topic recreated: %d != %d", again, topicID)
	}

	st1, err := s.GetOrCreateSubtopic(ctx, topicID, "Organelles")
	if err != nil {
		t.Fatalf("GetOrCreateSubtopic: %v", err)
	}
	st2, err := s.GetOrCreateSubtopic(ctx, topicID, "Organelles")
	if err != nil {
		t.Fatalf("GetOrCreateSubtopic: %v", err)
	}
	if st1 != st2 {
		t.Errorf("existing subtopic recreated: %d != %d", st1, st2)
	}
}

func TestUserUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.GetOrCreateUser(ctx, 42, "Ada", "", "@AdaL")
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	if u.Username != "adal" {
		t.Errorf("username = %q, want normalized adal", u.Username)
	}
	if u.GradeGroup != "8-" {
		t.Errorf("grade group default = %q", u.GradeGroup)
	}

	// Second contact with a new display name updates in place.
	u2, err := s.GetOrCreateUser(ctx, 42, "Ada Lovelace", "", "")
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	if u2.ID != u.ID {
		t.Fatalf("user duplicated: %d != %d", u2.ID, u.ID)
	}
	if u2.FullName != "Ada Lovelace" || u2.Username != "adal" {
		t.Errorf("updated user = %+v", u2)
	}

	byName, err := s.UserByUsername(ctx, "@ADAL")
	if err != nil {
		t.Fatalf("UserByUsername: %v", err)
	}
	if byName.TgID != 42 {
		t.Errorf("lookup by username = %+v", byName)
	}
}

func TestAdminAddRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added, err := s.AddAdmin(ctx, 7, nil)
	if err != nil || !added {
		t.Fatalf("AddAdmin = %v, %v", added, err)
	}
	added, err = s.AddAdmin(ctx, 7, nil)
	if err != nil || added {
		t.Fatalf("duplicate AddAdmin = %v, %v", added, err)
	}
	ok, err := s.IsAdmin(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("IsAdmin = %v, %v", ok, err)
	}
	removed, err := s.RemoveAdmin(ctx, 7)
	if err != nil || !removed {
		t.Fatalf("RemoveAdmin = %v, %v", removed, err)
	}
	removed, err = s.RemoveAdmin(ctx, 7)
	if err != nil || removed {
		t.Fatalf("second RemoveAdmin = %v, %v", removed, err)
	}
}

func TestDeleteQuestionKeepsAttempts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subjectID, topicID := seedTopic(t, s)
	qid := seedQuestion(t, s, subjectID, topicID)

	u, err := s.GetOrCreateUser(ctx, 1, "Solver", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddAttempt(ctx, u.ID, qid, true, []int64{1}); err != nil {
		t.Fatalf("AddAttempt: %v", err)
	}

	deleted, err := s.DeleteQuestion(ctx, qid)
	if err != nil || !deleted {
		t.Fatalf("DeleteQuestion = %v, %v", deleted, err)
	}
	if _, err := s.GetQuestion(ctx, qid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	if opts, _ := s.ListOptions(ctx, qid); len(opts) != 0 {
		t.Error("options should be deleted with the question")
	}

	// Raw totals keep the orphaned attempt; topic aggregation joins through
	// questions and drops it.
	total, correct, err := s.Totals(ctx, u.ID)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if total != 1 || correct != 1 {
		t.Errorf("totals = %d/%d, want 1/1", total, correct)
	}
	byTopic, err := s.SolvedByTopic(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("SolvedByTopic: %v", err)
	}
	if len(byTopic) != 0 {
		t.Errorf("orphaned attempt should not appear per topic: %v", byTopic)
	}
}

func TestRecentQuestionIDsWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subjectID, topicID := seedTopic(t, s)

	u, err := s.GetOrCreateUser(ctx, 1, "Solver", "", "")
	if err != nil {
		t.Fatal(err)
	}
	var qids []int64
	for i := 0; i < 3; i++ {
		qid := seedQuestion(t, s, subjectID, topicID)
		qids = append(qids, qid)
		if err := s.AddAttempt(ctx, u.ID, qid, true, nil); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.RecentQuestionIDs(ctx, u.ID, 2)
	if err != nil {
		t.Fatalf("RecentQuestionIDs: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("want 2 recent ids, got %d", len(recent))
	}
	if _, ok := recent[qids[0]]; ok {
		t.Error("oldest attempt should fall outside the window")
	}
}

func TestCandidateQuestionIDsSubtopicFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subjectID, topicID := seedTopic(t, s)
	stID, err := s.CreateSubtopic(ctx, topicID, "Organelles")
	if err != nil {
		t.Fatal(err)
	}

	plain := seedQuestion(t, s, subjectID, topicID)
	tagged, err := s.CreateQuestion(ctx, NewQuestion{
		SubjectID: subjectID, TopicID: topicID, SubtopicID: &stID,
		Text: "Which organelle makes ATP?", QType: QTypeSingle, Explanation: "-",
		Options: []NewOption{{Text: "mitochondria", IsCorrect: true}, {Text: "nucleus"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	all, err := s.CandidateQuestionIDs(ctx, subjectID, topicID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("whole topic should include both questions, got %v", all)
	}
	filtered, err := s.CandidateQuestionIDs(ctx, subjectID, topicID, []int64{stID})
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0] != tagged {
		t.Errorf("filtered = %v, want [%d]", filtered, tagged)
	}
	_ = plain
}

func TestLoginCodeLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	id, err := s.InsertLoginCode(ctx, 42, "hash", now, now.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("InsertLoginCode: %v", err)
	}
	active, err := s.ActiveLoginCodes(ctx, 42, now)
	if err != nil {
		t.Fatalf("ActiveLoginCodes: %v", err)
	}
	if len(active) != 1 || active[0].ID != id {
		t.Fatalf("active = %+v", active)
	}

	if err := s.MarkLoginCodeUsed(ctx, id, now); err != nil {
		t.Fatalf("MarkLoginCodeUsed: %v", err)
	}
	// Second consumption must fail: single use.
	if err := s.MarkLoginCodeUsed(ctx, id, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound on reuse, got %v", err)
	}
	active, err = s.ActiveLoginCodes(ctx, 42, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("used code still active: %+v", active)
	}

	// Expired codes never show up.
	if _, err := s.InsertLoginCode(ctx, 42, "hash2", now.Add(-time.Hour), now.Add(-50*time.Minute)); err != nil {
		t.Fatal(err)
	}
	active, err = s.ActiveLoginCodes(ctx, 42, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("expired code listed as active: %+v", active)
	}
}

func TestListQuestionsPage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subjectID, topicID := seedTopic(t, s)
	for i := 0; i < 5; i++ {
		seedQuestion(t, s, subjectID, topicID)
	}

	n, err := s.CountQuestions(ctx, &subjectID, nil)
	if err != nil {
		t.Fatalf("CountQuestions: %v", err)
	}
	if n != 5 {
		t.Errorf("count = %d, want 5", n)
	}
	page, err := s.ListQuestionsPage(ctx, 2, 2, &subjectID, &topicID)
	if err != nil {
		t.Fatalf("ListQuestionsPage: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}
}
