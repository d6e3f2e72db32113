package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/edupulse/quizbot/internal/content"
)

type fakeStore struct {
	subjects  map[string]int64
	topics    map[string]int64
	subtopics map[string]int64
	questions []content.NewQuestion
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		subjects:  map[string]int64{},
		topics:    map[string]int64{},
		subtopics: map[string]int64{},
	}
}

func (f *fakeStore) id() int64 { f.nextID++; return f.nextID }

func (f *fakeStore) SubjectByCode(_ context.Context, code string) (content.Subject, error) {
	id, ok := f.subjects[code]
	if !ok {
		return content.Subject{}, content.ErrNotFound
	}
	return content.Subject{ID: id, Code: code}, nil
}

func (f *fakeStore) CreateSubject(_ context.Context, code, _ string) (int64, error) {
	id := f.id()
	f.subjects[code] = id
	return id, nil
}

func (f *fakeStore) GetOrCreateTopic(_ context.Context, subjectID int64, name string) (int64, error) {
	key := name
	if id, ok := f.topics[key]; ok {
		return id, nil
	}
	id := f.id()
	f.topics[key] = id
	return id, nil
}

func (f *fakeStore) GetOrCreateSubtopic(_ context.Context, topicID int64, name string) (int64, error) {
	key := name
	if id, ok := f.subtopics[key]; ok {
		return id, nil
	}
	id := f.id()
	f.subtopics[key] = id
	return id, nil
}

func (f *fakeStore) CreateQuestion(_ context.Context, q content.NewQuestion) (int64, error) {
	f.questions = append(f.questions, q)
	return f.id(), nil
}

func TestImportJSONListOptions(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	body := `[{
		"subject_code": "biology",
		"subject_name": "Biology",
		"topic_name": "Cells",
		"question_text": "What contains DNA?",
		"options": ["nucleus", "ribosome", "membrane"],
		"correct": ["A"]
	}]`
	rep, err := svc.ImportJSON(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if rep.Created != 1 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.BatchID == "" {
		t.Error("batch id missing")
	}

	q := store.questions[0]
	if q.QType != content.QTypeSingle {
		t.Errorf("qtype = %q, want single default", q.QType)
	}
	if len(q.Options) != 3 || !q.Options[0].IsCorrect || q.Options[1].IsCorrect {
		t.Errorf("options = %+v", q.Options)
	}
}

func TestImportJSONMapOptions(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	body := `[{
		"subject_code": "math",
		"topic_name": "Algebra",
		"subtopic_name": "Linear equations",
		"qtype": "multi",
		"question_text": "Which are solutions of x*x=4?",
		"options": {"А": "2", "Б": "-2", "В": "0"},
		"correct": "А,Б"
	}]`
	rep, err := svc.ImportJSON(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if rep.Created != 1 {
		t.Fatalf("report = %+v", rep)
	}
	q := store.questions[0]
	if q.SubtopicID == nil {
		t.Error("subtopic should be resolved")
	}
	var correct int
	for _, o := range q.Options {
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 2 {
		t.Errorf("want 2 correct options, got %d", correct)
	}
}

func TestImportRowFailuresDoNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	body := `[
		{"subject_code": "bio", "topic_name": "Cells", "question_text": "ok?",
		 "options": ["a", "b"], "correct": ["A"]},
		{"subject_code": "", "topic_name": "Cells", "question_text": "missing subject",
		 "options": ["a", "b"], "correct": ["A"]},
		{"subject_code": "bio", "topic_name": "Cells", "question_text": "no correct",
		 "options": ["a", "b"], "correct": ["E"]}
	]`
	rep, err := svc.ImportJSON(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if rep.Created != 1 || rep.Failed != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if len(rep.Errors) != 2 {
		t.Fatalf("errors = %v", rep.Errors)
	}
	if !strings.HasPrefix(rep.Errors[0], "row 2:") {
		t.Errorf("error should carry the row number: %q", rep.Errors[0])
	}
}

func TestImportSingleRequiresOneCorrect(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	body := `[{"subject_code": "bio", "topic_name": "Cells", "qtype": "single",
		"question_text": "pick one", "options": ["a", "b"], "correct": ["A", "B"]}]`
	rep, err := svc.ImportJSON(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if rep.Created != 0 || rep.Failed != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestImportCSV(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	csvBody := "subject_code,topic_name,question_text,options,correct\n" +
		`bio,Cells,What contains DNA?,A) nucleus | B) ribosome,A` + "\n" +
		`bio,Cells,Which are organelles?,A) nucleus | B) water | C) ribosome,"A,C"` + "\n"
	rep, err := svc.ImportCSV(context.Background(), strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	// Second row has two correct labels but default single type.
	if rep.Created != 1 || rep.Failed != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if len(store.questions[0].Options) != 2 {
		t.Errorf("options = %+v", store.questions[0].Options)
	}
}

func TestErrorListCapped(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	rows := make([]Row, 0, maxReportErrors+10)
	for i := 0; i < maxReportErrors+10; i++ {
		rows = append(rows, Row{TopicName: "t", QuestionText: "q?", Options: "x", Correct: "A"})
	}
	rep := svc.importRows(context.Background(), rows)
	if rep.Failed != maxReportErrors+10 {
		t.Fatalf("failed = %d", rep.Failed)
	}
	if len(rep.Errors) != maxReportErrors {
		t.Errorf("errors length = %d, want %d", len(rep.Errors), maxReportErrors)
	}
}
