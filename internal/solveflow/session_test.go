package solveflow

import (
	"errors"
	"testing"

	"github.com/edupulse/quizbot/internal/content"
)

func startedSession(t *testing.T, subtopics []content.Subtopic) *Session {
	t.Helper()
	s := New()
	if err := s.PickSubject(1); err != nil {
		t.Fatal(err)
	}
	started, err := s.PickTopic(2, subtopics)
	if err != nil {
		t.Fatal(err)
	}
	if len(subtopics) == 0 && !started {
		t.Fatal("topic without subtopics should start immediately")
	}
	return s
}

func TestTopicWithoutSubtopicsStartsImmediately(t *testing.T) {
	s := startedSession(t, nil)
	if s.Phase != PhaseSolving {
		t.Fatalf("phase = %d, want solving", s.Phase)
	}
	if len(s.SubtopicIDs) != 0 {
		t.Error("filter should cover the whole topic")
	}
}

func TestChooseAll(t *testing.T) {
	s := startedSession(t, []content.Subtopic{{ID: 10}, {ID: 11}})
	if s.Phase != PhaseSubtopicMode {
		t.Fatalf("phase = %d, want subtopic mode", s.Phase)
	}
	if err := s.ChooseAll(); err != nil {
		t.Fatal(err)
	}
	if s.Phase != PhaseSolving || len(s.SubtopicIDs) != 0 {
		t.Errorf("whole-topic start: phase=%d filter=%v", s.Phase, s.SubtopicIDs)
	}
}

func TestSubtopicPickerRequiresSelection(t *testing.T) {
	s := startedSession(t, []content.Subtopic{{ID: 10}, {ID: 11}})
	if err := s.ChoosePick(); err != nil {
		t.Fatal(err)
	}
	if err := s.StartWithSelected(); !errors.Is(err, ErrNoSubtopics) {
		t.Fatalf("want ErrNoSubtopics, got %v", err)
	}
	if err := s.ToggleSubtopic(10); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleSubtopic(11); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleSubtopic(11); err != nil { // toggle off
		t.Fatal(err)
	}
	if err := s.StartWithSelected(); err != nil {
		t.Fatal(err)
	}
	if len(s.SubtopicIDs) != 1 || s.SubtopicIDs[0] != 10 {
		t.Errorf("filter = %v, want [10]", s.SubtopicIDs)
	}
}

func TestGuardAnswerRejectsStale(t *testing.T) {
	s := startedSession(t, nil)
	if err := s.BeginQuestion(5); err != nil {
		t.Fatal(err)
	}
	if err := s.GuardAnswer(4); !errors.Is(err, ErrStale) {
		t.Fatalf("want ErrStale for old question, got %v", err)
	}
	if err := s.GuardAnswer(5); err != nil {
		t.Fatalf("current question rejected: %v", err)
	}
	s.FinishQuestion(true)
	// A duplicate tap on the already-graded question is stale.
	if err := s.GuardAnswer(5); !errors.Is(err, ErrStale) {
		t.Fatalf("want ErrStale after grading, got %v", err)
	}
}

func TestFinishQuestionCounts(t *testing.T) {
	s := startedSession(t, nil)
	if err := s.BeginQuestion(1); err != nil {
		t.Fatal(err)
	}
	s.FinishQuestion(true)
	if err := s.BeginQuestion(2); err != nil {
		t.Fatal(err)
	}
	s.FinishQuestion(false)
	if s.Solved != 2 || s.Correct != 1 {
		t.Errorf("solved=%d correct=%d, want 2/1", s.Solved, s.Correct)
	}
}

func TestPendingToggles(t *testing.T) {
	s := startedSession(t, nil)
	if err := s.BeginQuestion(7); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PendingIDs(); !errors.Is(err, ErrNoPending) {
		t.Fatalf("want ErrNoPending, got %v", err)
	}
	if err := s.TogglePending(7, 100); err != nil {
		t.Fatal(err)
	}
	if err := s.TogglePending(7, 101); err != nil {
		t.Fatal(err)
	}
	if err := s.TogglePending(7, 100); err != nil { // off again
		t.Fatal(err)
	}
	ids, err := s.PendingIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 101 {
		t.Errorf("pending = %v, want [101]", ids)
	}
	// Toggles against a different question id must not land.
	if err := s.TogglePending(8, 102); !errors.Is(err, ErrStale) {
		t.Fatalf("want ErrStale, got %v", err)
	}
}

func TestPhaseOrderEnforced(t *testing.T) {
	s := New()
	if _, err := s.PickTopic(2, nil); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("want ErrOutOfOrder, got %v", err)
	}
	if err := s.BeginQuestion(1); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("want ErrOutOfOrder, got %v", err)
	}
}
