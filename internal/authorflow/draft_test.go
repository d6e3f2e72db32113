package authorflow

import (
	"errors"
	"testing"

	"github.com/edupulse/quizbot/internal/content"
)

func advanceToCorrect(t *testing.T, qtype content.QType) *Draft {
	t.Helper()
	d := NewDraft()
	if err := d.PickSubject(1); err != nil {
		t.Fatal(err)
	}
	if err := d.PickTopic(2); err != nil {
		t.Fatal(err)
	}
	if err := d.PickSubtopic(nil); err != nil {
		t.Fatal(err)
	}
	if err := d.SetType(qtype); err != nil {
		t.Fatal(err)
	}
	if err := d.SetText("What does the cell nucleus contain?"); err != nil {
		t.Fatal(err)
	}
	if err := d.SkipImage(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetOptions("A) DNA\nB) ATP\nC) chlorophyll"); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDraftHappyPath(t *testing.T) {
	d := advanceToCorrect(t, content.QTypeMulti)
	if err := d.SetCorrect("A,B"); err != nil {
		t.Fatalf("SetCorrect: %v", err)
	}
	if err := d.SetExplanation("The nucleus stores the genome."); err != nil {
		t.Fatalf("SetExplanation: %v", err)
	}

	q, err := d.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.QType != content.QTypeMulti || len(q.Options) != 3 {
		t.Fatalf("built question = %+v", q)
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

func TestDraftStepsAreOrdered(t *testing.T) {
	d := NewDraft()
	if err := d.SetText("too early"); err == nil {
		t.Error("SetText before subject should fail")
	}
	if err := d.SetCorrect("A"); err == nil {
		t.Error("SetCorrect before options should fail")
	}
	if _, err := d.Build(); err == nil {
		t.Error("Build on incomplete draft should fail")
	}
}

func TestDraftSingleRequiresOneCorrect(t *testing.T) {
	d := advanceToCorrect(t, content.QTypeSingle)
	if err := d.SetCorrect("A,B"); !errors.Is(err, ErrSingleCorrect) {
		t.Fatalf("want ErrSingleCorrect, got %v", err)
	}
	// The failed attempt must not advance the step.
	if err := d.SetCorrect("A"); err != nil {
		t.Fatalf("SetCorrect after retry: %v", err)
	}
}

func TestDraftCorrectMustMatchOptions(t *testing.T) {
	d := advanceToCorrect(t, content.QTypeMulti)
	if err := d.SetCorrect("A,D"); !errors.Is(err, ErrUnknownCorrect) {
		t.Fatalf("want ErrUnknownCorrect, got %v", err)
	}
}

func TestDraftValidation(t *testing.T) {
	d := NewDraft()
	if err := d.PickSubject(1); err != nil {
		t.Fatal(err)
	}
	if err := d.PickTopic(2); err != nil {
		t.Fatal(err)
	}
	if err := d.PickSubtopic(nil); err != nil {
		t.Fatal(err)
	}
	if err := d.SetType(content.QType("essay")); err == nil {
		t.Error("invalid qtype should fail")
	}
	if err := d.SetType(content.QTypeSingle); err != nil {
		t.Fatal(err)
	}
	if err := d.SetText("abc"); !errors.Is(err, ErrTextTooShort) {
		t.Errorf("want ErrTextTooShort, got %v", err)
	}
}

func TestValidateSubtopicName(t *testing.T) {
	if err := ValidateSubtopicName(" x "); !errors.Is(err, ErrSubtopicTooShort) {
		t.Errorf("want ErrSubtopicTooShort, got %v", err)
	}
	if err := ValidateSubtopicName("Cell biology"); err != nil {
		t.Errorf("ValidateSubtopicName: %v", err)
	}
}

func TestSessionsIsolatePerIdentity(t *testing.T) {
	s := NewSessions()
	a := s.Start(1)
	b := s.Start(2)
	if a == b {
		t.Fatal("identities must not share drafts")
	}
	if err := a.PickSubject(1); err != nil {
		t.Fatal(err)
	}
	if b.Step != StepSubject {
		t.Error("one identity's progress leaked into another")
	}
	s.Clear(1)
	if s.Get(1) != nil {
		t.Error("cleared draft still present")
	}
	if s.Get(2) == nil {
		t.Error("other identity's draft was cleared")
	}
}
