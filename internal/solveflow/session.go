// Package solveflow drives a user's quiz session: subject/topic/subtopic
// selection followed by the solving loop. All transitions are pure; I/O
// (question selection, attempt recording, rendering) stays with the caller.
package solveflow

import (
	"errors"

	"github.com/edupulse/quizbot/internal/content"
)

type Phase int

const (
	PhaseSubject Phase = iota
	PhaseTopic
	PhaseSubtopicMode
	PhaseSubtopicPick
	PhaseSolving
)

var (
	// ErrStale rejects an answer that references a question other than the
	// session's current one (duplicate or delayed transport interaction).
	ErrStale = errors.New("question is no longer current")

	ErrNoSubtopics = errors.New("select at least one subtopic")
	ErrNoPending   = errors.New("select at least one option")
	ErrOutOfOrder  = errors.New("action does not match the session phase")
)

// Session is one user's progress, keyed externally by identity.
type Session struct {
	Phase Phase

	SubjectID int64
	TopicID   int64

	// Available subtopics of the chosen topic, kept for re-rendering the
	// multi-toggle picker.
	Available []content.Subtopic
	Selected  map[int64]struct{}

	// SubtopicIDs is the active filter; empty means the whole topic.
	SubtopicIDs []int64

	// CurrentQID is the question awaiting an answer; 0 between questions.
	CurrentQID int64
	// Pending is the multi-type toggle set for the current question.
	Pending map[int64]struct{}

	Solved  int
	Correct int
}

func New() *Session {
	return &Session{Selected: map[int64]struct{}{}, Pending: map[int64]struct{}{}}
}

func (s *Session) PickSubject(id int64) error {
	if s.Phase != PhaseSubject {
		return ErrOutOfOrder
	}
	s.SubjectID = id
	s.Phase = PhaseTopic
	return nil
}

// PickTopic stores the topic and its subtopics. Topics without subtopics
// start solving immediately (reported via the return value).
func (s *Session) PickTopic(id int64, subtopics []content.Subtopic) (started bool, err error) {
	if s.Phase != PhaseTopic {
		return false, ErrOutOfOrder
	}
	s.TopicID = id
	s.Available = subtopics
	s.Selected = map[int64]struct{}{}
	if len(subtopics) == 0 {
		s.SubtopicIDs = nil
		s.Phase = PhaseSolving
		return true, nil
	}
	s.Phase = PhaseSubtopicMode
	return false, nil
}

// ChooseAll selects the whole topic and starts solving.
func (s *Session) ChooseAll() error {
	if s.Phase != PhaseSubtopicMode {
		return ErrOutOfOrder
	}
	s.SubtopicIDs = nil
	s.Phase = PhaseSolving
	return nil
}

// ChoosePick switches to the multi-toggle subtopic picker.
func (s *Session) ChoosePick() error {
	if s.Phase != PhaseSubtopicMode {
		return ErrOutOfOrder
	}
	s.Phase = PhaseSubtopicPick
	return nil
}

func (s *Session) ToggleSubtopic(id int64) error {
	if s.Phase != PhaseSubtopicPick {
		return ErrOutOfOrder
	}
	if _, ok := s.Selected[id]; ok {
		delete(s.Selected, id)
	} else {
		s.Selected[id] = struct{}{}
	}
	return nil
}

// StartWithSelected starts solving over the toggled subtopics; at least one
// must be selected.
func (s *Session) StartWithSelected() error {
	if s.Phase != PhaseSubtopicPick {
		return ErrOutOfOrder
	}
	if len(s.Selected) == 0 {
		return ErrNoSubtopics
	}
	ids := make([]int64, 0, len(s.Selected))
	for id := range s.Selected {
		ids = append(ids, id)
	}
	s.SubtopicIDs = ids
	s.Phase = PhaseSolving
	return nil
}

// BeginQuestion makes qid current and clears any pending multi selection.
func (s *Session) BeginQuestion(qid int64) error {
	if s.Phase != PhaseSolving {
		return ErrOutOfOrder
	}
	s.CurrentQID = qid
	s.Pending = map[int64]struct{}{}
	return nil
}

// GuardAnswer rejects answer actions for anything but the current question.
func (s *Session) GuardAnswer(qid int64) error {
	if s.Phase != PhaseSolving {
		return ErrOutOfOrder
	}
	if s.CurrentQID == 0 || s.CurrentQID != qid {
		return ErrStale
	}
	return nil
}

// TogglePending flips one option in the multi-type pending set.
func (s *Session) TogglePending(qid, optionID int64) error {
	if err := s.GuardAnswer(qid); err != nil {
		return err
	}
	if _, ok := s.Pending[optionID]; ok {
		delete(s.Pending, optionID)
	} else {
		s.Pending[optionID] = struct{}{}
	}
	return nil
}

// PendingIDs returns the pending selection; empty is an error for submit.
func (s *Session) PendingIDs() ([]int64, error) {
	if len(s.Pending) == 0 {
		return nil, ErrNoPending
	}
	out := make([]int64, 0, len(s.Pending))
	for id := range s.Pending {
		out = append(out, id)
	}
	return out, nil
}

// FinishQuestion applies the graded result to the session counters and
// leaves the loop awaiting an explicit next/stop action.
func (s *Session) FinishQuestion(correct bool) {
	s.Solved++
	if correct {
		s.Correct++
	}
	s.CurrentQID = 0
	s.Pending = map[int64]struct{}{}
}
