// Package quiz picks the next question for a user and grades answers.
package quiz

import (
	"context"
	"errors"
	"math/rand"
)

// DefaultRecentWindow is the count (not time) window of most recent attempts
// whose questions are excluded from re-selection.
const DefaultRecentWindow = 200

// ErrExhausted signals that every candidate question was answered recently.
// The caller translates it into an end-of-session message; the recency
// exclusion is never relaxed automatically.
var ErrExhausted = errors.New("no unseen questions match the filter")

// CandidateSource is the slice of the content store the picker needs.
type CandidateSource interface {
	RecentQuestionIDs(ctx context.Context, userID int64, limit int) (map[int64]struct{}, error)
	CandidateQuestionIDs(ctx context.Context, subjectID, topicID int64, subtopicIDs []int64) ([]int64, error)
}

type Picker struct {
	Src    CandidateSource
	Window int

	// intn is swappable in tests; defaults to math/rand.
	intn func(n int) int
}

func NewPicker(src CandidateSource) *Picker {
	return &Picker{Src: src, Window: DefaultRecentWindow, intn: rand.Intn}
}

// Pick returns a question id matching subject+topic (and, when subtopicIDs is
// non-empty, one of the given subtopics) that the user has not answered within
// the recent window, chosen uniformly at random. Returns ErrExhausted when no
// such question exists.
func (p *Picker) Pick(ctx context.Context, userID, subjectID, topicID int64, subtopicIDs []int64) (int64, error) {
	window := p.Window
	if window <= 0 {
		window = DefaultRecentWindow
	}
	recent, err := p.Src.RecentQuestionIDs(ctx, userID, window)
	if err != nil {
		return 0, err
	}
	candidates, err := p.Src.CandidateQuestionIDs(ctx, subjectID, topicID, subtopicIDs)
	if err != nil {
		return 0, err
	}

	fresh := candidates[:0]
	for _, id := range candidates {
		if _, seen := recent[id]; !seen {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return 0, ErrExhausted
	}
	return fresh[p.intn(len(fresh))], nil
}

// Grade reports whether the chosen option set is exactly the correct set.
// Exact set equality, never superset/subset; single questions simply have a
// correct set of size 1.
func Grade(correct, chosen map[int64]struct{}) bool {
	if len(correct) != len(chosen) {
		return false
	}
	for id := range chosen {
		if _, ok := correct[id]; !ok {
			return false
		}
	}
	return true
}

// IDSet builds a set from a slice of option ids.
func IDSet(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
