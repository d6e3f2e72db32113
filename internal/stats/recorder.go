// Package stats records answer attempts and aggregates them for the
// statistics views.
package stats

import (
	"context"
	"time"

	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/quiz"
)

// Store is the slice of the content store the recorder needs.
type Store interface {
	CorrectOptionIDs(ctx context.Context, questionID int64) (map[int64]struct{}, error)
	AddAttempt(ctx context.Context, userID, questionID int64, isCorrect bool, chosen []int64) error
	Totals(ctx context.Context, userID int64) (total, correct int, err error)
	SolvedByTopic(ctx context.Context, userID int64, limit int) ([]content.TopicCount, error)
	AttemptsSince(ctx context.Context, userID int64, since time.Time) ([]content.AttemptLite, error)
	RecentAttempts(ctx context.Context, userID int64, limit int) ([]content.RecentAttempt, error)
}

type Recorder struct {
	store Store

	// now is swappable in tests.
	now func() time.Time
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record grades the chosen options against the stored answer key and appends
// an immutable attempt row. Attempts are never deduplicated: recording the
// same answer twice yields two rows.
func (r *Recorder) Record(ctx context.Context, userID, questionID int64, chosen []int64) (bool, error) {
	correct, err := r.store.CorrectOptionIDs(ctx, questionID)
	if err != nil {
		return false, err
	}
	ok := quiz.Grade(correct, quiz.IDSet(chosen))
	if err := r.store.AddAttempt(ctx, userID, questionID, ok, chosen); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *Recorder) Totals(ctx context.Context, userID int64) (total, correct int, err error) {
	return r.store.Totals(ctx, userID)
}

func (r *Recorder) SolvedByTopic(ctx context.Context, userID int64, limit int) ([]content.TopicCount, error) {
	return r.store.SolvedByTopic(ctx, userID, limit)
}

func (r *Recorder) Recent(ctx context.Context, userID int64, limit int) ([]content.RecentAttempt, error) {
	return r.store.RecentAttempts(ctx, userID, limit)
}

// DayStat is one day of the daily accuracy series (UTC date boundaries).
type DayStat struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Solved  int    `json:"solved"`
	Correct int    `json:"correct"`
}

// AccuracyByDay covers the trailing days calendar days, ascending by date,
// with zero-activity days included as zero counts.
func (r *Recorder) AccuracyByDay(ctx context.Context, userID int64, days int) ([]DayStat, error) {
	now := r.now().UTC()
	cutoff := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)
	attempts, err := r.store.AttemptsSince(ctx, userID, cutoff)
	if err != nil {
		return nil, err
	}

	byDay := map[string]*DayStat{}
	out := make([]DayStat, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, DayStat{Date: d})
		byDay[d] = &out[len(out)-1]
	}
	for _, a := range attempts {
		d := a.CreatedAt.UTC().Format("2006-01-02")
		st, ok := byDay[d]
		if !ok {
			continue
		}
		st.Solved++
		if a.IsCorrect {
			st.Correct++
		}
	}
	return out, nil
}

// Streak walks the daily series from the most recent day backward, counting
// consecutive "perfect" days (solved > 0 and all correct). A zero-activity
// day breaks the streak.
func Streak(days []DayStat) int {
	streak := 0
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		if d.Solved > 0 && d.Solved == d.Correct {
			streak++
			continue
		}
		break
	}
	return streak
}

// Accuracy returns correct/total as a percentage rounded to one decimal.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(int(float64(correct)/float64(total)*1000+0.5)) / 10
}
