package quiz

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	recent     map[int64]struct{}
	candidates []int64
}

func (f *fakeSource) RecentQuestionIDs(_ context.Context, _ int64, _ int) (map[int64]struct{}, error) {
	if f.recent == nil {
		return map[int64]struct{}{}, nil
	}
	return f.recent, nil
}

func (f *fakeSource) CandidateQuestionIDs(_ context.Context, _, _ int64, _ []int64) ([]int64, error) {
	return f.candidates, nil
}

func TestGradeExactSet(t *testing.T) {
	correct := IDSet([]int64{2, 3})

	cases := []struct {
		name   string
		chosen []int64
		want   bool
	}{
		{"exact match", []int64{2, 3}, true},
		{"order ignored", []int64{3, 2}, true},
		{"subset", []int64{2}, false},
		{"superset", []int64{2, 3, 4}, false},
		{"disjoint", []int64{1}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Grade(correct, IDSet(tc.chosen)); got != tc.want {
				t.Errorf("Grade(%v) = %v, want %v", tc.chosen, got, tc.want)
			}
		})
	}
}

func TestGradeSingle(t *testing.T) {
	correct := IDSet([]int64{7})
	if !Grade(correct, IDSet([]int64{7})) {
		t.Error("matching single choice should be correct")
	}
	if Grade(correct, IDSet([]int64{8})) {
		t.Error("wrong single choice should be incorrect")
	}
	if Grade(correct, IDSet([]int64{7, 8})) {
		t.Error("extra choice should be incorrect")
	}
}

func TestPickExcludesRecent(t *testing.T) {
	src := &fakeSource{
		recent:     IDSet([]int64{1, 2}),
		candidates: []int64{1, 2, 3, 4},
	}
	p := NewPicker(src)
	p.Window = 2

	seen := map[int64]bool{}
	p.intn = func(n int) int { return 0 }
	id, err := p.Pick(context.Background(), 1, 1, 1, nil)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	seen[id] = true
	p.intn = func(n int) int { return n - 1 }
	id, err = p.Pick(context.Background(), 1, 1, 1, nil)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	seen[id] = true

	if seen[1] || seen[2] {
		t.Errorf("recently answered question picked: %v", seen)
	}
	if !seen[3] || !seen[4] {
		t.Errorf("both fresh questions should be reachable, got %v", seen)
	}
}

func TestPickExhausted(t *testing.T) {
	src := &fakeSource{
		recent:     IDSet([]int64{1, 2}),
		candidates: []int64{1, 2},
	}
	p := NewPicker(src)
	if _, err := p.Pick(context.Background(), 1, 1, 1, nil); !errors.Is(err, ErrExhausted) {
		t.Fatalf("want ErrExhausted, got %v", err)
	}
}

func TestPickEmptyPool(t *testing.T) {
	p := NewPicker(&fakeSource{})
	if _, err := p.Pick(context.Background(), 1, 1, 1, nil); !errors.Is(err, ErrExhausted) {
		t.Fatalf("want ErrExhausted, got %v", err)
	}
}

func TestPickUniform(t *testing.T) {
	src := &fakeSource{candidates: []int64{10, 20}}
	p := NewPicker(src)

	got := map[int64]bool{}
	for i := 0; i < 200 && len(got) < 2; i++ {
		id, err := p.Pick(context.Background(), 1, 1, 1, nil)
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		got[id] = true
	}
	if !got[10] || !got[20] {
		t.Errorf("every fresh candidate should have nonzero probability, got %v", got)
	}
}
