package authorflow

import (
	"errors"
	"regexp"
	"strings"
)

// ParsedOption is one labeled answer choice with its label normalized to
// Latin A-D.
type ParsedOption struct {
	Label string
	Text  string
}

var optionLine = regexp.MustCompile(`^([A-DА-Г])[).:]\s*(.+)$`)

// cyrillicLabels maps the Cyrillic option labels to their Latin positions.
var cyrillicLabels = map[string]string{"А": "A", "Б": "B", "В": "C", "Г": "D"}

var latinLabels = map[string]struct{}{"A": {}, "B": {}, "C": {}, "D": {}}

// NormalizeLabel uppercases a label and maps Cyrillic А/Б/В/Г to A/B/C/D.
func NormalizeLabel(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	if latin, ok := cyrillicLabels[label]; ok {
		return latin
	}
	return label
}

var (
	ErrTooFewOptions  = errors.New("at least 2 options in the form \"A) text\" are required")
	ErrNoCorrect      = errors.New("empty correct-answer list")
	ErrBadLabel       = errors.New("only A,B,C,D (or А,Б,В,Г) labels are allowed")
	ErrUnknownCorrect = errors.New("correct labels must match the entered options")
	ErrSingleCorrect  = errors.New("a single-choice question needs exactly one correct label")
)

// ParseOptions parses labeled lines like "A) text" or "Б) текст". Lines that
// do not match the pattern are silently dropped; fewer than two surviving
// options is an error.
func ParseOptions(raw string) ([]ParsedOption, error) {
	var out []ParsedOption
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := optionLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, ParsedOption{
			Label: NormalizeLabel(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	if len(out) < 2 {
		return nil, ErrTooFewOptions
	}
	return out, nil
}

// ParseCorrect parses a comma-separated label list ("B" or "B,C", Cyrillic
// allowed) into a normalized label set.
func ParseCorrect(raw string) (map[string]struct{}, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	out := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		if p == "" {
			continue
		}
		label := NormalizeLabel(p)
		if _, ok := latinLabels[label]; !ok {
			return nil, ErrBadLabel
		}
		out[label] = struct{}{}
	}
	if len(out) == 0 {
		return nil, ErrNoCorrect
	}
	return out, nil
}
