// Package authorflow drives the admin question-authoring wizard: a strictly
// ordered sequence of validated steps that accumulates a draft and commits a
// complete question only at the final step.
package authorflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edupulse/quizbot/internal/content"
)

type Step int

const (
	StepSubject Step = iota
	StepTopic
	StepSubtopic
	StepType
	StepText
	StepImage
	StepOptions
	StepCorrect
	StepExplanation
	StepDone
)

const (
	minQuestionLen    = 5
	minExplanationLen = 3
	minSubtopicLen    = 2
)

var (
	ErrTextTooShort        = errors.New("question text is too short")
	ErrExplanationTooShort = errors.New("explanation is too short")
	ErrSubtopicTooShort    = errors.New("subtopic name is too short")
)

// Draft holds everything collected so far. Nothing is persisted until
// Build()'s result is committed; cancelling simply discards the draft.
type Draft struct {
	Step Step

	SubjectID   int64
	TopicID     int64
	SubtopicID  *int64
	QType       content.QType
	Text        string
	ImageRef    string
	Options     []ParsedOption
	Correct     map[string]struct{}
	Explanation string

	// AwaitingSubtopicName marks the create-new-subtopic sub-branch: the
	// next free-text message names the subtopic instead of advancing.
	AwaitingSubtopicName bool
}

func NewDraft() *Draft { return &Draft{Step: StepSubject} }

func (d *Draft) guard(want Step) error {
	if d.Step != want {
		return fmt.Errorf("out of order: at step %d, expected %d", d.Step, want)
	}
	return nil
}

func (d *Draft) PickSubject(id int64) error {
	if err := d.guard(StepSubject); err != nil {
		return err
	}
	d.SubjectID = id
	d.Step = StepTopic
	return nil
}

func (d *Draft) PickTopic(id int64) error {
	if err := d.guard(StepTopic); err != nil {
		return err
	}
	d.TopicID = id
	d.Step = StepSubtopic
	return nil
}

// PickSubtopic accepts an existing subtopic id or nil for "no subtopic".
func (d *Draft) PickSubtopic(id *int64) error {
	if err := d.guard(StepSubtopic); err != nil {
		return err
	}
	d.SubtopicID = id
	d.AwaitingSubtopicName = false
	d.Step = StepType
	return nil
}

// RequestNewSubtopic switches the subtopic step into its create-new branch;
// the caller validates the name, creates the entity, then calls PickSubtopic.
func (d *Draft) RequestNewSubtopic() error {
	if err := d.guard(StepSubtopic); err != nil {
		return err
	}
	d.AwaitingSubtopicName = true
	return nil
}

// ValidateSubtopicName checks a proposed new-subtopic name.
func ValidateSubtopicName(name string) error {
	if len(strings.TrimSpace(name)) < minSubtopicLen {
		return ErrSubtopicTooShort
	}
	return nil
}

func (d *Draft) SetType(t content.QType) error {
	if err := d.guard(StepType); err != nil {
		return err
	}
	if !t.Valid() {
		return fmt.Errorf("invalid question type %q", t)
	}
	d.QType = t
	d.Step = StepText
	return nil
}

func (d *Draft) SetText(text string) error {
	if err := d.guard(StepText); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minQuestionLen {
		return ErrTextTooShort
	}
	d.Text = text
	d.Step = StepImage
	return nil
}

// SetImage attaches an opaque image handle; SkipImage advances without one.
func (d *Draft) SetImage(ref string) error {
	if err := d.guard(StepImage); err != nil {
		return err
	}
	d.ImageRef = ref
	d.Step = StepOptions
	return nil
}

func (d *Draft) SkipImage() error {
	if err := d.guard(StepImage); err != nil {
		return err
	}
	d.ImageRef = ""
	d.Step = StepOptions
	return nil
}

func (d *Draft) SetOptions(raw string) error {
	if err := d.guard(StepOptions); err != nil {
		return err
	}
	opts, err := ParseOptions(raw)
	if err != nil {
		return err
	}
	d.Options = opts
	d.Step = StepCorrect
	return nil
}

// SetCorrect validates the correct-label list against the entered options and
// the question type: single requires exactly one label, and every label must
// be present among the options.
func (d *Draft) SetCorrect(raw string) error {
	if err := d.guard(StepCorrect); err != nil {
		return err
	}
	labels, err := ParseCorrect(raw)
	if err != nil {
		return err
	}
	if d.QType == content.QTypeSingle && len(labels) != 1 {
		return ErrSingleCorrect
	}
	present := map[string]struct{}{}
	for _, o := range d.Options {
		present[o.Label] = struct{}{}
	}
	for l := range labels {
		if _, ok := present[l]; !ok {
			return ErrUnknownCorrect
		}
	}
	d.Correct = labels
	d.Step = StepExplanation
	return nil
}

func (d *Draft) SetExplanation(text string) error {
	if err := d.guard(StepExplanation); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minExplanationLen {
		return ErrExplanationTooShort
	}
	d.Explanation = text
	d.Step = StepDone
	return nil
}

// Build assembles the completed draft into a NewQuestion for one atomic
// store write.
func (d *Draft) Build() (content.NewQuestion, error) {
	if d.Step != StepDone {
		return content.NewQuestion{}, errors.New("draft is incomplete")
	}
	q := content.NewQuestion{
		SubjectID:   d.SubjectID,
		TopicID:     d.TopicID,
		SubtopicID:  d.SubtopicID,
		Text:        d.Text,
		ImageRef:    d.ImageRef,
		QType:       d.QType,
		Explanation: d.Explanation,
	}
	for _, o := range d.Options {
		_, correct := d.Correct[o.Label]
		q.Options = append(q.Options, content.NewOption{Text: o.Text, IsCorrect: correct})
	}
	return q, nil
}
