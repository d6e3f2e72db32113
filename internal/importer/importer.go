// Package importer ingests question batches from CSV or JSON. Rows are
// validated and committed independently: one bad row never aborts the batch.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/edupulse/quizbot/internal/authorflow"
	"github.com/edupulse/quizbot/internal/content"
)

const maxReportErrors = 50

// Row is one inbound question. Options and Correct accept several shapes
// (list, mapping, delimited string) and are normalized before validation.
type Row struct {
	SubjectCode  string `json:"subject_code" validate:"required"`
	SubjectName  string `json:"subject_name"`
	TopicName    string `json:"topic_name" validate:"required"`
	SubtopicName string `json:"subtopic_name"`
	QType        string `json:"qtype"`
	QuestionText string `json:"question_text" validate:"required"`
	Explanation  string `json:"explanation"`
	Options      any    `json:"options" validate:"required"`
	Correct      any    `json:"correct" validate:"required"`
}

type Report struct {
	BatchID string   `json:"batch_id"`
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"` // capped at maxReportErrors
}

// Store is the slice of the content store the importer needs. Topic and
// subtopic resolution is get-or-create by name, same contract as the wizard.
type Store interface {
	SubjectByCode(ctx context.Context, code string) (content.Subject, error)
	CreateSubject(ctx context.Context, code, name string) (int64, error)
	GetOrCreateTopic(ctx context.Context, subjectID int64, name string) (int64, error)
	GetOrCreateSubtopic(ctx context.Context, topicID int64, name string) (int64, error)
	CreateQuestion(ctx context.Context, q content.NewQuestion) (int64, error)
}

type Service struct {
	store    Store
	validate *validator.Validate
}

func New(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// ImportJSON reads a JSON array of rows.
func (s *Service) ImportJSON(ctx context.Context, r io.Reader) (Report, error) {
	var rows []Row
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rows); err != nil {
		return Report{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return s.importRows(ctx, rows), nil
}

// ImportCSV reads a header row plus one record per question. Options and
// correct labels arrive as delimited strings.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return Report{}, fmt.Errorf("invalid CSV: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Report{}, fmt.Errorf("invalid CSV: %w", err)
		}
		m := map[string]string{}
		for i, v := range rec {
			if i < len(header) {
				m[header[i]] = v
			}
		}
		rows = append(rows, Row{
			SubjectCode:  m["subject_code"],
			SubjectName:  m["subject_name"],
			TopicName:    m["topic_name"],
			SubtopicName: m["subtopic_name"],
			QType:        m["qtype"],
			QuestionText: m["question_text"],
			Explanation:  m["explanation"],
			Options:      m["options"],
			Correct:      m["correct"],
		})
	}
	return s.importRows(ctx, rows), nil
}

func (s *Service) importRows(ctx context.Context, rows []Row) Report {
	rep := Report{BatchID: uuid.NewString()}
	for i, row := range rows {
		if err := s.importRow(ctx, row); err != nil {
			rep.Failed++
			if len(rep.Errors) < maxReportErrors {
				rep.Errors = append(rep.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			}
			continue
		}
		rep.Created++
	}
	return rep
}

func (s *Service) importRow(ctx context.Context, row Row) error {
	row.SubjectCode = strings.ToLower(strings.TrimSpace(row.SubjectCode))
	row.TopicName = strings.TrimSpace(row.TopicName)
	row.QuestionText = strings.TrimSpace(row.QuestionText)
	if err := s.validate.Struct(row); err != nil {
		return err
	}

	qtype := content.QType(strings.ToLower(strings.TrimSpace(row.QType)))
	if qtype == "" {
		qtype = content.QTypeSingle
	}
	if !qtype.Valid() {
		return fmt.Errorf("qtype must be single or multi, got %q", row.QType)
	}

	opts, err := normalizeOptions(row.Options)
	if err != nil {
		return err
	}
	correct, err := normalizeCorrect(row.Correct)
	if err != nil {
		return err
	}

	nOpts := make([]content.NewOption, 0, len(opts))
	nCorrect := 0
	for _, o := range opts {
		_, ok := correct[o.Label]
		if ok {
			nCorrect++
		}
		nOpts = append(nOpts, content.NewOption{Text: o.Text, IsCorrect: ok})
	}
	if nCorrect == 0 {
		return fmt.Errorf("no correct option resolved")
	}
	if qtype == content.QTypeSingle && nCorrect != 1 {
		return fmt.Errorf("single question must have exactly one correct option, got %d", nCorrect)
	}

	subjectID, err := s.resolveSubject(ctx, row.SubjectCode, row.SubjectName)
	if err != nil {
		return err
	}
	topicID, err := s.store.GetOrCreateTopic(ctx, subjectID, row.TopicName)
	if err != nil {
		return err
	}
	var subtopicID *int64
	if name := strings.TrimSpace(row.SubtopicName); name != "" {
		id, err := s.store.GetOrCreateSubtopic(ctx, topicID, name)
		if err != nil {
			return err
		}
		subtopicID = &id
	}

	explanation := strings.TrimSpace(row.Explanation)
	if explanation == "" {
		explanation = "-"
	}

	_, err = s.store.CreateQuestion(ctx, content.NewQuestion{
		SubjectID:   subjectID,
		TopicID:     topicID,
		SubtopicID:  subtopicID,
		Text:        row.QuestionText,
		QType:       qtype,
		Explanation: explanation,
		Options:     nOpts,
	})
	return err
}

func (s *Service) resolveSubject(ctx context.Context, code, name string) (int64, error) {
	subj, err := s.store.SubjectByCode(ctx, code)
	if err == nil {
		return subj.ID, nil
	}
	if !errors.Is(err, content.ErrNotFound) {
		return 0, err
	}
	if strings.TrimSpace(name) == "" {
		name = code
	}
	return s.store.CreateSubject(ctx, code, name)
}

type labeledOption struct {
	Label string
	Text  string
}

// normalizeOptions maps the accepted input shapes to one canonical labeled
// list: a plain list gets positional labels A, B, C...; a mapping keeps its
// keys (uppercased, Cyrillic normalized); a string is "A) x | B) y".
func normalizeOptions(v any) ([]labeledOption, error) {
	var out []labeledOption
	switch t := v.(type) {
	case []any:
		for i, e := range t {
			out = append(out, labeledOption{
				Label: string(rune('A' + i)),
				Text:  strings.TrimSpace(fmt.Sprint(e)),
			})
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, labeledOption{
				Label: authorflow.NormalizeLabel(k),
				Text:  strings.TrimSpace(fmt.Sprint(t[k])),
			})
		}
	case string:
		for _, part := range strings.Split(t, "|") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			var label, text string
			switch {
			case strings.Contains(part, ")"):
				pieces := strings.SplitN(part, ")", 2)
				label, text = pieces[0], pieces[1]
			case strings.Contains(part, "."):
				pieces := strings.SplitN(part, ".", 2)
				label, text = pieces[0], pieces[1]
			default:
				return nil, fmt.Errorf("options must contain labels like %q", "A) ...")
			}
			out = append(out, labeledOption{
				Label: authorflow.NormalizeLabel(label),
				Text:  strings.TrimSpace(text),
			})
		}
	default:
		return nil, fmt.Errorf("unsupported options shape %T", v)
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("at least 2 options required")
	}
	return out, nil
}

// normalizeCorrect accepts a list of labels or a comma-delimited string.
func normalizeCorrect(v any) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			out[authorflow.NormalizeLabel(fmt.Sprint(e))] = struct{}{}
		}
	case string:
		for _, p := range strings.Split(strings.ReplaceAll(t, " ", ""), ",") {
			if p == "" {
				continue
			}
			out[authorflow.NormalizeLabel(p)] = struct{}{}
		}
	default:
		return nil, fmt.Errorf("unsupported correct shape %T", v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("correct is required")
	}
	return out, nil
}
