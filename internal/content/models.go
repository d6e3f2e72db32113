package content

import "time"

type QType string

const (
	QTypeSingle QType = "single"
	QTypeMulti  QType = "multi"
)

func (t QType) Valid() bool { return t == QTypeSingle || t == QTypeMulti }

type Subject struct {
	ID   int64  `json:"id"`
	Code string `json:"code"` // unique lowercase slug, e.g. "biology"
	Name string `json:"name"`
}

type Topic struct {
	ID        int64  `json:"id"`
	SubjectID int64  `json:"subject_id"`
	Name      string `json:"name"`
}

type Subtopic struct {
	ID      int64  `json:"id"`
	TopicID int64  `json:"topic_id"`
	Name    string `json:"name"`
}

type Question struct {
	ID         int64  `json:"id"`
	SubjectID  int64  `json:"subject_id"`
	TopicID    int64  `json:"topic_id"`
	SubtopicID *int64 `json:"subtopic_id,omitempty"`

	Text        string `json:"text"`
	ImageRef    string `json:"image_ref,omitempty"` // opaque handle (e.g. Telegram file id)
	QType       QType  `json:"qtype"`
	Explanation string `json:"explanation"`
}

type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
}

// NewQuestion is a fully validated question ready to be committed as one
// atomic write (question row, then its options).
type NewQuestion struct {
	SubjectID   int64
	TopicID     int64
	SubtopicID  *int64
	Text        string
	ImageRef    string
	QType       QType
	Explanation string
	Options     []NewOption
}

type NewOption struct {
	Text      string
	IsCorrect bool
}

type User struct {
	ID         int64  `json:"id"`
	TgID       int64  `json:"tg_id"`
	Username   string `json:"username,omitempty"` // stored normalized: no @, lowercase
	FullName   string `json:"full_name"`
	GradeGroup string `json:"grade_group"`
}

type Admin struct {
	ID        int64     `json:"id"`
	TgID      int64     `json:"tg_id"`
	AddedBy   *int64    `json:"added_by_tg_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Attempt is immutable once created; the attempts table is an append-only log.
type Attempt struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	QuestionID int64     `json:"question_id"`
	IsCorrect  bool      `json:"is_correct"`
	ChosenIDs  []int64   `json:"chosen_option_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttemptLite is the projection used for daily accuracy aggregation.
type AttemptLite struct {
	CreatedAt time.Time
	IsCorrect bool
}

type TopicCount struct {
	Topic  string `json:"topic"`
	Solved int    `json:"solved"`
}

type RecentAttempt struct {
	At        time.Time `json:"at"`
	Topic     string    `json:"topic"`
	IsCorrect bool      `json:"is_correct"`
}

type LoginCode struct {
	ID        int64
	TgID      int64
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}
