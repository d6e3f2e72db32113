package content

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups when the entity does not exist.
var ErrNotFound = errors.New("not found")

// Store is the logical read/write contract over the relational backend.
// Every operation commits as a single unit; readers never observe a
// half-written multi-row entity (question+options, user upsert).
type Store interface {
	// --- subjects ---
	CreateSubject(ctx context.Context, code, name string) (int64, error)
	SubjectByCode(ctx context.Context, code string) (Subject, error)
	ListSubjects(ctx context.Context) ([]Subject, error)

	// --- topics / subtopics ---
	CreateTopic(ctx context.Context, subjectID int64, name string) (int64, error)
	ListTopics(ctx context.Context, subjectID int64) ([]Topic, error)
	TopicName(ctx context.Context, topicID int64) (string, error)
	GetOrCreateTopic(ctx context.Context, subjectID int64, name string) (int64, error)
	CreateSubtopic(ctx context.Context, topicID int64, name string) (int64, error)
	ListSubtopics(ctx context.Context, topicID int64) ([]Subtopic, error)
	GetOrCreateSubtopic(ctx context.Context, topicID int64, name string) (int64, error)

	// --- questions ---
	CreateQuestion(ctx context.Context, q NewQuestion) (int64, error)
	GetQuestion(ctx context.Context, id int64) (Question, error)
	ListOptions(ctx context.Context, questionID int64) ([]Option, error)
	CorrectOptionIDs(ctx context.Context, questionID int64) (map[int64]struct{}, error)
	DeleteQuestion(ctx context.Context, id int64) (bool, error)
	CountQuestions(ctx context.Context, subjectID, topicID *int64) (int, error)
	ListQuestionsPage(ctx context.Context, offset, limit int, subjectID, topicID *int64) ([]Question, error)

	// CandidateQuestionIDs returns ids matching subject+topic and, when
	// subtopicIDs is non-empty, one of the given subtopics.
	CandidateQuestionIDs(ctx context.Context, subjectID, topicID int64, subtopicIDs []int64) ([]int64, error)

	// --- users ---
	GetOrCreateUser(ctx context.Context, tgID int64, fullName, gradeGroup, username string) (User, error)
	UserByTgID(ctx context.Context, tgID int64) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	ListUserTgIDs(ctx context.Context) ([]int64, error)

	// --- admins ---
	IsAdmin(ctx context.Context, tgID int64) (bool, error)
	ListAdmins(ctx context.Context) ([]int64, error)
	AddAdmin(ctx context.Context, tgID int64, addedBy *int64) (bool, error)
	RemoveAdmin(ctx context.Context, tgID int64) (bool, error)

	// --- attempts ---
	AddAttempt(ctx context.Context, userID, questionID int64, isCorrect bool, chosen []int64) error
	RecentQuestionIDs(ctx context.Context, userID int64, limit int) (map[int64]struct{}, error)
	Totals(ctx context.Context, userID int64) (total, correct int, err error)
	SolvedByTopic(ctx context.Context, userID int64, limit int) ([]TopicCount, error)
	AttemptsSince(ctx context.Context, userID int64, since time.Time) ([]AttemptLite, error)
	RecentAttempts(ctx context.Context, userID int64, limit int) ([]RecentAttempt, error)

	// --- login codes ---
	InsertLoginCode(ctx context.Context, tgID int64, codeHash string, createdAt, expiresAt time.Time) (int64, error)
	ActiveLoginCodes(ctx context.Context, tgID int64, now time.Time) ([]LoginCode, error)
	MarkLoginCodeUsed(ctx context.Context, id int64, now time.Time) error
}
