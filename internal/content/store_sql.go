package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

var _ Store = (*SQLStore)(nil)

// --- subjects ---

func (s *SQLStore) CreateSubject(ctx context.Context, code, name string) (int64, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO subjects (code, name) VALUES ($1,$2) RETURNING id`,
		code, name).Scan(&id)
	return id, err
}

func (s *SQLStore) SubjectByCode(ctx context.Context, code string) (Subject, error) {
	var subj Subject
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, name FROM subjects WHERE code=$1`,
		strings.ToLower(strings.TrimSpace(code))).
		Scan(&subj.ID, &subj.Code, &subj.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Subject{}, ErrNotFound
	}
	return subj, err
}

func (s *SQLStore) ListSubjects(ctx context.Context) ([]Subject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name FROM subjects ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subject
	for rows.Next() {
		var subj Subject
		if err := rows.Scan(&subj.ID, &subj.Code, &subj.Name); err != nil {
			return nil, err
		}
		out = append(out, subj)
	}
	return out, rows.Err()
}

// --- topics / subtopics ---

func (s *SQLStore) CreateTopic(ctx context.Context, subjectID int64, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO topics (subject_id, name) VALUES ($1,$2) RETURNING id`,
		subjectID, strings.TrimSpace(name)).Scan(&id)
	return id, err
}

func (s *SQLStore) ListTopics(ctx context.Context, subjectID int64) ([]Topic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject_id, name FROM topics WHERE subject_id=$1 ORDER BY id ASC`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.SubjectID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) TopicName(ctx context.Context, topicID int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM topics WHERE id=$1`, topicID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return name, err
}

func (s *SQLStore) GetOrCreateTopic(ctx context.Context, subjectID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM topics WHERE subject_id=$1 AND name=$2`, subjectID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return s.CreateTopic(ctx, subjectID, name)
}

func (s *SQLStore) CreateSubtopic(ctx context.Context, topicID int64, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO subtopics (topic_id, name) VALUES ($1,$2) RETURNING id`,
		topicID, strings.TrimSpace(name)).Scan(&id)
	return id, err
}

func (s *SQLStore) ListSubtopics(ctx context.Context, topicID int64) ([]Subtopic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic_id, name FROM subtopics WHERE topic_id=$1 ORDER BY id ASC`, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subtopic
	for rows.Next() {
		var st Subtopic
		if err := rows.Scan(&st.ID, &st.TopicID, &st.Name); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetOrCreateSubtopic(ctx context.Context, topicID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM subtopics WHERE topic_id=$1 AND name=$2`, topicID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return s.CreateSubtopic(ctx, topicID, name)
}

// --- questions ---

// CreateQuestion writes the question row plus all option rows in one
// transaction; readers never see a question without its options.
func (s *SQLStore) CreateQuestion(ctx context.Context, q NewQuestion) (int64, error) {
	if !q.QType.Valid() {
		return 0, fmt.Errorf("invalid qtype %q", q.QType)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO questions (subject_id, topic_id, subtopic_id, text, image_ref, qtype, explanation)
		 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		q.SubjectID, q.TopicID, q.SubtopicID, q.Text, q.ImageRef, string(q.QType), q.Explanation).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, opt := range q.Options {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO options (question_id, text, is_correct) VALUES ($1,$2,$3)`,
			id, opt.Text, opt.IsCorrect); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	var q Question
	var subtopic sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, subject_id, topic_id, subtopic_id, text, image_ref, qtype, explanation
		 FROM questions WHERE id=$1`, id).
		Scan(&q.ID, &q.SubjectID, &q.TopicID, &subtopic, &q.Text, &q.ImageRef, (*string)(&q.QType), &q.Explanation)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrNotFound
	}
	if err != nil {
		return Question{}, err
	}
	if subtopic.Valid {
		q.SubtopicID = &subtopic.Int64
	}
	return q, nil
}

func (s *SQLStore) ListOptions(ctx context.Context, questionID int64) ([]Option, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, text, is_correct FROM options WHERE question_id=$1 ORDER BY id ASC`,
		questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) CorrectOptionIDs(ctx context.Context, questionID int64) (map[int64]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM options WHERE question_id=$1 AND is_correct`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]struct{}{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// DeleteQuestion removes the question and its options (cascade). Attempts
// referencing the question are kept; aggregate reads tolerate the orphan.
func (s *SQLStore) DeleteQuestion(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM options WHERE question_id=$1`, id); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) CountQuestions(ctx context.Context, subjectID, topicID *int64) (int, error) {
	where, args := questionFilter(subjectID, topicID, 1)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`+where, args...).Scan(&n)
	return n, err
}

func (s *SQLStore) ListQuestionsPage(ctx context.Context, offset, limit int, subjectID, topicID *int64) ([]Question, error) {
	where, args := questionFilter(subjectID, topicID, 1)
	args = append(args, limit, offset)
	q := fmt.Sprintf(
		`SELECT id, subject_id, topic_id, subtopic_id, text, image_ref, qtype, explanation
		 FROM questions%s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		var qn Question
		var subtopic sql.NullInt64
		if err := rows.Scan(&qn.ID, &qn.SubjectID, &qn.TopicID, &subtopic, &qn.Text, &qn.ImageRef, (*string)(&qn.QType), &qn.Explanation); err != nil {
			return nil, err
		}
		if subtopic.Valid {
			qn.SubtopicID = &subtopic.Int64
		}
		out = append(out, qn)
	}
	return out, rows.Err()
}

func questionFilter(subjectID, topicID *int64, firstArg int) (string, []any) {
	var conds []string
	var args []any
	n := firstArg
	if subjectID != nil {
		conds = append(conds, fmt.Sprintf("subject_id=$%d", n))
		args = append(args, *subjectID)
		n++
	}
	if topicID != nil {
		conds = append(conds, fmt.Sprintf("topic_id=$%d", n))
		args = append(args, *topicID)
		n++
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *SQLStore) CandidateQuestionIDs(ctx context.Context, subjectID, topicID int64, subtopicIDs []int64) ([]int64, error) {
	q := `SELECT id FROM questions WHERE subject_id=$1 AND topic_id=$2`
	args := []any{subjectID, topicID}
	if len(subtopicIDs) > 0 {
		ph := make([]string, len(subtopicIDs))
		for i, id := range subtopicIDs {
			ph[i] = "$" + strconv.Itoa(len(args)+1)
			args = append(args, id)
		}
		q += ` AND subtopic_id IN (` + strings.Join(ph, ",") + `)`
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- users ---

func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
}

// GetOrCreateUser creates the user lazily on first interaction and updates
// full_name/username in place when they change.
func (s *SQLStore) GetOrCreateUser(ctx context.Context, tgID int64, fullName, gradeGroup, username string) (User, error) {
	norm := NormalizeUsername(username)
	u, err := s.UserByTgID(ctx, tgID)
	if err == nil {
		changed := false
		if fullName != "" && fullName != u.FullName {
			u.FullName = fullName
			changed = true
		}
		if norm != "" && norm != u.Username {
			u.Username = norm
			changed = true
		}
		if changed {
			_, err = s.db.ExecContext(ctx,
				`UPDATE users SET full_name=$1, username=$2 WHERE id=$3`,
				u.FullName, nullIfEmpty(u.Username), u.ID)
			if err != nil {
				return User{}, err
			}
		}
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	if fullName == "" {
		fullName = "-"
	}
	if gradeGroup == "" {
		gradeGroup = "8-"
	}
	u = User{TgID: tgID, Username: norm, FullName: fullName, GradeGroup: gradeGroup}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (tg_id, username, full_name, grade_group) VALUES ($1,$2,$3,$4) RETURNING id`,
		tgID, nullIfEmpty(norm), fullName, gradeGroup).Scan(&u.ID)
	return u, err
}

func (s *SQLStore) UserByTgID(ctx context.Context, tgID int64) (User, error) {
	var u User
	var username sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tg_id, username, full_name, grade_group FROM users WHERE tg_id=$1`, tgID).
		Scan(&u.ID, &u.TgID, &username, &u.FullName, &u.GradeGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	u.Username = username.String
	return u, err
}

func (s *SQLStore) UserByUsername(ctx context.Context, username string) (User, error) {
	norm := NormalizeUsername(username)
	if norm == "" {
		return User{}, ErrNotFound
	}
	var u User
	var uname sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tg_id, username, full_name, grade_group FROM users WHERE LOWER(username)=$1`, norm).
		Scan(&u.ID, &u.TgID, &uname, &u.FullName, &u.GradeGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	u.Username = uname.String
	return u, err
}

func (s *SQLStore) ListUserTgIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tg_id FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// --- admins ---

func (s *SQLStore) IsAdmin(ctx context.Context, tgID int64) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM admins WHERE tg_id=$1`, tgID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLStore) ListAdmins(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tg_id FROM admins ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AddAdmin returns false when the id is already an admin.
func (s *SQLStore) AddAdmin(ctx context.Context, tgID int64, addedBy *int64) (bool, error) {
	ok, err := s.IsAdmin(ctx, tgID)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admins (tg_id, added_by_tg_id, created_at) VALUES ($1,$2,$3)`,
		tgID, addedBy, time.Now().Unix())
	return err == nil, err
}

func (s *SQLStore) RemoveAdmin(ctx context.Context, tgID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE tg_id=$1`, tgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// --- attempts ---

func (s *SQLStore) AddAttempt(ctx context.Context, userID, questionID int64, isCorrect bool, chosen []int64) error {
	parts := make([]string, len(chosen))
	for i, id := range chosen {
		parts[i] = strconv.FormatInt(id, 10)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (user_id, question_id, is_correct, chosen_option_ids, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		userID, questionID, isCorrect, strings.Join(parts, ","), time.Now().Unix())
	return err
}

// RecentQuestionIDs returns the distinct question ids of the user's most
// recent attempts, capped at limit attempts (a count window, not time).
func (s *SQLStore) RecentQuestionIDs(ctx context.Context, userID int64, limit int) (map[int64]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id FROM attempts WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]struct{}{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (s *SQLStore) Totals(ctx context.Context, userID int64) (int, int, error) {
	var total, correct int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0)
		 FROM attempts WHERE user_id=$1`, userID).Scan(&total, &correct)
	return total, correct, err
}

func (s *SQLStore) SolvedByTopic(ctx context.Context, userID int64, limit int) ([]TopicCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name, COUNT(a.id) AS solved
		 FROM attempts a
		 JOIN questions q ON q.id = a.question_id
		 JOIN topics t ON t.id = q.topic_id
		 WHERE a.user_id=$1
		 GROUP BY t.name
		 ORDER BY solved DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Solved); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *SQLStore) AttemptsSince(ctx context.Context, userID int64, since time.Time) ([]AttemptLite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at, is_correct FROM attempts
		 WHERE user_id=$1 AND created_at >= $2 ORDER BY created_at ASC`,
		userID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AttemptLite
	for rows.Next() {
		var ts int64
		var a AttemptLite
		if err := rows.Scan(&ts, &a.IsCorrect); err != nil {
			return nil, err
		}
		a.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) RecentAttempts(ctx context.Context, userID int64, limit int) ([]RecentAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.created_at, t.name, a.is_correct
		 FROM attempts a
		 JOIN questions q ON q.id = a.question_id
		 JOIN topics t ON t.id = q.topic_id
		 WHERE a.user_id=$1
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecentAttempt
	for rows.Next() {
		var ts int64
		var ra RecentAttempt
		if err := rows.Scan(&ts, &ra.Topic, &ra.IsCorrect); err != nil {
			return nil, err
		}
		ra.At = time.Unix(ts, 0).UTC()
		out = append(out, ra)
	}
	return out, rows.Err()
}

// --- login codes ---

func (s *SQLStore) InsertLoginCode(ctx context.Context, tgID int64, codeHash string, createdAt, expiresAt time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO login_codes (tg_id, code_hash, created_at, expires_at) VALUES ($1,$2,$3,$4) RETURNING id`,
		tgID, codeHash, createdAt.Unix(), expiresAt.Unix()).Scan(&id)
	return id, err
}

// ActiveLoginCodes returns unused, unexpired codes for the identity, most
// recent first.
func (s *SQLStore) ActiveLoginCodes(ctx context.Context, tgID int64, now time.Time) ([]LoginCode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tg_id, code_hash, created_at, expires_at FROM login_codes
		 WHERE tg_id=$1 AND used_at IS NULL AND expires_at > $2
		 ORDER BY id DESC`, tgID, now.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LoginCode
	for rows.Next() {
		var lc LoginCode
		var created, expires int64
		if err := rows.Scan(&lc.ID, &lc.TgID, &lc.CodeHash, &created, &expires); err != nil {
			return nil, err
		}
		lc.CreatedAt = time.Unix(created, 0).UTC()
		lc.ExpiresAt = time.Unix(expires, 0).UTC()
		out = append(out, lc)
	}
	return out, rows.Err()
}

// MarkLoginCodeUsed consumes a code: the guard on used_at makes the first
// successful verification the only one.
func (s *SQLStore) MarkLoginCodeUsed(ctx context.Context, id int64, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE login_codes SET used_at=$1 WHERE id=$2 AND used_at IS NULL`, now.Unix(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
