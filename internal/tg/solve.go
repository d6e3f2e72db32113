package tg

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tb "gopkg.in/telebot.v4"

	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/quiz"
	"github.com/edupulse/quizbot/internal/solveflow"
	"github.com/edupulse/quizbot/internal/stats"
)

func ib(unique, text, data string) tb.InlineButton {
	return tb.InlineButton{Unique: unique, Text: text, Data: data}
}

func keyboard(rows ...[]tb.InlineButton) *tb.ReplyMarkup {
	return &tb.ReplyMarkup{InlineKeyboard: rows}
}

func (b *Bot) registerSolveCallbacks() {
	b.tele.Handle(&tb.InlineButton{Unique: "slv_subj"}, b.onSolveSubject)
	b.tele.Handle(&tb.InlineButton{Unique: "slv_topic"}, b.onSolveTopic)
	b.tele.Handle(&tb.InlineButton{Unique: "slv_all"}, b.onSolveAll)
	b.tele.Handle(&tb.InlineButton{Unique: "slv_pick"}, b.onSolvePick)
	b.tele.Handle(&tb.InlineButton{Unique: "slv_tgl"}, b.onSolveToggle)
	b.tele.Handle(&tb.InlineButton{Unique: "slv_go"}, b.onSolveGo)
	b.tele.Handle(&tb.InlineButton{Unique: "slv_opt"}, b.onSolveOption)
	b.tele.Handle(&tb.InlineButton{Unique: "slv_submit"}, b.onSolveSubmit)
	b.tele.Handle(&tb.InlineButton{Unique: "slv_next"}, b.onSolveNext)
	b.tele.Handle(&tb.InlineButton{Unique: "slv_stop"}, b.onSolveStop)
}

func (b *Bot) onSolve(c tb.Context) error {
	if _, err := b.upsertUser(c); err != nil {
		return c.Send("Something went wrong, try again.")
	}
	subs, err := b.store.ListSubjects(b.ctx())
	if err != nil {
		log.Printf("bot: list subjects: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	if len(subs) == 0 {
		return c.Send("No subjects yet.")
	}
	b.solves.Start(c.Sender().ID)
	rows := make([][]tb.InlineButton, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []tb.InlineButton{ib("slv_subj", s.Name, itoa(s.ID))})
	}
	return c.Send("Choose a subject:", keyboard(rows...))
}

// solveSession returns the caller's session or tells them to /solve.
func (b *Bot) solveSession(c tb.Context) *solveflow.Session {
	sess := b.solves.Get(c.Sender().ID)
	if sess == nil {
		_ = c.Respond(&tb.CallbackResponse{Text: "Start with /solve"})
	}
	return sess
}

func (b *Bot) onSolveSubject(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	subjectID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Bad subject"})
	}
	if err := sess.PickSubject(subjectID); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	topics, err := b.store.ListTopics(b.ctx(), subjectID)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Something went wrong"})
	}
	if len(topics) == 0 {
		b.solves.Clear(c.Sender().ID)
		return c.Edit("No topics in this subject yet.")
	}
	rows := make([][]tb.InlineButton, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, []tb.InlineButton{ib("slv_topic", t.Name, itoa(t.ID))})
	}
	return c.Edit("Choose a topic:", keyboard(rows...))
}

func (b *Bot) onSolveTopic(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	topicID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Bad topic"})
	}
	subtopics, err := b.store.ListSubtopics(b.ctx(), topicID)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Something went wrong"})
	}
	started, err := sess.PickTopic(topicID, subtopics)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	if started {
		return b.askQuestion(c, sess)
	}
	return c.Edit("Whole topic or specific subtopics?", keyboard(
		[]tb.InlineButton{ib("slv_all", "🎲 Whole topic", "")},
		[]tb.InlineButton{ib("slv_pick", "🎯 Pick subtopics", "")},
	))
}

func (b *Bot) onSolveAll(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	if err := sess.ChooseAll(); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	return b.askQuestion(c, sess)
}

func (b *Bot) onSolvePick(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	if err := sess.ChoosePick(); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	return c.Edit("Toggle subtopics, then start:", subtopicKeyboard(sess))
}

func (b *Bot) onSolveToggle(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	id, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Bad subtopic"})
	}
	if err := sess.ToggleSubtopic(id); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	return c.Edit("Toggle subtopics, then start:", subtopicKeyboard(sess))
}

func subtopicKeyboard(sess *solveflow.Session) *tb.ReplyMarkup {
	rows := make([][]tb.InlineButton, 0, len(sess.Available)+1)
	for _, st := range sess.Available {
		box := "☐"
		if _, ok := sess.Selected[st.ID]; ok {
			box = "☑"
		}
		rows = append(rows, []tb.InlineButton{ib("slv_tgl", box+" "+st.Name, itoa(st.ID))})
	}
	rows = append(rows, []tb.InlineButton{ib("slv_go", "▶️ Start", "")})
	return keyboard(rows...)
}

func (b *Bot) onSolveGo(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	if err := sess.StartWithSelected(); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	return b.askQuestion(c, sess)
}

// askQuestion picks the next question and renders it. Exhaustion ends the
// session with a summary.
func (b *Bot) askQuestion(c tb.Context, sess *solveflow.Session) error {
	user, err := b.store.UserByTgID(b.ctx(), c.Sender().ID)
	if err != nil {
		return c.Send("Something went wrong, try again.")
	}
	qid, err := b.picker.Pick(b.ctx(), user.ID, sess.SubjectID, sess.TopicID, sess.SubtopicIDs)
	if errors.Is(err, quiz.ErrExhausted) {
		return b.finishSession(c, sess, "No new questions in this selection.")
	}
	if err != nil {
		log.Printf("bot: pick for %d: %v", user.ID, err)
		return c.Send("Something went wrong, try again.")
	}
	if err := sess.BeginQuestion(qid); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	question, opts, err := b.loadQuestion(qid)
	if err != nil {
		return c.Send("Something went wrong, try again.")
	}
	text := renderQuestion(question, opts)
	markup := questionKeyboard(question, opts, sess)
	if question.ImageRef != "" {
		photo := &tb.Photo{File: tb.File{FileID: question.ImageRef}, Caption: text}
		return c.Send(photo, markup)
	}
	return c.Send(text, markup)
}

func (b *Bot) loadQuestion(qid int64) (content.Question, []content.Option, error) {
	question, err := b.store.GetQuestion(b.ctx(), qid)
	if err != nil {
		return content.Question{}, nil, err
	}
	opts, err := b.store.ListOptions(b.ctx(), qid)
	if err != nil {
		return content.Question{}, nil, err
	}
	return question, opts, nil
}

func renderQuestion(q content.Question, opts []content.Option) string {
	var sb strings.Builder
	sb.WriteString(q.Text)
	sb.WriteString("\n\n")
	for i, o := range opts {
		fmt.Fprintf(&sb, "%c) %s\n", 'A'+i, o.Text)
	}
	if q.QType == content.QTypeMulti {
		sb.WriteString("\nSelect all that apply, then submit.")
	}
	return sb.String()
}

func questionKeyboard(q content.Question, opts []content.Option, sess *solveflow.Session) *tb.ReplyMarkup {
	var rows [][]tb.InlineButton
	var row []tb.InlineButton
	for i, o := range opts {
		label := string(rune('A' + i))
		if q.QType == content.QTypeMulti {
			if _, ok := sess.Pending[o.ID]; ok {
				label = "☑ " + label
			}
		}
		row = append(row, ib("slv_opt", label, fmt.Sprintf("%d:%d", q.ID, o.ID)))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if q.QType == content.QTypeMulti {
		rows = append(rows, []tb.InlineButton{ib("slv_submit", "✅ Submit", itoa(q.ID))})
	}
	rows = append(rows, []tb.InlineButton{ib("slv_stop", "🏁 Stop", "")})
	return keyboard(rows...)
}

func (b *Bot) onSolveOption(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	qid, optID, err := parsePair(c.Data())
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Bad option"})
	}
	if err := sess.GuardAnswer(qid); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "This question is no longer active"})
	}
	question, opts, err := b.loadQuestion(qid)
	if err != nil {
		return c.Send("Something went wrong, try again.")
	}
	if question.QType == content.QTypeMulti {
		if err := sess.TogglePending(qid, optID); err != nil {
			return c.Respond(&tb.CallbackResponse{Text: err.Error()})
		}
		markup := questionKeyboard(question, opts, sess)
		if question.ImageRef != "" {
			return c.Edit(markup)
		}
		return c.Edit(renderQuestion(question, opts), markup)
	}
	return b.grade(c, sess, question, []int64{optID})
}

func (b *Bot) onSolveSubmit(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	qid, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Bad question"})
	}
	if err := sess.GuardAnswer(qid); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "This question is no longer active"})
	}
	chosen, err := sess.PendingIDs()
	if errors.Is(err, solveflow.ErrNoPending) {
		return c.Respond(&tb.CallbackResponse{Text: "Select at least one option"})
	}
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	question, err := b.store.GetQuestion(b.ctx(), qid)
	if err != nil {
		return c.Send("Something went wrong, try again.")
	}
	return b.grade(c, sess, question, chosen)
}

func (b *Bot) grade(c tb.Context, sess *solveflow.Session, q content.Question, chosen []int64) error {
	user, err := b.store.UserByTgID(b.ctx(), c.Sender().ID)
	if err != nil {
		return c.Send("Something went wrong, try again.")
	}
	correct, err := b.recorder.Record(b.ctx(), user.ID, q.ID, chosen)
	if err != nil {
		log.Printf("bot: record attempt for %d: %v", user.ID, err)
		return c.Send("Something went wrong, try again.")
	}
	sess.FinishQuestion(correct)

	var sb strings.Builder
	if correct {
		sb.WriteString("✅ Correct!\n")
	} else {
		sb.WriteString("❌ Wrong.\n")
	}
	if q.Explanation != "" && q.Explanation != "-" {
		sb.WriteString("\n💡 " + q.Explanation + "\n")
	}
	fmt.Fprintf(&sb, "\nScore: %d/%d", sess.Correct, sess.Solved)
	return c.Send(sb.String(), keyboard(
		[]tb.InlineButton{ib("slv_next", "➡️ Next", ""), ib("slv_stop", "🏁 Stop", "")},
	))
}

func (b *Bot) onSolveNext(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	if sess.Phase != solveflow.PhaseSolving || sess.CurrentQID != 0 {
		return c.Respond(&tb.CallbackResponse{Text: "Answer the current question first"})
	}
	return b.askQuestion(c, sess)
}

func (b *Bot) onSolveStop(c tb.Context) error {
	sess := b.solveSession(c)
	if sess == nil {
		return nil
	}
	return b.finishSession(c, sess, "Session over.")
}

func (b *Bot) finishSession(c tb.Context, sess *solveflow.Session, heading string) error {
	msg := heading
	if sess.Solved > 0 {
		msg = fmt.Sprintf("%s\n\nSolved: %d\nCorrect: %d (%.1f%%)",
			heading, sess.Solved, sess.Correct, stats.Accuracy(sess.Correct, sess.Solved))
	}
	b.solves.Clear(c.Sender().ID)
	return c.Send(msg)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func parsePair(data string) (int64, int64, error) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad payload %q", data)
	}
	a, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
