package tg

import (
	"fmt"
	"log"
	"strconv"

	tb "gopkg.in/telebot.v4"

	"github.com/edupulse/quizbot/internal/authorflow"
	"github.com/edupulse/quizbot/internal/content"
)

func (b *Bot) registerWizardCallbacks() {
	b.tele.Handle(&tb.InlineButton{Unique: "wz_subj"}, b.wizardGuard(b.onWizardSubject))
	b.tele.Handle(&tb.InlineButton{Unique: "wz_topic"}, b.wizardGuard(b.onWizardTopic))
	b.tele.Handle(&tb.InlineButton{Unique: "wz_st"}, b.wizardGuard(b.onWizardSubtopic))
	b.tele.Handle(&tb.InlineButton{Unique: "wz_st_new"}, b.wizardGuard(b.onWizardNewSubtopic))
	b.tele.Handle(&tb.InlineButton{Unique: "wz_st_skip"}, b.wizardGuard(b.onWizardSkipSubtopic))
	b.tele.Handle(&tb.InlineButton{Unique: "wz_type"}, b.wizardGuard(b.onWizardType))
	b.tele.Handle(&tb.InlineButton{Unique: "wz_noimg"}, b.wizardGuard(b.onWizardNoImage))
	b.tele.Handle(&tb.InlineButton{Unique: "wz_cancel"}, b.onWizardCancel)
}

// onAdmin starts a fresh authoring wizard.
func (b *Bot) onAdmin(c tb.Context) error {
	subs, err := b.store.ListSubjects(b.ctx())
	if err != nil {
		log.Printf("bot: list subjects: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	if len(subs) == 0 {
		return c.Send("Create a subject first: /add_subject code|Name")
	}
	b.drafts.Start(c.Sender().ID)
	rows := make([][]tb.InlineButton, 0, len(subs)+1)
	for _, s := range subs {
		rows = append(rows, []tb.InlineButton{ib("wz_subj", s.Name, itoa(s.ID))})
	}
	rows = append(rows, cancelRow())
	return c.Send("New question. Choose a subject:", keyboard(rows...))
}

func cancelRow() []tb.InlineButton {
	return []tb.InlineButton{ib("wz_cancel", "✖️ Cancel", "")}
}

type wizardHandler func(c tb.Context, d *authorflow.Draft) error

// wizardGuard resolves the caller's draft; callbacks without one are stale
// leftovers from a cancelled wizard.
func (b *Bot) wizardGuard(h wizardHandler) tb.HandlerFunc {
	return func(c tb.Context) error {
		if !b.isAdmin(c.Sender().ID) {
			return c.Respond(&tb.CallbackResponse{Text: "Admins only"})
		}
		d := b.drafts.Get(c.Sender().ID)
		if d == nil {
			return c.Respond(&tb.CallbackResponse{Text: "Start with /admin"})
		}
		return h(c, d)
	}
}

func (b *Bot) onWizardCancel(c tb.Context) error {
	b.drafts.Clear(c.Sender().ID)
	return c.Edit("Question creation cancelled.")
}

func (b *Bot) onWizardSubject(c tb.Context, d *authorflow.Draft) error {
	subjectID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Bad subject"})
	}
	if err := d.PickSubject(subjectID); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	topics, err := b.store.ListTopics(b.ctx(), subjectID)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Something went wrong"})
	}
	if len(topics) == 0 {
		b.drafts.Clear(c.Sender().ID)
		return c.Edit("No topics in this subject. Add one first: /add_topic code|Topic name")
	}
	rows := make([][]tb.InlineButton, 0, len(topics)+1)
	for _, t := range topics {
		rows = append(rows, []tb.InlineButton{ib("wz_topic", t.Name, itoa(t.ID))})
	}
	rows = append(rows, cancelRow())
	return c.Edit("Choose a topic:", keyboard(rows...))
}

func (b *Bot) onWizardTopic(c tb.Context, d *authorflow.Draft) error {
	topicID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Bad topic"})
	}
	if err := d.PickTopic(topicID); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	subtopics, err := b.store.ListSubtopics(b.ctx(), topicID)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Something went wrong"})
	}
	rows := make([][]tb.InlineButton, 0, len(subtopics)+3)
	for _, st := range subtopics {
		rows = append(rows, []tb.InlineButton{ib("wz_st", st.Name, itoa(st.ID))})
	}
	rows = append(rows,
		[]tb.InlineButton{ib("wz_st_new", "➕ New subtopic", "")},
		[]tb.InlineButton{ib("wz_st_skip", "⏭ No subtopic", "")},
		cancelRow(),
	)
	return c.Edit("Choose a subtopic:", keyboard(rows...))
}

func (b *Bot) onWizardSubtopic(c tb.Context, d *authorflow.Draft) error {
	id, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&tb.CallbackResponse{Text: "Bad subtopic"})
	}
	if err := d.PickSubtopic(&id); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	return b.promptType(c)
}

func (b *Bot) onWizardNewSubtopic(c tb.Context, d *authorflow.Draft) error {
	if err := d.RequestNewSubtopic(); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	return c.Edit("Send the new subtopic name:")
}

func (b *Bot) onWizardSkipSubtopic(c tb.Context, d *authorflow.Draft) error {
	if err := d.PickSubtopic(nil); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	return b.promptType(c)
}

func (b *Bot) promptType(c tb.Context) error {
	return c.Edit("Question type:", keyboard(
		[]tb.InlineButton{
			ib("wz_type", "One correct answer", string(content.QTypeSingle)),
			ib("wz_type", "Several correct", string(content.QTypeMulti)),
		},
		cancelRow(),
	))
}

func (b *Bot) onWizardType(c tb.Context, d *authorflow.Draft) error {
	if err := d.SetType(content.QType(c.Data())); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	return c.Edit("Send the question text (at least 5 characters):")
}

func (b *Bot) onWizardNoImage(c tb.Context, d *authorflow.Draft) error {
	if err := d.SkipImage(); err != nil {
		return c.Respond(&tb.CallbackResponse{Text: err.Error()})
	}
	return c.Edit(optionsPrompt)
}

const optionsPrompt = "Send the options, one per line:\nA) first\nB) second\nC) third"

// onText feeds free-text messages into the active wizard draft. Messages
// from users without a draft are ignored.
func (b *Bot) onText(c tb.Context) error {
	d := b.drafts.Get(c.Sender().ID)
	if d == nil {
		return nil
	}
	if !b.isAdmin(c.Sender().ID) {
		b.drafts.Clear(c.Sender().ID)
		return nil
	}
	text := c.Text()

	switch {
	case d.Step == authorflow.StepSubtopic && d.AwaitingSubtopicName:
		if err := authorflow.ValidateSubtopicName(text); err != nil {
			return c.Send(err.Error())
		}
		id, err := b.store.GetOrCreateSubtopic(b.ctx(), d.TopicID, text)
		if err != nil {
			log.Printf("bot: create subtopic: %v", err)
			return c.Send("Something went wrong, try again.")
		}
		if err := d.PickSubtopic(&id); err != nil {
			return c.Send(err.Error())
		}
		return b.promptTypeMessage(c)

	case d.Step == authorflow.StepText:
		if err := d.SetText(text); err != nil {
			return c.Send(err.Error())
		}
		return c.Send("Send an image for the question, or skip:", keyboard(
			[]tb.InlineButton{ib("wz_noimg", "⏭ No image", "")},
			cancelRow(),
		))

	case d.Step == authorflow.StepOptions:
		if err := d.SetOptions(text); err != nil {
			return c.Send(err.Error())
		}
		return c.Send("Which labels are correct? E.g. A or A,C")

	case d.Step == authorflow.StepCorrect:
		if err := d.SetCorrect(text); err != nil {
			return c.Send(err.Error())
		}
		return c.Send("Send an explanation shown after a wrong answer:")

	case d.Step == authorflow.StepExplanation:
		if err := d.SetExplanation(text); err != nil {
			return c.Send(err.Error())
		}
		return b.commitDraft(c, d)
	}
	return nil
}

// promptTypeMessage is the new-message variant of promptType, used after a
// text step where there is no bot message to edit.
func (b *Bot) promptTypeMessage(c tb.Context) error {
	return c.Send("Question type:", keyboard(
		[]tb.InlineButton{
			ib("wz_type", "One correct answer", string(content.QTypeSingle)),
			ib("wz_type", "Several correct", string(content.QTypeMulti)),
		},
		cancelRow(),
	))
}

// onPhoto captures the question image during the image step.
func (b *Bot) onPhoto(c tb.Context) error {
	d := b.drafts.Get(c.Sender().ID)
	if d == nil || d.Step != authorflow.StepImage {
		return nil
	}
	photo := c.Message().Photo
	if photo == nil {
		return nil
	}
	if err := d.SetImage(photo.FileID); err != nil {
		return c.Send(err.Error())
	}
	return c.Send(optionsPrompt)
}

func (b *Bot) commitDraft(c tb.Context, d *authorflow.Draft) error {
	q, err := d.Build()
	if err != nil {
		return c.Send(err.Error())
	}
	id, err := b.store.CreateQuestion(b.ctx(), q)
	if err != nil {
		log.Printf("bot: create question: %v", err)
		return c.Send("Could not save the question, try again.")
	}
	b.drafts.Clear(c.Sender().ID)
	return c.Send(fmt.Sprintf("✅ Question #%d saved.", id))
}
