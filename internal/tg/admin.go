package tg

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tb "gopkg.in/telebot.v4"

	"github.com/edupulse/quizbot/internal/content"
)

// /add_subject code|Name
func (b *Bot) onAddSubject(c tb.Context) error {
	code, name, ok := splitPipe(c.Message().Payload)
	if !ok {
		return c.Send("Usage: /add_subject code|Name\nExample: /add_subject biology|Biology")
	}
	code = strings.ToLower(code)
	if _, err := b.store.SubjectByCode(b.ctx(), code); err == nil {
		return c.Send("A subject with this code already exists.")
	} else if !errors.Is(err, content.ErrNotFound) {
		log.Printf("bot: subject lookup: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	if _, err := b.store.CreateSubject(b.ctx(), code, name); err != nil {
		log.Printf("bot: create subject: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	return c.Send(fmt.Sprintf("Subject %q (%s) created.", name, code))
}

// /add_topic subject_code|Topic name
func (b *Bot) onAddTopic(c tb.Context) error {
	code, name, ok := splitPipe(c.Message().Payload)
	if !ok {
		return c.Send("Usage: /add_topic subject_code|Topic name")
	}
	subj, err := b.store.SubjectByCode(b.ctx(), strings.ToLower(code))
	if errors.Is(err, content.ErrNotFound) {
		return c.Send("Unknown subject code. See /subjects.")
	}
	if err != nil {
		log.Printf("bot: subject lookup: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	if _, err := b.store.GetOrCreateTopic(b.ctx(), subj.ID, name); err != nil {
		log.Printf("bot: create topic: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	return c.Send(fmt.Sprintf("Topic %q added to %s.", name, subj.Name))
}

func splitPipe(payload string) (left, right string, ok bool) {
	parts := strings.SplitN(payload, "|", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	left = strings.TrimSpace(parts[0])
	right = strings.TrimSpace(parts[1])
	return left, right, left != "" && right != ""
}

func (b *Bot) onListAdmins(c tb.Context) error {
	ids, err := b.store.ListAdmins(b.ctx())
	if err != nil {
		log.Printf("bot: list admins: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	if len(ids) == 0 {
		return c.Send("No admins yet.")
	}
	var sb strings.Builder
	sb.WriteString("Admins:\n")
	for _, id := range ids {
		fmt.Fprintf(&sb, "• %d", id)
		if b.isSuper(id) {
			sb.WriteString(" (superadmin)")
		}
		sb.WriteString("\n")
	}
	return c.Send(sb.String())
}

// /add_admin <tg id>
func (b *Bot) onAddAdmin(c tb.Context) error {
	tgID, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil {
		return c.Send("Usage: /add_admin <telegram id>")
	}
	callerID := c.Sender().ID
	added, err := b.store.AddAdmin(b.ctx(), tgID, &callerID)
	if err != nil {
		log.Printf("bot: add admin: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	if !added {
		return c.Send("Already an admin.")
	}
	return c.Send(fmt.Sprintf("Admin %d added.", tgID))
}

// /del_admin <tg id>
func (b *Bot) onDelAdmin(c tb.Context) error {
	tgID, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil {
		return c.Send("Usage: /del_admin <telegram id>")
	}
	if b.isSuper(tgID) {
		return c.Send("Superadmins cannot be removed.")
	}
	removed, err := b.store.RemoveAdmin(b.ctx(), tgID)
	if err != nil {
		log.Printf("bot: remove admin: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	if !removed {
		return c.Send("Not an admin.")
	}
	return c.Send(fmt.Sprintf("Admin %d removed.", tgID))
}

// /broadcast <text>
func (b *Bot) onBroadcast(c tb.Context) error {
	text := strings.TrimSpace(c.Message().Payload)
	if n := len([]rune(text)); n < 3 || n > 3500 {
		return c.Send("Usage: /broadcast <text> (3 to 3500 characters)")
	}
	recipients, err := b.store.ListUserTgIDs(b.ctx())
	if err != nil {
		log.Printf("bot: recipient lookup: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	rep := b.disp.Broadcast(b.ctx(), c.Sender().ID, text, recipients)
	msg := fmt.Sprintf("Broadcast done.\nSent: %d\nFailed: %d", rep.Sent, rep.Failed)
	if len(rep.FailedIDs) > 0 {
		strs := make([]string, 0, len(rep.FailedIDs))
		for _, id := range rep.FailedIDs {
			strs = append(strs, strconv.FormatInt(id, 10))
		}
		msg += "\nFailed ids: " + strings.Join(strs, ", ")
	}
	return c.Send(msg)
}
