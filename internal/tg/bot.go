package tg

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tb "gopkg.in/telebot.v4"

	"github.com/edupulse/quizbot/internal/authorflow"
	"github.com/edupulse/quizbot/internal/broadcast"
	"github.com/edupulse/quizbot/internal/config"
	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/quiz"
	"github.com/edupulse/quizbot/internal/solveflow"
	"github.com/edupulse/quizbot/internal/stats"
)

type Bot struct {
	tele     *tb.Bot
	store    content.Store
	picker   *quiz.Picker
	recorder *stats.Recorder
	disp     *broadcast.Dispatcher
	drafts   *authorflow.Sessions
	solves   *solveflow.Sessions
	isSuper  func(tgID int64) bool
}

func New(cfg *config.Config, store content.Store) (*Bot, error) {
	tele, err := tb.NewBot(tb.Settings{
		Token:  cfg.BotToken,
		Poller: &tb.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	b := &Bot{
		tele:     tele,
		store:    store,
		picker:   quiz.NewPicker(store),
		recorder: stats.NewRecorder(store),
		disp:     broadcast.New(NewSender(tele)),
		drafts:   authorflow.NewSessions(),
		solves:   solveflow.NewSessions(),
		isSuper:  cfg.IsSuperadmin,
	}
	b.register()
	return b, nil
}

// Client exposes the underlying telebot client for out-of-band sends
// (login codes issued by the web gateway).
func (b *Bot) Client() *tb.Bot { return b.tele }

func (b *Bot) Start() {
	log.Printf("bot: polling as @%s", b.tele.Me.Username)
	b.tele.Start()
}

func (b *Bot) Stop() { b.tele.Stop() }

func (b *Bot) register() {
	b.tele.Handle("/start", b.onStart)
	b.tele.Handle("/menu", b.onMenu)
	b.tele.Handle("/subjects", b.onSubjects)
	b.tele.Handle("/solve", b.onSolve)
	b.tele.Handle("/stats", b.onStats)

	b.tele.Handle("/admin", b.adminOnly(b.onAdmin))
	b.tele.Handle("/add_subject", b.adminOnly(b.onAddSubject))
	b.tele.Handle("/add_topic", b.adminOnly(b.onAddTopic))

	b.tele.Handle("/admins", b.superOnly(b.onListAdmins))
	b.tele.Handle("/add_admin", b.superOnly(b.onAddAdmin))
	b.tele.Handle("/del_admin", b.superOnly(b.onDelAdmin))
	b.tele.Handle("/broadcast", b.superOnly(b.onBroadcast))

	b.registerSolveCallbacks()
	b.registerWizardCallbacks()

	b.tele.Handle(tb.OnText, b.onText)
	b.tele.Handle(tb.OnPhoto, b.onPhoto)
}

func (b *Bot) ctx() context.Context { return context.Background() }

// upsertUser refreshes the profile row from the incoming update.
func (b *Bot) upsertUser(c tb.Context) (content.User, error) {
	from := c.Sender()
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return b.store.GetOrCreateUser(b.ctx(), from.ID, name, "", from.Username)
}

func (b *Bot) isAdmin(tgID int64) bool {
	if b.isSuper(tgID) {
		return true
	}
	ok, err := b.store.IsAdmin(b.ctx(), tgID)
	if err != nil {
		log.Printf("bot: admin lookup for %d: %v", tgID, err)
		return false
	}
	return ok
}

func (b *Bot) adminOnly(h tb.HandlerFunc) tb.HandlerFunc {
	return func(c tb.Context) error {
		if !b.isAdmin(c.Sender().ID) {
			return c.Send("This command is for admins.")
		}
		return h(c)
	}
}

func (b *Bot) superOnly(h tb.HandlerFunc) tb.HandlerFunc {
	return func(c tb.Context) error {
		if !b.isSuper(c.Sender().ID) {
			return c.Send("This command is for superadmins.")
		}
		return h(c)
	}
}

func (b *Bot) onStart(c tb.Context) error {
	user, err := b.upsertUser(c)
	if err != nil {
		log.Printf("bot: upsert user %d: %v", c.Sender().ID, err)
		return c.Send("Something went wrong, try again.")
	}
	return c.Send(fmt.Sprintf("Hi, %s!\n\n%s", user.FullName, menuText(b.isAdmin(user.TgID))))
}

func (b *Bot) onMenu(c tb.Context) error {
	return c.Send(menuText(b.isAdmin(c.Sender().ID)))
}

func menuText(admin bool) string {
	var sb strings.Builder
	sb.WriteString("Commands:\n")
	sb.WriteString("/solve — start a quiz\n")
	sb.WriteString("/stats — your progress\n")
	sb.WriteString("/subjects — available subjects\n")
	if admin {
		sb.WriteString("\nAdmin:\n")
		sb.WriteString("/admin — add a question\n")
		sb.WriteString("/add_subject code|Name\n")
		sb.WriteString("/add_topic subject_code|Topic name\n")
	}
	return sb.String()
}

func (b *Bot) onSubjects(c tb.Context) error {
	subs, err := b.store.ListSubjects(b.ctx())
	if err != nil {
		log.Printf("bot: list subjects: %v", err)
		return c.Send("Something went wrong, try again.")
	}
	if len(subs) == 0 {
		return c.Send("No subjects yet.")
	}
	var sb strings.Builder
	sb.WriteString("Subjects:\n")
	for _, s := range subs {
		fmt.Fprintf(&sb, "• %s (%s)\n", s.Name, s.Code)
	}
	return c.Send(sb.String())
}

func (b *Bot) onStats(c tb.Context) error {
	user, err := b.upsertUser(c)
	if err != nil {
		return c.Send("Something went wrong, try again.")
	}
	return b.sendStats(c, user)
}
