// Package tg binds the quiz flows to Telegram via telebot. Everything here
// is glue: rendering, keyboards and error mapping around the pure flow
// packages.
package tg

import (
	"context"
	"errors"
	"time"

	tb "gopkg.in/telebot.v4"

	"github.com/edupulse/quizbot/internal/transport"
)

// Sender adapts a telebot bot to the transport contract used by login-code
// delivery and the broadcast dispatcher.
type Sender struct {
	bot *tb.Bot
}

func NewSender(bot *tb.Bot) *Sender { return &Sender{bot: bot} }

func (s *Sender) Send(ctx context.Context, tgID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.bot.Send(tb.ChatID(tgID), text)
	return mapSendError(err)
}

func mapSendError(err error) error {
	if err == nil {
		return nil
	}
	var flood tb.FloodError
	if errors.As(err, &flood) {
		return &transport.ThrottledError{RetryAfter: time.Duration(flood.RetryAfter) * time.Second}
	}
	if errors.Is(err, tb.ErrBlockedByUser) {
		return transport.ErrBlocked
	}
	return err
}
