package tg

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	tb "gopkg.in/telebot.v4"

	"github.com/edupulse/quizbot/internal/charts"
	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/stats"
)

const statDays = 7

func (b *Bot) sendStats(c tb.Context, user content.User) error {
	ctx := b.ctx()
	total, correct, err := b.recorder.Totals(ctx, user.ID)
	if err != nil {
		log.Printf("bot: totals for %d: %v", user.ID, err)
		return c.Send("Something went wrong, try again.")
	}
	if total == 0 {
		return c.Send("No attempts yet. Try /solve first!")
	}
	byTopic, err := b.recorder.SolvedByTopic(ctx, user.ID, 10)
	if err != nil {
		return c.Send("Something went wrong, try again.")
	}
	daily, err := b.recorder.AccuracyByDay(ctx, user.ID, statDays)
	if err != nil {
		return c.Send("Something went wrong, try again.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Your stats\n\nSolved: %d\nCorrect: %d (%.1f%%)\n",
		total, correct, stats.Accuracy(correct, total))
	if streak := stats.Streak(daily); streak > 0 {
		fmt.Fprintf(&sb, "🔥 Perfect days in a row: %d\n", streak)
	}
	sb.WriteString("\nLast days:\n")
	for _, d := range daily {
		if d.Solved == 0 {
			fmt.Fprintf(&sb, "%s: —\n", d.Date)
			continue
		}
		fmt.Fprintf(&sb, "%s: %d/%d\n", d.Date, d.Correct, d.Solved)
	}
	if err := c.Send(sb.String()); err != nil {
		return err
	}

	png, err := charts.TopicsPNG(byTopic)
	if errors.Is(err, charts.ErrNoData) {
		return nil
	}
	if err != nil {
		log.Printf("bot: chart for %d: %v", user.ID, err)
		return nil
	}
	photo := &tb.Photo{File: tb.FromReader(bytes.NewReader(png)), Caption: "Solved by topic"}
	return c.Send(photo)
}
