// Package broadcast delivers a message to every known recipient with rate
// limiting and a single retry on throttling. Best-effort: partial completion
// is the expected terminal state and is reported, never rolled back.
package broadcast

import (
	"context"
	"errors"
	"time"

	"github.com/edupulse/quizbot/internal/transport"
)

const (
	defaultSendDelay   = 30 * time.Millisecond
	defaultRetryBuffer = 200 * time.Millisecond
	maxFailedIDs       = 20
)

type Report struct {
	Sent        int     `json:"sent"`
	Failed      int     `json:"failed"`
	SkippedSelf int     `json:"skipped_self"`
	FailedIDs   []int64 `json:"failed_ids"` // capped at maxFailedIDs
}

type Dispatcher struct {
	Sender      transport.Sender
	SendDelay   time.Duration // pause between consecutive sends
	RetryBuffer time.Duration // added on top of the signaled retry-after

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

func New(sender transport.Sender) *Dispatcher {
	return &Dispatcher{
		Sender:      sender,
		SendDelay:   defaultSendDelay,
		RetryBuffer: defaultRetryBuffer,
		sleep:       time.Sleep,
	}
}

// Broadcast sends text to each recipient, skipping the sender's own identity.
// On a throttling signal it waits retry-after plus the buffer and retries
// exactly once; any other failure counts immediately. A fixed delay separates
// consecutive sends regardless of outcome.
func (d *Dispatcher) Broadcast(ctx context.Context, senderTgID int64, text string, recipients []int64) Report {
	var rep Report
	for _, tgID := range recipients {
		if tgID == senderTgID {
			rep.SkippedSelf++
			continue
		}
		if err := d.sendOnce(ctx, tgID, text); err != nil {
			rep.Failed++
			if len(rep.FailedIDs) < maxFailedIDs {
				rep.FailedIDs = append(rep.FailedIDs, tgID)
			}
		} else {
			rep.Sent++
		}
		d.sleep(d.SendDelay)
	}
	return rep
}

func (d *Dispatcher) sendOnce(ctx context.Context, tgID int64, text string) error {
	err := d.Sender.Send(ctx, tgID, text)
	if err == nil {
		return nil
	}
	var throttled *transport.ThrottledError
	if errors.As(err, &throttled) {
		d.sleep(throttled.RetryAfter + d.RetryBuffer)
		return d.Sender.Send(ctx, tgID, text)
	}
	return err
}
