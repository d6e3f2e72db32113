// Package transport defines the outbound chat-delivery contract consumed by
// the broadcast dispatcher and the login-code flow. The concrete Telegram
// binding lives in internal/tg.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sender delivers a text message to a chat identity.
type Sender interface {
	Send(ctx context.Context, tgID int64, text string) error
}

// ThrottledError signals rate limiting with the duration to wait before
// retrying.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled: retry after %s", e.RetryAfter)
}

// ErrBlocked marks a permanent delivery failure (recipient blocked the bot
// or the chat is gone); retrying is pointless.
var ErrBlocked = errors.New("recipient blocked or unavailable")
