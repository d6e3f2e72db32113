// Package logincode issues and verifies the one-time codes used by the web
// login handshake. Only a bcrypt hash is stored; the raw code travels
// out-of-band through the chat transport.
package logincode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/edupulse/quizbot/internal/content"
)

const (
	// TTL is the code validity window.
	TTL = 10 * time.Minute

	codeSpace = 1_000_000 // 6 decimal digits
)

// ErrInvalidCode covers unknown, expired, and already-used codes uniformly so
// the caller cannot distinguish them.
var ErrInvalidCode = errors.New("invalid or expired code")

// Store is the slice of the content store the service needs.
type Store interface {
	InsertLoginCode(ctx context.Context, tgID int64, codeHash string, createdAt, expiresAt time.Time) (int64, error)
	ActiveLoginCodes(ctx context.Context, tgID int64, now time.Time) ([]content.LoginCode, error)
	MarkLoginCodeUsed(ctx context.Context, id int64, now time.Time) error
	UserByTgID(ctx context.Context, tgID int64) (content.User, error)
}

type Service struct {
	store Store

	// now is swappable in tests.
	now func() time.Time
}

func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Issue generates a 6-digit code for the identity, stores its hash with a
// 10-minute expiry, and returns the raw code for out-of-band delivery.
func (s *Service) Issue(ctx context.Context, tgID int64) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	if _, err := s.store.InsertLoginCode(ctx, tgID, string(hash), now, now.Add(TTL)); err != nil {
		return "", err
	}
	return code, nil
}

// Verify accepts the code only when a matching unused, unexpired hash exists
// for the identity, and marks it used so the first successful check is the
// only one. Returns the user on success.
func (s *Service) Verify(ctx context.Context, tgID int64, code string) (content.User, error) {
	if len(code) != 6 || !allDigits(code) {
		return content.User{}, ErrInvalidCode
	}
	now := s.now().UTC()
	active, err := s.store.ActiveLoginCodes(ctx, tgID, now)
	if err != nil {
		return content.User{}, err
	}
	for _, lc := range active {
		if bcrypt.CompareHashAndPassword([]byte(lc.CodeHash), []byte(code)) != nil {
			continue
		}
		if err := s.store.MarkLoginCodeUsed(ctx, lc.ID, now); err != nil {
			// Raced with another verification of the same code.
			if errors.Is(err, content.ErrNotFound) {
				return content.User{}, ErrInvalidCode
			}
			return content.User{}, err
		}
		u, err := s.store.UserByTgID(ctx, tgID)
		if err != nil {
			return content.User{}, err
		}
		return u, nil
	}
	return content.User{}, ErrInvalidCode
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
