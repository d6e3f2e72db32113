package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken    string
	BotUsername string

	// Telegram ids that always hold admin + superadmin rights, regardless
	// of the admins table.
	SuperadminIDs map[int64]struct{}

	DBDriver string // sqlite|postgres
	DBDSN    string

	HTTPAddr         string
	WebSessionSecret string
}

// FromEnv loads .env if present and resolves configuration from the
// environment. Missing values fall back to dev defaults; binaries that
// cannot run without a value (e.g. the bot token) validate it themselves.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		BotToken:         strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		BotUsername:      strings.TrimPrefix(strings.TrimSpace(os.Getenv("BOT_USERNAME")), "@"),
		SuperadminIDs:    parseIDSet(os.Getenv("SUPERADMIN_IDS")),
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		WebSessionSecret: envOr("WEB_SESSION_SECRET", "change-me-in-env"),
	}
}

func (c Config) IsSuperadmin(tgID int64) bool {
	_, ok := c.SuperadminIDs[tgID]
	return ok
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func parseIDSet(raw string) map[int64]struct{} {
	out := map[int64]struct{}{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}
