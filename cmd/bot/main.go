package main

import (
	"context"
	"log"
	"time"

	"github.com/edupulse/quizbot/internal/config"
	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/db"
	"github.com/edupulse/quizbot/internal/tg"
)

func main() {
	cfg := config.FromEnv()
	if cfg.BotToken == "" {
		log.Fatal("BOT_TOKEN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := content.NewSQLStore(dbh)

	// Superadmins are always present in the admins table so both surfaces
	// agree on who may manage content.
	for id := range cfg.SuperadminIDs {
		if _, err := store.AddAdmin(ctx, id, nil); err != nil {
			log.Fatalf("seed superadmin %d: %v", id, err)
		}
	}

	bot, err := tg.New(&cfg, store)
	if err != nil {
		log.Fatalf("bot init failed: %v", err)
	}
	bot.Start()
}
