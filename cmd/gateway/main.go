package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	tb "gopkg.in/telebot.v4"

	api "github.com/edupulse/quizbot/internal/api/http"
	"github.com/edupulse/quizbot/internal/broadcast"
	"github.com/edupulse/quizbot/internal/config"
	"github.com/edupulse/quizbot/internal/content"
	"github.com/edupulse/quizbot/internal/db"
	"github.com/edupulse/quizbot/internal/importer"
	"github.com/edupulse/quizbot/internal/logincode"
	"github.com/edupulse/quizbot/internal/quiz"
	"github.com/edupulse/quizbot/internal/rbac"
	"github.com/edupulse/quizbot/internal/solveflow"
	"github.com/edupulse/quizbot/internal/stats"
	"github.com/edupulse/quizbot/internal/tg"
	"github.com/edupulse/quizbot/internal/webauth"
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

	// Send-only Telegram client: login codes and broadcasts go out through
	// the same bot identity, but the gateway never polls for updates.
	tele, err := tb.NewBot(tb.Settings{Token: cfg.BotToken})
	if err != nil {
		log.Fatalf("telegram connect failed: %v", err)
	}
	sender := tg.NewSender(tele)

	authSvc := webauth.NewAuthService(cfg.WebSessionSecret)
	codes := logincode.New(store)
	recorder := stats.NewRecorder(store)
	solveDeps := api.SolveDeps{
		Store:    store,
		Sessions: solveflow.NewSessions(),
		Picker:   quiz.NewPicker(store),
		Recorder: recorder,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/request-code", api.RequestCodeHandler(store, codes, sender))
	r.Post("/auth/verify-code", api.VerifyCodeHandler(codes, authSvc))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(webauth.JWTMiddleware(authSvc))
		pr.Use(webauth.AttachRole(store, cfg.IsSuperadmin))

		pr.Get("/me", api.MeHandler(store))

		pr.With(rbac.Require("content:view")).
			Get("/subjects", api.ListSubjectsHandler(store))
		pr.With(rbac.Require("content:view")).
			Get("/subjects/{subjectID}/topics", api.ListTopicsHandler(store))
		pr.With(rbac.Require("content:view")).
			Get("/topics/{topicID}/subtopics", api.ListSubtopicsHandler(store))

		pr.With(rbac.Require("solve:start")).
			Post("/solve/start", api.StartSolveHandler(solveDeps))
		pr.With(rbac.Require("solve:answer")).
			Get("/solve/question", api.CurrentQuestionHandler(solveDeps))
		pr.With(rbac.Require("solve:answer")).
			Post("/solve/answer", api.AnswerHandler(solveDeps))
		pr.With(rbac.Require("solve:answer")).
			Post("/solve/stop", api.StopSolveHandler(solveDeps))

		pr.With(rbac.Require("stats:view-own")).
			Get("/stats", api.StatsHandler(store, recorder))
		pr.With(rbac.Require("stats:view-own")).
			Get("/stats/topics.png", api.TopicsChartHandler(store, recorder))

		// Admin surface
		pr.With(rbac.Require("content:create")).
			Post("/subjects", api.CreateSubjectHandler(store))
		pr.With(rbac.Require("content:create")).
			Post("/topics", api.CreateTopicHandler(store))
		pr.With(rbac.Require("content:import")).
			Post("/import", api.ImportHandler(importer.New(store)))
		pr.With(rbac.Require("questions:manage")).
			Get("/questions", api.ListQuestionsHandler(store))
		pr.With(rbac.Require("questions:manage")).
			Get("/questions/{questionID}", api.GetQuestionHandler(store))
		pr.With(rbac.Require("questions:manage")).
			Delete("/questions/{questionID}", api.DeleteQuestionHandler(store))

		// Superadmin surface
		pr.With(rbac.Require("broadcast:send")).
			Post("/broadcast", api.BroadcastHandler(store, broadcast.New(sender)))
		pr.With(rbac.Require("admins:manage")).
			Get("/admins", api.ListAdminsHandler(store))
		pr.With(rbac.Require("admins:manage")).
			Post("/admins", api.AddAdminHandler(store))
		pr.With(rbac.Require("admins:manage")).
			Delete("/admins/{tgID}", api.RemoveAdminHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
