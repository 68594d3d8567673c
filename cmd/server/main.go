package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/Simplici0/cgpa.works/internal/config"
	"github.com/Simplici0/cgpa.works/internal/db"
	"github.com/Simplici0/cgpa.works/internal/formstate"
	"github.com/Simplici0/cgpa.works/internal/logging"
	"github.com/Simplici0/cgpa.works/internal/migrations"
	"github.com/Simplici0/cgpa.works/internal/seed"
	"github.com/Simplici0/cgpa.works/internal/tuition"
)

type server struct {
	db       *sql.DB
	store    *formstate.Store
	sessions *sessionManager
	logger   gokitlog.Logger
}

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)

	for _, warning := range cfg.Warnings() {
		_ = level.Warn(logger).Log("msg", "config", "warning", warning)
	}

	if err := run(cfg, logger); err != nil {
		_ = level.Error(logger).Log("msg", "server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger gokitlog.Logger) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		return err
	}
	version, err := migrations.Version(database)
	if err != nil {
		return err
	}
	_ = level.Info(logger).Log("msg", "migrations applied", "version", version)

	stats, err := seed.Run(database, seed.Config{TrimesterFee: tuition.FromFloat(cfg.TrimesterFee)})
	if err != nil {
		return err
	}
	_ = level.Info(logger).Log("msg", "seed complete", "inserts", stats.Inserts, "updates", stats.Updates)

	secret := cfg.SessionSecret
	if secret == "" {
		// Sessions will not survive a restart.
		secret = uuid.NewString()
	}

	srv := newServer(database, newSessionManager(secret, !cfg.IsDev()), logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		_ = level.Info(logger).Log("msg", "listening", "addr", httpServer.Addr, "env", cfg.Env)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = level.Info(logger).Log("msg", "shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func newServer(database *sql.DB, sessions *sessionManager, logger gokitlog.Logger) *server {
	return &server{
		db:       database,
		store:    formstate.NewStore(database),
		sessions: sessions,
		logger:   logger,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.middleware)

		r.Get("/", s.handleHome)
		r.Post("/state", s.handleStateSubmit)
		r.Post("/courses", s.handleAddCourse)
		r.Post("/courses/{index}/delete", s.handleRemoveCourse)
		r.Post("/retakes", s.handleAddRetake)
		r.Post("/retakes/{index}/delete", s.handleRemoveRetake)
		r.Get("/results", s.handleResults)
		r.Post("/theme", s.handleToggleTheme)
		r.Get("/reset", s.handleResetForm)
		r.Post("/reset", s.handleResetSubmit)

		r.Route("/api", func(r chi.Router) {
			r.Get("/grades", s.handleAPIGrades)
			r.Get("/state", s.handleAPIGetState)
			r.Put("/state", s.handleAPIPutState)
			r.Delete("/state", s.handleAPIDeleteState)
			r.Patch("/state/courses/{index}", s.handleAPIUpdateCourse)
			r.Patch("/state/retakes/{index}", s.handleAPIUpdateRetake)
			r.Post("/gpa", s.handleAPIGPA)
			r.Post("/cgpa", s.handleAPICGPA)
			r.Post("/target", s.handleAPITarget)
			r.Post("/tuition", s.handleAPITuition)
		})
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		_ = level.Debug(s.logger).Log(
			"msg", "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// loadInputs reads the session's state and parses it with the stored defaults.
func (s *server) loadInputs(ctx context.Context, session string) (formstate.State, formstate.Defaults, formstate.Inputs, error) {
	st, err := s.store.Load(ctx, session)
	if err != nil {
		return formstate.State{}, formstate.Defaults{}, formstate.Inputs{}, err
	}
	defaults, err := s.store.Defaults(ctx)
	if err != nil {
		return formstate.State{}, formstate.Defaults{}, formstate.Inputs{}, err
	}
	in, err := st.Parse(defaults)
	return st, defaults, in, err
}

func (s *server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	_ = level.Error(s.logger).Log("msg", msg, "err", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	http.Error(w, msg, http.StatusInternalServerError)
}
