package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YusovID/editorial-workflow/internal/config"
	"github.com/YusovID/editorial-workflow/internal/notify"
	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/YusovID/editorial-workflow/internal/repository"
	"github.com/YusovID/editorial-workflow/internal/repository/memory"
	"github.com/YusovID/editorial-workflow/internal/repository/postgres"
	"github.com/YusovID/editorial-workflow/internal/scheduler"
	"github.com/YusovID/editorial-workflow/internal/service"
	"github.com/YusovID/editorial-workflow/internal/sweep"
	myhttp "github.com/YusovID/editorial-workflow/internal/transport/http"
	"github.com/YusovID/editorial-workflow/pkg/logger/sl"
	"github.com/YusovID/editorial-workflow/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting editorial-workflow",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage),
		slog.String("transport", cfg.Notifications.Transport),
	)

	store, closeStore, err := newStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("failed to close storage", sl.Err(err))
		}
	}()

	dispatcher := newDispatcher(cfg, log)
	policies := policy.NewStore(store.TimeLimits(), log)

	engine := sweep.NewEngine(store, policies, dispatcher, log, sweep.Options{
		Fanout:               cfg.Sweep.Fanout,
		DispatchTimeout:      cfg.Sweep.DispatchTimeout,
		EditorialOfficeEmail: cfg.Notifications.EditorialOfficeEmail,
		ResponseBaseURL:      cfg.Notifications.ResponseBaseURL,
	})

	sched := scheduler.New(engine, cfg.Scheduler.Interval, cfg.Scheduler.RunOnStart, log)
	if cfg.Scheduler.Enabled {
		sched.Start(ctx)
		defer sched.Stop()
	}

	base := service.NewBaseService(store, policies, dispatcher, log, service.Options{
		EditorialOfficeEmail: cfg.Notifications.EditorialOfficeEmail,
		ResponseBaseURL:      cfg.Notifications.ResponseBaseURL,
		DispatchTimeout:      cfg.Sweep.DispatchTimeout,
	})

	srv := myhttp.NewServer(
		log,
		service.NewManuscriptService(base),
		service.NewAssignmentService(base),
		service.NewInvitationService(base),
		policies,
		sched,
	)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		// A manual sweep is answered synchronously.
		WriteTimeout: cfg.Server.Timeout + time.Minute,
	}

	errChan := make(chan error, 1)

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %w", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %w", err)
	}

	return nil
}

func newStore(cfg *config.Config, log *slog.Logger) (repository.Store, func() error, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, state is lost on restart")
		return memory.New(), func() error { return nil }, nil
	}

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}

	return db, db.DB().Close, nil
}

func newDispatcher(cfg *config.Config, log *slog.Logger) notify.Dispatcher {
	if cfg.Notifications.Transport == config.TransportSMTP {
		return notify.NewSMTPDispatcher(cfg.SMTP, log)
	}

	return notify.NewLogDispatcher(log)
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %w", err)
	}
}
