package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"practice-roster/internal/app/participant"
	"practice-roster/internal/app/practice"
	"practice-roster/internal/config"
	"practice-roster/internal/importer"
	"practice-roster/internal/logging"
	"practice-roster/internal/notify"
	"practice-roster/internal/scheduler"
	"practice-roster/internal/store"
	httptransport "practice-roster/internal/transport/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.AppConfig) error {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		return err
	}

	notifier := notify.New(cfg.Notify.BaseURL, time.Duration(cfg.Notify.TimeoutMS)*time.Millisecond)
	practices := practice.NewService(st, notifier, practice.WithMaxAttempts(cfg.Server.SignupMaxAttempts))
	defer practices.Wait()
	participants := participant.NewService(st)

	sched := scheduler.New(practices, st)
	practices.SetPracticeObserver(sched)

	syncer := importer.NewSyncer(cfg.Import, practices, participants, st)
	if syncer.Enabled() {
		if err := syncer.SyncOnce(ctx); err != nil {
			log.Warn().Err(err).Msg("startup import incomplete")
		}
	}
	if _, err := sched.Recover(ctx); err != nil {
		sched.Stop()
		return err
	}

	r := httptransport.NewRouter(httptransport.Deps{
		DB:           st,
		Practices:    practices,
		Participants: participants,
		Jobs:         sched,
	}, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		log.Info().Dur("timeout", timeout).Msg("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	if syncer.Enabled() {
		g.Go(func() error {
			return syncer.Run(gctx)
		})
	}
	return g.Wait()
}
