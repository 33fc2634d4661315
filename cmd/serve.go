package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/billbatista/acasinha-ledger/eventlogger"
	"github.com/billbatista/acasinha-ledger/ledger"
	"github.com/billbatista/acasinha-ledger/migrations"
	"github.com/billbatista/acasinha-ledger/session"
	"github.com/billbatista/acasinha-ledger/web"
	"github.com/spf13/cobra"
)

var (
	migrateOnStart bool
	secureCookies  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if migrateOnStart {
			if err := migrations.Up(db); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sessionRepo := session.NewRepository(db)
		if n, err := sessionRepo.DeleteExpired(ctx); err != nil {
			slog.Warn("failed to purge expired sessions", "error", err)
		} else if n > 0 {
			slog.Info("purged expired sessions", "count", n)
		}

		evtlogger := eventlogger.NewSqlEventLogger(db)
		worker := eventlogger.NewWorker(evtlogger, cfg.EventBuffer)
		worker.Start()
		defer worker.Shutdown()

		directory, err := cfg.Directory()
		if err != nil {
			return err
		}

		svc, err := newService(ledger.NewRepository(db),
			ledger.WithNotifier(eventlogger.NewNotifier(worker, "web")),
			ledger.OnPosted(worker.ExpensePosted),
		)
		if err != nil {
			return err
		}

		policy := svc.Policy()
		worker.Log(eventlogger.NewEvent(
			eventlogger.WithType(eventlogger.TypeSplitConfigLoaded),
			eventlogger.WithData(map[string]string{
				"split":    policy.Resolve(cfg.SplitInput()).String(),
				"defaults": policy.Defaults().String(),
			}),
		))

		server := web.NewServer(svc, sessionRepo, directory, worker, evtlogger, web.WithSecureCookies(secureCookies))
		httpServer := &http.Server{
			Addr:              cfg.Listen,
			Handler:           server.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("server starting", "addr", cfg.Listen)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", true, "apply database migrations before serving")
	serveCmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "mark session cookies Secure (use behind TLS)")
	rootCmd.AddCommand(serveCmd)
}
