// Package cmd wires the acasinha command line.
package cmd

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/billbatista/acasinha-ledger/config"
	"github.com/billbatista/acasinha-ledger/ledger"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "acasinha",
	Short: "Shared expenses ledger for two",
	Long: `acasinha records expenses shared by two people and keeps the running
balance of who owes whom.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["config"] == "skip" {
			return nil
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogger(cfg)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultPath := os.Getenv("ACASINHA_CONFIG")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the TOML configuration file")
}

func setupLogger(c *config.Config) {
	opts := &slog.HandlerOptions{Level: config.ParseLevel(c.LogLevel)}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openDatabase() (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// newService builds the ledger service from configuration.
func newService(repo ledger.Repository, opts ...ledger.ServiceOption) (*ledger.Service, error) {
	policy, err := cfg.SplitPolicy(slog.Default())
	if err != nil {
		return nil, err
	}

	opts = append([]ledger.ServiceOption{
		ledger.WithPolicy(policy),
		ledger.WithSplit(cfg.SplitInput()),
		ledger.WithNames(cfg.Names()),
		ledger.WithDefaultCategory(cfg.DefaultCategory),
		ledger.WithCategories(cfg.Categories),
		ledger.WithRecentLimit(cfg.RecentLimit),
	}, opts...)

	return ledger.NewService(repo, opts...), nil
}
