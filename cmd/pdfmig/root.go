package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/pdfmig/blobstore"
	"github.com/hazyhaar/pdfmig/migrate"
	"github.com/hazyhaar/pdfmig/observability"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pdfmig",
	Short: "Convert documents to PDF and migrate blob stores",
}

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(analyseCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(failuresCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(inspectCmd)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*migrate.Config, error) {
	var cfg *migrate.Config
	var err error
	if configFile != "" {
		cfg, err = migrate.LoadConfig(configFile)
	} else {
		cfg = migrate.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.FromEnv(); err != nil {
		return nil, err
	}
	cfg.Logger = newLogger()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDriver(cfg *migrate.Config) (*migrate.Driver, func(), error) {
	store, err := blobstore.NewMinio(blobstore.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect object store: %w", err)
	}

	var opts []migrate.DriverOption
	cleanup := func() {}
	if cfg.EventsDB != "" {
		events, err := observability.Open(cfg.EventsDB)
		if err != nil {
			cfg.Logger.Warn("event store unavailable, continuing without it", "error", err)
		} else {
			opts = append(opts, migrate.WithEvents(events))
			cleanup = func() { events.Close() }
		}
	}

	return migrate.NewDriver(cfg, store, opts...), cleanup, nil
}
