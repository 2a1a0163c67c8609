package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jonathan/job-tracker/internal/auth"
	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/drive"
	"github.com/jonathan/job-tracker/internal/reconcile"
	"github.com/jonathan/job-tracker/internal/schemas"
	"github.com/jonathan/job-tracker/internal/storage"
	"github.com/jonathan/job-tracker/internal/types"
	"golang.org/x/oauth2"
)

const (
	durableFile = "tracker.db"
	sessionFile = "session.db"
)

// app bundles the controller with the stores it was built on.
type app struct {
	cfg        config.Config
	logger     *log.Logger
	durable    db.SlotStore
	session    db.SlotStore
	controller *reconcile.Controller
}

// loadConfig resolves the configuration: defaults, then the config file,
// then JOBTRACKER_* variables, then command-line flags.
func loadConfig() (config.Config, error) {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if verbose {
		cfg.Verbose = true
	}

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

// newLogger returns a logger that writes to stderr when verbose, else nowhere.
func newLogger(verbose bool) *log.Logger {
	if verbose {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// openApp opens the slot stores and builds the controller. The caller must Close it.
func openApp(ctx context.Context, cfg config.Config, logger *log.Logger) (*app, error) {
	durable, err := openDurable(ctx, cfg)
	if err != nil {
		return nil, err
	}

	session, err := db.OpenSQLite(filepath.Join(cfg.SessionDir, sessionFile))
	if err != nil {
		_ = durable.Close()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	seed, err := loadSeed(cfg.SeedFile)
	if err != nil {
		_ = durable.Close()
		_ = session.Close()
		return nil, err
	}

	controller := reconcile.New(ctx, reconcile.Options{
		Cache:         storage.NewCache(durable, &storage.CacheConfig{Logger: logger}),
		Session:       storage.NewSession(session, durable, &storage.SessionConfig{Logger: logger}),
		Remote:        drive.NewClient(&drive.Config{Endpoint: cfg.DriveEndpoint}),
		Authenticator: deviceFlow(cfg, os.Stdout),
		DocumentName:  cfg.DocumentName,
		Seed:          seed,
		Logger:        logger,
	})

	return &app{
		cfg:        cfg,
		logger:     logger,
		durable:    durable,
		session:    session,
		controller: controller,
	}, nil
}

// openDurable picks PostgreSQL when a database URL is configured, else a
// SQLite file under the data directory.
func openDurable(ctx context.Context, cfg config.Config) (db.SlotStore, error) {
	if cfg.DatabaseURL != "" {
		pg, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	store, err := db.OpenSQLite(filepath.Join(cfg.DataDir, durableFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}
	return store, nil
}

// loadSeed reads the list used when the cache is empty. No file means no seed.
func loadSeed(path string) ([]types.Application, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	if err := schemas.ValidateDocument(raw); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	var apps []types.Application
	if err := json.Unmarshal(raw, &apps); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return apps, nil
}

// deviceFlow returns the configured device-code authenticator, or nil when
// no OAuth client is configured.
func deviceFlow(cfg config.Config, out io.Writer) auth.Authenticator {
	oauthConfig, err := cfg.NewOAuthConfig()
	if err != nil {
		return nil
	}
	return &auth.DeviceFlow{
		Config: oauthConfig,
		Prompt: func(resp *oauth2.DeviceAuthResponse) {
			url := resp.VerificationURIComplete
			if url == "" {
				url = resp.VerificationURI
			}
			fmt.Fprintf(out, "To connect Google Drive, visit %s and enter code %s\n", url, resp.UserCode)
		},
	}
}

// Close waits for pending remote patches and closes the stores.
func (a *app) Close() error {
	a.controller.Wait()
	return errors.Join(a.durable.Close(), a.session.Close())
}

// withApp loads the config, opens the app, runs fn and closes the app.
func withApp(ctx context.Context, fn func(*app) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, newLogger(cfg.Verbose))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

// waitSync waits for the remote phase of a change and reports how it went.
// A remote failure is only a warning: the change is already saved locally.
func waitSync(ctx context.Context, out io.Writer, sync *reconcile.Sync) {
	if sync.Skipped() {
		return
	}
	if err := sync.Wait(ctx); err != nil {
		fmt.Fprintf(out, "Warning: saved locally, remote sync failed: %v\n", err)
	}
}

// printStatus prints the one-line connection summary.
func printStatus(out io.Writer, state reconcile.State) {
	fmt.Fprintf(out, "Drive: %s (%s)\n", state.Status, state.Sync)
	if state.LastError != "" {
		fmt.Fprintf(out, "Last error: %s\n", state.LastError)
	}
}
