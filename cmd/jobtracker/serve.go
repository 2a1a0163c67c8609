package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Runs the REST API over the tracker, with a Server-Sent Events stream at /events.

Set JWT_SECRET to require bearer tokens (see "jobtracker token"). Rate limits
are read from RATE_LIMIT_* variables.

The server starts listening while a stored Drive session is still being
resolved. Until it settles, writes answer 503 with Retry-After.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	var jwtConfig *config.JWTConfig
	if config.JWTEnabled() {
		jwtConfig, err = config.NewJWTConfig()
		if err != nil {
			return fmt.Errorf("invalid JWT configuration: %w", err)
		}
	}

	// A server always logs; --verbose only matters for the CLI commands
	logger := log.New(os.Stderr, "", log.LstdFlags)

	a, err := openApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Printf("[server] close failed: %v", cerr)
		}
	}()

	srv := server.New(a.controller, server.Config{
		Port:   cfg.Port,
		JWT:    jwtConfig,
		Logger: logger,
	})
	if jwtConfig == nil {
		logger.Println("[server] JWT_SECRET not set, API is open")
	}

	g, gctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		a.controller.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})
	return g.Wait()
}
