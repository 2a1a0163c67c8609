package main

import (
	"errors"
	"fmt"

	"github.com/jonathan/job-tracker/internal/auth"
	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/observability"
	"github.com/jonathan/job-tracker/internal/reconcile"
	"github.com/spf13/cobra"
)

var (
	connectToken     string
	connectExpiresIn int
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to Google Drive",
	Long: `Connects to Google Drive and starts syncing.

Without --token the OAuth device flow is used: a URL and a code are printed,
and the command waits until you approve access in a browser. This needs
` + config.EnvGoogleClientID + ` (and usually ` + config.EnvGoogleClientSecret + `).

If a tracker document already exists in Drive it replaces the local list;
otherwise a new document is created with the local list.`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the Drive credential and work locally",
	Args:  cobra.NoArgs,
	RunE:  runDisconnect,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection and sync status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	connectCmd.Flags().StringVar(&connectToken, "token", "", "Use this access token instead of the device flow")
	connectCmd.Flags().IntVar(&connectExpiresIn, "expires-in", 0, "Lifetime of --token in seconds (0 means unknown)")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(statusCmd)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var authn auth.Authenticator
		if connectToken != "" {
			authn = auth.StaticToken{AccessToken: connectToken, ExpiresIn: connectExpiresIn}
		} else {
			authn = deviceFlow(a.cfg, out)
		}

		if err := a.controller.Connect(ctx, authn); err != nil {
			if errors.Is(err, reconcile.ErrNoAuthenticator) {
				return fmt.Errorf("no OAuth client configured: set %s or pass --token", config.EnvGoogleClientID)
			}
			return err
		}

		state := a.controller.State()
		fmt.Fprintf(out, "Connected. %d applications, document %s\n", len(state.Applications), state.FileID)
		printStatus(out, state)
		return nil
	})
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		a.controller.Disconnect(cmd.Context())
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Disconnected. Changes are kept locally until you connect again.")
		printStatus(out, a.controller.State())
		return nil
	})
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		a.controller.Start(cmd.Context())
		observability.NewPrinter(cmd.OutOrStdout()).PrintState(a.controller.State())
		return nil
	})
}
