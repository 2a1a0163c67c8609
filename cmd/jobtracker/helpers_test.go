package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/job-tracker/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testSeed = `[
  {"id": "stripe-1", "company": "Stripe", "currentStage": "First-Round", "position": "Backend Engineer", "appliedDate": "2025-01-10"},
  {"id": "acme-1", "company": "Acme", "currentStage": "Applied", "finalVerdict": "Rejected"}
]`

// setupEnv points every store at a temp dir and clears settings a
// developer's .env could leak in.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvDataDir, filepath.Join(dir, "data"))
	t.Setenv(config.EnvSessionDir, filepath.Join(dir, "session"))
	t.Setenv(config.EnvDatabaseURL, "")
	t.Setenv(config.EnvGoogleClientID, "")
	t.Setenv(config.EnvGoogleClientSecret, "")
	t.Setenv(config.EnvSeedFile, "")
	t.Setenv(config.EnvVerbose, "")
	t.Setenv("JWT_SECRET", "")
	return dir
}

// writeSeed writes the test seed and points JOBTRACKER_SEED_FILE at it.
func writeSeed(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o644))
	t.Setenv(config.EnvSeedFile, path)
}

// execute runs the root command in process and returns its output.
// Flag values are reset first since cobra keeps them between runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
