// Package cli defines the Cobra commands for hearthctl, the terminal
// client for a hearthkeep server.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthkeep/hearthkeep/internal/api"
	"github.com/hearthkeep/hearthkeep/internal/config"
	"github.com/hearthkeep/hearthkeep/internal/tasksync"
)

var (
	serverFlag string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "hearthctl",
	Short: "Manage your household's shared task list",
	Long: `hearthctl talks to a hearthkeep server: sign in, create or join
a household, and manage the shared task list from the terminal.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server URL (overrides stored credentials)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(householdCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(watchCmd)
}

// cmdTimeout bounds every one-shot command.
const cmdTimeout = 30 * time.Second

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cmdTimeout)
}

// loadClient builds an authenticated API client from stored credentials.
func loadClient() (*api.Client, *config.Credentials, error) {
	creds, err := config.ReadCredentials()
	if err != nil {
		return nil, nil, err
	}
	if creds == nil || creds.Token == "" {
		return nil, nil, fmt.Errorf("not logged in. Run: hearthctl login <email>")
	}

	serverURL := creds.ServerURL
	if serverFlag != "" {
		serverURL = serverFlag
	}
	return api.NewClient(serverURL, creds.Token), creds, nil
}

// loadSyncer builds a ready task syncer on top of stored credentials.
func loadSyncer(ctx context.Context) (*tasksync.Syncer, error) {
	client, _, err := loadClient()
	if err != nil {
		return nil, err
	}

	hintPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		hintPath = filepath.Join(home, ".hearthkeep", "household")
	}

	syncer := tasksync.NewSyncer(tasksync.Config{
		Backend:  client,
		HintPath: hintPath,
		Subscribe: func(ctx context.Context) (tasksync.EventSource, error) {
			return client.Subscribe(ctx)
		},
	})
	if err := syncer.Init(ctx); err != nil {
		return nil, describeSyncError(err)
	}
	return syncer, nil
}

// describeSyncError turns the sync taxonomy into actionable CLI messages.
func describeSyncError(err error) error {
	switch tasksync.Classify(err) {
	case tasksync.KindUnauthenticated:
		return fmt.Errorf("session expired. Run: hearthctl login <email>")
	case tasksync.KindTimeout:
		return fmt.Errorf("server did not respond in time, try again: %w", err)
	case tasksync.KindHouseholdUnresolved:
		return fmt.Errorf("no household yet. Run: hearthctl household create <name> or hearthctl household join <code>")
	default:
		return err
	}
}
