// Command diary is the operator CLI for the diary backend. It runs the HTTP
// server and drives maps, summaries and reports from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"diary-backend/infrastructure/config"
	"diary-backend/infrastructure/di"

	"github.com/spf13/cobra"
)

var (
	userID       string
	storeBackend string

	container *di.Container
	cleanup   func()
)

var rootCmd = &cobra.Command{
	Use:           "diary",
	Short:         "diary - mind-map journal backend",
	Long:          brand.Sprint("diary") + " - mind-map journal backend\n" + subtle.Sprint("Serve the API or work with maps, summaries and reports directly"),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if storeBackend != "" {
			cfg.StoreBackend = storeBackend
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		container, cleanup, err = di.InitializeContainer(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cleanup != nil {
			cleanup()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", envOr("DIARY_USER", "local"), "User whose data to operate on")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "Override the store backend (memory, sqlite, dynamodb)")

	rootCmd.AddCommand(
		serveCmd(),
		mapsCmd(),
		markdownCmd(),
		searchCmd(),
		summarizeCmd(),
		deleteNodeCmd(),
		reportsCmd(),
		ideasCmd(),
		watchCmd(),
		tokenCmd(),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, bad.Sprint("diary: ")+err.Error())
		os.Exit(1)
	}
}
