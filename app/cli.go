package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"goes-decal-sync/config"
	"goes-decal-sync/db"
)

// NewRootCommand builds the goes-decal-sync command tree
func NewRootCommand() *cobra.Command {
	var (
		envFile string
		sleep   time.Duration
	)

	root := &cobra.Command{
		Use:           "goes-decal-sync",
		Short:         "Publish the latest GOES-19 full disk image as a Roblox decal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadEnvFile(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			application, err := Initialize(ctx, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.Pipeline.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", result.AssetID)

			postRunSleep := cfg.PostRunSleep
			if cmd.Flags().Changed("sleep") {
				postRunSleep = sleep
			}
			if postRunSleep > 0 {
				log.Printf("😴 Sleeping %s before exit", postRunSleep)
				select {
				case <-ctx.Done():
				case <-time.After(postRunSleep):
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded when ENV is not production")
	root.Flags().DurationVar(&sleep, "sleep", 0, "sleep after a successful run (overrides POST_RUN_SLEEP)")

	root.AddCommand(newLedgerCommand())
	return root
}

func newLedgerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "Print the last confirmed asset id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := newLedgerStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.CloseDB()
			assetID, ok, err := store.Read(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no asset id recorded yet")
			}
			fmt.Fprintln(cmd.OutOrStdout(), assetID)
			return nil
		},
	}
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadEnvFile loads a .env file in development, overriding system variables.
// In production, variables should be set directly.
func loadEnvFile(path string) {
	if os.Getenv("ENV") == "production" || path == "" {
		return
	}
	if err := godotenv.Overload(path); err != nil {
		log.Printf("Warning: .env file not found at %s, using system environment variables", path)
		return
	}
	log.Printf("Successfully loaded environment variables from %s (overriding system variables)", path)
}
