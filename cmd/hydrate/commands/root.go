package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"votolocal-backend/lib/telemetry"
)

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "hydrate",
	Short: "hydrate enriches the voter record store with polling locations scraped from the TRE.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging/instrumentation.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
