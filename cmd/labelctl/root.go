package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/clinicmap/internal/pkg/logging"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "labelctl",
		Short: "offline label placement for the clinic map",
		Long: `
labelctl runs the clinic map label placement against a local clinic export,
without a database. It prints the same plans the API returns, which makes it
handy for tuning the density steps and the collision box.
`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(os.Stderr, "", logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newPlanCmd())
	root.AddCommand(newBudgetCmd())
	root.AddCommand(newGeohashCmd())
	return root
}
