package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// globals shared by every subcommand
type rootOptions struct {
	envFile string
	actor   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "blockctl",
		Short:         "Block release operator tool",
		Long:          "blockctl migrates and seeds the block release database and drives the approval and publication workflow.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	defaultActor := os.Getenv("BLOCKCTL_ACTOR")
	if defaultActor == "" {
		defaultActor = "blockctl"
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to an optional .env file")
	cmd.PersistentFlags().StringVar(&opts.actor, "actor", defaultActor, "acting principal recorded on transitions")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newApprovalsCmd(opts))
	cmd.AddCommand(newVersionsCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blockctl %s (commit: %s)\n", Version, Commit)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
