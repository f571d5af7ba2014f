package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hrshiti/inplay-sub000/internal/interfaces/cli/migrate"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/cli/server"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/cli/sweep"
	"github.com/hrshiti/inplay-sub000/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inplay",
		Short: "InPlay media entitlement and download license service",
		Long:  `InPlay serves offline download licenses and playback URLs, with migration and maintenance commands.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		sweep.NewCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, args []string) {
				info := version.Current()
				fmt.Fprintf(cmd.OutOrStdout(), "inplay %s %s\n", info.Version, info.Commit)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
