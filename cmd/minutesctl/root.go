package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var dataPath string
	var envFile string

	env := newCommandEnv(&dataPath, &envFile)

	rootCmd := &cobra.Command{
		Use:           "minutesctl",
		Short:         "Inspect and maintain a minutes server data directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return env.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataPath, "data-path", "", "Data directory (default: $DATA_PATH or ~/Minutes/data)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")

	rootCmd.AddCommand(newSummarizeCommand())
	rootCmd.AddCommand(newMigrateCommand(env))
	rootCmd.AddCommand(newUsersCommand(env))
	rootCmd.AddCommand(newTranscriptionsCommand(env))
	rootCmd.AddCommand(newReindexCommand(env))
	rootCmd.AddCommand(newSeedCommand(env))

	return rootCmd
}
