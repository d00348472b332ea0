package main

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:          "phpreflect",
		Short:        "Static reflection for PHP sources",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (default <dir>/.phpreflect.toml)")
	rootCmd.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newScanCmd(&opts))
	rootCmd.AddCommand(newDumpCmd(&opts))
	rootCmd.AddCommand(newDocCmd(&opts))
	rootCmd.AddCommand(newWatchCmd(&opts))
	rootCmd.AddCommand(newLSPCmd(&opts))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
