package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/phpreflect/workspace"
)

func newLSPCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp [dir]",
		Short: "Start the Language Server Protocol server",
		Long: `Start the Language Server Protocol server on stdin/stdout.

The configuration is read from the given directory, or the current one.
Logs go to the configured log file; stdout carries the protocol.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cfg, err := opts.load(dir)
			if err != nil {
				return err
			}
			brokerOpts, err := cfg.BrokerOptions()
			if err != nil {
				return err
			}
			server := workspace.NewLSPServer(version, brokerOpts...)
			return server.RunStdio()
		},
	}
}
