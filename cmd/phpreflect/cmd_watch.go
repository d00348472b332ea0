package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/phpreflect/php/broker"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Rebuild the reflection model whenever PHP files change",
		Args:  cobra.MaximumNArgs(1),
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

			out := cmd.OutOrStdout()
			w, err := broker.NewWatcher(dir, func(r broker.Result) {
				if len(r.Changed) > 0 {
					fmt.Fprintf(out, "changed: %d file(s)\n", len(r.Changed))
				}
				printScan(out, r.Broker, r.Err, false)
			}, brokerOpts...)
			if err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			if cmd.Flags().Changed("debounce") {
				w.SetDebounce(debounce)
			} else {
				w.SetDebounce(cfg.Watch.Debounce)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			log.Noticef("watching %s", dir)
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "delay between a change and the rebuild (default from config)")

	return cmd
}
