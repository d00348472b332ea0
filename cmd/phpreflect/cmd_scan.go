package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dhamidi/phpreflect/php"
	"github.com/dhamidi/phpreflect/php/broker"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	var showMissing bool

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a PHP file or directory and summarize what it declares",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			b, _, err := opts.newBroker(path)
			if err != nil {
				return err
			}
			scanErr := process(b, path)
			return printScan(cmd.OutOrStdout(), b, scanErr, showMissing)
		},
	}

	cmd.Flags().BoolVarP(&showMissing, "missing", "m", false, "list referenced classes that are declared nowhere")

	return cmd
}

func printScan(w io.Writer, b *broker.Broker, scanErr error, showMissing bool) error {
	classes := b.Classes(broker.ClassTokenized)
	invalid := 0
	for _, c := range classes {
		if !c.IsValid() {
			invalid++
		}
	}

	fmt.Fprintf(w, "Files:      %d\n", len(b.Files()))
	fmt.Fprintf(w, "Namespaces: %d\n", len(b.Namespaces()))
	fmt.Fprintf(w, "Classes:    %d (%d invalid)\n", len(classes), invalid)
	fmt.Fprintf(w, "Functions:  %d\n", len(b.Functions()))
	fmt.Fprintf(w, "Constants:  %d\n", len(b.Constants()))

	if showMissing {
		missing := b.Classes(broker.ClassNonexistent)
		fmt.Fprintf(w, "Missing:    %d\n", len(missing))
		for _, c := range missing {
			fmt.Fprintf(w, "  - %s\n", c.Name())
		}
	}

	problems := flatten(scanErr)
	fmt.Fprintf(w, "Errors:     %d\n", len(problems))
	for _, p := range problems {
		fmt.Fprintf(w, "  - %s\n", p)
	}
	return nil
}

// flatten expands joined errors and registration errors into their parts.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	var reg *php.RegistrationError
	if errors.As(err, &reg) && error(reg) == err {
		return reg.Errors
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
