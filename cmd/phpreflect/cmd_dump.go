package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/phpreflect/format"
	"github.com/dhamidi/phpreflect/php"
	"github.com/dhamidi/phpreflect/php/broker"
)

func newDumpCmd(opts *globalOptions) *cobra.Command {
	var dumpFormat string
	var internal, missing bool

	cmd := &cobra.Command{
		Use:   "dump <path> [name...]",
		Short: "Dump the reflection model of a PHP file or directory",
		Long: `Dump the reflection model of a PHP file or directory.

Without names every class, function and constant the path declares is
dumped. Names select classes, functions or constants by fully-qualified name;
built-in symbols can be named too.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := opts.newBroker(args[0])
			if err != nil {
				return err
			}
			if err := process(b, args[0]); err != nil {
				log.Warningf("%s", err)
			}

			var enc format.Encoder
			switch dumpFormat {
			case "json":
				enc = format.NewJSONEncoder(cmd.OutOrStdout())
			case "line":
				enc = format.NewLineEncoder(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unknown format: %s (expected json or line)", dumpFormat)
			}

			if len(args) > 1 {
				return dumpNames(enc, b, args[1:])
			}
			filter := broker.ClassTokenized
			if internal {
				filter |= broker.ClassInternal
			}
			if missing {
				filter |= broker.ClassNonexistent
			}
			return dumpAll(enc, b, filter)
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format (json, line)")
	cmd.Flags().BoolVarP(&internal, "internal", "i", false, "include built-in classes the sources refer to")
	cmd.Flags().BoolVarP(&missing, "missing", "m", false, "include classes the sources refer to that exist nowhere")

	return cmd
}

func dumpAll(enc format.Encoder, b *broker.Broker, filter int) error {
	for _, c := range b.Classes(filter) {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode %s: %w", c.Name(), err)
		}
	}
	for _, fn := range b.Functions() {
		if err := enc.EncodeFunction(fn); err != nil {
			return fmt.Errorf("encode %s: %w", fn.Name(), err)
		}
	}
	for _, k := range b.Constants() {
		if err := enc.EncodeConstant(k); err != nil {
			return fmt.Errorf("encode %s: %w", k.Name(), err)
		}
	}
	return nil
}

func dumpNames(enc format.Encoder, b *broker.Broker, names []string) error {
	for _, name := range names {
		if err := dumpName(enc, b, name); err != nil {
			return err
		}
	}
	return nil
}

func dumpName(enc format.Encoder, b *broker.Broker, name string) error {
	if c, err := b.Class(name); err == nil {
		return enc.Encode(c)
	}
	if fn, err := b.Function(name); err == nil {
		return enc.EncodeFunction(fn)
	}
	if k, err := b.Constant(name); err == nil {
		return enc.EncodeConstant(k)
	}
	return fmt.Errorf("%s: %w", name, php.ErrNotFound)
}
