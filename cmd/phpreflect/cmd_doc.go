package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/phpreflect/format"
	"github.com/dhamidi/phpreflect/php"
	"github.com/dhamidi/phpreflect/php/phpdoc"
)

func newDocCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doc <path> <name>",
		Short: "Show the declaration and documentation of a symbol",
		Long: `Show the declaration and documentation of a symbol.

The name is a fully-qualified class, function or constant name, or a class
member written as Class::method, Class::CONSTANT or Class::$property.
Inherited documentation is resolved for methods.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := opts.newBroker(args[0])
			if err != nil {
				return err
			}
			if err := process(b, args[0]); err != nil {
				log.Warningf("%s", err)
			}
			return describe(cmd.OutOrStdout(), b, args[1])
		},
	}
}

func describe(w io.Writer, s php.Storage, name string) error {
	if class, member, ok := strings.Cut(name, "::"); ok {
		c, err := s.Class(class)
		if err != nil {
			return err
		}
		return describeMember(w, c, member)
	}

	if c, err := s.Class(name); err == nil {
		printDoc(w, format.ClassHeader(c), c.FileName(), c.StartLine(), c.Annotations())
		return nil
	}
	if fn, err := s.Function(name); err == nil {
		printDoc(w, format.Signature(fn), fn.FileName(), fn.StartLine(), fn.Annotations())
		return nil
	}
	k, err := s.Constant(name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, php.ErrNotFound)
	}
	printDoc(w, "const "+k.Name()+" = "+k.ValueDefinition(), k.FileName(), k.StartLine(), k.Annotations())
	return nil
}

func describeMember(w io.Writer, c php.ClassInfo, member string) error {
	if prop, ok := strings.CutPrefix(member, "$"); ok {
		p, err := c.Property(prop)
		if err != nil {
			return err
		}
		decl := strings.Join(append([]string{format.Visibility(p.Modifiers())}, format.PropertyModifiers(p)...), " ")
		if p.Type() != "" {
			decl += " " + p.Type()
		}
		decl += " $" + p.Name()
		if p.HasDefaultValue() {
			decl += " = " + p.DefaultValueDefinition()
		}
		printDoc(w, decl, p.FileName(), p.StartLine(), p.Annotations())
		return nil
	}

	if m, err := c.Method(member); err == nil {
		printDoc(w, format.MethodSignature(m), m.FileName(), m.StartLine(), m.Annotations())
		return nil
	}
	k, err := c.Constant(member)
	if err != nil {
		return fmt.Errorf("%s::%s: %w", c.Name(), member, php.ErrNotFound)
	}
	decl := fmt.Sprintf("const %s::%s = %s", k.DeclaringClassName(), k.Name(), k.ValueDefinition())
	printDoc(w, decl, k.FileName(), k.StartLine(), k.Annotations())
	return nil
}

func printDoc(w io.Writer, decl, file string, line int, doc *phpdoc.DocBlock) {
	fmt.Fprintln(w, decl)
	if file != "" {
		fmt.Fprintf(w, "    %s:%d\n", file, line)
	}
	if doc == nil || doc.IsEmpty() {
		return
	}
	fmt.Fprintln(w)
	if doc.Short != "" {
		fmt.Fprintln(w, doc.Short)
	}
	if doc.Long != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, doc.Long)
	}
	if len(doc.Tags) > 0 {
		fmt.Fprintln(w)
		for _, tag := range doc.Tags {
			fmt.Fprintf(w, "@%s %s\n", tag.Name, tag.Value)
		}
	}
}
