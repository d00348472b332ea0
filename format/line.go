package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/phpreflect/php"
)

// LineEncoder writes one tab-separated line per declaration and member.
type LineEncoder struct {
	w     io.Writer
	class php.ClassInfo
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(class php.ClassInfo) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	c := e.class

	fmt.Fprintf(&sb, "%s\t%s\t%s\n", classKind(c), c.Name(), joinOrDash(ClassModifiers(c)))
	if !c.IsValid() {
		if inv, ok := c.(php.Invalid); ok {
			for _, reason := range inv.Reasons() {
				fmt.Fprintf(&sb, "invalid\t%s\n", reason)
			}
		}
		return []byte(sb.String()), nil
	}
	if !c.Exists() {
		return []byte(sb.String()), nil
	}
	if parent := c.ParentClassName(); parent != "" {
		fmt.Fprintf(&sb, "extends\t%s\n", parent)
	}
	if ifaces := c.OwnInterfaceNames(); len(ifaces) > 0 {
		fmt.Fprintf(&sb, "implements\t%s\n", strings.Join(ifaces, ","))
	}
	if traits := c.TraitNames(); len(traits) > 0 {
		fmt.Fprintf(&sb, "uses\t%s\n", strings.Join(traits, ","))
	}

	constants, err := c.Constants()
	if err != nil {
		return nil, err
	}
	for _, k := range constants {
		fmt.Fprintf(&sb, "const\t%s\t%s\t%s\t%s\n",
			k.Name(),
			orDash(k.ValueDefinition()),
			Visibility(k.Modifiers()),
			k.DeclaringClassName(),
		)
	}

	props, err := c.Properties()
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		fmt.Fprintf(&sb, "property\t%s\t%s\t%s\t%s\t%s\n",
			p.Name(),
			orDash(p.Type()),
			Visibility(p.Modifiers()),
			joinOrDash(PropertyModifiers(p)),
			p.DeclaringClassName(),
		)
	}

	methods, err := c.Methods()
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		fmt.Fprintf(&sb, "method\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Name(),
			orDash(m.ReturnType()),
			parametersStr(m.Parameters()),
			methodVisibility(m),
			joinOrDash(MethodModifiers(m)),
			m.DeclaringClassName(),
		)
	}

	return []byte(sb.String()), nil
}

func (e *LineEncoder) EncodeFunction(fn php.FunctionInfo) error {
	_, err := fmt.Fprintf(e.w, "function\t%s\t%s\t%s\n",
		fn.Name(),
		orDash(fn.ReturnType()),
		parametersStr(fn.Parameters()),
	)
	return err
}

func (e *LineEncoder) EncodeConstant(k php.ConstantInfo) error {
	_, err := fmt.Fprintf(e.w, "constant\t%s\t%s\n", k.Name(), orDash(k.ValueDefinition()))
	return err
}

func classKind(c php.ClassInfo) string {
	if !c.Exists() {
		return "missing"
	}
	return string(c.Kind())
}

func parametersStr(params []php.ParameterInfo) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = Parameter(p)
	}
	return strings.Join(parts, ",")
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
