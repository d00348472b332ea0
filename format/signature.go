package format

import (
	"strings"

	"github.com/dhamidi/phpreflect/php"
)

// ClassModifiers lists the declared modifiers of a class as keywords.
func ClassModifiers(c php.ClassInfo) []string {
	var mods []string
	if c.IsAbstract() && !c.IsInterface() {
		mods = append(mods, "abstract")
	}
	if c.IsFinal() {
		mods = append(mods, "final")
	}
	return mods
}

func MethodModifiers(m php.MethodInfo) []string {
	var mods []string
	if m.IsAbstract() {
		mods = append(mods, "abstract")
	}
	if m.IsFinal() {
		mods = append(mods, "final")
	}
	if m.IsStatic() {
		mods = append(mods, "static")
	}
	return mods
}

func PropertyModifiers(p php.PropertyInfo) []string {
	var mods []string
	if p.IsStatic() {
		mods = append(mods, "static")
	}
	if p.IsReadonly() {
		mods = append(mods, "readonly")
	}
	return mods
}

// Visibility names the access level in a member modifier set.
func Visibility(mods int) string {
	switch {
	case mods&php.ModifierPrivate != 0:
		return "private"
	case mods&php.ModifierProtected != 0:
		return "protected"
	}
	return "public"
}

func methodVisibility(m php.MethodInfo) string {
	switch {
	case m.IsPrivate():
		return "private"
	case m.IsProtected():
		return "protected"
	}
	return "public"
}

// ClassHeader renders a class declaration header such as
// "abstract class App\Base extends Model implements Countable".
func ClassHeader(c php.ClassInfo) string {
	var sb strings.Builder
	for _, mod := range ClassModifiers(c) {
		sb.WriteString(mod)
		sb.WriteByte(' ')
	}
	sb.WriteString(string(c.Kind()))
	sb.WriteByte(' ')
	sb.WriteString(c.Name())
	if parent := c.ParentClassName(); parent != "" {
		sb.WriteString(" extends ")
		sb.WriteString(parent)
	}
	if ifaces := c.OwnInterfaceNames(); len(ifaces) > 0 {
		if c.IsInterface() {
			sb.WriteString(" extends ")
		} else {
			sb.WriteString(" implements ")
		}
		sb.WriteString(strings.Join(ifaces, ", "))
	}
	return sb.String()
}

// Parameter renders one parameter as it would be declared.
func Parameter(p php.ParameterInfo) string {
	var sb strings.Builder
	if hint := p.TypeHint(); hint != "" {
		sb.WriteString(hint)
		sb.WriteByte(' ')
	}
	if p.IsPassedByReference() {
		sb.WriteByte('&')
	}
	if p.IsVariadic() {
		sb.WriteString("...")
	}
	sb.WriteByte('$')
	sb.WriteString(p.Name())
	if p.IsDefaultValueAvailable() {
		sb.WriteString(" = ")
		sb.WriteString(p.DefaultValueDefinition())
	}
	return sb.String()
}

// Signature renders a function or method signature without modifiers.
func Signature(f php.FunctionLike) string {
	var sb strings.Builder
	sb.WriteString("function ")
	if f.ReturnsReference() {
		sb.WriteByte('&')
	}
	name := f.Name()
	if fn, ok := f.(php.FunctionInfo); ok {
		name = fn.ShortName()
	}
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, p := range f.Parameters() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Parameter(p))
	}
	sb.WriteByte(')')
	if ret := f.ReturnType(); ret != "" {
		sb.WriteString(": ")
		sb.WriteString(ret)
	}
	return sb.String()
}

// MethodSignature renders a method with its visibility and modifiers.
func MethodSignature(m php.MethodInfo) string {
	parts := append([]string{methodVisibility(m)}, MethodModifiers(m)...)
	return strings.Join(parts, " ") + " " + Signature(m)
}
