package php

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Imports is the alias table of one file-namespace segment. Class and
// function aliases are case-insensitive, constant aliases are not.
type Imports struct {
	Classes   map[string]string
	Functions map[string]string
	Constants map[string]string
}

func NewImports() *Imports {
	return &Imports{
		Classes:   make(map[string]string),
		Functions: make(map[string]string),
		Constants: make(map[string]string),
	}
}

func (im *Imports) AddClass(alias, name string) {
	im.Classes[strings.ToLower(alias)] = TrimName(name)
}

func (im *Imports) AddFunction(alias, name string) {
	im.Functions[strings.ToLower(alias)] = TrimName(name)
}

func (im *Imports) AddConstant(alias, name string) {
	im.Constants[alias] = TrimName(name)
}

// TrimName strips the leading namespace separator of a fully-qualified name.
func TrimName(name string) string {
	return strings.TrimPrefix(name, `\`)
}

// JoinName prefixes name with a namespace, if any.
func JoinName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}

// SplitName returns the namespace and short name of a fully-qualified name.
func SplitName(name string) (namespace, short string) {
	name = TrimName(name)
	i := strings.LastIndex(name, `\`)
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// ResolveClassName rewrites a class name written in source into a
// fully-qualified name. Names with a leading separator are already fully
// qualified. Otherwise a leading segment matching a class alias is
// substituted, namespace\X is taken relative to the current namespace, and
// anything else is prefixed with the current namespace.
func ResolveClassName(name, namespace string, imports *Imports) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, `\`) {
		return TrimName(name)
	}
	first, rest, qualified := strings.Cut(name, `\`)
	if strings.EqualFold(first, "namespace") && qualified {
		return JoinName(namespace, rest)
	}
	if imports != nil {
		if target, ok := imports.Classes[strings.ToLower(first)]; ok {
			if qualified {
				return target + `\` + rest
			}
			return target
		}
	}
	return JoinName(namespace, name)
}

// builtinTypes are declared types that never name a class.
var builtinTypes = map[string]bool{
	"array": true, "callable": true, "int": true, "integer": true, "float": true,
	"double": true, "string": true, "bool": true, "boolean": true, "iterable": true,
	"object": true, "mixed": true, "void": true, "null": true, "never": true,
	"false": true, "true": true, "resource": true,
}

// ClassifyType maps a declared type to its TypeKind the way parameter
// declarations are classified.
func ClassifyType(hint string) TypeKind {
	name := strings.ToLower(strings.TrimPrefix(hint, "?"))
	switch {
	case name == "":
		return TypeNone
	case name == "array":
		return TypeArray
	case name == "callable":
		return TypeCallable
	case builtinTypes[name] || name == "static" || strings.ContainsAny(name, "|&("):
		return TypeScalar
	}
	return TypeClass
}

// Context is the lexical context a declaration or literal span was captured
// in: used for name resolution and magic constants.
type Context struct {
	Storage   Storage
	File      string
	Namespace string
	Imports   *Imports
	Class     *ClassModel
	Function  string
	// Trait is set once a trait member is imported into a class; Class is
	// then the using class.
	Trait string
}

func (c *Context) className() string {
	if c.Class == nil {
		return ""
	}
	return c.Class.Name()
}

// ResolveClassName resolves a class name, binding self and static to the
// enclosing class and parent to its parent.
func (c *Context) ResolveClassName(name string) (string, error) {
	switch strings.ToLower(name) {
	case "self", "static":
		if c.Class == nil {
			return "", fmt.Errorf("%s outside of a class: %w", name, ErrUnresolved)
		}
		return c.Class.Name(), nil
	case "parent":
		if c.Class == nil {
			return "", fmt.Errorf("parent outside of a class: %w", ErrUnresolved)
		}
		if c.Class.ParentClassName() == "" {
			return "", fmt.Errorf("parent in %s: %w", c.Class.Name(), ErrNoParent)
		}
		return c.Class.ParentClassName(), nil
	}
	return ResolveClassName(name, c.Namespace, c.Imports), nil
}

// constantCandidates lists the fully-qualified names an unqualified or
// qualified constant reference may denote, in lookup order.
func (c *Context) constantCandidates(name string) []string {
	if strings.HasPrefix(name, `\`) {
		return []string{TrimName(name)}
	}
	if strings.Contains(name, `\`) {
		return []string{ResolveClassName(name, c.Namespace, c.Imports)}
	}
	if c.Imports != nil {
		if target, ok := c.Imports.Constants[name]; ok {
			return []string{target}
		}
	}
	if c.Namespace == "" {
		return []string{name}
	}
	return []string{JoinName(c.Namespace, name), name}
}

func (c *Context) magicConstant(name string, line int) (any, error) {
	switch strings.ToUpper(name) {
	case "__LINE__":
		return int64(line), nil
	case "__FILE__":
		return c.File, nil
	case "__DIR__":
		if c.File == "" {
			return "", nil
		}
		return filepath.Dir(c.File), nil
	case "__NAMESPACE__":
		return c.Namespace, nil
	case "__CLASS__":
		return c.className(), nil
	case "__TRAIT__":
		if c.Trait != "" {
			return c.Trait, nil
		}
		if c.Class != nil && c.Class.IsTrait() {
			return c.Class.Name(), nil
		}
		return "", nil
	case "__FUNCTION__":
		return c.Function, nil
	case "__METHOD__":
		if c.Class != nil && c.Function != "" {
			return c.Class.Name() + "::" + c.Function, nil
		}
		return c.Function, nil
	}
	return nil, fmt.Errorf("magic constant %s: %w", name, ErrUnsupportedExpression)
}
