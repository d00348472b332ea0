// Package builtin answers lookups for symbols the PHP runtime provides
// without source. Symbols are described by TOML stubs; an embedded set
// covers the common SPL interfaces, exceptions, functions and constants.
package builtin

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dhamidi/phpreflect/php"
)

//go:embed stubs.toml
var defaultStubs string

type stubFile struct {
	Classes   []classStub    `toml:"class"`
	Functions []functionStub `toml:"function"`
	Constants []constantStub `toml:"constant"`
}

type classStub struct {
	Name       string         `toml:"name"`
	Kind       string         `toml:"kind"`
	Abstract   bool           `toml:"abstract"`
	Final      bool           `toml:"final"`
	Extends    string         `toml:"extends"`
	Interfaces []string       `toml:"interfaces"`
	Methods    []functionStub `toml:"method"`
	Properties []propertyStub `toml:"property"`
	Constants  []constantStub `toml:"constant"`
}

type functionStub struct {
	Name      string      `toml:"name"`
	Modifiers []string    `toml:"modifiers"`
	Returns   string      `toml:"returns"`
	ByRef     bool        `toml:"by_ref"`
	Params    []paramStub `toml:"param"`
}

type paramStub struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Default  string `toml:"default"`
	ByRef    bool   `toml:"by_ref"`
	Variadic bool   `toml:"variadic"`
}

type propertyStub struct {
	Name      string   `toml:"name"`
	Modifiers []string `toml:"modifiers"`
	Type      string   `toml:"type"`
	Default   string   `toml:"default"`
}

type constantStub struct {
	Name      string   `toml:"name"`
	Modifiers []string `toml:"modifiers"`
	Value     any      `toml:"value"`
}

// Catalog holds built-in classes, functions and constants. It implements
// php.Storage so that defaults inside stubs may reference other built-ins.
// A Catalog is read-only once loaded.
type Catalog struct {
	classes   map[string]*Class
	functions map[string]*Function
	constants map[string]*Constant
}

var _ php.Storage = (*Catalog)(nil)

func newCatalog() *Catalog {
	return &Catalog{
		classes:   make(map[string]*Class),
		functions: make(map[string]*Function),
		constants: make(map[string]*Constant),
	}
}

// Default returns a catalog of the embedded stubs.
func Default() *Catalog {
	c := newCatalog()
	if err := c.load(defaultStubs); err != nil {
		panic(fmt.Sprintf("builtin: embedded stubs: %v", err))
	}
	return c
}

// Load returns the embedded catalog extended by the given stub files.
// Later definitions replace earlier ones of the same name.
func Load(paths ...string) (*Catalog, error) {
	c := Default()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read stubs: %w", err)
		}
		if err := c.load(string(data)); err != nil {
			return nil, fmt.Errorf("stubs %s: %w", path, err)
		}
	}
	return c, nil
}

// Parse decodes a catalog from TOML stub source alone, without the
// embedded definitions.
func Parse(source string) (*Catalog, error) {
	c := newCatalog()
	if err := c.load(source); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) load(source string) error {
	var stubs stubFile
	if _, err := toml.Decode(source, &stubs); err != nil {
		return err
	}
	for _, s := range stubs.Classes {
		if s.Name == "" {
			return fmt.Errorf("class without a name")
		}
		class, err := newClass(c, s)
		if err != nil {
			return err
		}
		c.classes[php.ClassKey(class.name)] = class
	}
	for _, s := range stubs.Functions {
		if s.Name == "" {
			return fmt.Errorf("function without a name")
		}
		c.functions[php.ClassKey(s.Name)] = newFunction(c, s)
	}
	for _, s := range stubs.Constants {
		k, err := newConstant(c, s, nil)
		if err != nil {
			return err
		}
		c.constants[php.ConstantKey(k.name)] = k
	}
	return nil
}

func (c *Catalog) Class(name string) (php.ClassInfo, error) {
	if class, ok := c.classes[php.ClassKey(name)]; ok {
		return class, nil
	}
	return nil, fmt.Errorf("builtin class %s: %w", php.TrimName(name), php.ErrNotFound)
}

func (c *Catalog) Function(name string) (php.FunctionInfo, error) {
	if f, ok := c.functions[php.ClassKey(name)]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("builtin function %s: %w", php.TrimName(name), php.ErrNotFound)
}

// Constant looks up a constant by fully-qualified name. Constants are
// case-sensitive.
func (c *Catalog) Constant(name string) (php.ConstantInfo, error) {
	if k, ok := c.constants[php.ConstantKey(name)]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("builtin constant %s: %w", php.TrimName(name), php.ErrNotFound)
}

func (c *Catalog) HasClass(name string) bool {
	_, ok := c.classes[php.ClassKey(name)]
	return ok
}

func (c *Catalog) HasFunction(name string) bool {
	_, ok := c.functions[php.ClassKey(name)]
	return ok
}

func (c *Catalog) HasConstant(name string) bool {
	_, ok := c.constants[php.ConstantKey(name)]
	return ok
}

// Classes returns every built-in class ordered by name.
func (c *Catalog) Classes() []php.ClassInfo {
	out := make([]php.ClassInfo, 0, len(c.classes))
	for _, class := range c.classes {
		out = append(out, class)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name()) < strings.ToLower(out[j].Name())
	})
	return out
}

func (c *Catalog) Functions() []php.FunctionInfo {
	out := make([]php.FunctionInfo, 0, len(c.functions))
	for _, f := range c.functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name()) < strings.ToLower(out[j].Name())
	})
	return out
}

func (c *Catalog) Constants() []php.ConstantInfo {
	out := make([]php.ConstantInfo, 0, len(c.constants))
	for _, k := range c.constants {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// memberModifiers translates stub modifier words into member bits. Members
// are public unless a visibility is named.
func memberModifiers(words []string) (int, error) {
	mods := 0
	for _, w := range words {
		switch strings.ToLower(w) {
		case "public":
			mods |= php.ModifierPublic
		case "protected":
			mods |= php.ModifierProtected
		case "private":
			mods |= php.ModifierPrivate
		case "static":
			mods |= php.ModifierStatic
		case "abstract":
			mods |= php.ModifierAbstract
		case "final":
			mods |= php.ModifierFinal
		case "readonly":
			mods |= php.ModifierReadonly
		default:
			return 0, fmt.Errorf("unknown modifier %q", w)
		}
	}
	if mods&php.AccessMask == 0 {
		mods |= php.ModifierPublic
	}
	return mods, nil
}
