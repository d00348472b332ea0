package builtin

import (
	"fmt"
	"strings"

	"github.com/dhamidi/phpreflect/php"
	"github.com/dhamidi/phpreflect/php/phpdoc"
)

// Class is a built-in class, interface or trait. It answers the same
// queries as a tokenized class; ancestors resolve within the catalog.
type Class struct {
	catalog    *Catalog
	name       string
	kind       php.ClassKind
	modifiers  int
	parent     string
	interfaces []string
	methods    []*Method
	properties []*Property
	constants  []*Constant
}

var _ php.ClassInfo = (*Class)(nil)

func newClass(catalog *Catalog, s classStub) (*Class, error) {
	c := &Class{
		catalog:    catalog,
		name:       php.TrimName(s.Name),
		kind:       php.ClassKindClass,
		parent:     php.TrimName(s.Extends),
		interfaces: make([]string, 0, len(s.Interfaces)),
	}
	for _, name := range s.Interfaces {
		c.interfaces = append(c.interfaces, php.TrimName(name))
	}
	switch strings.ToLower(s.Kind) {
	case "", "class":
	case "interface":
		c.kind = php.ClassKindInterface
		c.modifiers |= php.ClassInterface
	case "trait":
		c.kind = php.ClassKindTrait
		c.modifiers |= php.ClassTrait
	default:
		return nil, fmt.Errorf("class %s: unknown kind %q", s.Name, s.Kind)
	}
	if s.Abstract {
		c.modifiers |= php.ClassExplicitAbstract
	}
	if s.Final {
		c.modifiers |= php.ClassFinal
	}

	for _, ms := range s.Methods {
		m, err := newMethod(c, ms)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", s.Name, err)
		}
		c.methods = append(c.methods, m)
	}
	for _, ps := range s.Properties {
		mods, err := memberModifiers(ps.Modifiers)
		if err != nil {
			return nil, fmt.Errorf("property %s::$%s: %w", s.Name, ps.Name, err)
		}
		p := &Property{class: c, name: ps.Name, modifiers: mods, typeHint: ps.Type}
		if ps.Default != "" {
			p.def = php.ParseExpression(ps.Default, &php.Context{Storage: catalog})
		}
		c.properties = append(c.properties, p)
	}
	for _, ks := range s.Constants {
		k, err := newConstant(catalog, ks, c)
		if err != nil {
			return nil, err
		}
		c.constants = append(c.constants, k)
	}
	return c, nil
}

func (c *Class) Name() string            { return c.name }
func (c *Class) IsTokenized() bool       { return false }
func (c *Class) IsInternal() bool        { return true }
func (c *Class) FileName() string        { return "" }
func (c *Class) StartLine() int          { return 0 }
func (c *Class) EndLine() int            { return 0 }
func (c *Class) DocComment() string      { return "" }
func (c *Class) IsValid() bool           { return true }
func (c *Class) Exists() bool            { return true }
func (c *Class) IsComplete() bool        { return true }
func (c *Class) Kind() php.ClassKind     { return c.kind }
func (c *Class) IsInterface() bool       { return c.kind == php.ClassKindInterface }
func (c *Class) IsTrait() bool           { return c.kind == php.ClassKindTrait }
func (c *Class) IsFinal() bool           { return c.modifiers&php.ClassFinal != 0 }
func (c *Class) ParentClassName() string { return c.parent }
func (c *Class) TraitNames() []string    { return nil }

func (c *Class) Annotations() *phpdoc.DocBlock { return nil }

func (c *Class) ShortName() string {
	_, short := php.SplitName(c.name)
	return short
}

func (c *Class) NamespaceName() string {
	ns, _ := php.SplitName(c.name)
	return ns
}

func (c *Class) IsAbstract() bool {
	if c.modifiers&php.ClassExplicitAbstract != 0 {
		return true
	}
	if !c.IsInterface() {
		return false
	}
	for _, m := range c.methods {
		if m.IsAbstract() {
			return true
		}
	}
	return false
}

// Modifiers derives the implicit bits with the same rule tokenized classes
// use. Built-in ancestors are always complete, so nothing is deferred.
func (c *Class) Modifiers() (int, error) {
	mods := c.modifiers
	if len(c.interfaces) > 0 {
		mods |= php.ClassImplementsInterfaces
	}
	if c.IsInterface() && len(c.methods) > 0 {
		mods |= php.ClassImplicitAbstract
	}
	if mods&php.ClassExplicitAbstract != 0 {
		if len(c.interfaces) > 0 {
			mods |= php.ClassImplicitAbstract
		}
		methods, err := c.Methods()
		if err != nil {
			return 0, err
		}
		for _, m := range methods {
			if m.IsAbstract() {
				mods |= php.ClassImplicitAbstract
				break
			}
		}
	}
	return mods, nil
}

func (c *Class) ParentClass() (php.ClassInfo, error) {
	if c.parent == "" {
		return nil, nil
	}
	return c.catalog.Class(c.parent)
}

func (c *Class) OwnInterfaceNames() []string {
	return append([]string(nil), c.interfaces...)
}

// ancestors visits the parent chain and interface closure breadth first,
// each class once.
func (c *Class) ancestors(visit func(*Class)) {
	seen := map[string]bool{php.ClassKey(c.name): true}
	queue := []*Class{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		names := cur.interfaces
		if cur.parent != "" {
			names = append([]string{cur.parent}, names...)
		}
		for _, name := range names {
			key := php.ClassKey(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			if next, ok := c.catalog.classes[key]; ok {
				visit(next)
				queue = append(queue, next)
			}
		}
	}
}

func (c *Class) InterfaceNames() ([]string, error) {
	names := append([]string(nil), c.interfaces...)
	seen := make(map[string]bool)
	for _, name := range names {
		seen[php.ClassKey(name)] = true
	}
	c.ancestors(func(a *Class) {
		for _, name := range a.interfaces {
			if !seen[php.ClassKey(name)] {
				seen[php.ClassKey(name)] = true
				names = append(names, name)
			}
		}
	})
	return names, nil
}

func (c *Class) IsSubclassOf(name string) (bool, error) {
	key := php.ClassKey(name)
	if key == php.ClassKey(c.name) {
		return false, nil
	}
	found := false
	c.ancestors(func(a *Class) {
		if php.ClassKey(a.name) == key {
			found = true
		}
	})
	if found {
		return true, nil
	}
	return c.ImplementsInterface(name)
}

func (c *Class) ImplementsInterface(name string) (bool, error) {
	names, _ := c.InterfaceNames()
	for _, n := range names {
		if strings.EqualFold(n, php.TrimName(name)) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Class) OwnMethods() []php.MethodInfo {
	out := make([]php.MethodInfo, len(c.methods))
	for i, m := range c.methods {
		out[i] = m
	}
	return out
}

func (c *Class) HasOwnMethod(name string) bool {
	for _, m := range c.methods {
		if strings.EqualFold(m.name, name) {
			return true
		}
	}
	return false
}

// Methods merges own methods with those of the ancestors, the first of a
// name winning.
func (c *Class) Methods() ([]php.MethodInfo, error) {
	seen := make(map[string]bool)
	var out []php.MethodInfo
	add := func(methods []*Method) {
		for _, m := range methods {
			key := strings.ToLower(m.name)
			if !seen[key] {
				seen[key] = true
				out = append(out, m)
			}
		}
	}
	add(c.methods)
	c.ancestors(func(a *Class) { add(a.methods) })
	return out, nil
}

func (c *Class) Method(name string) (php.MethodInfo, error) {
	methods, _ := c.Methods()
	for _, m := range methods {
		if strings.EqualFold(m.Name(), name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("method %s::%s: %w", c.name, name, php.ErrNotFound)
}

func (c *Class) HasMethod(name string) bool {
	_, err := c.Method(name)
	return err == nil
}

func (c *Class) Constructor() (php.MethodInfo, error) {
	return c.Method("__construct")
}

func (c *Class) OwnProperties() []php.PropertyInfo {
	out := make([]php.PropertyInfo, len(c.properties))
	for i, p := range c.properties {
		out[i] = p
	}
	return out
}

// Properties merges own properties with those of the parent chain.
func (c *Class) Properties() ([]php.PropertyInfo, error) {
	seen := make(map[string]bool)
	var out []php.PropertyInfo
	visited := make(map[*Class]bool)
	for cur := c; cur != nil && !visited[cur]; cur = c.catalog.classes[php.ClassKey(cur.parent)] {
		visited[cur] = true
		for _, p := range cur.properties {
			if !seen[p.name] {
				seen[p.name] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (c *Class) Property(name string) (php.PropertyInfo, error) {
	props, _ := c.Properties()
	for _, p := range props {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("property %s::$%s: %w", c.name, name, php.ErrNotFound)
}

func (c *Class) HasProperty(name string) bool {
	_, err := c.Property(name)
	return err == nil
}

func (c *Class) OwnConstants() []php.ConstantInfo {
	out := make([]php.ConstantInfo, len(c.constants))
	for i, k := range c.constants {
		out[i] = k
	}
	return out
}

func (c *Class) Constants() ([]php.ConstantInfo, error) {
	seen := make(map[string]bool)
	var out []php.ConstantInfo
	add := func(constants []*Constant) {
		for _, k := range constants {
			if !seen[k.name] {
				seen[k.name] = true
				out = append(out, k)
			}
		}
	}
	add(c.constants)
	c.ancestors(func(a *Class) { add(a.constants) })
	return out, nil
}

func (c *Class) Constant(name string) (php.ConstantInfo, error) {
	constants, _ := c.Constants()
	for _, k := range constants {
		if k.Name() == name {
			return k, nil
		}
	}
	return nil, fmt.Errorf("constant %s::%s: %w", c.name, name, php.ErrNotFound)
}

func (c *Class) HasConstant(name string) bool {
	_, err := c.Constant(name)
	return err == nil
}
