package php

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dhamidi/phpreflect/php/phpdoc"
)

// ClassModel is a tokenized class, interface or trait. Parent, interfaces
// and traits are held by name and resolved through Storage on demand.
type ClassModel struct {
	storage    Storage
	ctx        *Context
	name       string
	shortName  string
	namespace  string
	kind       ClassKind
	modifiers  int
	parent     string
	interfaces []string
	traits     []string
	traitRules map[string][]TraitRule

	methods     []*MethodModel
	methodIndex map[string]*MethodModel
	properties  []*PropertyModel
	constants   []*ConstantModel

	docComment string
	fileName   string
	startLine  int
	endLine    int

	mu               sync.Mutex
	complete         bool
	modifiersCached  bool
	cachedModifiers  int
	mergedMethods    []MethodInfo
	mergedProperties []PropertyInfo
	mergedConstants  []ConstantInfo
	interfaceClosure []string
}

func newClassModel(ctx *Context, kind ClassKind, shortName string) *ClassModel {
	c := &ClassModel{
		storage:     ctx.Storage,
		name:        JoinName(ctx.Namespace, shortName),
		shortName:   shortName,
		namespace:   ctx.Namespace,
		kind:        kind,
		fileName:    ctx.File,
		traitRules:  make(map[string][]TraitRule),
		methodIndex: make(map[string]*MethodModel),
	}
	switch kind {
	case ClassKindInterface:
		c.modifiers |= ClassInterface
	case ClassKindTrait:
		c.modifiers |= ClassTrait
	}
	classCtx := *ctx
	classCtx.Class = c
	classCtx.Function = ""
	c.ctx = &classCtx
	return c
}

func (c *ClassModel) Name() string          { return c.name }
func (c *ClassModel) ShortName() string     { return c.shortName }
func (c *ClassModel) NamespaceName() string { return c.namespace }
func (c *ClassModel) IsTokenized() bool     { return true }
func (c *ClassModel) IsInternal() bool      { return false }
func (c *ClassModel) IsValid() bool         { return true }
func (c *ClassModel) Exists() bool          { return true }
func (c *ClassModel) Kind() ClassKind       { return c.kind }
func (c *ClassModel) IsInterface() bool     { return c.kind == ClassKindInterface }
func (c *ClassModel) IsTrait() bool         { return c.kind == ClassKindTrait }
func (c *ClassModel) IsFinal() bool         { return c.modifiers&ClassFinal != 0 }
func (c *ClassModel) FileName() string      { return c.fileName }
func (c *ClassModel) StartLine() int        { return c.startLine }
func (c *ClassModel) EndLine() int          { return c.endLine }
func (c *ClassModel) DocComment() string    { return c.docComment }

// Context is the lexical context of the class body.
func (c *ClassModel) Context() *Context { return c.ctx }

// IsAbstract reports explicit abstractness, or an interface declaring
// methods.
func (c *ClassModel) IsAbstract() bool {
	if c.modifiers&ClassExplicitAbstract != 0 {
		return true
	}
	return c.IsInterface() && len(c.methods) > 0
}

func (c *ClassModel) ParentClassName() string     { return c.parent }
func (c *ClassModel) OwnInterfaceNames() []string { return append([]string(nil), c.interfaces...) }
func (c *ClassModel) TraitNames() []string        { return append([]string(nil), c.traits...) }

// TraitRules returns the alias and insteadof rules of the class's trait use
// blocks, keyed by "trait::method" or bare "method" in lower case.
func (c *ClassModel) TraitRules() map[string][]TraitRule {
	out := make(map[string][]TraitRule, len(c.traitRules))
	for k, v := range c.traitRules {
		out[k] = append([]TraitRule(nil), v...)
	}
	return out
}

func (c *ClassModel) lookup(name string) (ClassInfo, error) {
	if c.storage == nil {
		return nil, fmt.Errorf("class %s: %w", name, ErrNotFound)
	}
	return c.storage.Class(name)
}

func (c *ClassModel) ParentClass() (ClassInfo, error) {
	if c.parent == "" {
		return nil, nil
	}
	return c.lookup(c.parent)
}

func (c *ClassModel) ancestorNames() []string {
	names := make([]string, 0, 1+len(c.interfaces)+len(c.traits))
	if c.parent != "" {
		names = append(names, c.parent)
	}
	names = append(names, c.interfaces...)
	names = append(names, c.traits...)
	return names
}

// IsComplete reports whether the parent, every interface and every trait
// resolve and are complete themselves. Once true it stays true.
func (c *ClassModel) IsComplete() bool {
	c.mu.Lock()
	done := c.complete
	c.mu.Unlock()
	if done {
		return true
	}
	return c.completeIn(make(map[*ClassModel]bool))
}

func (c *ClassModel) completeIn(path map[*ClassModel]bool) bool {
	c.mu.Lock()
	done := c.complete
	c.mu.Unlock()
	if done {
		return true
	}
	if path[c] {
		return false
	}
	path[c] = true
	defer delete(path, c)

	for _, name := range c.ancestorNames() {
		info, err := c.lookup(name)
		if err != nil || !info.IsValid() || !info.Exists() {
			return false
		}
		if cm, ok := info.(*ClassModel); ok {
			if !cm.completeIn(path) {
				return false
			}
			continue
		}
		if !info.IsComplete() {
			return false
		}
	}

	c.mu.Lock()
	c.complete = true
	c.mu.Unlock()
	return true
}

// checkAcyclic fails when the extends/implements/use graph reachable from
// the class contains a cycle.
func (c *ClassModel) checkAcyclic() error {
	c.mu.Lock()
	done := c.complete
	c.mu.Unlock()
	if done {
		return nil
	}
	return c.walkAcyclic(make(map[*ClassModel]bool), make(map[*ClassModel]bool))
}

func (c *ClassModel) walkAcyclic(path, visited map[*ClassModel]bool) error {
	if visited[c] {
		return nil
	}
	if path[c] {
		return fmt.Errorf("class %s: %w", c.name, ErrCircularReference)
	}
	path[c] = true
	for _, name := range c.ancestorNames() {
		info, err := c.lookup(name)
		if err != nil {
			continue
		}
		if cm, ok := info.(*ClassModel); ok {
			if err := cm.walkAcyclic(path, visited); err != nil {
				return err
			}
		}
	}
	delete(path, c)
	visited[c] = true
	return nil
}

// Modifiers returns the class modifier bits including the derived ones. The
// result is cached only once the class is complete, since later registered
// ancestors may change it.
func (c *ClassModel) Modifiers() (int, error) {
	c.mu.Lock()
	if c.modifiersCached {
		m := c.cachedModifiers
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	mods := c.modifiers
	if mods&ClassExplicitAbstract != 0 {
		methods, err := c.Methods()
		if err != nil {
			return 0, err
		}
		for _, m := range methods {
			if m.IsAbstract() {
				mods |= ClassImplicitAbstract
				break
			}
		}
		if len(c.interfaces) > 0 {
			mods |= ClassImplicitAbstract
		}
	}
	if len(c.interfaces) > 0 {
		mods |= ClassImplementsInterfaces
	}
	if c.IsInterface() && len(c.methods) > 0 {
		mods |= ClassImplicitAbstract
	}
	if len(c.traits) > 0 {
		mods |= ClassImplementsTraits
	}

	final := c.IsComplete() || (mods&ClassImplicitAbstract != 0 && mods&ClassExplicitAbstract != 0)
	if final {
		c.mu.Lock()
		c.modifiersCached = true
		c.cachedModifiers = mods
		c.mu.Unlock()
	}
	return mods, nil
}

// ModifiersCached reports whether Modifiers will answer from its cache.
func (c *ClassModel) ModifiersCached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modifiersCached
}

func (c *ClassModel) InterfaceNames() ([]string, error) {
	c.mu.Lock()
	if c.interfaceClosure != nil {
		names := append([]string(nil), c.interfaceClosure...)
		c.mu.Unlock()
		return names, nil
	}
	c.mu.Unlock()

	if err := c.checkAcyclic(); err != nil {
		return nil, err
	}
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			names = append(names, name)
		}
	}
	collect := func(name string) error {
		info, err := c.lookup(name)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		inherited, err := info.InterfaceNames()
		if err != nil {
			return err
		}
		for _, n := range inherited {
			add(n)
		}
		return nil
	}

	for _, iface := range c.interfaces {
		add(iface)
		if err := collect(iface); err != nil {
			return nil, err
		}
	}
	if c.parent != "" {
		if err := collect(c.parent); err != nil {
			return nil, err
		}
	}
	if names == nil {
		names = []string{}
	}
	if c.IsComplete() {
		c.mu.Lock()
		c.interfaceClosure = names
		c.mu.Unlock()
	}
	return append([]string(nil), names...), nil
}

func (c *ClassModel) ImplementsInterface(name string) (bool, error) {
	names, err := c.InterfaceNames()
	if err != nil {
		return false, err
	}
	name = TrimName(name)
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true, nil
		}
	}
	return false, nil
}

// IsSubclassOf reports whether name is an ancestor class or an implemented
// interface. A class is not a subclass of itself.
func (c *ClassModel) IsSubclassOf(name string) (bool, error) {
	if err := c.checkAcyclic(); err != nil {
		return false, err
	}
	name = TrimName(name)
	if strings.EqualFold(name, c.name) {
		return false, nil
	}
	if c.parent != "" {
		if strings.EqualFold(c.parent, name) {
			return true, nil
		}
		parent, err := c.lookup(c.parent)
		if err == nil {
			ok, err := parent.IsSubclassOf(name)
			if err != nil || ok {
				return ok, err
			}
		}
	}
	return c.ImplementsInterface(name)
}

func (c *ClassModel) OwnMethods() []MethodInfo {
	out := make([]MethodInfo, len(c.methods))
	for i, m := range c.methods {
		out[i] = m
	}
	return out
}

func (c *ClassModel) ownMethod(name string) *MethodModel {
	return c.methodIndex[strings.ToLower(name)]
}

func (c *ClassModel) HasOwnMethod(name string) bool {
	return c.ownMethod(name) != nil
}

func (c *ClassModel) Method(name string) (MethodInfo, error) {
	methods, err := c.Methods()
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		if strings.EqualFold(m.Name(), name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("method %s::%s: %w", c.name, name, ErrNotFound)
}

func (c *ClassModel) HasMethod(name string) bool {
	_, err := c.Method(name)
	return err == nil
}

func (c *ClassModel) Constructor() (MethodInfo, error) {
	methods, err := c.Methods()
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		if m.IsConstructor() {
			return m, nil
		}
	}
	return nil, fmt.Errorf("constructor of %s: %w", c.name, ErrNotFound)
}

func (c *ClassModel) OwnProperties() []PropertyInfo {
	out := make([]PropertyInfo, len(c.properties))
	for i, p := range c.properties {
		out[i] = p
	}
	return out
}

func (c *ClassModel) ownProperty(name string) *PropertyModel {
	for _, p := range c.properties {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (c *ClassModel) Property(name string) (PropertyInfo, error) {
	props, err := c.Properties()
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("property %s::$%s: %w", c.name, name, ErrNotFound)
}

func (c *ClassModel) HasProperty(name string) bool {
	_, err := c.Property(name)
	return err == nil
}

func (c *ClassModel) OwnConstants() []ConstantInfo {
	out := make([]ConstantInfo, len(c.constants))
	for i, k := range c.constants {
		out[i] = k
	}
	return out
}

func (c *ClassModel) ownConstant(name string) *ConstantModel {
	for _, k := range c.constants {
		if k.name == name {
			return k
		}
	}
	return nil
}

func (c *ClassModel) Constant(name string) (ConstantInfo, error) {
	if k := c.ownConstant(name); k != nil {
		return k, nil
	}
	constants, err := c.Constants()
	if err != nil {
		return nil, err
	}
	for _, k := range constants {
		if k.ShortName() == name {
			return k, nil
		}
	}
	return nil, fmt.Errorf("constant %s::%s: %w", c.name, name, ErrNotFound)
}

func (c *ClassModel) HasConstant(name string) bool {
	_, err := c.Constant(name)
	return err == nil
}

// docParents resolves the parent class and the directly implemented
// interfaces, the sources of inherited documentation.
func (c *ClassModel) docParents() []ClassInfo {
	if err := c.checkAcyclic(); err != nil {
		return nil
	}
	var parents []ClassInfo
	for _, name := range append([]string{c.parent}, c.interfaces...) {
		if name == "" {
			continue
		}
		if info, err := c.lookup(name); err == nil {
			parents = append(parents, info)
		}
	}
	return parents
}

// Annotations returns the parsed doc-comment with documentation inherited
// from the parent class and directly implemented interfaces.
func (c *ClassModel) Annotations() *phpdoc.DocBlock {
	var parents []*phpdoc.DocBlock
	for _, info := range c.docParents() {
		parents = append(parents, info.Annotations())
	}
	return phpdoc.Inherit(phpdoc.Parse(c.docComment), parents, false)
}

func (c *ClassModel) addMethod(m *MethodModel) {
	c.methods = append(c.methods, m)
	c.methodIndex[strings.ToLower(m.name)] = m
}

func (c *ClassModel) addTraitRule(key string, rule TraitRule) {
	c.traitRules[key] = append(c.traitRules[key], rule)
}
