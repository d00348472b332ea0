package php

import (
	"strings"
)

// table keeps entities in declaration order under normalized keys.
type table[T Entity] struct {
	order []string
	items map[string]T
}

func newTable[T Entity]() *table[T] {
	return &table[T]{items: make(map[string]T)}
}

func (t *table[T]) get(key string) (T, bool) {
	v, ok := t.items[key]
	return v, ok
}

func (t *table[T]) put(key string, v T) {
	if _, ok := t.items[key]; !ok {
		t.order = append(t.order, key)
	}
	t.items[key] = v
}

func (t *table[T]) values() []T {
	out := make([]T, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.items[key])
	}
	return out
}

func (t *table[T]) len() int {
	return len(t.order)
}

// ClassKey normalizes a class or function name for lookup: names are
// case-insensitive and never carry a leading separator.
func ClassKey(name string) string {
	return strings.ToLower(TrimName(name))
}

// ConstantKey normalizes a constant name: the namespace part is
// case-insensitive, the short name is not.
func ConstantKey(name string) string {
	ns, short := SplitName(name)
	if ns == "" {
		return short
	}
	return strings.ToLower(ns) + `\` + short
}

func occurrence(kind, name string, e Entity) []error {
	if inv, ok := e.(Invalid); ok {
		return inv.Reasons()
	}
	return []error{&DuplicateError{Kind: kind, Name: name, File: e.FileName()}}
}

// collideClass folds a newly registered class into an existing entry. The
// result is an Invalid marker owned by the caller; the reasons added by this
// collision are returned.
func collideClass(existing, added ClassInfo, owned bool) (*InvalidClass, []error) {
	name := existing.Name()
	reasons := occurrence("class", name, added)
	if inv, ok := existing.(*InvalidClass); ok {
		if !owned {
			inv = inv.clone()
		}
		inv.addReasons(reasons...)
		inv.decls = append(inv.decls, declarationsOf(added)...)
		return inv, reasons
	}
	reasons = append(occurrence("class", name, existing), reasons...)
	inv := NewInvalidClass(name, reasons...)
	inv.decls = append(declarationsOf(existing), declarationsOf(added)...)
	return inv, reasons
}

func declarationsOf(c ClassInfo) []ClassInfo {
	if inv, ok := c.(*InvalidClass); ok {
		return inv.Declarations()
	}
	return []ClassInfo{c}
}

func collideFunction(existing, added FunctionInfo, owned bool) (*InvalidFunction, []error) {
	name := existing.Name()
	reasons := occurrence("function", name, added)
	addedDecls := []FunctionInfo{added}
	if inv, ok := added.(*InvalidFunction); ok {
		addedDecls = inv.Declarations()
	}
	if inv, ok := existing.(*InvalidFunction); ok {
		if !owned {
			inv = inv.clone()
		}
		inv.addReasons(reasons...)
		inv.decls = append(inv.decls, addedDecls...)
		return inv, reasons
	}
	reasons = append(occurrence("function", name, existing), reasons...)
	inv := NewInvalidFunction(name, reasons...)
	inv.decls = append([]FunctionInfo{existing}, addedDecls...)
	return inv, reasons
}

func collideConstant(existing, added ConstantInfo, owned bool) (*InvalidConstant, []error) {
	name := existing.Name()
	reasons := occurrence("constant", name, added)
	addedDecls := []ConstantInfo{added}
	if inv, ok := added.(*InvalidConstant); ok {
		addedDecls = inv.Declarations()
	}
	if inv, ok := existing.(*InvalidConstant); ok {
		if !owned {
			inv = inv.clone()
		}
		inv.addReasons(reasons...)
		inv.decls = append(inv.decls, addedDecls...)
		return inv, reasons
	}
	reasons = append(occurrence("constant", name, existing), reasons...)
	inv := NewInvalidConstant(name, reasons...)
	inv.decls = append([]ConstantInfo{existing}, addedDecls...)
	return inv, reasons
}

// Namespace is the merged view of one namespace across every registered
// file. It is not safe for concurrent mutation.
type Namespace struct {
	name      string
	segments  []*FileNamespace
	classes   *table[ClassInfo]
	functions *table[FunctionInfo]
	constants *table[ConstantInfo]
	owned     map[Entity]bool
}

func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:      TrimName(name),
		classes:   newTable[ClassInfo](),
		functions: newTable[FunctionInfo](),
		constants: newTable[ConstantInfo](),
		owned:     make(map[Entity]bool),
	}
}

func (n *Namespace) Name() string { return n.name }

func (n *Namespace) Segments() []*FileNamespace {
	return append([]*FileNamespace(nil), n.segments...)
}

// AddFileNamespace merges a segment's classes and functions, and those of
// its constants that live in this namespace. Names already present turn
// into Invalid markers; the reasons added are returned.
func (n *Namespace) AddFileNamespace(seg *FileNamespace) []error {
	n.segments = append(n.segments, seg)
	var errs []error
	for _, c := range seg.Classes() {
		errs = append(errs, n.AddClass(c)...)
	}
	for _, f := range seg.Functions() {
		errs = append(errs, n.AddFunction(f)...)
	}
	for _, k := range seg.Constants() {
		if strings.EqualFold(k.NamespaceName(), n.name) {
			errs = append(errs, n.AddConstant(k)...)
		}
	}
	return errs
}

func (n *Namespace) AddClass(c ClassInfo) []error {
	key := ClassKey(c.Name())
	existing, ok := n.classes.get(key)
	if !ok {
		n.classes.put(key, c)
		return nil
	}
	inv, reasons := collideClass(existing, c, n.owned[existing])
	n.owned[inv] = true
	n.classes.put(key, inv)
	return reasons
}

func (n *Namespace) AddFunction(f FunctionInfo) []error {
	key := ClassKey(f.Name())
	existing, ok := n.functions.get(key)
	if !ok {
		n.functions.put(key, f)
		return nil
	}
	inv, reasons := collideFunction(existing, f, n.owned[existing])
	n.owned[inv] = true
	n.functions.put(key, inv)
	return reasons
}

func (n *Namespace) AddConstant(k ConstantInfo) []error {
	key := ConstantKey(k.Name())
	existing, ok := n.constants.get(key)
	if !ok {
		n.constants.put(key, k)
		return nil
	}
	inv, reasons := collideConstant(existing, k, n.owned[existing])
	n.owned[inv] = true
	n.constants.put(key, inv)
	return reasons
}

func (n *Namespace) Classes() []ClassInfo      { return n.classes.values() }
func (n *Namespace) Functions() []FunctionInfo { return n.functions.values() }
func (n *Namespace) Constants() []ConstantInfo { return n.constants.values() }

// Class looks up a class by fully-qualified name.
func (n *Namespace) Class(name string) (ClassInfo, bool) {
	return n.classes.get(ClassKey(name))
}

func (n *Namespace) Function(name string) (FunctionInfo, bool) {
	return n.functions.get(ClassKey(name))
}

func (n *Namespace) Constant(name string) (ConstantInfo, bool) {
	return n.constants.get(ConstantKey(name))
}

func (n *Namespace) HasClass(name string) bool {
	_, ok := n.Class(name)
	return ok
}

func (n *Namespace) HasFunction(name string) bool {
	_, ok := n.Function(name)
	return ok
}

func (n *Namespace) HasConstant(name string) bool {
	_, ok := n.Constant(name)
	return ok
}
