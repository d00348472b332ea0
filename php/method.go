package php

import (
	"strings"
	"sync"

	"github.com/dhamidi/phpreflect/php/phpdoc"
)

// MethodModel is a tokenized method. A method imported from a trait is an
// aliased clone bound to the importing class with a link to the original.
type MethodModel struct {
	functionDecl
	class     *ClassModel
	modifiers int
	original  *MethodModel

	mu              sync.Mutex
	derivedCached   bool
	cachedModifiers int
}

// aliasMethod clones m into class under name. A non-zero access replaces
// the visibility.
func aliasMethod(m *MethodModel, class *ClassModel, name string, access int) *MethodModel {
	clone := &MethodModel{
		functionDecl: m.functionDecl,
		class:        class,
		modifiers:    m.modifiers,
		original:     m,
	}
	clone.name = name
	if access != 0 {
		clone.modifiers = clone.modifiers&^AccessMask | access
	}
	clone.params = make([]*ParameterModel, len(m.params))
	for i, p := range m.params {
		param := *p
		param.owner = &clone.functionDecl
		param.class = class.name
		param.def = p.def.rebind(class)
		clone.params[i] = &param
	}
	return clone
}

func (m *MethodModel) DeclaringClassName() string { return m.class.name }

func (m *MethodModel) DeclaringClass() (ClassInfo, error) { return m.class, nil }

func (m *MethodModel) IsAbstract() bool  { return m.modifiers&ModifierAbstract != 0 }
func (m *MethodModel) IsFinal() bool     { return m.modifiers&ModifierFinal != 0 }
func (m *MethodModel) IsStatic() bool    { return m.modifiers&ModifierStatic != 0 }
func (m *MethodModel) IsPublic() bool    { return m.modifiers&ModifierPublic != 0 }
func (m *MethodModel) IsProtected() bool { return m.modifiers&ModifierProtected != 0 }
func (m *MethodModel) IsPrivate() bool   { return m.modifiers&ModifierPrivate != 0 }

func (m *MethodModel) OriginalName() string {
	if m.original != nil {
		return m.original.name
	}
	return m.name
}

func (m *MethodModel) Original() MethodInfo {
	if m.original == nil {
		return nil
	}
	return m.original
}

// IsConstructor accepts __construct, or in the global namespace a method
// named after its class when the class has no __construct.
func (m *MethodModel) IsConstructor() bool {
	name := strings.ToLower(m.name)
	if name == "__construct" {
		return true
	}
	c := m.class
	if c.namespace != "" || c.kind != ClassKindClass {
		return false
	}
	return name == strings.ToLower(c.shortName) && !c.HasOwnMethod("__construct")
}

func (m *MethodModel) IsDestructor() bool {
	return strings.EqualFold(m.name, "__destruct")
}

// Modifiers adds the derived ModifierAccessLevelChanged and
// ModifierImplementedAbstract bits to the declared ones. They are recomputed
// until the declaring class is complete.
func (m *MethodModel) Modifiers() (int, error) {
	m.mu.Lock()
	if m.derivedCached {
		mods := m.cachedModifiers
		m.mu.Unlock()
		return mods, nil
	}
	m.mu.Unlock()

	mods := m.modifiers
	c := m.class
	parent, _ := c.ParentClass()
	var prototype MethodInfo
	if parent != nil {
		prototype, _ = parent.Method(m.name)
	}
	if prototype != nil {
		if (m.IsPublic() && !prototype.IsPublic()) || (m.IsProtected() && prototype.IsPrivate()) {
			mods |= ModifierAccessLevelChanged
		}
		if prototype.IsAbstract() && !m.IsAbstract() {
			mods |= ModifierImplementedAbstract
		}
	} else {
		interfaces, err := c.InterfaceNames()
		if err != nil {
			return 0, err
		}
		for _, name := range interfaces {
			iface, err := c.lookup(name)
			if err == nil && iface.HasOwnMethod(m.name) {
				mods |= ModifierImplementedAbstract
				break
			}
		}
	}

	done := mods&ModifierImplementedAbstract != 0 && mods&ModifierAccessLevelChanged != 0
	if done || c.IsComplete() {
		m.mu.Lock()
		m.derivedCached = true
		m.cachedModifiers = mods
		m.mu.Unlock()
	}
	return mods, nil
}

// Prototype returns the same-named method of the parent class or of a
// directly implemented interface.
func (m *MethodModel) Prototype() (MethodInfo, error) {
	for _, info := range m.class.docParents() {
		if proto, err := info.Method(m.name); err == nil {
			return proto, nil
		}
	}
	return nil, notFound("prototype of "+m.class.name+"::"+m.name)
}

// Annotations returns the doc-comment with documentation inherited from the
// same-named method of the parent class and the direct interfaces.
func (m *MethodModel) Annotations() *phpdoc.DocBlock {
	own := phpdoc.Parse(m.docComment)
	var parents []*phpdoc.DocBlock
	for _, info := range m.class.docParents() {
		if proto, err := info.Method(m.name); err == nil {
			parents = append(parents, proto.Annotations())
		}
	}
	if m.original != nil && own == nil {
		parents = append([]*phpdoc.DocBlock{m.original.Annotations()}, parents...)
	}
	return phpdoc.Inherit(own, parents, true)
}
