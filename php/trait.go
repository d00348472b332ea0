package php

import (
	"errors"
	"strings"
)

// TraitRule is one directive of a trait use block. An alias carries a new
// name and/or an access override; an insteadof clause records Excluded under
// each excluded trait's method.
type TraitRule struct {
	Alias    string
	Access   int
	Excluded bool
}

func traitRuleKey(trait, method string) string {
	if trait == "" {
		return strings.ToLower(method)
	}
	return strings.ToLower(TrimName(trait)) + "::" + strings.ToLower(method)
}

// usedTraits resolves the directly used traits that are tokenized. Others
// cannot be imported from and leave the class incomplete.
func (c *ClassModel) usedTraits() []*ClassModel {
	var traits []*ClassModel
	for _, name := range c.traits {
		info, err := c.lookup(name)
		if err != nil {
			continue
		}
		if trait, ok := info.(*ClassModel); ok {
			traits = append(traits, trait)
		}
	}
	return traits
}

// traitMethods applies the class's trait rules to the methods of every
// used trait. Methods the class declares itself are never imported. Two
// traits supplying the same name is an error.
func (c *ClassModel) traitMethods() ([]MethodInfo, error) {
	var imported []MethodInfo
	source := make(map[string]string)

	add := func(m *MethodModel, trait *ClassModel) error {
		key := strings.ToLower(m.name)
		if c.ownMethod(key) != nil {
			return nil
		}
		if prev, ok := source[key]; ok {
			if !strings.EqualFold(prev, trait.name) {
				return &TraitConflictError{Class: c.name, Method: m.name, Traits: []string{prev, trait.name}}
			}
			return nil
		}
		source[key] = trait.name
		imported = append(imported, m)
		return nil
	}

	for _, trait := range c.usedTraits() {
		methods, err := trait.Methods()
		if err != nil {
			return nil, err
		}
		for _, info := range methods {
			m, ok := info.(*MethodModel)
			if !ok {
				continue
			}
			rules := append(append([]TraitRule(nil),
				c.traitRules[traitRuleKey(trait.name, m.name)]...),
				c.traitRules[traitRuleKey("", m.name)]...)

			consumed := false
			reimported := false
			for _, rule := range rules {
				if rule.Excluded {
					consumed = true
					continue
				}
				name := rule.Alias
				if name == "" {
					name = m.name
					reimported = true
				}
				if err := add(aliasMethod(m, c, name, rule.Access), trait); err != nil {
					return nil, err
				}
			}
			if consumed || reimported {
				continue
			}
			if err := add(aliasMethod(m, c, m.name, 0), trait); err != nil {
				return nil, err
			}
		}
	}
	return imported, nil
}

// traitProperties imports the properties of every used trait.
func (c *ClassModel) traitProperties() ([]PropertyInfo, error) {
	var imported []PropertyInfo
	seen := make(map[string]bool)
	for _, trait := range c.usedTraits() {
		props, err := trait.Properties()
		if err != nil {
			return nil, err
		}
		for _, info := range props {
			p, ok := info.(*PropertyModel)
			if !ok || seen[p.name] || c.ownProperty(p.name) != nil {
				continue
			}
			seen[p.name] = true
			imported = append(imported, p.importInto(c, trait.name))
		}
	}
	return imported, nil
}

// Methods merges own methods, trait imports, the parent's methods and the
// methods of directly implemented interfaces, first by name winning.
func (c *ClassModel) Methods() ([]MethodInfo, error) {
	c.mu.Lock()
	if c.mergedMethods != nil {
		methods := append([]MethodInfo(nil), c.mergedMethods...)
		c.mu.Unlock()
		return methods, nil
	}
	c.mu.Unlock()

	if err := c.checkAcyclic(); err != nil {
		return nil, err
	}

	methods := make([]MethodInfo, 0, len(c.methods))
	seen := make(map[string]bool)
	add := func(list []MethodInfo) {
		for _, m := range list {
			key := strings.ToLower(m.Name())
			if !seen[key] {
				seen[key] = true
				methods = append(methods, m)
			}
		}
	}

	add(c.OwnMethods())
	imported, err := c.traitMethods()
	if err != nil {
		return nil, err
	}
	add(imported)

	for _, name := range append([]string{c.parent}, c.interfaces...) {
		if name == "" {
			continue
		}
		inherited, err := c.inheritedMethods(name)
		if err != nil {
			return nil, err
		}
		add(inherited)
	}

	if c.IsComplete() {
		c.mu.Lock()
		c.mergedMethods = methods
		c.mu.Unlock()
	}
	return append([]MethodInfo(nil), methods...), nil
}

func (c *ClassModel) inheritedMethods(name string) ([]MethodInfo, error) {
	info, err := c.lookup(name)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return info.Methods()
}

// Properties merges own properties, trait imports and the parent's
// properties.
func (c *ClassModel) Properties() ([]PropertyInfo, error) {
	c.mu.Lock()
	if c.mergedProperties != nil {
		props := append([]PropertyInfo(nil), c.mergedProperties...)
		c.mu.Unlock()
		return props, nil
	}
	c.mu.Unlock()

	if err := c.checkAcyclic(); err != nil {
		return nil, err
	}

	props := make([]PropertyInfo, 0, len(c.properties))
	seen := make(map[string]bool)
	add := func(list []PropertyInfo) {
		for _, p := range list {
			if !seen[p.Name()] {
				seen[p.Name()] = true
				props = append(props, p)
			}
		}
	}

	add(c.OwnProperties())
	imported, err := c.traitProperties()
	if err != nil {
		return nil, err
	}
	add(imported)

	if c.parent != "" {
		parent, err := c.lookup(c.parent)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if parent != nil {
			inherited, err := parent.Properties()
			if err != nil {
				return nil, err
			}
			add(inherited)
		}
	}

	if c.IsComplete() {
		c.mu.Lock()
		c.mergedProperties = props
		c.mu.Unlock()
	}
	return append([]PropertyInfo(nil), props...), nil
}

// Constants merges own constants, the parent's constants and the constants
// of directly implemented interfaces.
func (c *ClassModel) Constants() ([]ConstantInfo, error) {
	c.mu.Lock()
	if c.mergedConstants != nil {
		constants := append([]ConstantInfo(nil), c.mergedConstants...)
		c.mu.Unlock()
		return constants, nil
	}
	c.mu.Unlock()

	if err := c.checkAcyclic(); err != nil {
		return nil, err
	}

	constants := make([]ConstantInfo, 0, len(c.constants))
	seen := make(map[string]bool)
	add := func(list []ConstantInfo) {
		for _, k := range list {
			if !seen[k.ShortName()] {
				seen[k.ShortName()] = true
				constants = append(constants, k)
			}
		}
	}

	add(c.OwnConstants())
	for _, name := range append([]string{c.parent}, c.interfaces...) {
		if name == "" {
			continue
		}
		info, err := c.lookup(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		inherited, err := info.Constants()
		if err != nil {
			return nil, err
		}
		add(inherited)
	}

	if c.IsComplete() {
		c.mu.Lock()
		c.mergedConstants = constants
		c.mu.Unlock()
	}
	return append([]ConstantInfo(nil), constants...), nil
}
