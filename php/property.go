package php

import (
	"github.com/dhamidi/phpreflect/php/phpdoc"
)

type PropertyModel struct {
	name       string
	class      *ClassModel
	trait      string
	modifiers  int
	typeHint   string
	def        *Expression
	docComment string
	fileName   string
	startLine  int
	endLine    int
}

// importInto clones a trait property into the using class.
func (p *PropertyModel) importInto(class *ClassModel, trait string) *PropertyModel {
	clone := *p
	clone.class = class
	clone.def = p.def.rebind(class)
	if clone.trait == "" {
		clone.trait = trait
	}
	return &clone
}

func (p *PropertyModel) Name() string               { return p.name }
func (p *PropertyModel) IsTokenized() bool          { return true }
func (p *PropertyModel) IsInternal() bool           { return false }
func (p *PropertyModel) FileName() string           { return p.fileName }
func (p *PropertyModel) StartLine() int             { return p.startLine }
func (p *PropertyModel) EndLine() int               { return p.endLine }
func (p *PropertyModel) DocComment() string         { return p.docComment }
func (p *PropertyModel) DeclaringClassName() string { return p.class.name }
func (p *PropertyModel) DeclaringTraitName() string { return p.trait }
func (p *PropertyModel) Modifiers() int             { return p.modifiers }
func (p *PropertyModel) IsPublic() bool             { return p.modifiers&ModifierPublic != 0 }
func (p *PropertyModel) IsProtected() bool          { return p.modifiers&ModifierProtected != 0 }
func (p *PropertyModel) IsPrivate() bool            { return p.modifiers&ModifierPrivate != 0 }
func (p *PropertyModel) IsStatic() bool             { return p.modifiers&ModifierStatic != 0 }
func (p *PropertyModel) IsReadonly() bool           { return p.modifiers&ModifierReadonly != 0 }
func (p *PropertyModel) Type() string               { return p.typeHint }
func (p *PropertyModel) HasDefaultValue() bool      { return p.def != nil }

func (p *PropertyModel) DeclaringClass() (ClassInfo, error) {
	return p.class, nil
}

// DefaultValue evaluates the default. An untyped property without one
// defaults to null.
func (p *PropertyModel) DefaultValue() (any, error) {
	if p.def == nil {
		return nil, nil
	}
	return p.def.Value()
}

func (p *PropertyModel) DefaultValueDefinition() string {
	return p.def.Source()
}

func (p *PropertyModel) Annotations() *phpdoc.DocBlock {
	own := phpdoc.Parse(p.docComment)
	var parents []*phpdoc.DocBlock
	if parent, err := p.class.ParentClass(); err == nil && parent != nil {
		if inherited, err := parent.Property(p.name); err == nil {
			parents = append(parents, inherited.Annotations())
		}
	}
	return phpdoc.Inherit(own, parents, false)
}
