package php

import (
	"strings"
)

type ParameterModel struct {
	name     string
	position int
	owner    *functionDecl
	class    string
	typeKind TypeKind
	typeHint string
	nullable bool
	byRef    bool
	variadic bool
	promoted bool
	def      *Expression

	promotedMods int
}

func (p *ParameterModel) Name() string                  { return p.name }
func (p *ParameterModel) Position() int                 { return p.position }
func (p *ParameterModel) DeclaringFunctionName() string { return p.owner.name }
func (p *ParameterModel) DeclaringClassName() string    { return p.class }
func (p *ParameterModel) TypeKind() TypeKind            { return p.typeKind }
func (p *ParameterModel) TypeHint() string              { return p.typeHint }
func (p *ParameterModel) IsArray() bool                 { return p.typeKind == TypeArray }
func (p *ParameterModel) IsCallable() bool              { return p.typeKind == TypeCallable }
func (p *ParameterModel) IsPassedByReference() bool     { return p.byRef }
func (p *ParameterModel) IsVariadic() bool              { return p.variadic }
func (p *ParameterModel) IsPromoted() bool              { return p.promoted }
func (p *ParameterModel) IsDefaultValueAvailable() bool { return p.def != nil }

// ClassName returns the class a parameter is constrained to, if any.
func (p *ParameterModel) ClassName() string {
	if p.typeKind != TypeClass {
		return ""
	}
	return strings.TrimPrefix(p.typeHint, "?")
}

// AllowsNull holds for untyped and nullable parameters and for those
// defaulting to null.
func (p *ParameterModel) AllowsNull() bool {
	if p.typeKind == TypeNone || p.nullable {
		return true
	}
	return p.def != nil && strings.EqualFold(p.def.Source(), "null")
}

// IsOptional holds only when this parameter and every parameter after it
// carry a default value.
func (p *ParameterModel) IsOptional() bool {
	params := p.owner.params
	for i := p.position; i < len(params); i++ {
		if params[i].def == nil {
			return false
		}
	}
	return true
}

func (p *ParameterModel) DefaultValue() (any, error) {
	if p.def == nil {
		return nil, notFound("default value of $" + p.name)
	}
	return p.def.Value()
}

func (p *ParameterModel) DefaultValueDefinition() string {
	return p.def.Source()
}
