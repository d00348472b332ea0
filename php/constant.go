package php

import (
	"github.com/dhamidi/phpreflect/php/phpdoc"
)

// ConstantModel is a class constant or a free constant declared with const
// or define(). Its value is evaluated from the captured span on demand.
type ConstantModel struct {
	name       string
	namespace  string
	class      *ClassModel
	modifiers  int
	value      *Expression
	docComment string
	fileName   string
	startLine  int
	endLine    int
}

// Name is the short name for class constants and the fully-qualified name
// for free constants.
func (k *ConstantModel) Name() string {
	if k.class != nil {
		return k.name
	}
	return JoinName(k.namespace, k.name)
}

func (k *ConstantModel) ShortName() string     { return k.name }
func (k *ConstantModel) NamespaceName() string { return k.namespace }
func (k *ConstantModel) IsTokenized() bool     { return true }
func (k *ConstantModel) IsInternal() bool      { return false }
func (k *ConstantModel) IsValid() bool         { return true }
func (k *ConstantModel) FileName() string      { return k.fileName }
func (k *ConstantModel) StartLine() int        { return k.startLine }
func (k *ConstantModel) EndLine() int          { return k.endLine }
func (k *ConstantModel) DocComment() string    { return k.docComment }
func (k *ConstantModel) Modifiers() int        { return k.modifiers }

func (k *ConstantModel) DeclaringClassName() string {
	if k.class == nil {
		return ""
	}
	return k.class.name
}

func (k *ConstantModel) Value() (any, error) {
	return k.value.Value()
}

func (k *ConstantModel) ValueDefinition() string {
	return k.value.Source()
}

func (k *ConstantModel) Annotations() *phpdoc.DocBlock {
	return phpdoc.Parse(k.docComment)
}
