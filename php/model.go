// Package php builds a reflection model of PHP source by scanning its token
// stream. Classes, functions and constants reference each other by name and
// resolve through a Storage, so declarations may be registered in any order.
package php

import (
	"github.com/dhamidi/phpreflect/php/phpdoc"
)

// Class modifier bits. The values of the first three match the host
// runtime's reflection constants.
const (
	ClassImplicitAbstract     = 0x10
	ClassExplicitAbstract     = 0x20
	ClassFinal                = 0x40
	ClassInterface            = 0x80
	ClassTrait                = 0x100
	ClassImplementsInterfaces = 0x80000
	ClassImplementsTraits     = 0x800000
)

// Member modifier bits shared by methods, properties and class constants.
const (
	ModifierStatic              = 0x1
	ModifierAbstract            = 0x2
	ModifierFinal               = 0x4
	ModifierImplementedAbstract = 0x8
	ModifierReadonly            = 0x80
	ModifierPublic              = 0x100
	ModifierProtected           = 0x200
	ModifierPrivate             = 0x400
	ModifierAccessLevelChanged  = 0x800

	AccessMask = ModifierPublic | ModifierProtected | ModifierPrivate
)

type ClassKind string

const (
	ClassKindClass     ClassKind = "class"
	ClassKindInterface ClassKind = "interface"
	ClassKindTrait     ClassKind = "trait"
)

// TypeKind classifies a parameter or property type constraint.
type TypeKind int

const (
	TypeNone TypeKind = iota
	TypeClass
	TypeArray
	TypeCallable
	// TypeScalar covers every other declared type (int, string, unions...),
	// kept verbatim.
	TypeScalar
)

// Storage resolves fully-qualified names to reflected entities. Lookups of
// unknown names return an error wrapping ErrNotFound.
type Storage interface {
	Class(name string) (ClassInfo, error)
	Function(name string) (FunctionInfo, error)
	Constant(name string) (ConstantInfo, error)
}

// Entity is implemented by everything the model reflects.
type Entity interface {
	Name() string
	IsTokenized() bool
	IsInternal() bool
	FileName() string
	StartLine() int
	EndLine() int
	DocComment() string
}

// ClassInfo is the query surface of a class, interface or trait, whether it
// was tokenized, comes from the builtin catalog or is a placeholder.
type ClassInfo interface {
	Entity
	ShortName() string
	NamespaceName() string
	IsValid() bool
	Exists() bool
	IsComplete() bool

	Kind() ClassKind
	IsInterface() bool
	IsTrait() bool
	IsAbstract() bool
	IsFinal() bool
	Modifiers() (int, error)

	ParentClassName() string
	ParentClass() (ClassInfo, error)
	OwnInterfaceNames() []string
	InterfaceNames() ([]string, error)
	TraitNames() []string
	IsSubclassOf(name string) (bool, error)
	ImplementsInterface(name string) (bool, error)

	OwnMethods() []MethodInfo
	HasOwnMethod(name string) bool
	Methods() ([]MethodInfo, error)
	Method(name string) (MethodInfo, error)
	HasMethod(name string) bool
	Constructor() (MethodInfo, error)

	OwnProperties() []PropertyInfo
	Properties() ([]PropertyInfo, error)
	Property(name string) (PropertyInfo, error)
	HasProperty(name string) bool

	OwnConstants() []ConstantInfo
	Constants() ([]ConstantInfo, error)
	Constant(name string) (ConstantInfo, error)
	HasConstant(name string) bool

	Annotations() *phpdoc.DocBlock
}

// FunctionLike is shared by functions and methods.
type FunctionLike interface {
	Entity
	ReturnsReference() bool
	ReturnType() string
	Parameters() []ParameterInfo
	Parameter(name string) (ParameterInfo, error)
	NumberOfParameters() int
	NumberOfRequiredParameters() int
	Annotations() *phpdoc.DocBlock
}

type FunctionInfo interface {
	FunctionLike
	ShortName() string
	NamespaceName() string
	IsValid() bool
}

type MethodInfo interface {
	FunctionLike
	DeclaringClassName() string
	DeclaringClass() (ClassInfo, error)
	Modifiers() (int, error)
	IsAbstract() bool
	IsFinal() bool
	IsStatic() bool
	IsPublic() bool
	IsProtected() bool
	IsPrivate() bool
	IsConstructor() bool
	IsDestructor() bool
	// OriginalName is the name the method had in the trait it was imported
	// from, or its own name.
	OriginalName() string
	// Original is the trait method an imported method was cloned from, or
	// nil.
	Original() MethodInfo
}

type PropertyInfo interface {
	Entity
	DeclaringClassName() string
	DeclaringClass() (ClassInfo, error)
	DeclaringTraitName() string
	Modifiers() int
	IsPublic() bool
	IsProtected() bool
	IsPrivate() bool
	IsStatic() bool
	IsReadonly() bool
	Type() string
	HasDefaultValue() bool
	DefaultValue() (any, error)
	DefaultValueDefinition() string
	Annotations() *phpdoc.DocBlock
}

type ConstantInfo interface {
	Entity
	ShortName() string
	NamespaceName() string
	DeclaringClassName() string
	IsValid() bool
	Modifiers() int
	Value() (any, error)
	ValueDefinition() string
	Annotations() *phpdoc.DocBlock
}

type ParameterInfo interface {
	Name() string
	Position() int
	DeclaringFunctionName() string
	DeclaringClassName() string
	TypeKind() TypeKind
	TypeHint() string
	ClassName() string
	IsArray() bool
	IsCallable() bool
	AllowsNull() bool
	IsPassedByReference() bool
	IsVariadic() bool
	IsPromoted() bool
	IsOptional() bool
	IsDefaultValueAvailable() bool
	DefaultValue() (any, error)
	DefaultValueDefinition() string
}
