package php

import (
	"fmt"
	"sync"

	"github.com/dhamidi/phpreflect/php/phpdoc"
)

// Invalid is implemented by markers standing in for a name declared more
// than once.
type Invalid interface {
	Reasons() []error
}

type reasonList struct {
	mu      sync.Mutex
	reasons []error
}

func (r *reasonList) Reasons() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.reasons...)
}

func (r *reasonList) addReasons(errs ...error) {
	r.mu.Lock()
	r.reasons = append(r.reasons, errs...)
	r.mu.Unlock()
}

// placeholderClass answers every class query with an empty result.
type placeholderClass struct {
	name string
}

func (c *placeholderClass) Name() string { return c.name }
func (c *placeholderClass) ShortName() string {
	_, short := SplitName(c.name)
	return short
}
func (c *placeholderClass) NamespaceName() string {
	ns, _ := SplitName(c.name)
	return ns
}
func (c *placeholderClass) IsTokenized() bool                        { return false }
func (c *placeholderClass) IsInternal() bool                         { return false }
func (c *placeholderClass) FileName() string                         { return "" }
func (c *placeholderClass) StartLine() int                           { return 0 }
func (c *placeholderClass) EndLine() int                             { return 0 }
func (c *placeholderClass) DocComment() string                       { return "" }
func (c *placeholderClass) IsComplete() bool                         { return false }
func (c *placeholderClass) Kind() ClassKind                          { return ClassKindClass }
func (c *placeholderClass) IsInterface() bool                        { return false }
func (c *placeholderClass) IsTrait() bool                            { return false }
func (c *placeholderClass) IsAbstract() bool                         { return false }
func (c *placeholderClass) IsFinal() bool                            { return false }
func (c *placeholderClass) Modifiers() (int, error)                  { return 0, nil }
func (c *placeholderClass) ParentClassName() string                  { return "" }
func (c *placeholderClass) ParentClass() (ClassInfo, error)          { return nil, nil }
func (c *placeholderClass) OwnInterfaceNames() []string              { return nil }
func (c *placeholderClass) InterfaceNames() ([]string, error)        { return nil, nil }
func (c *placeholderClass) TraitNames() []string                     { return nil }
func (c *placeholderClass) IsSubclassOf(string) (bool, error)        { return false, nil }
func (c *placeholderClass) ImplementsInterface(string) (bool, error) { return false, nil }
func (c *placeholderClass) OwnMethods() []MethodInfo                 { return nil }
func (c *placeholderClass) HasOwnMethod(string) bool                 { return false }
func (c *placeholderClass) Methods() ([]MethodInfo, error)           { return nil, nil }
func (c *placeholderClass) HasMethod(string) bool                    { return false }
func (c *placeholderClass) OwnProperties() []PropertyInfo            { return nil }
func (c *placeholderClass) Properties() ([]PropertyInfo, error)      { return nil, nil }
func (c *placeholderClass) HasProperty(string) bool                  { return false }
func (c *placeholderClass) OwnConstants() []ConstantInfo             { return nil }
func (c *placeholderClass) Constants() ([]ConstantInfo, error)       { return nil, nil }
func (c *placeholderClass) HasConstant(string) bool                  { return false }
func (c *placeholderClass) Annotations() *phpdoc.DocBlock            { return nil }

func (c *placeholderClass) Method(name string) (MethodInfo, error) {
	return nil, notFound(fmt.Sprintf("method %s::%s", c.name, name))
}

func (c *placeholderClass) Constructor() (MethodInfo, error) {
	return nil, notFound("constructor of " + c.name)
}

func (c *placeholderClass) Property(name string) (PropertyInfo, error) {
	return nil, notFound(fmt.Sprintf("property %s::$%s", c.name, name))
}

func (c *placeholderClass) Constant(name string) (ConstantInfo, error) {
	return nil, notFound(fmt.Sprintf("constant %s::%s", c.name, name))
}

// InvalidClass replaces a class name declared more than once. The colliding
// declarations stay reachable through Declarations.
type InvalidClass struct {
	placeholderClass
	reasonList
	decls []ClassInfo
}

func NewInvalidClass(name string, reasons ...error) *InvalidClass {
	c := &InvalidClass{placeholderClass: placeholderClass{name: name}}
	c.reasons = reasons
	return c
}

func (c *InvalidClass) IsValid() bool { return false }
func (c *InvalidClass) Exists() bool  { return true }

func (c *InvalidClass) Declarations() []ClassInfo {
	return append([]ClassInfo(nil), c.decls...)
}

// FileName reports the file of the first declaration.
func (c *InvalidClass) FileName() string {
	if len(c.decls) == 0 {
		return ""
	}
	return c.decls[0].FileName()
}

func (c *InvalidClass) clone() *InvalidClass {
	dup := NewInvalidClass(c.name, c.Reasons()...)
	dup.decls = c.Declarations()
	return dup
}

// MissingClass stands for a name referenced as parent or interface that
// resolves to nothing.
type MissingClass struct {
	placeholderClass
}

func NewMissingClass(name string) *MissingClass {
	return &MissingClass{placeholderClass{name: TrimName(name)}}
}

func (c *MissingClass) IsValid() bool { return true }
func (c *MissingClass) Exists() bool  { return false }

// InvalidFunction replaces a function name declared more than once.
type InvalidFunction struct {
	reasonList
	name  string
	decls []FunctionInfo
}

func NewInvalidFunction(name string, reasons ...error) *InvalidFunction {
	f := &InvalidFunction{name: name}
	f.reasons = reasons
	return f
}

func (f *InvalidFunction) Name() string { return f.name }
func (f *InvalidFunction) ShortName() string {
	_, short := SplitName(f.name)
	return short
}
func (f *InvalidFunction) NamespaceName() string {
	ns, _ := SplitName(f.name)
	return ns
}
func (f *InvalidFunction) IsValid() bool                   { return false }
func (f *InvalidFunction) IsTokenized() bool               { return false }
func (f *InvalidFunction) IsInternal() bool                { return false }
func (f *InvalidFunction) StartLine() int                  { return 0 }
func (f *InvalidFunction) EndLine() int                    { return 0 }
func (f *InvalidFunction) DocComment() string              { return "" }
func (f *InvalidFunction) ReturnsReference() bool          { return false }
func (f *InvalidFunction) ReturnType() string              { return "" }
func (f *InvalidFunction) Parameters() []ParameterInfo     { return nil }
func (f *InvalidFunction) NumberOfParameters() int         { return 0 }
func (f *InvalidFunction) NumberOfRequiredParameters() int { return 0 }
func (f *InvalidFunction) Annotations() *phpdoc.DocBlock   { return nil }

func (f *InvalidFunction) FileName() string {
	if len(f.decls) == 0 {
		return ""
	}
	return f.decls[0].FileName()
}

func (f *InvalidFunction) Parameter(name string) (ParameterInfo, error) {
	return nil, notFound(fmt.Sprintf("parameter $%s of %s", name, f.name))
}

func (f *InvalidFunction) Declarations() []FunctionInfo {
	return append([]FunctionInfo(nil), f.decls...)
}

func (f *InvalidFunction) clone() *InvalidFunction {
	dup := NewInvalidFunction(f.name, f.Reasons()...)
	dup.decls = f.Declarations()
	return dup
}

// InvalidConstant replaces a constant name declared more than once.
type InvalidConstant struct {
	reasonList
	name  string
	decls []ConstantInfo
}

func NewInvalidConstant(name string, reasons ...error) *InvalidConstant {
	k := &InvalidConstant{name: name}
	k.reasons = reasons
	return k
}

func (k *InvalidConstant) Name() string { return k.name }
func (k *InvalidConstant) ShortName() string {
	_, short := SplitName(k.name)
	return short
}
func (k *InvalidConstant) NamespaceName() string {
	ns, _ := SplitName(k.name)
	return ns
}
func (k *InvalidConstant) DeclaringClassName() string    { return "" }
func (k *InvalidConstant) IsValid() bool                 { return false }
func (k *InvalidConstant) IsTokenized() bool             { return false }
func (k *InvalidConstant) IsInternal() bool              { return false }
func (k *InvalidConstant) StartLine() int                { return 0 }
func (k *InvalidConstant) EndLine() int                  { return 0 }
func (k *InvalidConstant) DocComment() string            { return "" }
func (k *InvalidConstant) Modifiers() int                { return 0 }
func (k *InvalidConstant) ValueDefinition() string       { return "" }
func (k *InvalidConstant) Annotations() *phpdoc.DocBlock { return nil }

func (k *InvalidConstant) FileName() string {
	if len(k.decls) == 0 {
		return ""
	}
	return k.decls[0].FileName()
}

func (k *InvalidConstant) Value() (any, error) {
	return nil, fmt.Errorf("constant %s is declared multiple times: %w", k.name, ErrUnresolved)
}

func (k *InvalidConstant) Declarations() []ConstantInfo {
	return append([]ConstantInfo(nil), k.decls...)
}

func (k *InvalidConstant) clone() *InvalidConstant {
	dup := NewInvalidConstant(k.name, k.Reasons()...)
	dup.decls = k.Declarations()
	return dup
}
