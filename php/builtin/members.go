package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhamidi/phpreflect/php"
	"github.com/dhamidi/phpreflect/php/phpdoc"
)

// signature is shared by built-in functions and methods.
type signature struct {
	name    string
	returns string
	byRef   bool
	params  []*Parameter
}

func newSignature(catalog *Catalog, s functionStub, class string) *signature {
	sig := &signature{name: s.Name, returns: s.Returns, byRef: s.ByRef}
	for i, ps := range s.Params {
		p := &Parameter{
			sig:      sig,
			name:     strings.TrimPrefix(ps.Name, "$"),
			position: i,
			class:    class,
			typeHint: ps.Type,
			byRef:    ps.ByRef,
			variadic: ps.Variadic,
		}
		if ps.Default != "" {
			p.def = php.ParseExpression(ps.Default, &php.Context{Storage: catalog})
		}
		sig.params = append(sig.params, p)
	}
	return sig
}

func (s *signature) Name() string                  { return s.name }
func (s *signature) IsTokenized() bool             { return false }
func (s *signature) IsInternal() bool              { return true }
func (s *signature) FileName() string              { return "" }
func (s *signature) StartLine() int                { return 0 }
func (s *signature) EndLine() int                  { return 0 }
func (s *signature) DocComment() string            { return "" }
func (s *signature) ReturnsReference() bool        { return s.byRef }
func (s *signature) ReturnType() string            { return s.returns }
func (s *signature) NumberOfParameters() int       { return len(s.params) }
func (s *signature) Annotations() *phpdoc.DocBlock { return nil }

func (s *signature) Parameters() []php.ParameterInfo {
	out := make([]php.ParameterInfo, len(s.params))
	for i, p := range s.params {
		out[i] = p
	}
	return out
}

func (s *signature) Parameter(name string) (php.ParameterInfo, error) {
	name = strings.TrimPrefix(name, "$")
	for _, p := range s.params {
		if p.name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parameter $%s of %s: %w", name, s.name, php.ErrNotFound)
}

func (s *signature) NumberOfRequiredParameters() int {
	n := 0
	for _, p := range s.params {
		if !p.IsOptional() {
			n++
		}
	}
	return n
}

// Function is a built-in free function.
type Function struct {
	*signature
}

var _ php.FunctionInfo = (*Function)(nil)

func newFunction(catalog *Catalog, s functionStub) *Function {
	s.Name = php.TrimName(s.Name)
	return &Function{signature: newSignature(catalog, s, "")}
}

func (f *Function) IsValid() bool { return true }

func (f *Function) ShortName() string {
	_, short := php.SplitName(f.name)
	return short
}

func (f *Function) NamespaceName() string {
	ns, _ := php.SplitName(f.name)
	return ns
}

// Method is a method of a built-in class.
type Method struct {
	*signature
	class     *Class
	modifiers int
}

var _ php.MethodInfo = (*Method)(nil)

func newMethod(class *Class, s functionStub) (*Method, error) {
	mods, err := memberModifiers(s.Modifiers)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", s.Name, err)
	}
	if class.kind == php.ClassKindInterface {
		mods |= php.ModifierAbstract
	}
	return &Method{signature: newSignature(class.catalog, s, class.name), class: class, modifiers: mods}, nil
}

func (m *Method) DeclaringClassName() string             { return m.class.name }
func (m *Method) DeclaringClass() (php.ClassInfo, error) { return m.class, nil }
func (m *Method) Modifiers() (int, error)                { return m.modifiers, nil }
func (m *Method) IsAbstract() bool                       { return m.modifiers&php.ModifierAbstract != 0 }
func (m *Method) IsFinal() bool                          { return m.modifiers&php.ModifierFinal != 0 }
func (m *Method) IsStatic() bool                         { return m.modifiers&php.ModifierStatic != 0 }
func (m *Method) IsPublic() bool                         { return m.modifiers&php.ModifierPublic != 0 }
func (m *Method) IsProtected() bool                      { return m.modifiers&php.ModifierProtected != 0 }
func (m *Method) IsPrivate() bool                        { return m.modifiers&php.ModifierPrivate != 0 }
func (m *Method) IsConstructor() bool                    { return strings.EqualFold(m.name, "__construct") }
func (m *Method) IsDestructor() bool                     { return strings.EqualFold(m.name, "__destruct") }
func (m *Method) OriginalName() string                   { return m.name }
func (m *Method) Original() php.MethodInfo               { return nil }

type Parameter struct {
	sig      *signature
	name     string
	position int
	class    string
	typeHint string
	byRef    bool
	variadic bool
	def      *php.Expression
}

var _ php.ParameterInfo = (*Parameter)(nil)

func (p *Parameter) Name() string                   { return p.name }
func (p *Parameter) Position() int                  { return p.position }
func (p *Parameter) DeclaringFunctionName() string  { return p.sig.name }
func (p *Parameter) DeclaringClassName() string     { return p.class }
func (p *Parameter) TypeKind() php.TypeKind         { return php.ClassifyType(p.typeHint) }
func (p *Parameter) TypeHint() string               { return p.typeHint }
func (p *Parameter) IsArray() bool                  { return p.TypeKind() == php.TypeArray }
func (p *Parameter) IsCallable() bool               { return p.TypeKind() == php.TypeCallable }
func (p *Parameter) IsPassedByReference() bool      { return p.byRef }
func (p *Parameter) IsVariadic() bool               { return p.variadic }
func (p *Parameter) IsPromoted() bool               { return false }
func (p *Parameter) IsDefaultValueAvailable() bool  { return p.def != nil }
func (p *Parameter) DefaultValueDefinition() string { return p.def.Source() }

func (p *Parameter) ClassName() string {
	if p.TypeKind() != php.TypeClass {
		return ""
	}
	return strings.TrimPrefix(p.typeHint, "?")
}

func (p *Parameter) AllowsNull() bool {
	if p.typeHint == "" || strings.HasPrefix(p.typeHint, "?") {
		return true
	}
	for _, part := range strings.Split(strings.ToLower(p.typeHint), "|") {
		if part == "null" || part == "mixed" {
			return true
		}
	}
	return p.def != nil && strings.EqualFold(p.def.Source(), "null")
}

func (p *Parameter) IsOptional() bool {
	for _, q := range p.sig.params[p.position:] {
		if q.def == nil {
			return false
		}
	}
	return true
}

func (p *Parameter) DefaultValue() (any, error) {
	if p.def == nil {
		return nil, fmt.Errorf("default value of $%s: %w", p.name, php.ErrNotFound)
	}
	return p.def.Value()
}

type Property struct {
	class     *Class
	name      string
	modifiers int
	typeHint  string
	def       *php.Expression
}

var _ php.PropertyInfo = (*Property)(nil)

func (p *Property) Name() string                           { return p.name }
func (p *Property) IsTokenized() bool                      { return false }
func (p *Property) IsInternal() bool                       { return true }
func (p *Property) FileName() string                       { return "" }
func (p *Property) StartLine() int                         { return 0 }
func (p *Property) EndLine() int                           { return 0 }
func (p *Property) DocComment() string                     { return "" }
func (p *Property) DeclaringClassName() string             { return p.class.name }
func (p *Property) DeclaringClass() (php.ClassInfo, error) { return p.class, nil }
func (p *Property) DeclaringTraitName() string             { return "" }
func (p *Property) Modifiers() int                         { return p.modifiers }
func (p *Property) IsPublic() bool                         { return p.modifiers&php.ModifierPublic != 0 }
func (p *Property) IsProtected() bool                      { return p.modifiers&php.ModifierProtected != 0 }
func (p *Property) IsPrivate() bool                        { return p.modifiers&php.ModifierPrivate != 0 }
func (p *Property) IsStatic() bool                         { return p.modifiers&php.ModifierStatic != 0 }
func (p *Property) IsReadonly() bool                       { return p.modifiers&php.ModifierReadonly != 0 }
func (p *Property) Type() string                           { return p.typeHint }
func (p *Property) HasDefaultValue() bool                  { return p.def != nil }
func (p *Property) DefaultValueDefinition() string         { return p.def.Source() }
func (p *Property) Annotations() *phpdoc.DocBlock          { return nil }

func (p *Property) DefaultValue() (any, error) {
	if p.def == nil {
		return nil, nil
	}
	return p.def.Value()
}

// Constant is a built-in free or class constant. Its value comes decoded
// from the stub.
type Constant struct {
	name      string
	class     *Class
	modifiers int
	value     *php.Expression
}

var _ php.ConstantInfo = (*Constant)(nil)

func newConstant(catalog *Catalog, s constantStub, class *Class) (*Constant, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("constant without a name")
	}
	mods, err := memberModifiers(s.Modifiers)
	if err != nil {
		return nil, fmt.Errorf("constant %s: %w", s.Name, err)
	}
	value, err := stubValue(s.Value)
	if err != nil {
		return nil, fmt.Errorf("constant %s: %w", s.Name, err)
	}
	k := &Constant{name: s.Name, class: class, modifiers: mods, value: php.NewValueExpression(value)}
	if class == nil {
		k.name = php.TrimName(s.Name)
		k.modifiers = 0
	}
	return k, nil
}

// stubValue converts a decoded TOML value to the PHP value model.
func stubValue(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string, bool, int64, float64:
		return v, nil
	case []any:
		arr := php.NewArray()
		for _, item := range v {
			value, err := stubValue(item)
			if err != nil {
				return nil, err
			}
			arr.Append(value)
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		arr := php.NewArray()
		for _, key := range keys {
			value, err := stubValue(v[key])
			if err != nil {
				return nil, err
			}
			arr.Set(key, value)
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

func (k *Constant) Name() string                  { return k.name }
func (k *Constant) IsTokenized() bool             { return false }
func (k *Constant) IsInternal() bool              { return true }
func (k *Constant) IsValid() bool                 { return true }
func (k *Constant) FileName() string              { return "" }
func (k *Constant) StartLine() int                { return 0 }
func (k *Constant) EndLine() int                  { return 0 }
func (k *Constant) DocComment() string            { return "" }
func (k *Constant) Modifiers() int                { return k.modifiers }
func (k *Constant) Value() (any, error)           { return k.value.Value() }
func (k *Constant) ValueDefinition() string       { return k.value.Source() }
func (k *Constant) Annotations() *phpdoc.DocBlock { return nil }

func (k *Constant) ShortName() string {
	_, short := php.SplitName(k.name)
	return short
}

func (k *Constant) NamespaceName() string {
	if k.class != nil {
		return ""
	}
	ns, _ := php.SplitName(k.name)
	return ns
}

func (k *Constant) DeclaringClassName() string {
	if k.class == nil {
		return ""
	}
	return k.class.name
}
