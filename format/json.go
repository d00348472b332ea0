package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/phpreflect/php"
)

type JSONEncoder struct {
	w     io.Writer
	class php.ClassInfo
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(class php.ClassInfo) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	data, err := buildClass(e.class)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

func (e *JSONEncoder) EncodeFunction(fn php.FunctionInfo) error {
	data := jsonFunction{
		Name:       fn.Name(),
		Namespace:  fn.NamespaceName(),
		File:       fn.FileName(),
		Line:       fn.StartLine(),
		ReturnType: fn.ReturnType(),
		ByRef:      fn.ReturnsReference(),
		Parameters: buildParameters(fn.Parameters()),
		Internal:   fn.IsInternal(),
		Valid:      fn.IsValid(),
	}
	return e.write(data)
}

func (e *JSONEncoder) EncodeConstant(k php.ConstantInfo) error {
	return e.write(buildConstant(k))
}

func (e *JSONEncoder) write(v any) error {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

type jsonClass struct {
	Name       string         `json:"name"`
	ShortName  string         `json:"shortName"`
	Namespace  string         `json:"namespace"`
	Kind       string         `json:"kind"`
	File       string         `json:"file,omitempty"`
	StartLine  int            `json:"startLine,omitempty"`
	EndLine    int            `json:"endLine,omitempty"`
	Modifiers  []string       `json:"modifiers,omitempty"`
	Bits       int            `json:"modifierBits"`
	Parent     string         `json:"parent,omitempty"`
	Interfaces []string       `json:"interfaces,omitempty"`
	Traits     []string       `json:"traits,omitempty"`
	Internal   bool           `json:"internal,omitempty"`
	Invalid    []string       `json:"invalid,omitempty"`
	Doc        string         `json:"doc,omitempty"`
	Constants  []jsonConstant `json:"constants,omitempty"`
	Properties []jsonProperty `json:"properties,omitempty"`
	Methods    []jsonMethod   `json:"methods,omitempty"`
}

type jsonConstant struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Visibility string `json:"visibility,omitempty"`
	Declaring  string `json:"declaringClass,omitempty"`
	Evaluated  any    `json:"evaluated,omitempty"`
}

type jsonProperty struct {
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	Visibility string   `json:"visibility"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Default    string   `json:"default,omitempty"`
	Declaring  string   `json:"declaringClass"`
}

type jsonMethod struct {
	Name       string          `json:"name"`
	ReturnType string          `json:"returnType,omitempty"`
	Parameters []jsonParameter `json:"parameters,omitempty"`
	Visibility string          `json:"visibility"`
	Modifiers  []string        `json:"modifiers,omitempty"`
	Declaring  string          `json:"declaringClass"`
	Original   string          `json:"originalName,omitempty"`
}

type jsonParameter struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Default  string `json:"default,omitempty"`
	ByRef    bool   `json:"byRef,omitempty"`
	Variadic bool   `json:"variadic,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

type jsonFunction struct {
	Name       string          `json:"name"`
	Namespace  string          `json:"namespace"`
	File       string          `json:"file,omitempty"`
	Line       int             `json:"line,omitempty"`
	ReturnType string          `json:"returnType,omitempty"`
	ByRef      bool            `json:"byRef,omitempty"`
	Parameters []jsonParameter `json:"parameters,omitempty"`
	Internal   bool            `json:"internal,omitempty"`
	Valid      bool            `json:"valid"`
}

func buildClass(c php.ClassInfo) (jsonClass, error) {
	data := jsonClass{
		Name:      c.Name(),
		ShortName: c.ShortName(),
		Namespace: c.NamespaceName(),
		Kind:      classKind(c),
		File:      c.FileName(),
		StartLine: c.StartLine(),
		EndLine:   c.EndLine(),
		Internal:  c.IsInternal(),
		Doc:       c.DocComment(),
	}
	if inv, ok := c.(php.Invalid); ok && !c.IsValid() {
		for _, reason := range inv.Reasons() {
			data.Invalid = append(data.Invalid, reason.Error())
		}
		return data, nil
	}
	if !c.Exists() {
		return data, nil
	}

	bits, err := c.Modifiers()
	if err != nil {
		return data, err
	}
	data.Bits = bits
	data.Modifiers = ClassModifiers(c)
	data.Parent = c.ParentClassName()
	data.Interfaces = c.OwnInterfaceNames()
	data.Traits = c.TraitNames()

	constants, err := c.Constants()
	if err != nil {
		return data, err
	}
	for _, k := range constants {
		data.Constants = append(data.Constants, buildConstant(k))
	}

	props, err := c.Properties()
	if err != nil {
		return data, err
	}
	for _, p := range props {
		data.Properties = append(data.Properties, jsonProperty{
			Name:       p.Name(),
			Type:       p.Type(),
			Visibility: Visibility(p.Modifiers()),
			Modifiers:  PropertyModifiers(p),
			Default:    p.DefaultValueDefinition(),
			Declaring:  p.DeclaringClassName(),
		})
	}

	methods, err := c.Methods()
	if err != nil {
		return data, err
	}
	for _, m := range methods {
		jm := jsonMethod{
			Name:       m.Name(),
			ReturnType: m.ReturnType(),
			Parameters: buildParameters(m.Parameters()),
			Visibility: methodVisibility(m),
			Modifiers:  MethodModifiers(m),
			Declaring:  m.DeclaringClassName(),
		}
		if m.OriginalName() != m.Name() {
			jm.Original = m.OriginalName()
		}
		data.Methods = append(data.Methods, jm)
	}
	return data, nil
}

func buildConstant(k php.ConstantInfo) jsonConstant {
	jc := jsonConstant{
		Name:      k.Name(),
		Value:     k.ValueDefinition(),
		Declaring: k.DeclaringClassName(),
	}
	if jc.Declaring != "" {
		jc.Visibility = Visibility(k.Modifiers())
	}
	if v, err := k.Value(); err == nil {
		jc.Evaluated = jsonValue(v)
	}
	return jc
}

// jsonValue converts an evaluated value to something encoding/json can
// represent. Arrays keep their order as a list of key/value pairs.
func jsonValue(v any) any {
	arr, ok := v.(*php.Array)
	if !ok {
		if f, ok := v.(float64); ok && (f != f || f > 1e308 || f < -1e308) {
			return php.ExportValue(f)
		}
		return v
	}
	out := make([][2]any, len(arr.Entries))
	for i, e := range arr.Entries {
		out[i] = [2]any{e.Key, jsonValue(e.Value)}
	}
	return out
}

func buildParameters(params []php.ParameterInfo) []jsonParameter {
	result := make([]jsonParameter, len(params))
	for i, p := range params {
		result[i] = jsonParameter{
			Name:     p.Name(),
			Type:     p.TypeHint(),
			ByRef:    p.IsPassedByReference(),
			Variadic: p.IsVariadic(),
			Optional: p.IsOptional(),
		}
		if p.IsDefaultValueAvailable() {
			result[i].Default = p.DefaultValueDefinition()
		}
	}
	return result
}
