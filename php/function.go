package php

import (
	"fmt"
	"strings"

	"github.com/dhamidi/phpreflect/php/phpdoc"
)

// functionDecl holds what functions and methods share.
type functionDecl struct {
	name       string
	byRef      bool
	returnType string
	params     []*ParameterModel
	docComment string
	fileName   string
	startLine  int
	endLine    int
}

func (f *functionDecl) Name() string           { return f.name }
func (f *functionDecl) IsTokenized() bool      { return true }
func (f *functionDecl) IsInternal() bool       { return false }
func (f *functionDecl) FileName() string       { return f.fileName }
func (f *functionDecl) StartLine() int         { return f.startLine }
func (f *functionDecl) EndLine() int           { return f.endLine }
func (f *functionDecl) DocComment() string     { return f.docComment }
func (f *functionDecl) ReturnsReference() bool { return f.byRef }
func (f *functionDecl) ReturnType() string     { return f.returnType }

func (f *functionDecl) Parameters() []ParameterInfo {
	out := make([]ParameterInfo, len(f.params))
	for i, p := range f.params {
		out[i] = p
	}
	return out
}

func (f *functionDecl) Parameter(name string) (ParameterInfo, error) {
	name = strings.TrimPrefix(name, "$")
	for _, p := range f.params {
		if p.name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parameter $%s of %s: %w", name, f.name, ErrNotFound)
}

func (f *functionDecl) NumberOfParameters() int {
	return len(f.params)
}

func (f *functionDecl) NumberOfRequiredParameters() int {
	n := 0
	for _, p := range f.params {
		if !p.IsOptional() {
			n++
		}
	}
	return n
}

// FunctionModel is a tokenized free function.
type FunctionModel struct {
	functionDecl
	shortName string
	namespace string
}

func (f *FunctionModel) ShortName() string     { return f.shortName }
func (f *FunctionModel) NamespaceName() string { return f.namespace }
func (f *FunctionModel) IsValid() bool         { return true }

func (f *FunctionModel) Annotations() *phpdoc.DocBlock {
	return phpdoc.Parse(f.docComment)
}
