package php

import (
	"github.com/dhamidi/phpreflect/php/parser"
)

// File is one processed source file.
type File struct {
	name       string
	docComment string
	namespaces []*FileNamespace
	stream     *parser.Stream
}

func (f *File) Name() string       { return f.name }
func (f *File) DocComment() string { return f.docComment }

func (f *File) Namespaces() []*FileNamespace {
	return append([]*FileNamespace(nil), f.namespaces...)
}

// Stream returns the token stream when it was retained while parsing.
func (f *File) Stream() *parser.Stream { return f.stream }

func (f *File) Classes() []ClassInfo {
	var out []ClassInfo
	for _, ns := range f.namespaces {
		out = append(out, ns.Classes()...)
	}
	return out
}

func (f *File) Functions() []FunctionInfo {
	var out []FunctionInfo
	for _, ns := range f.namespaces {
		out = append(out, ns.Functions()...)
	}
	return out
}

func (f *File) Constants() []ConstantInfo {
	var out []ConstantInfo
	for _, ns := range f.namespaces {
		out = append(out, ns.Constants()...)
	}
	return out
}

// Errors returns the duplicate declaration reasons found within the file.
func (f *File) Errors() []error {
	var out []error
	for _, ns := range f.namespaces {
		out = append(out, ns.Errors()...)
	}
	return out
}

// FileNamespace holds the declarations one namespace block of one file
// contributes, along with the imports in effect for the block.
type FileNamespace struct {
	name       string
	file       string
	docComment string
	imports    *Imports
	classes    *table[ClassInfo]
	functions  *table[FunctionInfo]
	constants  *table[ConstantInfo]
	errs       []error
}

func newFileNamespace(name, file string) *FileNamespace {
	return &FileNamespace{
		name:      name,
		file:      file,
		imports:   NewImports(),
		classes:   newTable[ClassInfo](),
		functions: newTable[FunctionInfo](),
		constants: newTable[ConstantInfo](),
	}
}

func (n *FileNamespace) Name() string       { return n.name }
func (n *FileNamespace) FileName() string   { return n.file }
func (n *FileNamespace) DocComment() string { return n.docComment }
func (n *FileNamespace) Imports() *Imports  { return n.imports }
func (n *FileNamespace) Errors() []error    { return append([]error(nil), n.errs...) }

func (n *FileNamespace) Classes() []ClassInfo      { return n.classes.values() }
func (n *FileNamespace) Functions() []FunctionInfo { return n.functions.values() }
func (n *FileNamespace) Constants() []ConstantInfo { return n.constants.values() }

func (n *FileNamespace) Class(name string) (ClassInfo, bool) {
	return n.classes.get(ClassKey(name))
}

func (n *FileNamespace) Function(name string) (FunctionInfo, bool) {
	return n.functions.get(ClassKey(name))
}

func (n *FileNamespace) Constant(name string) (ConstantInfo, bool) {
	return n.constants.get(ConstantKey(name))
}

func (n *FileNamespace) addClass(c ClassInfo) {
	key := ClassKey(c.Name())
	existing, ok := n.classes.get(key)
	if !ok {
		n.classes.put(key, c)
		return
	}
	inv, reasons := collideClass(existing, c, true)
	n.errs = append(n.errs, reasons...)
	n.classes.put(key, inv)
}

func (n *FileNamespace) addFunction(f FunctionInfo) {
	key := ClassKey(f.Name())
	existing, ok := n.functions.get(key)
	if !ok {
		n.functions.put(key, f)
		return
	}
	inv, reasons := collideFunction(existing, f, true)
	n.errs = append(n.errs, reasons...)
	n.functions.put(key, inv)
}

func (n *FileNamespace) addConstant(k ConstantInfo) {
	key := ConstantKey(k.Name())
	existing, ok := n.constants.get(key)
	if !ok {
		n.constants.put(key, k)
		return
	}
	inv, reasons := collideConstant(existing, k, true)
	n.errs = append(n.errs, reasons...)
	n.constants.put(key, inv)
}
