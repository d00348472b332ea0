package php

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// memStorage is a flat in-memory Storage over parsed files. Later files
// overwrite earlier ones.
type memStorage struct {
	classes   map[string]ClassInfo
	functions map[string]FunctionInfo
	constants map[string]ConstantInfo
}

func newMemStorage() *memStorage {
	return &memStorage{
		classes:   make(map[string]ClassInfo),
		functions: make(map[string]FunctionInfo),
		constants: make(map[string]ConstantInfo),
	}
}

func (s *memStorage) Class(name string) (ClassInfo, error) {
	if c, ok := s.classes[ClassKey(name)]; ok {
		return c, nil
	}
	return nil, notFound("class " + name)
}

func (s *memStorage) Function(name string) (FunctionInfo, error) {
	if f, ok := s.functions[ClassKey(name)]; ok {
		return f, nil
	}
	return nil, notFound("function " + name)
}

func (s *memStorage) Constant(name string) (ConstantInfo, error) {
	if k, ok := s.constants[ConstantKey(name)]; ok {
		return k, nil
	}
	return nil, notFound("constant " + name)
}

func (s *memStorage) add(t *testing.T, name, src string) *File {
	t.Helper()
	file, err := ParseSource(name, []byte(src), s)
	require.NoError(t, err)
	for _, c := range file.Classes() {
		s.classes[ClassKey(c.Name())] = c
	}
	for _, f := range file.Functions() {
		s.functions[ClassKey(f.Name())] = f
	}
	for _, k := range file.Constants() {
		s.constants[ConstantKey(JoinName(k.NamespaceName(), k.ShortName()))] = k
	}
	return file
}

func (s *memStorage) class(t *testing.T, name string) *ClassModel {
	t.Helper()
	info, err := s.Class(name)
	require.NoError(t, err)
	c, ok := info.(*ClassModel)
	require.True(t, ok, "%s is a %T", name, info)
	return c
}
