package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/phpreflect/php"
	"github.com/dhamidi/phpreflect/php/broker"
)

const shapesSource = `<?php
namespace Shapes;

interface Shape {
    /**
     * Computes the area.
     *
     * @return float
     */
    public function area(): float;
}

class Square implements Shape {
    const SIDES = 4;
    protected int $size = 1;

    /** {@inheritdoc} */
    public function area(): float {}
}

class Circle extends Blob {}
`

func newShapesBroker(t *testing.T) (*broker.Broker, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "shapes.php")
	require.NoError(t, os.WriteFile(path, []byte(shapesSource), 0o644))
	b := broker.New()
	require.NoError(t, process(b, dir))
	return b, path
}

func TestPrintScan(t *testing.T) {
	b, _ := newShapesBroker(t)

	var out bytes.Buffer
	require.NoError(t, printScan(&out, b, nil, true))
	assert.Contains(t, out.String(), "Files:      1\n")
	assert.Contains(t, out.String(), "Classes:    3 (0 invalid)\n")
	assert.Contains(t, out.String(), "Missing:    1\n  - Shapes\\Blob\n")
	assert.Contains(t, out.String(), "Errors:     0\n")
}

func TestDescribeInheritsDocumentation(t *testing.T) {
	b, path := newShapesBroker(t)

	var out bytes.Buffer
	require.NoError(t, describe(&out, b, `Shapes\Square::area`))
	assert.Contains(t, out.String(), "public function area(): float\n")
	assert.Contains(t, out.String(), path)
	assert.Contains(t, out.String(), "Computes the area.")
	assert.Contains(t, out.String(), "@return float")

	out.Reset()
	require.NoError(t, describe(&out, b, `Shapes\Square::SIDES`))
	assert.Contains(t, out.String(), `const Shapes\Square::SIDES = 4`)

	out.Reset()
	require.NoError(t, describe(&out, b, `Shapes\Square::$size`))
	assert.Contains(t, out.String(), "protected int $size = 1")

	out.Reset()
	require.NoError(t, describe(&out, b, "Shapes\\Square"))
	assert.Contains(t, out.String(), "class Shapes\\Square implements Shapes\\Shape")

	err := describe(&out, b, `Shapes\Nope`)
	assert.ErrorIs(t, err, php.ErrNotFound)
}

func TestFlatten(t *testing.T) {
	reg := &php.RegistrationError{File: "a.php", Errors: []error{errors.New("one"), errors.New("two")}}
	joined := errors.Join(errors.New("zero"), reg)

	assert.Len(t, flatten(joined), 3)
	assert.Nil(t, flatten(nil))
}
