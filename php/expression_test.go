package php

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateScalars(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"1", int64(1)},
		{"-1", int64(-1)},
		{"+7", int64(7)},
		{"0x1A", int64(26)},
		{"-0x1A", int64(-26)},
		{"0b101", int64(5)},
		{"0o17", int64(15)},
		{"017", int64(15)},
		{"1_000", int64(1000)},
		{"9223372036854775807", int64(math.MaxInt64)},
		{"-9223372036854775808", int64(math.MinInt64)},
		{"9223372036854775808", float64(9223372036854775808)},
		{"1.5", 1.5},
		{"- 2.5", -2.5},
		{"1e3", 1000.0},
		{"(3)", int64(3)},
		{"true", true},
		{"FALSE", false},
		{"NULL", nil},
		{`'it\'s'`, "it's"},
		{`'a\nb'`, `a\nb`},
		{`"a\tb"`, "a\tb"},
		{`"\x41\101\u{263A}"`, "AA☺"},
		{`"\q"`, `\q`},
		{"<<<EOT\n  a\n  b\n  EOT", "a\nb"},
		{"<<<'EOT'\n$x\nEOT", "$x"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := Evaluate(tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestEvaluateArrays(t *testing.T) {
	v, err := Evaluate(`array('a' => 1, 'b' => [2, 3], 4)`, nil)
	require.NoError(t, err)
	arr := v.(*Array)
	require.Equal(t, 3, arr.Len())
	a, ok := arr.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(1), a)
	b, _ := arr.Get("b")
	assert.Equal(t, 2, b.(*Array).Len())
	four, ok := arr.Get(0)
	require.True(t, ok)
	assert.Equal(t, int64(4), four)

	v, err = Evaluate(`['1' => 'a', true => 'b', 1.7 => 'c', null => 'd', '01' => 'e']`, nil)
	require.NoError(t, err)
	arr = v.(*Array)
	assert.Equal(t, "[1 => 'c', '' => 'd', '01' => 'e']", ExportValue(arr))

	v, err = Evaluate(`[5 => 'x', 'y', -3 => 'z', 'w']`, nil)
	require.NoError(t, err)
	assert.Equal(t, "[5 => 'x', 6 => 'y', -3 => 'z', 7 => 'w']", ExportValue(v))
}

func TestEvaluateUnsupported(t *testing.T) {
	for _, src := range []string{
		`"hello $name"`,
		"1 + 2",
		"[[1] => 2]",
		"-'a'",
		"<<<EOT\n$x\nEOT",
		"",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Evaluate(src, nil)
			assert.ErrorIs(t, err, ErrUnsupportedExpression)
		})
	}
}

func TestEvaluateNamesWithoutStorage(t *testing.T) {
	_, err := Evaluate("FOO", nil)
	assert.ErrorIs(t, err, ErrUnresolved)
	_, err = Evaluate("self::X", nil)
	assert.ErrorIs(t, err, ErrUnresolved)

	v, err := Evaluate(`Foo::class`, &Context{Namespace: "App", Imports: NewImports()})
	require.NoError(t, err)
	assert.Equal(t, `App\Foo`, v)

	v, err = Evaluate("__DIR__", &Context{File: "/src/lib/a.php"})
	require.NoError(t, err)
	assert.Equal(t, "/src/lib", v)
}

func TestExportValueRoundTrip(t *testing.T) {
	for _, src := range []string{
		"null",
		"true",
		"-42",
		"1.0",
		"0.1",
		"1.0E+25",
		`'back\\slash \'quote\''`,
		`"line\nbreak"`,
		`['a' => [1, 2.5, null], 7 => false, '' => 'x']`,
	} {
		t.Run(src, func(t *testing.T) {
			v, err := Evaluate(src, nil)
			require.NoError(t, err)
			exported := ExportValue(v)
			again, err := Evaluate(exported, nil)
			require.NoError(t, err, exported)
			assert.Equal(t, exported, ExportValue(again))
		})
	}
}

func TestExportFloats(t *testing.T) {
	assert.Equal(t, "1.0", ExportValue(1.0))
	assert.Equal(t, "-0.5", ExportValue(-0.5))
	assert.Equal(t, "INF", ExportValue(math.Inf(1)))
	assert.Equal(t, "-INF", ExportValue(math.Inf(-1)))
	assert.Equal(t, "NAN", ExportValue(math.NaN()))
}

func TestExpressionSource(t *testing.T) {
	file, err := ParseSource("src.php", []byte("<?php\nconst A = [ 1,\n  /* two */ 2 ];\n"), nil)
	require.NoError(t, err)
	k := file.Constants()[0]
	assert.Equal(t, "[ 1, 2 ]", k.ValueDefinition())

	var missing *Expression
	assert.Equal(t, "", missing.Source())
	_, err = missing.Value()
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := NewValueExpression(int64(3)).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}
