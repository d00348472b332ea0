package php

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveClassName(t *testing.T) {
	imports := NewImports()
	imports.AddClass("Response", `Http\Response`)
	imports.AddClass("Msg", `Http\Message`)

	tests := []struct {
		name      string
		namespace string
		want      string
	}{
		{`\Foo\Bar`, "App", `Foo\Bar`},
		{"Bar", "App", `App\Bar`},
		{"Bar", "", "Bar"},
		{`Sub\Bar`, "App", `App\Sub\Bar`},
		{`namespace\Bar`, "App", `App\Bar`},
		{"response", "App", `Http\Response`},
		{`Msg\Header`, "App", `Http\Message\Header`},
		{`\Response`, "App", "Response"},
		{"", "App", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveClassName(tt.name, tt.namespace, imports))
		})
	}
}

func TestSplitAndJoinName(t *testing.T) {
	ns, short := SplitName(`\A\B\C`)
	assert.Equal(t, `A\B`, ns)
	assert.Equal(t, "C", short)

	ns, short = SplitName("C")
	assert.Equal(t, "", ns)
	assert.Equal(t, "C", short)

	assert.Equal(t, `A\C`, JoinName("A", "C"))
	assert.Equal(t, "C", JoinName("", "C"))
}

func TestContextResolvesRelativeClassNames(t *testing.T) {
	storage := newMemStorage()
	storage.add(t, "rel.php", "<?php\nnamespace App;\nclass Base {}\nclass Child extends Base {}\n")
	child := storage.class(t, `App\Child`)
	base := storage.class(t, `App\Base`)

	ctx := child.Context()
	for name, want := range map[string]string{
		"self":   `App\Child`,
		"static": `App\Child`,
		"PARENT": `App\Base`,
		"Other":  `App\Other`,
	} {
		got, err := ctx.ResolveClassName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := base.Context().ResolveClassName("parent")
	assert.ErrorIs(t, err, ErrNoParent)
	_, err = (&Context{}).ResolveClassName("self")
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestConstantKeys(t *testing.T) {
	assert.Equal(t, `app\FOO`, ConstantKey(`\App\FOO`))
	assert.Equal(t, "FOO", ConstantKey("FOO"))
	assert.NotEqual(t, ConstantKey("foo"), ConstantKey("FOO"))
	assert.Equal(t, `app\foo`, ClassKey(`\App\Foo`))
}
