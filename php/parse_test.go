package php

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileNamespaceAndImports(t *testing.T) {
	src := `<?php
/** File doc */

namespace App\Model;

use Lib\Base as B, Lib\Contracts\{Countable, Named as N};
use function Lib\helper;
use const Lib\VERSION;

/** A user. */
final class User extends B implements Countable, N {
    const KIND = 'user';
}
`
	file, err := ParseSource("user.php", []byte(src), newMemStorage())
	require.NoError(t, err)

	assert.Equal(t, "/** File doc */", file.DocComment())
	require.Len(t, file.Namespaces(), 1)
	ns := file.Namespaces()[0]
	assert.Equal(t, `App\Model`, ns.Name())

	imports := ns.Imports()
	assert.Equal(t, `Lib\Base`, imports.Classes["b"])
	assert.Equal(t, `Lib\Contracts\Countable`, imports.Classes["countable"])
	assert.Equal(t, `Lib\Contracts\Named`, imports.Classes["n"])
	assert.Equal(t, `Lib\helper`, imports.Functions["helper"])
	assert.Equal(t, `Lib\VERSION`, imports.Constants["VERSION"])

	info, ok := ns.Class(`app\model\user`)
	require.True(t, ok)
	c := info.(*ClassModel)
	assert.Equal(t, `App\Model\User`, c.Name())
	assert.Equal(t, "User", c.ShortName())
	assert.Equal(t, `Lib\Base`, c.ParentClassName())
	assert.Equal(t, []string{`Lib\Contracts\Countable`, `Lib\Contracts\Named`}, c.OwnInterfaceNames())
	assert.True(t, c.IsFinal())
	assert.Equal(t, "/** A user. */", c.DocComment())
	assert.Equal(t, 11, c.StartLine())
	assert.Equal(t, 13, c.EndLine())

	k, err := c.Constant("KIND")
	require.NoError(t, err)
	v, err := k.Value()
	require.NoError(t, err)
	assert.Equal(t, "user", v)
}

func TestParseBracedNamespaces(t *testing.T) {
	src := `<?php
namespace A {
    function f() {}
    const X = 1;
}
namespace {
    function g() {}
    define('B\Y', 2);
}
`
	file, err := ParseSource("braced.php", []byte(src), nil)
	require.NoError(t, err)
	require.Len(t, file.Namespaces(), 2)
	assert.Equal(t, "A", file.Namespaces()[0].Name())
	assert.Equal(t, "", file.Namespaces()[1].Name())

	var functions []string
	for _, f := range file.Functions() {
		functions = append(functions, f.Name())
	}
	assert.Equal(t, []string{`A\f`, "g"}, functions)

	var constants []string
	for _, k := range file.Constants() {
		constants = append(constants, k.Name())
	}
	assert.Equal(t, []string{`A\X`, `B\Y`}, constants)

	y, ok := file.Namespaces()[1].Constant(`B\Y`)
	require.True(t, ok)
	assert.Equal(t, "B", y.NamespaceName())
	assert.Equal(t, "Y", y.ShortName())
}

func TestParseFileDocCommentBelongsToDeclaration(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		fileDoc string
		doc     string
	}{
		{"class", "<?php\n/** Doc. */\nclass A {}\n", "", "/** Doc. */"},
		{"attribute", "<?php\n/** Doc. */\n#[Attr]\nclass A {}\n", "", "/** Doc. */"},
		{"file", "<?php\n/** File. */\n\n$x = 1;\n/** Doc. */\nclass A {}\n", "/** File. */", "/** Doc. */"},
		{"after comment", "<?php\n// header\n/** File. */\nnamespace N;\nclass A {}\n", "/** File. */", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := ParseSource("doc.php", []byte(tt.src), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.fileDoc, file.DocComment())
			require.Len(t, file.Classes(), 1)
			assert.Equal(t, tt.doc, file.Classes()[0].DocComment())
		})
	}
}

func TestParseFunctionParameters(t *testing.T) {
	src := `<?php
namespace N;

use Other\Thing;

/**
 * Adds.
 */
function &add(int $a, ?Thing $b = null, array $c = [], callable $d = null): ?int {
    return 0;
}

function spread(string ...$rest) {}
`
	file, err := ParseSource("fn.php", []byte(src), nil)
	require.NoError(t, err)
	ns := file.Namespaces()[0]

	info, ok := ns.Function(`n\ADD`)
	require.True(t, ok)
	f := info.(*FunctionModel)
	assert.True(t, f.ReturnsReference())
	assert.Equal(t, "?int", f.ReturnType())
	assert.Equal(t, 4, f.NumberOfParameters())
	assert.Equal(t, 1, f.NumberOfRequiredParameters())
	assert.Equal(t, "Adds.", f.Annotations().Short)
	assert.Equal(t, 9, f.StartLine())
	assert.Equal(t, 11, f.EndLine())

	a, err := f.Parameter("$a")
	require.NoError(t, err)
	assert.Equal(t, "int", a.TypeHint())
	assert.Equal(t, TypeScalar, a.TypeKind())
	assert.False(t, a.AllowsNull())
	assert.False(t, a.IsOptional())

	b, err := f.Parameter("b")
	require.NoError(t, err)
	assert.Equal(t, `Other\Thing`, b.ClassName())
	assert.Equal(t, `?Other\Thing`, b.TypeHint())
	assert.True(t, b.AllowsNull())
	assert.True(t, b.IsOptional())
	assert.Equal(t, "null", b.DefaultValueDefinition())
	v, err := b.DefaultValue()
	require.NoError(t, err)
	assert.Nil(t, v)

	c, err := f.Parameter("c")
	require.NoError(t, err)
	assert.True(t, c.IsArray())
	v, err = c.DefaultValue()
	require.NoError(t, err)
	assert.Equal(t, 0, v.(*Array).Len())

	d, err := f.Parameter("d")
	require.NoError(t, err)
	assert.True(t, d.IsCallable())
	assert.True(t, d.AllowsNull())
	assert.Equal(t, 3, d.Position())
	assert.Equal(t, `N\add`, d.DeclaringFunctionName())

	_, err = f.Parameter("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	info, ok = ns.Function(`N\spread`)
	require.True(t, ok)
	rest, err := info.Parameter("rest")
	require.NoError(t, err)
	assert.True(t, rest.IsVariadic())
	assert.False(t, rest.IsOptional())
	assert.False(t, rest.IsDefaultValueAvailable())
	_, err = rest.DefaultValue()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseClassMembers(t *testing.T) {
	src := `<?php
namespace Shop;

abstract class Item
{
    const PREFIX = 'it';
    public const NAME = self::PREFIX, SIZE = 3;
    final protected const LIMIT = 10;

    /** @var int */
    protected static int $count = 0;
    public ?string $label = null, $note;
    var $legacy;
    private readonly array $tags;

    public function __construct(private int $id, protected readonly string $sku = 'x') {}

    abstract protected function price(): float;

    final public static function &make(self $other) {}
}
`
	storage := newMemStorage()
	storage.add(t, "item.php", src)
	c := storage.class(t, `Shop\Item`)

	assert.True(t, c.IsAbstract())
	mods, err := c.Modifiers()
	require.NoError(t, err)
	assert.Equal(t, ClassExplicitAbstract|ClassImplicitAbstract, mods)

	var constants []string
	for _, k := range c.OwnConstants() {
		constants = append(constants, k.Name())
	}
	assert.Equal(t, []string{"PREFIX", "NAME", "SIZE", "LIMIT"}, constants)
	name, err := c.Constant("NAME")
	require.NoError(t, err)
	v, err := name.Value()
	require.NoError(t, err)
	assert.Equal(t, "it", v)
	assert.Equal(t, "self::PREFIX", name.ValueDefinition())
	limit, err := c.Constant("LIMIT")
	require.NoError(t, err)
	assert.Equal(t, ModifierFinal|ModifierProtected, limit.Modifiers())

	var props []string
	for _, p := range c.OwnProperties() {
		props = append(props, p.Name())
	}
	assert.Equal(t, []string{"count", "label", "note", "legacy", "tags", "id", "sku"}, props)

	count, err := c.Property("count")
	require.NoError(t, err)
	assert.True(t, count.IsStatic())
	assert.True(t, count.IsProtected())
	assert.Equal(t, "int", count.Type())
	assert.Equal(t, "/** @var int */", count.DocComment())
	v, err = count.DefaultValue()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	note, err := c.Property("note")
	require.NoError(t, err)
	assert.Equal(t, "?string", note.Type())
	assert.False(t, note.HasDefaultValue())

	legacy, err := c.Property("legacy")
	require.NoError(t, err)
	assert.True(t, legacy.IsPublic())

	tags, err := c.Property("tags")
	require.NoError(t, err)
	assert.True(t, tags.IsPrivate())
	assert.True(t, tags.IsReadonly())

	sku, err := c.Property("sku")
	require.NoError(t, err)
	assert.True(t, sku.IsProtected())
	assert.True(t, sku.IsReadonly())
	assert.Equal(t, "string", sku.Type())

	ctor, err := c.Constructor()
	require.NoError(t, err)
	assert.Equal(t, "__construct", ctor.Name())
	assert.True(t, ctor.IsConstructor())
	id, err := ctor.Parameter("id")
	require.NoError(t, err)
	assert.True(t, id.IsPromoted())

	price, err := c.Method("price")
	require.NoError(t, err)
	assert.True(t, price.IsAbstract())
	assert.True(t, price.IsProtected())
	assert.Equal(t, "float", price.ReturnType())

	factory, err := c.Method("MAKE")
	require.NoError(t, err)
	assert.True(t, factory.IsFinal())
	assert.True(t, factory.IsStatic())
	assert.True(t, factory.ReturnsReference())
	other, err := factory.Parameter("other")
	require.NoError(t, err)
	assert.Equal(t, `Shop\Item`, other.ClassName())
	assert.Equal(t, `Shop\Item`, other.DeclaringClassName())
}

func TestParseSkipsNonDeclarations(t *testing.T) {
	src := `<?php
$x = new class {};
$f = function () use ($x) { return 1; };
$y = Foo::class;
$o->class;
if (true) {
    function conditional() {}
}
$s = <<<EOT
class Hidden {}
EOT;
function real() {}
`
	file, err := ParseSource("skip.php", []byte(src), nil)
	require.NoError(t, err)
	assert.Empty(t, file.Classes())
	require.Len(t, file.Functions(), 1)
	assert.Equal(t, "real", file.Functions()[0].Name())
}

func TestParseDuplicatesWithinFile(t *testing.T) {
	src := "<?php\nfunction f() {}\nfunction f() {}\n"
	file, err := ParseSource("dup.php", []byte(src), nil)
	require.NoError(t, err)

	errs := file.Errors()
	require.Len(t, errs, 2)
	for _, err := range errs {
		var dup *DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "dup.php", dup.File)
		assert.Equal(t, "f", dup.Name)
	}

	info, ok := file.Namespaces()[0].Function("f")
	require.True(t, ok)
	inv, ok := info.(*InvalidFunction)
	require.True(t, ok)
	assert.False(t, inv.IsValid())
	assert.Len(t, inv.Declarations(), 2)
	assert.Equal(t, "dup.php", inv.FileName())
}

func TestParseRetainTokens(t *testing.T) {
	src := []byte("<?php class A {}")
	file, err := ParseSource("a.php", src, nil)
	require.NoError(t, err)
	assert.Nil(t, file.Stream())

	file, err = ParseSource("a.php", src, nil, RetainTokens(true))
	require.NoError(t, err)
	require.NotNil(t, file.Stream())
	assert.Equal(t, "a.php", file.Stream().File())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code ParseErrorCode
	}{
		{"unterminated class", "<?php class A {", UnexpectedEnd},
		{"unterminated namespace", "<?php namespace A { class B {}", UnexpectedEnd},
		{"unterminated parameters", "<?php class A { public function f(", UnexpectedEnd},
		{"stray closer", "<?php }", UnexpectedToken},
		{"missing body", "<?php class A { public function f() }", UnexpectedToken},
		{"missing property name", "<?php class A { public int; }", UnexpectedToken},
		{"method without body", "<?php class A { function f(); }", LogicalError},
		{"interface method body", "<?php interface I { function f() {} }", LogicalError},
		{"abstract method body", "<?php abstract class A { abstract function f() {} }", LogicalError},
		{"redeclared method", "<?php class A { function f() {} function F() {} }", LogicalError},
		{"trait extends", "<?php trait T extends U {}", LogicalError},
		{"interface implements", "<?php interface I implements J {}", LogicalError},
		{"multiple parents", "<?php class A extends B, C {}", LogicalError},
		{"double visibility", "<?php class A { public private $x; }", LogicalError},
		{"parent without parent", "<?php class A { function f(): parent {} }", LogicalError},
		{"interface property", "<?php interface I { public $x; }", LogicalError},
		{"redeclared property", "<?php class A { public $x; public $x; }", LogicalError},
		{"empty alias", "<?php class A { use T { foo as; } }", LogicalError},
		{"unqualified insteadof", "<?php class A { use T { foo insteadof U; } }", LogicalError},
		{"promoted outside constructor", "<?php class A { function f(private $x) {} }", LogicalError},
		{"variadic default", "<?php function f(...$x = []) {}", LogicalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource("bad.php", []byte(tt.src), nil)
			require.Error(t, err)
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "%T: %v", err, err)
			assert.Equal(t, tt.code, perr.Code, perr.Error())
			assert.Equal(t, "bad.php", perr.File)
		})
	}
}

func TestParseErrorNamesEntity(t *testing.T) {
	_, err := ParseSource("bad.php", []byte("<?php\nclass A {\n    function f();\n}\n"), nil)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "method A::f", perr.Entity)
	assert.Equal(t, 3, perr.Line)
}
