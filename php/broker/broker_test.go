package broker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/phpreflect/php"
)

func process(t *testing.T, b *Broker, name, src string) *php.File {
	t.Helper()
	f, err := b.ProcessSource(name, []byte(src))
	require.NoError(t, err)
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestInheritedConstantAcrossFiles(t *testing.T) {
	b := New()
	process(t, b, "b.php", "<?php\nclass B extends A {}\n")
	process(t, b, "a.php", "<?php\nclass A { const X = -3; }\n")

	c, err := b.Class("b")
	require.NoError(t, err)
	assert.Equal(t, "B", c.Name())
	assert.Equal(t, "A", c.ParentClassName())

	k, err := c.Constant("X")
	require.NoError(t, err)
	assert.Equal(t, "A", k.DeclaringClassName())
	v, err := k.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(-3), v)

	sub, err := c.IsSubclassOf("a")
	require.NoError(t, err)
	assert.True(t, sub)
}

func TestDuplicateClassAcrossFiles(t *testing.T) {
	b := New()
	process(t, b, "one.php", "<?php\nclass Dup {}\nfunction one() {}\n")

	f, err := b.ProcessSource("two.php", []byte("<?php\nclass Dup {}\nfunction two() {}\n"))
	require.NotNil(t, f)
	var reg *php.RegistrationError
	require.True(t, errors.As(err, &reg))
	assert.Equal(t, "two.php", reg.File)
	assert.Len(t, reg.Errors, 2)

	c, err := b.Class("Dup")
	require.NoError(t, err)
	assert.False(t, c.IsValid())
	inv, ok := c.(*php.InvalidClass)
	require.True(t, ok)
	assert.Len(t, inv.Reasons(), 2)
	assert.Len(t, inv.Declarations(), 2)

	assert.True(t, b.HasFunction("one"))
	assert.True(t, b.HasFunction("two"))
	assert.Len(t, b.Files(), 2)
}

func TestDuplicateFunctionInOneFile(t *testing.T) {
	b := New()
	_, err := b.ProcessSource("f.php", []byte("<?php\nfunction f() {}\nfunction f() {}\nfunction g() {}\n"))
	var reg *php.RegistrationError
	require.True(t, errors.As(err, &reg))
	assert.NotEmpty(t, reg.Errors)

	fn, err := b.Function("f")
	require.NoError(t, err)
	assert.False(t, fn.IsValid())

	g, err := b.Function("g")
	require.NoError(t, err)
	assert.True(t, g.IsValid())
}

func TestAddFileTwice(t *testing.T) {
	b := New()
	f := process(t, b, "a.php", "<?php\nclass A {}\n")
	assert.NoError(t, b.AddFile(f))

	other, err := php.ParseSource("a.php", []byte("<?php\nclass Other {}\n"), b)
	require.NoError(t, err)
	assert.Error(t, b.AddFile(other))
	assert.False(t, b.HasClass("Other"))
}

func TestBuiltinFallback(t *testing.T) {
	b := New()
	process(t, b, "e.php", "<?php\nnamespace App;\nclass Failure extends \\RuntimeException {}\n")

	c, err := b.Class(`App\Failure`)
	require.NoError(t, err)
	sub, err := c.IsSubclassOf("Exception")
	require.NoError(t, err)
	assert.True(t, sub)
	ok, err := c.ImplementsInterface("Throwable")
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := c.Method("getMessage")
	require.NoError(t, err)
	assert.True(t, m.IsFinal())
	assert.Equal(t, "Exception", m.DeclaringClassName())
	assert.True(t, c.IsComplete())

	strlen, err := b.Function("strlen")
	require.NoError(t, err)
	assert.True(t, strlen.IsInternal())

	_, err = b.Class("Nope")
	assert.ErrorIs(t, err, php.ErrNotFound)

	noCatalog := New(WithCatalog(nil))
	assert.False(t, noCatalog.HasClass("Exception"))
}

func TestClassesFilter(t *testing.T) {
	b := New()
	process(t, b, "c.php", "<?php\nclass Repo extends Missing implements \\Countable, \\IteratorAggregate {}\n")

	tokenized := b.Classes(ClassTokenized)
	require.Len(t, tokenized, 1)
	assert.Equal(t, "Repo", tokenized[0].Name())

	var internal []string
	for _, c := range b.Classes(ClassInternal) {
		assert.True(t, c.IsInternal())
		internal = append(internal, c.Name())
	}
	assert.Equal(t, []string{"Countable", "IteratorAggregate", "Traversable"}, internal)

	missing := b.Classes(ClassNonexistent)
	require.Len(t, missing, 1)
	assert.Equal(t, "Missing", missing[0].Name())
	assert.False(t, missing[0].Exists())

	assert.Len(t, b.Classes(ClassAll), 5)
}

func TestDefineRoutesToNamespace(t *testing.T) {
	b := New()
	process(t, b, "d.php", "<?php\nnamespace App;\ndefine('Lib\\\\VERSION', '1.0');\nconst LOCAL = 2;\n")

	k, err := b.Constant(`Lib\VERSION`)
	require.NoError(t, err)
	v, err := k.Value()
	require.NoError(t, err)
	assert.Equal(t, "1.0", v)

	assert.True(t, b.HasConstant(`App\LOCAL`))
	assert.True(t, b.HasNamespace("lib"))
	ns, err := b.Namespace(`\App`)
	require.NoError(t, err)
	assert.True(t, ns.HasConstant(`App\LOCAL`))
}

func TestNamespaceLookups(t *testing.T) {
	b := New()
	process(t, b, "n1.php", "<?php\nnamespace Acme\\Util;\nfunction helper() {}\nclass Box {}\n")
	process(t, b, "n2.php", "<?php\nnamespace Acme\\Util;\ninterface Sized {}\n")

	ns, err := b.Namespace(`Acme\Util`)
	require.NoError(t, err)
	assert.Equal(t, `Acme\Util`, ns.Name())
	assert.Len(t, ns.Classes(), 2)
	assert.Len(t, ns.Segments(), 2)
	assert.True(t, b.HasFunction(`acme\util\HELPER`))

	_, err = b.Namespace("Nope")
	assert.ErrorIs(t, err, php.ErrNotFound)
	assert.Len(t, b.Functions(), 1)
}

func TestModifiersCompleteAcrossFiles(t *testing.T) {
	b := New()
	process(t, b, "child.php", "<?php\nabstract class Child extends Base {}\n")

	c, err := b.Class("Child")
	require.NoError(t, err)
	mods, err := c.Modifiers()
	require.NoError(t, err)
	assert.Equal(t, php.ClassExplicitAbstract, mods)
	assert.False(t, c.IsComplete())

	process(t, b, "base.php", "<?php\nabstract class Base { abstract function run(); }\n")
	mods, err = c.Modifiers()
	require.NoError(t, err)
	assert.Equal(t, php.ClassExplicitAbstract|php.ClassImplicitAbstract, mods)
	assert.True(t, c.IsComplete())
}

func TestProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "A.php"), "<?php\nclass A {}\n")
	writeFile(t, filepath.Join(dir, "src", "B.inc"), "<?php\nclass B {}\n")
	writeFile(t, filepath.Join(dir, "src", "Broken.php"), "<?php\nclass {\n")
	writeFile(t, filepath.Join(dir, "vendor", "V.php"), "<?php\nclass V {}\n")
	writeFile(t, filepath.Join(dir, "tests", "ATest.php"), "<?php\nclass ATest {}\n")

	b := New(
		WithExtensions("php", "INC"),
		WithExclude(glob.MustCompile("vendor"), glob.MustCompile("*Test.php")),
	)
	files, err := b.ProcessDirectory(dir)
	require.Error(t, err)
	var perr *php.ParseError
	assert.True(t, errors.As(err, &perr))
	assert.Len(t, files, 2)

	assert.True(t, b.HasClass("A"))
	assert.True(t, b.HasClass("B"))
	assert.False(t, b.HasClass("V"))
	assert.False(t, b.HasClass("ATest"))

	path := filepath.Join(dir, "src", "A.php")
	f, ok := b.File(path)
	require.True(t, ok)
	again, err := b.ProcessFile(path)
	require.NoError(t, err)
	assert.Same(t, f, again)

	assert.True(t, b.Accepts(dir, filepath.Join(dir, "x.inc")))
	assert.False(t, b.Accepts(dir, filepath.Join(dir, "tests", "BTest.php")))
	assert.True(t, b.Excluded(dir, filepath.Join(dir, "vendor")))
}

func TestRetainTokens(t *testing.T) {
	b := New(WithRetainTokens(true))
	f := process(t, b, "t.php", "<?php\nfunction f() {}\n")
	assert.NotNil(t, f.Stream())

	b = New()
	f = process(t, b, "t.php", "<?php\nfunction f() {}\n")
	assert.Nil(t, f.Stream())
}
