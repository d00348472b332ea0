package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const baseSource = `<?php
namespace App;

/**
 * Base model.
 *
 * Shared behaviour for models.
 */
abstract class Model {
    const TABLE = 'models';
    public static $connection = 'default';
    private static $secret = 1;

    /** Finds a model by key. */
    public static function find(int $id, array $with = []) {}
    private static function boot() {}
}
`

const userSource = `<?php
namespace App;

use App\Model as Base;

class User extends Base {
    /** {@inheritdoc} */
    public static function find(int $id, array $with = []) {}

    public function load() {
        self::find(1);
        return self::TABLE . Base::
    }
}
`

func newTestWorkspace(t *testing.T) (*Workspace, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Model.php"), []byte(baseSource), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "Skip.php"), []byte("<?php class Skipped {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not php"), 0o644))

	w := New(dir)
	require.NoError(t, w.ScanAll())
	userPath := filepath.Join(dir, "User.php")
	w.UpdateFile(userPath, []byte(userSource))
	return w, userPath
}

func TestScanAllAndUpdate(t *testing.T) {
	w, userPath := newTestWorkspace(t)
	b := w.Broker()

	assert.True(t, b.HasClass(`App\Model`))
	assert.True(t, b.HasClass(`App\User`))
	assert.True(t, b.HasClass("Skipped"))
	assert.Nil(t, w.Document(filepath.Join(w.RootDir(), "notes.txt")))

	w.RemoveFile(userPath)
	assert.False(t, w.Broker().HasClass(`App\User`))
	assert.True(t, w.Broker().HasClass(`App\Model`))
}

func TestResolveAt(t *testing.T) {
	w, userPath := newTestWorkspace(t)

	assert.Equal(t, `App\Model`, w.ResolveAt(userPath, 10, "Base"))
	assert.Equal(t, `App\User`, w.ResolveAt(userPath, 10, "self"))
	assert.Equal(t, `App\Model`, w.ResolveAt(userPath, 10, "parent"))
	assert.Equal(t, `App\Other`, w.ResolveAt(userPath, 10, "Other"))
}

func TestWordAt(t *testing.T) {
	content := []byte("<?php\n$x = \\App\\User::find(1);\n")
	assert.Equal(t, `\App\User`, WordAt(content, 2, 8))
	assert.Equal(t, "find", WordAt(content, 2, 18))
	assert.Equal(t, "x", WordAt(content, 2, 1))
	assert.Equal(t, "", WordAt(content, 5, 0))
}

func TestDescribeClass(t *testing.T) {
	w, userPath := newTestWorkspace(t)

	text, ok := w.Describe(userPath, 6, 8)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(text, "```php\nclass App\\User extends App\\Model\n```"))

	text, ok = w.Describe(userPath, 12, 30)
	require.True(t, ok)
	assert.Contains(t, text, "abstract class App\\Model")
	assert.Contains(t, text, "Base model.")
	assert.Contains(t, text, "Shared behaviour for models.")

	_, ok = w.Describe(userPath, 8, 29)
	assert.False(t, ok)
}

func TestDescribeStaticMember(t *testing.T) {
	w, userPath := newTestWorkspace(t)
	doc := w.Document(userPath)
	require.NotNil(t, doc)
	lines := strings.Split(string(doc.Content), "\n")

	col := strings.Index(lines[10], "find") + 1
	text, ok := w.Describe(userPath, 11, col)
	require.True(t, ok)
	assert.Contains(t, text, "public static function find(int $id, array $with = [])")
	assert.Contains(t, text, "Finds a model by key.")

	col = strings.Index(lines[11], "TABLE") + 1
	text, ok = w.Describe(userPath, 12, col)
	require.True(t, ok)
	assert.Contains(t, text, "const App\\User::TABLE = 'models'")
}

func TestCompletionsAtPoint(t *testing.T) {
	w, userPath := newTestWorkspace(t)
	doc := w.Document(userPath)
	lines := strings.Split(string(doc.Content), "\n")
	line := lines[11]
	trigger := findTriggerPosition(doc.Content, 12, len(line))
	require.Equal(t, strings.LastIndex(line, "::"), trigger)

	items := w.CompletionsAtPoint(userPath, 12, trigger)
	labels := make(map[string]CompletionItem)
	for _, item := range items {
		labels[item.Label] = item
	}

	require.Contains(t, labels, "find")
	assert.Equal(t, CompletionKindMethod, labels["find"].Kind)
	assert.Equal(t, "find(${1:$id})$0", labels["find"].InsertText)
	assert.Contains(t, labels, "TABLE")
	assert.Contains(t, labels, "$connection")
	assert.Contains(t, labels, "class")
	assert.NotContains(t, labels, "boot")
	assert.NotContains(t, labels, "$secret")
}

func TestFindTriggerPosition(t *testing.T) {
	content := []byte("<?php\nFoo::ba\n$a->b\n")
	assert.Equal(t, 3, findTriggerPosition(content, 2, 7))
	assert.Equal(t, -1, findTriggerPosition(content, 3, 5))
	assert.Equal(t, -1, findTriggerPosition(content, 9, 0))
}

func TestDocumentSymbols(t *testing.T) {
	w, userPath := newTestWorkspace(t)
	doc := w.Document(userPath)
	require.NotNil(t, doc.File)

	symbols := DocumentSymbols(doc.File)
	require.Len(t, symbols, 1)
	ns := symbols[0]
	assert.Equal(t, "App", ns.Name)
	assert.Equal(t, protocol.SymbolKindNamespace, ns.Kind)
	require.Len(t, ns.Children, 1)

	user := ns.Children[0]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, protocol.SymbolKindClass, user.Kind)
	assert.Equal(t, protocol.UInteger(5), user.Range.Start.Line)
	require.Len(t, user.Children, 2)
	assert.Equal(t, "find", user.Children[0].Name)
	assert.Equal(t, protocol.SymbolKindMethod, user.Children[0].Kind)
}

func TestDiagnostics(t *testing.T) {
	w, userPath := newTestWorkspace(t)
	assert.Empty(t, w.Diagnostics(userPath))

	// registered after Model.php, so this file reports the conflict
	dup := filepath.Join(w.RootDir(), "Zdup.php")
	w.UpdateFile(dup, []byte("<?php\nnamespace App;\nclass Model {}\n"))
	diags := w.Diagnostics(dup)
	require.Len(t, diags, 2)

	d := toDiagnostic(diags[0])
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *d.Severity)

	broken := filepath.Join(w.RootDir(), "Broken.php")
	w.UpdateFile(broken, []byte("<?php\nclass {\n"))
	diags = w.Diagnostics(broken)
	require.Len(t, diags, 1)
	d = toDiagnostic(diags[0])
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
}

func TestURIToPath(t *testing.T) {
	path, err := uriToPath("file:///tmp/project/a.php")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/project/a.php", path)

	path, err = uriToPath("untitled:1")
	require.NoError(t, err)
	assert.Equal(t, "untitled:1", path)
}
