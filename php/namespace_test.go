package php

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segmentOf(t *testing.T, name, src string) *FileNamespace {
	t.Helper()
	file, err := ParseSource(name, []byte(src), nil)
	require.NoError(t, err)
	require.Len(t, file.Namespaces(), 1)
	return file.Namespaces()[0]
}

func TestNamespaceCollisionsAcrossFiles(t *testing.T) {
	ns := NewNamespace(`\N`)
	assert.Equal(t, "N", ns.Name())

	assert.Empty(t, ns.AddFileNamespace(segmentOf(t, "a.php", "<?php namespace N; class A {}")))
	reasons := ns.AddFileNamespace(segmentOf(t, "b.php", "<?php namespace N; class A {}"))
	require.Len(t, reasons, 2)
	var files []string
	for _, r := range reasons {
		var dup *DuplicateError
		require.ErrorAs(t, r, &dup)
		files = append(files, dup.File)
	}
	assert.Equal(t, []string{"a.php", "b.php"}, files)

	info, ok := ns.Class(`n\a`)
	require.True(t, ok)
	inv, ok := info.(*InvalidClass)
	require.True(t, ok)
	assert.False(t, inv.IsValid())
	assert.True(t, inv.Exists())
	assert.Len(t, inv.Declarations(), 2)

	reasons = ns.AddFileNamespace(segmentOf(t, "c.php", "<?php namespace N; class A {}"))
	require.Len(t, reasons, 1)
	same, _ := ns.Class(`N\A`)
	assert.Same(t, inv, same)
	assert.Len(t, inv.Reasons(), 3)
	assert.Len(t, inv.Declarations(), 3)
	assert.Len(t, ns.Segments(), 3)
}

func TestNamespaceDoesNotMutateSegmentMarkers(t *testing.T) {
	seg := segmentOf(t, "dup.php", "<?php namespace N; class A {} class A {}")
	segMarker, _ := seg.Class(`N\A`)
	require.Len(t, segMarker.(*InvalidClass).Reasons(), 2)

	ns := NewNamespace("N")
	ns.AddFileNamespace(seg)
	reasons := ns.AddFileNamespace(segmentOf(t, "other.php", "<?php namespace N; class A {}"))
	require.Len(t, reasons, 1)

	merged, _ := ns.Class(`N\A`)
	assert.Len(t, merged.(*InvalidClass).Reasons(), 3)
	assert.Len(t, segMarker.(*InvalidClass).Reasons(), 2)
}

func TestNamespaceConstantsAndFunctions(t *testing.T) {
	seg := segmentOf(t, "k.php", `<?php
namespace N;
const Y = 2;
define('M\X', 1);
function f() {}
`)
	ns := NewNamespace("N")
	assert.Empty(t, ns.AddFileNamespace(seg))

	assert.True(t, ns.HasConstant(`N\Y`))
	assert.True(t, ns.HasConstant(`n\Y`))
	assert.False(t, ns.HasConstant(`N\y`))
	assert.False(t, ns.HasConstant(`M\X`))
	assert.True(t, ns.HasFunction(`n\F`))
	assert.Len(t, ns.Constants(), 1)

	reasons := ns.AddFunction(seg.Functions()[0])
	require.Len(t, reasons, 2)
	f, ok := ns.Function(`N\f`)
	require.True(t, ok)
	assert.False(t, f.(*InvalidFunction).IsValid())
}
