package phpdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmpty(t *testing.T) {
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("   "))
}

func TestParseDescriptions(t *testing.T) {
	doc := Parse(`/**
 * Short description
 * spanning two lines.
 *
 * Long description first paragraph.
 *
 * Second paragraph.
 */`)
	require.NotNil(t, doc)

	assert.Equal(t, "Short description\nspanning two lines.", doc.Short)
	assert.Equal(t, "Long description first paragraph.\n\nSecond paragraph.", doc.Long)
	assert.Empty(t, doc.Tags)
}

func TestParseSingleLine(t *testing.T) {
	doc := Parse("/** Simple text. */")
	require.NotNil(t, doc)

	assert.Equal(t, "Simple text.", doc.Short)
	assert.Equal(t, "", doc.Long)
}

func TestParseTags(t *testing.T) {
	doc := Parse(`/**
 * Adds numbers.
 *
 * @param int $a first
 *     operand
 * @param int $b
 * @return int the sum
 * @throws \InvalidArgumentException
 * @deprecated
 */`)
	require.NotNil(t, doc)

	assert.Equal(t, "Adds numbers.", doc.Short)
	assert.Equal(t, []string{"int $a first\noperand", "int $b"}, doc.Tag("param"))
	assert.Equal(t, []string{"int the sum"}, doc.Tag("RETURN"))
	assert.Equal(t, []string{"\\InvalidArgumentException"}, doc.Tag("throws"))
	assert.Equal(t, []string{""}, doc.Tag("deprecated"))
	assert.Equal(t, []string{"param", "return", "throws", "deprecated"}, doc.TagNames())
	assert.False(t, doc.HasTag("see"))
}

func TestParseTagsWithoutDescription(t *testing.T) {
	doc := Parse("/** @var string */")
	require.NotNil(t, doc)

	assert.Equal(t, "", doc.Short)
	assert.Equal(t, []string{"string"}, doc.Tag("var"))
}

func TestInheritsAll(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		want    bool
	}{
		{"missing", "", true},
		{"inline marker", "/** {@inheritdoc} */", true},
		{"inline marker mixed case", "/** {@inheritDoc} */", true},
		{"block tag", "/** @inheritdoc */", true},
		{"text with marker", "/** Foo {@inheritdoc} */", false},
		{"own text", "/** Foo */", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.comment).InheritsAll())
		})
	}
}
