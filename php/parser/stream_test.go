package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamSeekOutOfRange(t *testing.T) {
	s := Tokenize("t.php", []byte("<?php foo();"))

	require.NoError(t, s.Seek(0))
	assert.True(t, errors.Is(s.Seek(-1), ErrOutOfRange))
	assert.True(t, errors.Is(s.Seek(s.Len()), ErrOutOfRange))

	require.NoError(t, s.Seek(s.Len()-1))
	assert.True(t, s.AtEOF())
	assert.ErrorIs(t, s.Next(), ErrOutOfRange)
}

func TestStreamSkipWhitespace(t *testing.T) {
	s := Tokenize("t.php", []byte("<?php  /* c */  foo"))
	require.NoError(t, s.Seek(1))

	s.SkipWhitespace(false)
	assert.Equal(t, TokenComment, s.Current().Kind)

	s.SkipWhitespace(true)
	assert.Equal(t, TokenIdent, s.Current().Kind)
	assert.Equal(t, "foo", s.Current().Literal)
}

func TestStreamFind(t *testing.T) {
	s := Tokenize("t.php", []byte("<?php a(); b(); class C {}"))

	require.True(t, s.Find(TokenClass))
	assert.Equal(t, "class", s.Current().Literal)

	pos := s.Pos()
	assert.False(t, s.Find(TokenTrait))
	assert.Equal(t, pos, s.Pos())

	require.NoError(t, s.Seek(0))
	require.True(t, s.FindText("b"))
	assert.Equal(t, TokenIdent, s.Current().Kind)
}

func TestStreamFindMatchingBracket(t *testing.T) {
	s := Tokenize("t.php", []byte("<?php { [ ( ) ] { } } ;"))
	require.True(t, s.Find(TokenLBrace))

	require.NoError(t, s.FindMatchingBracket())
	assert.Equal(t, TokenRBrace, s.Current().Kind)
	require.NoError(t, s.NextSignificant())
	assert.Equal(t, TokenSemicolon, s.Current().Kind)
}

func TestStreamFindMatchingBracketErrors(t *testing.T) {
	s := Tokenize("t.php", []byte("<?php ( [ )"))
	require.True(t, s.Find(TokenLParen))
	assert.ErrorIs(t, s.FindMatchingBracket(), ErrUnmatchedBracket)

	s = Tokenize("t.php", []byte("<?php { "))
	require.True(t, s.Find(TokenLBrace))
	assert.ErrorIs(t, s.FindMatchingBracket(), ErrUnmatchedBracket)

	s = Tokenize("t.php", []byte("<?php foo"))
	require.True(t, s.Find(TokenIdent))
	assert.ErrorIs(t, s.FindMatchingBracket(), ErrNotBracket)
}

func TestStreamSource(t *testing.T) {
	s := Tokenize("t.php", []byte("<?php array(1, 2);"))
	require.True(t, s.Find(TokenArray))
	start := s.Pos()
	require.True(t, s.Find(TokenSemicolon))
	assert.Equal(t, "array(1, 2)", s.Source(start, s.Pos()))
}
