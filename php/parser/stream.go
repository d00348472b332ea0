package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrOutOfRange is returned when a seek or advance would leave the stream.
	ErrOutOfRange = errors.New("position out of range")
	// ErrUnmatchedBracket is returned when a bracket has no counterpart.
	ErrUnmatchedBracket = errors.New("unmatched bracket")
	// ErrNotBracket is returned by FindMatchingBracket off an opening bracket.
	ErrNotBracket = errors.New("current token is not an opening bracket")
)

// Stream is a randomly seekable sequence of tokens produced from one source
// file. The last token is always TokenEOF.
type Stream struct {
	file   string
	tokens []Token
	pos    int
}

// NewStream wraps an already lexed token slice. A trailing EOF token is added
// when missing.
func NewStream(file string, tokens []Token) *Stream {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		var end Position
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].Span.End
		}
		tokens = append(tokens, Token{Kind: TokenEOF, Span: Span{Start: end, End: end}})
	}
	return &Stream{file: file, tokens: tokens}
}

// Tokenize lexes source into a stream.
func Tokenize(file string, source []byte) *Stream {
	return NewStream(file, NewLexer(source, file).All())
}

// TokenizeFile reads and lexes a file from disk.
func TokenizeFile(path string) (*Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Tokenize(path, data), nil
}

func (s *Stream) File() string { return s.file }

// Len returns the number of tokens including the EOF sentinel.
func (s *Stream) Len() int { return len(s.tokens) }

func (s *Stream) Pos() int { return s.pos }

// At returns the token at an absolute position, or the EOF sentinel when the
// position lies outside the stream.
func (s *Stream) At(i int) Token {
	if i < 0 || i >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1]
	}
	return s.tokens[i]
}

func (s *Stream) Current() Token {
	return s.tokens[s.pos]
}

func (s *Stream) Is(kind TokenKind) bool {
	return s.tokens[s.pos].Kind == kind
}

func (s *Stream) AtEOF() bool {
	return s.tokens[s.pos].Kind == TokenEOF
}

// Seek moves to an absolute position.
func (s *Stream) Seek(pos int) error {
	if pos < 0 || pos >= len(s.tokens) {
		return fmt.Errorf("seek to %d of %d: %w", pos, len(s.tokens), ErrOutOfRange)
	}
	s.pos = pos
	return nil
}

// Next advances one token. Advancing past EOF is an error.
func (s *Stream) Next() error {
	if s.pos+1 >= len(s.tokens) {
		return fmt.Errorf("advance past end of %s: %w", s.file, ErrOutOfRange)
	}
	s.pos++
	return nil
}

// SkipWhitespace advances past whitespace and, if includeComments is set,
// comments. It never moves past EOF.
func (s *Stream) SkipWhitespace(includeComments bool) {
	for s.pos < len(s.tokens)-1 && s.tokens[s.pos].IsWhitespace(includeComments) {
		s.pos++
	}
}

// NextSignificant advances one token and then past whitespace and comments.
func (s *Stream) NextSignificant() error {
	if err := s.Next(); err != nil {
		return err
	}
	s.SkipWhitespace(true)
	return nil
}

// PeekSignificant returns the position of the first significant token after
// the current one without moving.
func (s *Stream) PeekSignificant() int {
	i := s.pos + 1
	for i < len(s.tokens)-1 && s.tokens[i].IsWhitespace(true) {
		i++
	}
	if i >= len(s.tokens) {
		return len(s.tokens) - 1
	}
	return i
}

// PrevSignificant returns the position of the last significant token before
// pos, or -1.
func (s *Stream) PrevSignificant(pos int) int {
	i := pos - 1
	for i >= 0 && s.tokens[i].IsWhitespace(true) {
		i--
	}
	return i
}

// Find scans forward from the current token for a token of the given kind and
// stops on it. It reports false, leaving the position unchanged, when none is
// found.
func (s *Stream) Find(kind TokenKind) bool {
	for i := s.pos; i < len(s.tokens); i++ {
		if s.tokens[i].Kind == kind {
			s.pos = i
			return true
		}
	}
	return false
}

// FindText is Find by literal text.
func (s *Stream) FindText(text string) bool {
	for i := s.pos; i < len(s.tokens); i++ {
		if s.tokens[i].Literal == text && s.tokens[i].Kind != TokenEOF {
			s.pos = i
			return true
		}
	}
	return false
}

func closingFor(kind TokenKind) TokenKind {
	switch kind {
	case TokenLParen:
		return TokenRParen
	case TokenLBrace:
		return TokenRBrace
	case TokenLBracket, TokenAttributeStart:
		return TokenRBracket
	}
	return TokenEOF
}

// FindMatchingBracket moves from the current opening bracket to its closing
// counterpart. All bracket kinds are balanced together.
func (s *Stream) FindMatchingBracket() error {
	open := s.tokens[s.pos]
	if !open.IsOpeningBracket() {
		return fmt.Errorf("%s at line %d: %w", open.Kind, open.Line(), ErrNotBracket)
	}
	var stack []TokenKind
	for i := s.pos; i < len(s.tokens); i++ {
		tok := s.tokens[i]
		switch {
		case tok.IsOpeningBracket():
			stack = append(stack, closingFor(tok.Kind))
		case tok.Kind == TokenRParen || tok.Kind == TokenRBrace || tok.Kind == TokenRBracket:
			if len(stack) == 0 || stack[len(stack)-1] != tok.Kind {
				return fmt.Errorf("%s at line %d: %w", tok.Literal, tok.Line(), ErrUnmatchedBracket)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				s.pos = i
				return nil
			}
		}
	}
	return fmt.Errorf("%s opened at line %d: %w", open.Literal, open.Line(), ErrUnmatchedBracket)
}

// Slice returns the tokens in [from, to).
func (s *Stream) Slice(from, to int) []Token {
	from = max(from, 0)
	to = min(to, len(s.tokens))
	if from >= to {
		return nil
	}
	return s.tokens[from:to]
}

// Source returns the verbatim text of the tokens in [from, to).
func (s *Stream) Source(from, to int) string {
	var sb strings.Builder
	for _, tok := range s.Slice(from, to) {
		sb.WriteString(tok.Literal)
	}
	return sb.String()
}
