package parser

import "strings"

type Lexer struct {
	input []byte
	file  string
	pos   int
	line  int
	col   int
	inPHP bool
}

func NewLexer(input []byte, file string) *Lexer {
	return &Lexer{
		input: input,
		file:  file,
		pos:   0,
		line:  1,
		col:   1,
	}
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(string(l.input[l.pos:min(len(l.input), l.pos+len(s))]), s)
}

func (l *Lexer) hasPrefixFold(s string) bool {
	end := l.pos + len(s)
	if end > len(l.input) {
		return false
	}
	return strings.EqualFold(string(l.input[l.pos:end]), s)
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

// All tokenizes the whole input. The returned slice always ends with an EOF
// token.
func (l *Lexer) All() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens
		}
	}
}

func (l *Lexer) NextToken() Token {
	startPos := l.Position()

	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Span: Span{Start: startPos, End: startPos}}
	}

	if !l.inPHP {
		return l.scanInlineHTML(startPos)
	}

	ch := l.peek()

	if ch == '?' && l.peekN(1) == '>' {
		l.advanceN(2)
		if l.peek() == '\n' {
			l.advance()
		} else if l.peek() == '\r' && l.peekN(1) == '\n' {
			l.advanceN(2)
		}
		l.inPHP = false
		return l.token(TokenCloseTag, startPos)
	}

	if isSpace(ch) {
		return l.scanWhitespace(startPos)
	}

	if ch == '#' && l.peekN(1) == '[' {
		l.advanceN(2)
		return l.token(TokenAttributeStart, startPos)
	}
	if ch == '#' || (ch == '/' && l.peekN(1) == '/') {
		return l.scanLineComment(startPos)
	}
	if ch == '/' && l.peekN(1) == '*' {
		return l.scanBlockComment(startPos)
	}

	if ch == '$' && isNameStart(l.peekN(1)) {
		l.advance()
		for isNameChar(l.peek()) {
			l.advance()
		}
		return l.token(TokenVariable, startPos)
	}

	if isNameStart(ch) {
		return l.scanIdentOrKeyword(startPos)
	}

	if isDigit(ch) || (ch == '.' && isDigit(l.peekN(1))) {
		return l.scanNumber(startPos)
	}

	switch ch {
	case '\'':
		return l.scanSingleQuoted(startPos)
	case '"':
		return l.scanDoubleQuoted(startPos)
	case '`':
		return l.scanBacktick(startPos)
	}

	if l.hasPrefix("<<<") {
		if tok, ok := l.scanHeredoc(startPos); ok {
			return tok
		}
	}

	return l.scanOperator(startPos)
}

func (l *Lexer) scanInlineHTML(start Position) Token {
	for l.pos < len(l.input) {
		if l.peek() == '<' && l.peekN(1) == '?' {
			if l.pos > start.Offset {
				break
			}
			switch {
			case l.hasPrefixFold("<?php") && (l.pos+5 >= len(l.input) || isSpace(l.input[l.pos+5])):
				l.advanceN(5)
				l.inPHP = true
				return l.token(TokenOpenTag, start)
			case l.hasPrefix("<?="):
				l.advanceN(3)
				l.inPHP = true
				return l.token(TokenOpenTagWithEcho, start)
			default:
				l.advanceN(2)
				l.inPHP = true
				return l.token(TokenOpenTag, start)
			}
		}
		l.advance()
	}
	return l.token(TokenInlineHTML, start)
}

func (l *Lexer) scanWhitespace(start Position) Token {
	for isSpace(l.peek()) {
		l.advance()
	}
	return l.token(TokenWhitespace, start)
}

func (l *Lexer) scanLineComment(start Position) Token {
	for l.peek() != 0 && l.peek() != '\n' {
		if l.peek() == '?' && l.peekN(1) == '>' {
			break
		}
		l.advance()
	}
	return l.token(TokenComment, start)
}

func (l *Lexer) scanBlockComment(start Position) Token {
	kind := TokenComment
	if l.peekN(2) == '*' && isSpace(l.peekN(3)) {
		kind = TokenDocComment
	}
	l.advanceN(2)
	for {
		if l.peek() == 0 {
			break
		}
		if l.peek() == '*' && l.peekN(1) == '/' {
			l.advanceN(2)
			break
		}
		l.advance()
	}
	return l.token(kind, start)
}

func (l *Lexer) scanIdentOrKeyword(start Position) Token {
	for isNameChar(l.peek()) {
		l.advance()
	}
	end := l.Position()
	literal := string(l.input[start.Offset:end.Offset])
	return Token{
		Kind:    LookupKeyword(literal),
		Span:    Span{Start: start, End: end},
		Literal: literal,
	}
}

func (l *Lexer) scanNumber(start Position) Token {
	if l.peek() == '0' {
		switch l.peekN(1) {
		case 'x', 'X':
			l.advanceN(2)
			for isHexDigit(l.peek()) || l.peek() == '_' {
				l.advance()
			}
			return l.token(TokenIntLiteral, start)
		case 'b', 'B':
			l.advanceN(2)
			for l.peek() == '0' || l.peek() == '1' || l.peek() == '_' {
				l.advance()
			}
			return l.token(TokenIntLiteral, start)
		case 'o', 'O':
			l.advanceN(2)
			for isDigit(l.peek()) || l.peek() == '_' {
				l.advance()
			}
			return l.token(TokenIntLiteral, start)
		}
	}

	isFloat := false
	for isDigit(l.peek()) || (l.peek() == '_' && isDigit(l.peekN(1))) {
		l.advance()
	}

	if l.peek() == '.' && l.peekN(1) != '.' {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) || (l.peek() == '_' && isDigit(l.peekN(1))) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekN(2))) {
			isFloat = true
			l.advanceN(2)
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	kind := TokenIntLiteral
	if isFloat {
		kind = TokenFloatLiteral
	}
	return l.token(kind, start)
}

func (l *Lexer) scanSingleQuoted(start Position) Token {
	l.advance()
	for l.peek() != 0 && l.peek() != '\'' {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	if l.peek() == '\'' {
		l.advance()
	}
	return l.token(TokenStringLiteral, start)
}

func (l *Lexer) scanDoubleQuoted(start Position) Token {
	l.advance()
	interpolated := false
	for l.peek() != 0 && l.peek() != '"' {
		switch {
		case l.peek() == '\\':
			l.advance()
			l.advance()
			continue
		case l.peek() == '$' && (isNameStart(l.peekN(1)) || l.peekN(1) == '{'):
			interpolated = true
		case l.peek() == '{' && l.peekN(1) == '$':
			interpolated = true
			l.advance()
			l.skipEmbeddedExpression()
			continue
		}
		l.advance()
	}
	if l.peek() == '"' {
		l.advance()
	}
	kind := TokenStringLiteral
	if interpolated {
		kind = TokenEncapsedString
	}
	return l.token(kind, start)
}

func (l *Lexer) scanBacktick(start Position) Token {
	l.advance()
	for l.peek() != 0 && l.peek() != '`' {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	if l.peek() == '`' {
		l.advance()
	}
	return l.token(TokenBacktick, start)
}

// skipEmbeddedExpression consumes a {$...} interpolation inside a double
// quoted string, up to and including the closing brace.
func (l *Lexer) skipEmbeddedExpression() {
	depth := 1
	for l.peek() != 0 && depth > 0 {
		switch ch := l.peek(); ch {
		case '{':
			depth++
			l.advance()
		case '}':
			depth--
			l.advance()
		case '\'', '"':
			l.advance()
			for l.peek() != 0 && l.peek() != ch {
				if l.peek() == '\\' {
					l.advance()
				}
				l.advance()
			}
			if l.peek() == ch {
				l.advance()
			}
		default:
			l.advance()
		}
	}
}

// scanHeredoc scans a heredoc or nowdoc including its closing label. It
// reports false when the input after <<< is not a valid opening label.
func (l *Lexer) scanHeredoc(start Position) (Token, bool) {
	i := l.pos + 3
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	kind := TokenHeredoc
	quote := byte(0)
	if i < len(l.input) && (l.input[i] == '\'' || l.input[i] == '"') {
		quote = l.input[i]
		if quote == '\'' {
			kind = TokenNowdoc
		}
		i++
	}
	labelStart := i
	for i < len(l.input) && isNameChar(l.input[i]) {
		i++
	}
	if i == labelStart || !isNameStart(l.input[labelStart]) {
		return Token{}, false
	}
	label := string(l.input[labelStart:i])
	if quote != 0 {
		if i >= len(l.input) || l.input[i] != quote {
			return Token{}, false
		}
		i++
	}
	if i < len(l.input) && l.input[i] == '\r' {
		i++
	}
	if i >= len(l.input) || l.input[i] != '\n' {
		return Token{}, false
	}

	l.advanceN(i + 1 - l.pos)
	for l.pos < len(l.input) {
		lineStart := l.pos
		j := lineStart
		for j < len(l.input) && (l.input[j] == ' ' || l.input[j] == '\t') {
			j++
		}
		if strings.HasPrefix(string(l.input[j:]), label) {
			after := j + len(label)
			if after >= len(l.input) || !isNameChar(l.input[after]) {
				l.advanceN(after - l.pos)
				return l.token(kind, start), true
			}
		}
		for l.peek() != 0 && l.peek() != '\n' {
			l.advance()
		}
		if l.peek() == '\n' {
			l.advance()
		}
	}
	return l.token(TokenError, start), true
}

var operators = []struct {
	text string
	kind TokenKind
}{
	{"<<=", TokenOperator},
	{">>=", TokenOperator},
	{"**=", TokenOperator},
	{"...", TokenEllipsis},
	{"??=", TokenOperator},
	{"?->", TokenObjectOperator},
	{"===", TokenOperator},
	{"!==", TokenOperator},
	{"<=>", TokenOperator},
	{"::", TokenDoubleColon},
	{"->", TokenObjectOperator},
	{"=>", TokenDoubleArrow},
	{"??", TokenCoalesce},
	{"==", TokenOperator},
	{"!=", TokenOperator},
	{"<>", TokenOperator},
	{"<=", TokenOperator},
	{">=", TokenOperator},
	{"<<", TokenOperator},
	{">>", TokenOperator},
	{"&&", TokenOperator},
	{"||", TokenOperator},
	{"++", TokenOperator},
	{"--", TokenOperator},
	{"+=", TokenOperator},
	{"-=", TokenOperator},
	{"*=", TokenOperator},
	{"/=", TokenOperator},
	{".=", TokenOperator},
	{"%=", TokenOperator},
	{"&=", TokenOperator},
	{"|=", TokenOperator},
	{"^=", TokenOperator},
	{"**", TokenOperator},
	{"(", TokenLParen},
	{")", TokenRParen},
	{"{", TokenLBrace},
	{"}", TokenRBrace},
	{"[", TokenLBracket},
	{"]", TokenRBracket},
	{";", TokenSemicolon},
	{",", TokenComma},
	{"\\", TokenNsSeparator},
	{"=", TokenAssign},
	{"?", TokenQuestion},
	{":", TokenColon},
	{"&", TokenAmpersand},
	{"|", TokenPipe},
	{"+", TokenPlus},
	{"-", TokenMinus},
	{"*", TokenStar},
	{"/", TokenSlash},
	{"%", TokenPercent},
	{".", TokenDot},
	{"!", TokenNot},
	{"$", TokenDollar},
	{"@", TokenAt},
	{"<", TokenOperator},
	{">", TokenOperator},
	{"^", TokenOperator},
	{"~", TokenOperator},
}

func (l *Lexer) scanOperator(start Position) Token {
	for _, op := range operators {
		if l.hasPrefix(op.text) {
			l.advanceN(len(op.text))
			return l.token(op.kind, start)
		}
	}
	l.advance()
	return l.token(TokenError, start)
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// PHP identifiers are byte-oriented: any byte from 0x80 up is a letter.
func isNameStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || isDigit(ch)
}
