package parser

import "strings"

type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

type Span struct {
	Start Position
	End   Position
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenError
	TokenInlineHTML
	TokenOpenTag
	TokenOpenTagWithEcho
	TokenCloseTag
	TokenWhitespace
	TokenComment
	TokenDocComment

	// Literals
	TokenIdent
	TokenVariable
	TokenIntLiteral
	TokenFloatLiteral
	TokenStringLiteral
	TokenEncapsedString
	TokenHeredoc
	TokenNowdoc
	TokenMagicConst

	// Keywords
	TokenAbstract
	TokenArray
	TokenAs
	TokenCallable
	TokenClass
	TokenClone
	TokenConst
	TokenDeclare
	TokenEcho
	TokenExtends
	TokenFinal
	TokenFunction
	TokenFn
	TokenGlobal
	TokenImplements
	TokenInsteadof
	TokenInterface
	TokenNamespace
	TokenNew
	TokenPrivate
	TokenProtected
	TokenPublic
	TokenReadonly
	TokenReturn
	TokenStatic
	TokenTrait
	TokenUse
	TokenVar

	// Operators and punctuation
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenAttributeStart
	TokenSemicolon
	TokenComma
	TokenNsSeparator
	TokenDoubleColon
	TokenObjectOperator
	TokenDoubleArrow
	TokenEllipsis
	TokenAssign
	TokenQuestion
	TokenColon
	TokenCoalesce
	TokenAmpersand
	TokenPipe
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenDot
	TokenNot
	TokenOperator
	TokenDollar
	TokenAt
	TokenBacktick
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:             "EOF",
	TokenError:           "Error",
	TokenInlineHTML:      "InlineHTML",
	TokenOpenTag:         "OpenTag",
	TokenOpenTagWithEcho: "OpenTagWithEcho",
	TokenCloseTag:        "CloseTag",
	TokenWhitespace:      "Whitespace",
	TokenComment:         "Comment",
	TokenDocComment:      "DocComment",
	TokenIdent:           "Identifier",
	TokenVariable:        "Variable",
	TokenIntLiteral:      "IntLiteral",
	TokenFloatLiteral:    "FloatLiteral",
	TokenStringLiteral:   "StringLiteral",
	TokenEncapsedString:  "EncapsedString",
	TokenHeredoc:         "Heredoc",
	TokenNowdoc:          "Nowdoc",
	TokenMagicConst:      "MagicConstant",
	TokenAbstract:        "abstract",
	TokenArray:           "array",
	TokenAs:              "as",
	TokenCallable:        "callable",
	TokenClass:           "class",
	TokenClone:           "clone",
	TokenConst:           "const",
	TokenDeclare:         "declare",
	TokenEcho:            "echo",
	TokenExtends:         "extends",
	TokenFinal:           "final",
	TokenFunction:        "function",
	TokenFn:              "fn",
	TokenGlobal:          "global",
	TokenImplements:      "implements",
	TokenInsteadof:       "insteadof",
	TokenInterface:       "interface",
	TokenNamespace:       "namespace",
	TokenNew:             "new",
	TokenPrivate:         "private",
	TokenProtected:       "protected",
	TokenPublic:          "public",
	TokenReadonly:        "readonly",
	TokenReturn:          "return",
	TokenStatic:          "static",
	TokenTrait:           "trait",
	TokenUse:             "use",
	TokenVar:             "var",
	TokenLParen:          "(",
	TokenRParen:          ")",
	TokenLBrace:          "{",
	TokenRBrace:          "}",
	TokenLBracket:        "[",
	TokenRBracket:        "]",
	TokenAttributeStart:  "#[",
	TokenSemicolon:       ";",
	TokenComma:           ",",
	TokenNsSeparator:     "\\",
	TokenDoubleColon:     "::",
	TokenObjectOperator:  "->",
	TokenDoubleArrow:     "=>",
	TokenEllipsis:        "...",
	TokenAssign:          "=",
	TokenQuestion:        "?",
	TokenColon:           ":",
	TokenCoalesce:        "??",
	TokenAmpersand:       "&",
	TokenPipe:            "|",
	TokenPlus:            "+",
	TokenMinus:           "-",
	TokenStar:            "*",
	TokenSlash:           "/",
	TokenPercent:         "%",
	TokenDot:             ".",
	TokenNot:             "!",
	TokenOperator:        "Operator",
	TokenDollar:          "$",
	TokenAt:              "@",
	TokenBacktick:        "`",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

type Token struct {
	Kind    TokenKind
	Span    Span
	Literal string
}

// Line returns the line the token starts on.
func (t Token) Line() int {
	return t.Span.Start.Line
}

// IsWhitespace reports whether the token carries no syntax. Comments count
// as whitespace only when includeComments is set.
func (t Token) IsWhitespace(includeComments bool) bool {
	switch t.Kind {
	case TokenWhitespace:
		return true
	case TokenComment, TokenDocComment:
		return includeComments
	}
	return false
}

// IsName reports whether the token can stand for an identifier. PHP allows
// reserved words as member names, so every keyword qualifies.
func (t Token) IsName() bool {
	if t.Kind == TokenIdent {
		return true
	}
	return t.Kind >= TokenAbstract && t.Kind <= TokenVar
}

// IsOpeningBracket reports whether the token opens a bracket pair.
func (t Token) IsOpeningBracket() bool {
	switch t.Kind {
	case TokenLParen, TokenLBrace, TokenLBracket, TokenAttributeStart:
		return true
	}
	return false
}

var keywords = map[string]TokenKind{
	"abstract":   TokenAbstract,
	"array":      TokenArray,
	"as":         TokenAs,
	"callable":   TokenCallable,
	"class":      TokenClass,
	"clone":      TokenClone,
	"const":      TokenConst,
	"declare":    TokenDeclare,
	"echo":       TokenEcho,
	"extends":    TokenExtends,
	"final":      TokenFinal,
	"function":   TokenFunction,
	"fn":         TokenFn,
	"global":     TokenGlobal,
	"implements": TokenImplements,
	"insteadof":  TokenInsteadof,
	"interface":  TokenInterface,
	"namespace":  TokenNamespace,
	"new":        TokenNew,
	"private":    TokenPrivate,
	"protected":  TokenProtected,
	"public":     TokenPublic,
	"readonly":   TokenReadonly,
	"return":     TokenReturn,
	"static":     TokenStatic,
	"trait":      TokenTrait,
	"use":        TokenUse,
	"var":        TokenVar,
}

var magicConstants = map[string]bool{
	"__CLASS__":     true,
	"__DIR__":       true,
	"__FILE__":      true,
	"__FUNCTION__":  true,
	"__LINE__":      true,
	"__METHOD__":    true,
	"__NAMESPACE__": true,
	"__TRAIT__":     true,
}

// LookupKeyword classifies an identifier. Keywords and magic constants are
// case-insensitive in PHP.
func LookupKeyword(ident string) TokenKind {
	lower := strings.ToLower(ident)
	if kind, ok := keywords[lower]; ok {
		return kind
	}
	if magicConstants[strings.ToUpper(ident)] {
		return TokenMagicConst
	}
	return TokenIdent
}
