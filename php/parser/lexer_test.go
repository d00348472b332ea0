package parser

import (
	"testing"
)

func significant(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if tok.IsWhitespace(true) || tok.Kind == TokenOpenTag || tok.Kind == TokenEOF {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func lexPHP(src string) []Token {
	return significant(NewLexer([]byte("<?php "+src), "test.php").All())
}

func TestLexerNewLexer(t *testing.T) {
	lexer := NewLexer([]byte("<?php class Foo {}"), "Test.php")
	pos := lexer.Position()

	if pos.File != "Test.php" {
		t.Errorf("File = %q, want %q", pos.File, "Test.php")
	}
	if pos.Line != 1 {
		t.Errorf("Line = %d, want %d", pos.Line, 1)
	}
	if pos.Offset != 0 {
		t.Errorf("Offset = %d, want %d", pos.Offset, 0)
	}
}

func TestLexerInlineHTML(t *testing.T) {
	tokens := NewLexer([]byte("<html><?php echo 1; ?>\n</html>"), "t.php").All()
	kinds := []TokenKind{
		TokenInlineHTML, TokenOpenTag, TokenWhitespace, TokenEcho, TokenWhitespace,
		TokenIntLiteral, TokenSemicolon, TokenWhitespace, TokenCloseTag, TokenInlineHTML, TokenEOF,
	}
	if len(tokens) != len(kinds) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(kinds), tokens)
	}
	for i, kind := range kinds {
		if tokens[i].Kind != kind {
			t.Errorf("token %d: Kind = %v, want %v", i, tokens[i].Kind, kind)
		}
	}
	if tokens[8].Literal != "?>\n" {
		t.Errorf("close tag literal = %q, want %q", tokens[8].Literal, "?>\n")
	}
}

func TestLexerKeywords(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"class", TokenClass},
		{"CLASS", TokenClass},
		{"interface", TokenInterface},
		{"trait", TokenTrait},
		{"extends", TokenExtends},
		{"implements", TokenImplements},
		{"abstract", TokenAbstract},
		{"final", TokenFinal},
		{"public", TokenPublic},
		{"protected", TokenProtected},
		{"private", TokenPrivate},
		{"static", TokenStatic},
		{"function", TokenFunction},
		{"const", TokenConst},
		{"namespace", TokenNamespace},
		{"use", TokenUse},
		{"as", TokenAs},
		{"insteadof", TokenInsteadof},
		{"array", TokenArray},
		{"callable", TokenCallable},
		{"var", TokenVar},
		{"__CLASS__", TokenMagicConst},
		{"__line__", TokenMagicConst},
		{"true", TokenIdent},
		{"Foo", TokenIdent},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexPHP(tt.input)
			if len(tokens) != 1 {
				t.Fatalf("got %d tokens, want 1", len(tokens))
			}
			if tokens[0].Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tokens[0].Kind, tt.kind)
			}
			if tokens[0].Literal != tt.input {
				t.Errorf("Literal = %q, want %q", tokens[0].Literal, tt.input)
			}
		})
	}
}

func TestLexerLiterals(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"42", TokenIntLiteral},
		{"0x1F", TokenIntLiteral},
		{"0b101", TokenIntLiteral},
		{"1_000", TokenIntLiteral},
		{"1.5", TokenFloatLiteral},
		{".5", TokenFloatLiteral},
		{"1e10", TokenFloatLiteral},
		{"'it\\'s'", TokenStringLiteral},
		{`"plain"`, TokenStringLiteral},
		{`"hello $name"`, TokenEncapsedString},
		{`"a {$b["c"]} d"`, TokenEncapsedString},
		{"$var", TokenVariable},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexPHP(tt.input)
			if len(tokens) != 1 {
				t.Fatalf("got %d tokens, want 1: %+v", len(tokens), tokens)
			}
			if tokens[0].Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tokens[0].Kind, tt.kind)
			}
			if tokens[0].Literal != tt.input {
				t.Errorf("Literal = %q, want %q", tokens[0].Literal, tt.input)
			}
		})
	}
}

func TestLexerHeredoc(t *testing.T) {
	src := "<<<EOT\nline one\n  line two\nEOT;"
	tokens := lexPHP(src)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(tokens), tokens)
	}
	if tokens[0].Kind != TokenHeredoc {
		t.Errorf("Kind = %v, want %v", tokens[0].Kind, TokenHeredoc)
	}
	if tokens[0].Literal != "<<<EOT\nline one\n  line two\nEOT" {
		t.Errorf("Literal = %q", tokens[0].Literal)
	}

	nowdoc := lexPHP("<<<'EOT'\n$raw\nEOT;")
	if nowdoc[0].Kind != TokenNowdoc {
		t.Errorf("Kind = %v, want %v", nowdoc[0].Kind, TokenNowdoc)
	}
}

func TestLexerComments(t *testing.T) {
	tokens := NewLexer([]byte("<?php /** doc */ /* plain */ // line\n# hash\n#[Attr]"), "t.php").All()
	var kinds []TokenKind
	for _, tok := range tokens {
		if tok.Kind != TokenWhitespace {
			kinds = append(kinds, tok.Kind)
		}
	}
	want := []TokenKind{
		TokenOpenTag, TokenDocComment, TokenComment, TokenComment, TokenComment,
		TokenAttributeStart, TokenIdent, TokenRBracket, TokenEOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: Kind = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestLexerOperators(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"(", TokenLParen},
		{")", TokenRParen},
		{"{", TokenLBrace},
		{"}", TokenRBrace},
		{"[", TokenLBracket},
		{"]", TokenRBracket},
		{";", TokenSemicolon},
		{",", TokenComma},
		{"\\", TokenNsSeparator},
		{"::", TokenDoubleColon},
		{"->", TokenObjectOperator},
		{"=>", TokenDoubleArrow},
		{"...", TokenEllipsis},
		{"=", TokenAssign},
		{"?", TokenQuestion},
		{"??", TokenCoalesce},
		{"&", TokenAmpersand},
		{"|", TokenPipe},
		{"-", TokenMinus},
		{"+", TokenPlus},
		{"===", TokenOperator},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexPHP(tt.input)
			if len(tokens) != 1 {
				t.Fatalf("got %d tokens, want 1", len(tokens))
			}
			if tokens[0].Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tokens[0].Kind, tt.kind)
			}
		})
	}
}

func TestLexerLineNumbers(t *testing.T) {
	tokens := lexPHP("class A\n{\n  const X = 1;\n}")
	last := tokens[len(tokens)-1]
	if last.Kind != TokenRBrace {
		t.Fatalf("last token = %v, want }", last.Kind)
	}
	if last.Line() != 4 {
		t.Errorf("Line = %d, want 4", last.Line())
	}
}
