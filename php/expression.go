package php

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dhamidi/phpreflect/php/parser"
)

// Expression is a captured literal-expression span together with the
// lexical context it was captured in. Its value is computed on first demand
// and memoized once evaluation succeeds.
type Expression struct {
	tokens []parser.Token
	ctx    *Context

	mu        sync.Mutex
	evaluated bool
	value     any
}

func NewExpression(tokens []parser.Token, ctx *Context) *Expression {
	if ctx == nil {
		ctx = &Context{}
	}
	return &Expression{tokens: tokens, ctx: ctx}
}

// rebind returns an unevaluated copy of e in which self, static and parent
// refer to class. It is used when a trait member is imported.
func (e *Expression) rebind(class *ClassModel) *Expression {
	if e == nil {
		return nil
	}
	ctx := *e.ctx
	if ctx.Trait == "" && ctx.Class != nil && ctx.Class.IsTrait() {
		ctx.Trait = ctx.Class.name
	}
	ctx.Class = class
	return &Expression{tokens: e.tokens, ctx: &ctx}
}

// NewValueExpression wraps an already evaluated value.
func NewValueExpression(value any) *Expression {
	return &Expression{evaluated: true, value: value}
}

// Source re-renders the span as normalized source text.
func (e *Expression) Source() string {
	if e == nil {
		return ""
	}
	if e.tokens == nil && e.evaluated {
		return ExportValue(e.value)
	}
	return RenderTokens(e.tokens)
}

func (e *Expression) Tokens() []parser.Token {
	return e.tokens
}

// Value evaluates the span. Failures are not memoized, a later call may
// succeed once more declarations are registered.
func (e *Expression) Value() (any, error) {
	if e == nil {
		return nil, fmt.Errorf("no value: %w", ErrNotFound)
	}
	return e.valueWith(nil)
}

func (e *Expression) valueWith(seen map[*Expression]bool) (any, error) {
	e.mu.Lock()
	if e.evaluated {
		v := e.value
		e.mu.Unlock()
		return v, nil
	}
	e.mu.Unlock()

	if seen[e] {
		return nil, fmt.Errorf("evaluate %q: %w", e.Source(), ErrCircularReference)
	}
	next := make(map[*Expression]bool, len(seen)+1)
	for k := range seen {
		next[k] = true
	}
	next[e] = true

	ev := &evaluator{ctx: e.ctx, seen: next}
	for _, tok := range e.tokens {
		if !tok.IsWhitespace(true) {
			ev.tokens = append(ev.tokens, tok)
		}
	}
	v, err := ev.evaluate()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.evaluated = true
	e.value = v
	e.mu.Unlock()
	return v, nil
}

// ParseExpression captures literal source text as an unevaluated
// expression bound to ctx.
func ParseExpression(source string, ctx *Context) *Expression {
	stream := parser.Tokenize("", []byte("<?php "+source))
	var tokens []parser.Token
	for i := 0; i < stream.Len(); i++ {
		tok := stream.At(i)
		if tok.Kind == parser.TokenOpenTag || tok.Kind == parser.TokenEOF {
			continue
		}
		tokens = append(tokens, tok)
	}
	return NewExpression(tokens, ctx)
}

// Evaluate evaluates literal source text in the given context.
func Evaluate(source string, ctx *Context) (any, error) {
	return ParseExpression(source, ctx).Value()
}

type evaluator struct {
	ctx    *Context
	seen   map[*Expression]bool
	tokens []parser.Token
	pos    int
}

func (ev *evaluator) peek() parser.Token {
	if ev.pos >= len(ev.tokens) {
		return parser.Token{Kind: parser.TokenEOF}
	}
	return ev.tokens[ev.pos]
}

func (ev *evaluator) next() parser.Token {
	tok := ev.peek()
	if ev.pos < len(ev.tokens) {
		ev.pos++
	}
	return tok
}

func (ev *evaluator) expect(kind parser.TokenKind) error {
	tok := ev.next()
	if tok.Kind != kind {
		return ev.unexpected(tok)
	}
	return nil
}

func (ev *evaluator) unexpected(tok parser.Token) error {
	if tok.Kind == parser.TokenEOF {
		return fmt.Errorf("unexpected end of expression: %w", ErrUnsupportedExpression)
	}
	return fmt.Errorf("unexpected %q on line %d: %w", tok.Literal, tok.Line(), ErrUnsupportedExpression)
}

func (ev *evaluator) evaluate() (any, error) {
	if len(ev.tokens) == 0 {
		return nil, fmt.Errorf("empty expression: %w", ErrUnsupportedExpression)
	}
	v, err := ev.parseExpr()
	if err != nil {
		return nil, err
	}
	if ev.pos < len(ev.tokens) {
		return nil, ev.unexpected(ev.peek())
	}
	return v, nil
}

func (ev *evaluator) parseExpr() (any, error) {
	tok := ev.peek()
	switch tok.Kind {
	case parser.TokenMinus, parser.TokenPlus:
		ev.next()
		if tok.Kind == parser.TokenMinus && ev.peek().Kind == parser.TokenIntLiteral {
			lit := ev.next()
			return parseInt("-" + lit.Literal), nil
		}
		operand, err := ev.parseExpr()
		if err != nil {
			return nil, err
		}
		return negate(operand, tok.Kind == parser.TokenMinus, tok)
	case parser.TokenLParen:
		ev.next()
		v, err := ev.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := ev.expect(parser.TokenRParen); err != nil {
			return nil, err
		}
		return v, nil
	case parser.TokenIntLiteral:
		ev.next()
		return parseInt(tok.Literal), nil
	case parser.TokenFloatLiteral:
		ev.next()
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok.Literal, "_", ""), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("float %q: %w", tok.Literal, ErrUnsupportedExpression)
		}
		return f, nil
	case parser.TokenStringLiteral:
		ev.next()
		if strings.HasPrefix(tok.Literal, "'") {
			return unquoteSingle(tok.Literal), nil
		}
		return unescapeDouble(tok.Literal[1:max(1, len(tok.Literal)-1)]), nil
	case parser.TokenEncapsedString:
		return nil, fmt.Errorf("interpolated string on line %d: %w", tok.Line(), ErrUnsupportedExpression)
	case parser.TokenHeredoc, parser.TokenNowdoc:
		ev.next()
		return heredocBody(tok)
	case parser.TokenMagicConst:
		ev.next()
		return ev.ctx.magicConstant(tok.Literal, tok.Line())
	case parser.TokenArray:
		ev.next()
		if err := ev.expect(parser.TokenLParen); err != nil {
			return nil, err
		}
		return ev.parseArray(parser.TokenRParen)
	case parser.TokenLBracket:
		ev.next()
		return ev.parseArray(parser.TokenRBracket)
	}
	if tok.IsName() || tok.Kind == parser.TokenNsSeparator {
		return ev.parseReference()
	}
	return nil, ev.unexpected(tok)
}

func (ev *evaluator) parseArray(closing parser.TokenKind) (any, error) {
	arr := NewArray()
	for {
		if ev.peek().Kind == closing {
			ev.next()
			return arr, nil
		}
		first, err := ev.parseExpr()
		if err != nil {
			return nil, err
		}
		if ev.peek().Kind == parser.TokenDoubleArrow {
			ev.next()
			value, err := ev.parseExpr()
			if err != nil {
				return nil, err
			}
			if !isScalar(first) {
				return nil, fmt.Errorf("illegal array key: %w", ErrUnsupportedExpression)
			}
			arr.Set(first, value)
		} else {
			arr.Append(first)
		}
		switch tok := ev.next(); tok.Kind {
		case closing:
			return arr, nil
		case parser.TokenComma:
		default:
			return nil, ev.unexpected(tok)
		}
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, int64, float64, string:
		return true
	}
	return false
}

// parseName reads a possibly qualified name.
func (ev *evaluator) parseName() (string, error) {
	var sb strings.Builder
	if ev.peek().Kind == parser.TokenNsSeparator {
		sb.WriteString(`\`)
		ev.next()
	}
	tok := ev.next()
	if !tok.IsName() {
		return "", ev.unexpected(tok)
	}
	sb.WriteString(tok.Literal)
	for ev.peek().Kind == parser.TokenNsSeparator {
		ev.next()
		tok := ev.next()
		if !tok.IsName() {
			return "", ev.unexpected(tok)
		}
		sb.WriteString(`\`)
		sb.WriteString(tok.Literal)
	}
	return sb.String(), nil
}

func (ev *evaluator) parseReference() (any, error) {
	name, err := ev.parseName()
	if err != nil {
		return nil, err
	}
	if ev.peek().Kind == parser.TokenDoubleColon {
		ev.next()
		member := ev.next()
		if !member.IsName() {
			return nil, ev.unexpected(member)
		}
		return ev.classConstant(name, member.Literal)
	}
	switch strings.ToLower(name) {
	case "true", `\true`:
		return true, nil
	case "false", `\false`:
		return false, nil
	case "null", `\null`:
		return nil, nil
	}
	return ev.constant(name)
}

func (ev *evaluator) classConstant(class, name string) (any, error) {
	fqn, err := ev.ctx.ResolveClassName(class)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(name, "class") {
		return fqn, nil
	}

	var info ClassInfo
	if ev.ctx.Class != nil && strings.EqualFold(fqn, ev.ctx.Class.Name()) {
		info = ev.ctx.Class
	} else if ev.ctx.Storage != nil {
		info, err = ev.ctx.Storage.Class(fqn)
		if err != nil {
			return nil, fmt.Errorf("%s::%s: %w", fqn, name, ErrUnresolved)
		}
	} else {
		return nil, fmt.Errorf("%s::%s: %w", fqn, name, ErrUnresolved)
	}
	c, err := info.Constant(name)
	if err != nil {
		return nil, fmt.Errorf("%s::%s: %w", fqn, name, ErrUnresolved)
	}
	return ev.constantValue(c)
}

func (ev *evaluator) constant(name string) (any, error) {
	if ev.ctx.Storage == nil {
		return nil, fmt.Errorf("constant %s: %w", name, ErrUnresolved)
	}
	for _, candidate := range ev.ctx.constantCandidates(name) {
		c, err := ev.ctx.Storage.Constant(candidate)
		if err != nil {
			continue
		}
		return ev.constantValue(c)
	}
	return nil, fmt.Errorf("constant %s: %w", name, ErrUnresolved)
}

func (ev *evaluator) constantValue(c ConstantInfo) (any, error) {
	if cm, ok := c.(*ConstantModel); ok && cm.value != nil {
		return cm.value.valueWith(ev.seen)
	}
	return c.Value()
}

func negate(v any, minus bool, tok parser.Token) (any, error) {
	switch x := v.(type) {
	case int64:
		if minus {
			if x == math.MinInt64 {
				return -float64(x), nil
			}
			return -x, nil
		}
		return x, nil
	case float64:
		if minus {
			return -x, nil
		}
		return x, nil
	}
	return nil, fmt.Errorf("unary sign on non-numeric value on line %d: %w", tok.Line(), ErrUnsupportedExpression)
}

// parseInt converts an integer literal. Literals that overflow become floats
// the way PHP does.
func parseInt(lit string) any {
	s := strings.ReplaceAll(lit, "_", "")
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	base := 10
	switch {
	case len(digits) > 1 && (digits[1] == 'x' || digits[1] == 'X'):
		base, digits = 16, digits[2:]
	case len(digits) > 1 && (digits[1] == 'b' || digits[1] == 'B'):
		base, digits = 2, digits[2:]
	case len(digits) > 1 && (digits[1] == 'o' || digits[1] == 'O'):
		base, digits = 8, digits[2:]
	case len(digits) > 1 && digits[0] == '0':
		base, digits = 8, digits[1:]
	}
	sign := ""
	if neg {
		sign = "-"
	}
	if n, err := strconv.ParseInt(sign+digits, base, 64); err == nil {
		return n
	}
	u, err := strconv.ParseUint(digits, base, 64)
	f := float64(u)
	if err != nil {
		f, _ = strconv.ParseFloat(digits, 64)
	}
	if neg {
		return -f
	}
	return f
}

func unquoteSingle(lit string) string {
	body := lit[1:max(1, len(lit)-1)]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) && (body[i+1] == '\\' || body[i+1] == '\'') {
			i++
		}
		sb.WriteByte(body[i])
	}
	return sb.String()
}

// unescapeDouble applies double-quoted string escapes. Unknown escapes keep
// their backslash.
func unescapeDouble(body string) string {
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 >= len(body) {
			sb.WriteByte(ch)
			continue
		}
		next := body[i+1]
		switch next {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'v':
			sb.WriteByte('\v')
		case 'e':
			sb.WriteByte(0x1b)
		case 'f':
			sb.WriteByte('\f')
		case '\\', '$', '"':
			sb.WriteByte(next)
		case 'x':
			j := i + 2
			for j < len(body) && j < i+4 && isHex(body[j]) {
				j++
			}
			if j == i+2 {
				sb.WriteString(`\x`)
				i++
				continue
			}
			n, _ := strconv.ParseUint(body[i+2:j], 16, 8)
			sb.WriteByte(byte(n))
			i = j - 1
			continue
		case 'u':
			if i+2 < len(body) && body[i+2] == '{' {
				if end := strings.IndexByte(body[i+3:], '}'); end >= 0 {
					if n, err := strconv.ParseUint(body[i+3:i+3+end], 16, 32); err == nil {
						var buf [utf8.UTFMax]byte
						w := utf8.EncodeRune(buf[:], rune(n))
						sb.Write(buf[:w])
						i = i + 3 + end
						continue
					}
				}
			}
			sb.WriteString(`\u`)
		default:
			if next >= '0' && next <= '7' {
				j := i + 1
				for j < len(body) && j < i+4 && body[j] >= '0' && body[j] <= '7' {
					j++
				}
				n, _ := strconv.ParseUint(body[i+1:j], 8, 16)
				sb.WriteByte(byte(n))
				i = j - 1
				continue
			}
			sb.WriteByte('\\')
			sb.WriteByte(next)
		}
		i++
	}
	return sb.String()
}

func isHex(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// heredocBody extracts the string a heredoc or nowdoc denotes. The closing
// label's indentation is removed from every line.
func heredocBody(tok parser.Token) (any, error) {
	lit := tok.Literal
	nl := strings.IndexByte(lit, '\n')
	if nl < 0 {
		return nil, fmt.Errorf("heredoc on line %d: %w", tok.Line(), ErrUnsupportedExpression)
	}
	body := lit[nl+1:]
	last := strings.LastIndexByte(body, '\n')
	var closing string
	if last < 0 {
		closing, body = body, ""
	} else {
		closing, body = body[last+1:], body[:last]
	}
	indent := len(closing) - len(strings.TrimLeft(closing, " \t"))
	if indent > 0 {
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			n := 0
			for n < indent && n < len(line) && (line[n] == ' ' || line[n] == '\t') {
				n++
			}
			lines[i] = line[n:]
		}
		body = strings.Join(lines, "\n")
	}
	body = strings.TrimSuffix(body, "\r")

	if tok.Kind == parser.TokenNowdoc {
		return body, nil
	}
	if hasInterpolation(body) {
		return nil, fmt.Errorf("interpolated heredoc on line %d: %w", tok.Line(), ErrUnsupportedExpression)
	}
	return unescapeDouble(body), nil
}

func hasInterpolation(s string) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '$' && (s[i+1] == '{' || s[i+1] == '_' || s[i+1] >= 0x80 ||
			(s[i+1] >= 'a' && s[i+1] <= 'z') || (s[i+1] >= 'A' && s[i+1] <= 'Z')) {
			return true
		}
		if s[i] == '{' && s[i+1] == '$' {
			return true
		}
	}
	return false
}
