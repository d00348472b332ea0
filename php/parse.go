package php

import (
	"fmt"
	"strings"

	"github.com/dhamidi/phpreflect/php/parser"
)

type parseConfig struct {
	retainTokens bool
}

type ParseOption func(*parseConfig)

// RetainTokens keeps the token stream on the parsed File for later
// rendering.
func RetainTokens(retain bool) ParseOption {
	return func(c *parseConfig) {
		c.retainTokens = retain
	}
}

// ParseSource tokenizes and parses one file's source.
func ParseSource(name string, source []byte, storage Storage, opts ...ParseOption) (*File, error) {
	return ParseFile(parser.Tokenize(name, source), storage, opts...)
}

// ParseFile builds the reflection model of one token stream. Entities keep
// storage for resolving cross-references later. Any error is a *ParseError
// and nothing of the file should be registered.
func ParseFile(stream *parser.Stream, storage Storage, opts ...ParseOption) (*File, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	file := &File{name: stream.File()}
	p := &fileParser{s: stream, storage: storage, file: file, attrStart: -1}
	if err := stream.Seek(0); err != nil {
		return nil, err
	}
	if err := p.parse(); err != nil {
		return nil, err
	}

	if len(file.namespaces) == 0 {
		p.segment()
	}
	if len(file.namespaces) > 1 {
		kept := file.namespaces[:0]
		for _, ns := range file.namespaces {
			if ns.name == "" && ns.classes.len() == 0 && ns.functions.len() == 0 && ns.constants.len() == 0 {
				continue
			}
			kept = append(kept, ns)
		}
		file.namespaces = kept
	}
	if cfg.retainTokens {
		file.stream = stream
	}
	return file, nil
}

type fileParser struct {
	s       *parser.Stream
	storage Storage
	file    *File

	ns        *FileNamespace
	braced    bool
	nsEnd     int
	attrStart int
}

func (p *fileParser) errorAt(entity string, code ParseErrorCode, msg string) *ParseError {
	return &ParseError{
		Entity:   entity,
		File:     p.file.name,
		Position: p.s.Pos(),
		Line:     p.s.Current().Line(),
		Code:     code,
		Message:  msg,
	}
}

func (p *fileParser) unexpected(entity string) error {
	tok := p.s.Current()
	if tok.Kind == parser.TokenEOF {
		return p.errorAt(entity, UnexpectedEnd, "")
	}
	return p.errorAt(entity, UnexpectedToken, fmt.Sprintf("%q", tok.Literal))
}

func (p *fileParser) logical(entity, format string, args ...any) error {
	return p.errorAt(entity, LogicalError, fmt.Sprintf(format, args...))
}

// advance moves to the next significant token.
func (p *fileParser) advance(entity string) error {
	if err := p.s.NextSignificant(); err != nil {
		return p.errorAt(entity, UnexpectedEnd, "")
	}
	return nil
}

func (p *fileParser) expect(entity string, kind parser.TokenKind) error {
	if !p.s.Is(kind) {
		return p.unexpected(entity)
	}
	return nil
}

// skipBracket moves from an opening bracket to its counterpart.
func (p *fileParser) skipBracket(entity string) error {
	if err := p.s.FindMatchingBracket(); err != nil {
		return p.errorAt(entity, UnexpectedEnd, err.Error())
	}
	return nil
}

func (p *fileParser) nextSig(i int) int {
	i++
	for i < p.s.Len()-1 && p.s.At(i).IsWhitespace(true) {
		i++
	}
	return i
}

func (p *fileParser) prevSig(i int) parser.Token {
	return p.s.At(p.s.PrevSignificant(i))
}

// docBefore returns the doc-comment directly preceding pos, skipping
// whitespace and plain comments.
func (p *fileParser) docBefore(pos int) string {
	for i := pos - 1; i >= 0; i-- {
		tok := p.s.At(i)
		switch tok.Kind {
		case parser.TokenWhitespace, parser.TokenComment:
			continue
		case parser.TokenDocComment:
			return tok.Literal
		}
		return ""
	}
	return ""
}

// declPositions returns where a declaration starts and where its
// doc-comment lookup begins, given its first modifier and first attribute.
func (p *fileParser) declPositions(first, attr int) (start, docPos int) {
	start = first
	if start < 0 {
		start = p.s.Pos()
	}
	docPos = start
	if attr >= 0 && attr < docPos {
		docPos = attr
	}
	return start, docPos
}

// segment returns the current namespace segment, opening the global one
// when code appears outside any namespace block.
func (p *fileParser) segment() *FileNamespace {
	if p.ns == nil {
		p.openSegment("")
	}
	return p.ns
}

func (p *fileParser) openSegment(name string) *FileNamespace {
	p.ns = newFileNamespace(name, p.file.name)
	p.file.namespaces = append(p.file.namespaces, p.ns)
	return p.ns
}

func (p *fileParser) context() *Context {
	seg := p.segment()
	return &Context{
		Storage:   p.storage,
		File:      p.file.name,
		Namespace: seg.name,
		Imports:   seg.imports,
	}
}

func (p *fileParser) resolveClassName(name string) string {
	seg := p.segment()
	return ResolveClassName(name, seg.name, seg.imports)
}

// readName reads a possibly qualified name and stops on the token after it.
// It does not consume the separator of a group use prefix.
func (p *fileParser) readName(entity string) (string, error) {
	s := p.s
	var sb strings.Builder
	if s.Is(parser.TokenNsSeparator) {
		sb.WriteString(`\`)
		if err := p.advance(entity); err != nil {
			return "", err
		}
	}
	for {
		tok := s.Current()
		if !tok.IsName() {
			return "", p.unexpected(entity)
		}
		sb.WriteString(tok.Literal)
		if err := p.advance(entity); err != nil {
			return "", err
		}
		if !s.Is(parser.TokenNsSeparator) || s.At(s.PeekSignificant()).Kind == parser.TokenLBrace {
			return sb.String(), nil
		}
		sb.WriteString(`\`)
		if err := p.advance(entity); err != nil {
			return "", err
		}
	}
}

func (p *fileParser) readNameList(entity string) ([]string, error) {
	var names []string
	for {
		name, err := p.readName(entity)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if !p.s.Is(parser.TokenComma) {
			return names, nil
		}
		if err := p.advance(entity); err != nil {
			return nil, err
		}
	}
}

// capture records a value span up to the first stop token at bracket depth
// zero, which it leaves current.
func (p *fileParser) capture(entity string, stops ...parser.TokenKind) ([]parser.Token, error) {
	s := p.s
	start := s.Pos()
	for {
		tok := s.Current()
		if tok.Kind == parser.TokenEOF {
			return nil, p.unexpected(entity)
		}
		stop := false
		for _, kind := range stops {
			if tok.Kind == kind {
				stop = true
			}
		}
		if stop {
			break
		}
		switch tok.Kind {
		case parser.TokenLParen, parser.TokenLBrace, parser.TokenLBracket, parser.TokenAttributeStart:
			if err := p.skipBracket(entity); err != nil {
				return nil, err
			}
		case parser.TokenRParen, parser.TokenRBrace, parser.TokenRBracket:
			return nil, p.unexpected(entity)
		}
		if err := s.Next(); err != nil {
			return nil, p.errorAt(entity, UnexpectedEnd, "")
		}
	}
	tokens := trimWhitespace(s.Slice(start, s.Pos()))
	if len(tokens) == 0 {
		return nil, p.logical(entity, "missing value")
	}
	return append([]parser.Token(nil), tokens...), nil
}

func trimWhitespace(tokens []parser.Token) []parser.Token {
	for len(tokens) > 0 && tokens[0].IsWhitespace(true) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].IsWhitespace(true) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func (p *fileParser) parse() error {
	s := p.s
	p.parseFileDocComment()

	for !s.AtEOF() {
		if p.braced && s.Pos() == p.nsEnd {
			p.ns = nil
			p.braced = false
			if err := s.Next(); err != nil {
				return err
			}
			continue
		}

		tok := s.Current()
		var err error
		switch tok.Kind {
		case parser.TokenNamespace:
			if s.At(s.PeekSignificant()).Kind == parser.TokenNsSeparator {
				err = s.Next()
			} else {
				err = p.parseNamespace()
			}
		case parser.TokenUse:
			if p.prevSig(s.Pos()).Kind == parser.TokenRParen {
				err = s.Next()
			} else {
				err = p.parseUse()
			}
		case parser.TokenAbstract, parser.TokenFinal, parser.TokenReadonly,
			parser.TokenClass, parser.TokenInterface, parser.TokenTrait:
			if p.startsClass() {
				err = p.parseClass()
			} else {
				err = s.Next()
			}
		case parser.TokenFunction:
			if p.startsFunction() {
				err = p.parseFunction()
			} else {
				err = s.Next()
			}
		case parser.TokenConst:
			err = p.parseConstants()
		case parser.TokenIdent:
			if strings.EqualFold(tok.Literal, "define") && p.startsDefine() {
				err = p.parseDefine()
			} else {
				err = s.Next()
			}
		case parser.TokenAttributeStart:
			if p.attrStart < 0 {
				p.attrStart = s.Pos()
			}
			if err = p.skipBracket("attribute"); err == nil {
				err = s.Next()
			}
		case parser.TokenLParen, parser.TokenLBrace, parser.TokenLBracket:
			if err = p.skipBracket("file"); err == nil {
				err = s.Next()
			}
		case parser.TokenRParen, parser.TokenRBrace, parser.TokenRBracket:
			err = p.unexpected("file")
		default:
			err = s.Next()
		}
		if err != nil {
			return err
		}
		if tok.Kind != parser.TokenAttributeStart && !tok.IsWhitespace(true) {
			p.attrStart = -1
		}
	}
	if p.braced {
		return p.errorAt("namespace "+p.ns.name, UnexpectedEnd, "")
	}
	return nil
}

// parseFileDocComment takes the first doc-comment after the opening tag as
// the file's, unless it documents a declaration.
func (p *fileParser) parseFileDocComment() {
	s := p.s
	i := 0
	for i < s.Len() && s.At(i).Kind == parser.TokenInlineHTML {
		i++
	}
	if s.At(i).Kind != parser.TokenOpenTag {
		return
	}
	j := i + 1
	for j < s.Len()-1 && (s.At(j).Kind == parser.TokenWhitespace || s.At(j).Kind == parser.TokenComment) {
		j++
	}
	if s.At(j).Kind != parser.TokenDocComment {
		return
	}
	switch s.At(p.nextSig(j)).Kind {
	case parser.TokenClass, parser.TokenInterface, parser.TokenTrait, parser.TokenAbstract,
		parser.TokenFinal, parser.TokenReadonly, parser.TokenFunction, parser.TokenConst,
		parser.TokenAttributeStart:
		return
	}
	p.file.docComment = s.At(j).Literal
}

func (p *fileParser) startsClass() bool {
	s := p.s
	switch p.prevSig(s.Pos()).Kind {
	case parser.TokenDoubleColon, parser.TokenObjectOperator, parser.TokenNew:
		return false
	}
	for i := s.Pos(); ; i = p.nextSig(i) {
		switch s.At(i).Kind {
		case parser.TokenAbstract, parser.TokenFinal, parser.TokenReadonly:
			continue
		case parser.TokenClass, parser.TokenInterface, parser.TokenTrait:
			return s.At(p.nextSig(i)).IsName()
		}
		return false
	}
}

func (p *fileParser) startsFunction() bool {
	s := p.s
	switch p.prevSig(s.Pos()).Kind {
	case parser.TokenDoubleColon, parser.TokenObjectOperator, parser.TokenUse, parser.TokenConst:
		return false
	}
	i := p.nextSig(s.Pos())
	if s.At(i).Kind == parser.TokenAmpersand {
		i = p.nextSig(i)
	}
	if !s.At(i).IsName() {
		return false
	}
	return s.At(p.nextSig(i)).Kind == parser.TokenLParen
}

func (p *fileParser) startsDefine() bool {
	s := p.s
	switch p.prevSig(s.Pos()).Kind {
	case parser.TokenDoubleColon, parser.TokenObjectOperator, parser.TokenFunction,
		parser.TokenNew, parser.TokenConst:
		return false
	}
	return s.At(p.nextSig(s.Pos())).Kind == parser.TokenLParen
}

// parseNamespace opens a segment for `namespace N;` or a braced block.
func (p *fileParser) parseNamespace() error {
	const entity = "namespace"
	s := p.s
	doc := p.docBefore(s.Pos())
	if p.braced {
		return p.logical(entity, "namespace declarations cannot be nested")
	}
	if err := p.advance(entity); err != nil {
		return err
	}
	name := ""
	if !s.Is(parser.TokenLBrace) {
		n, err := p.readName(entity)
		if err != nil {
			return err
		}
		name = TrimName(n)
	}

	switch s.Current().Kind {
	case parser.TokenSemicolon:
		p.openSegment(name).docComment = doc
		return s.Next()
	case parser.TokenLBrace:
		open := s.Pos()
		if err := p.skipBracket(entity); err != nil {
			return err
		}
		p.nsEnd = s.Pos()
		if err := s.Seek(open); err != nil {
			return err
		}
		p.braced = true
		p.openSegment(name).docComment = doc
		return s.Next()
	}
	return p.unexpected(entity)
}

type useKind int

const (
	useClass useKind = iota
	useFunction
	useConst
)

// parseUse reads an import statement into the current segment's alias
// table: single, multiple and grouped forms, optionally of functions or
// constants.
func (p *fileParser) parseUse() error {
	const entity = "use statement"
	s := p.s
	imports := p.segment().imports
	if err := p.advance(entity); err != nil {
		return err
	}
	kind := useClass
	switch s.Current().Kind {
	case parser.TokenFunction:
		kind = useFunction
	case parser.TokenConst:
		kind = useConst
	}
	if kind != useClass {
		if err := p.advance(entity); err != nil {
			return err
		}
	}

	for {
		name, err := p.readName(entity)
		if err != nil {
			return err
		}
		if s.Is(parser.TokenNsSeparator) {
			if err := p.parseGroupUse(imports, kind, TrimName(name)); err != nil {
				return err
			}
		} else {
			alias, err := p.readAlias(entity, name)
			if err != nil {
				return err
			}
			addImport(imports, kind, name, alias)
		}

		switch s.Current().Kind {
		case parser.TokenComma:
			if err := p.advance(entity); err != nil {
				return err
			}
		case parser.TokenSemicolon:
			return s.Next()
		default:
			return p.unexpected(entity)
		}
	}
}

func (p *fileParser) parseGroupUse(imports *Imports, kind useKind, prefix string) error {
	const entity = "use statement"
	s := p.s
	if err := p.advance(entity); err != nil {
		return err
	}
	if err := p.expect(entity, parser.TokenLBrace); err != nil {
		return err
	}
	if err := p.advance(entity); err != nil {
		return err
	}
	for !s.Is(parser.TokenRBrace) {
		itemKind := kind
		switch s.Current().Kind {
		case parser.TokenFunction:
			itemKind = useFunction
		case parser.TokenConst:
			itemKind = useConst
		}
		if itemKind != kind {
			if err := p.advance(entity); err != nil {
				return err
			}
		}
		item, err := p.readName(entity)
		if err != nil {
			return err
		}
		alias, err := p.readAlias(entity, item)
		if err != nil {
			return err
		}
		addImport(imports, itemKind, prefix+`\`+item, alias)
		if s.Is(parser.TokenComma) {
			if err := p.advance(entity); err != nil {
				return err
			}
			continue
		}
		if !s.Is(parser.TokenRBrace) {
			return p.unexpected(entity)
		}
	}
	return p.advance(entity)
}

func (p *fileParser) readAlias(entity, name string) (string, error) {
	s := p.s
	if !s.Is(parser.TokenAs) {
		_, short := SplitName(name)
		return short, nil
	}
	if err := p.advance(entity); err != nil {
		return "", err
	}
	if !s.Current().IsName() {
		return "", p.unexpected(entity)
	}
	alias := s.Current().Literal
	return alias, p.advance(entity)
}

func addImport(imports *Imports, kind useKind, name, alias string) {
	switch kind {
	case useFunction:
		imports.AddFunction(alias, name)
	case useConst:
		imports.AddConstant(alias, name)
	default:
		imports.AddClass(alias, name)
	}
}

// parseFunction reads a free function declaration and skips its body.
func (p *fileParser) parseFunction() error {
	s := p.s
	start, docPos := p.declPositions(-1, p.attrStart)
	doc := p.docBefore(docPos)
	seg := p.segment()

	if err := p.advance("function"); err != nil {
		return err
	}
	byRef := false
	if s.Is(parser.TokenAmpersand) {
		byRef = true
		if err := p.advance("function"); err != nil {
			return err
		}
	}
	short := s.Current().Literal
	fqn := JoinName(seg.name, short)
	entity := "function " + fqn

	f := &FunctionModel{shortName: short, namespace: seg.name}
	f.functionDecl = functionDecl{
		name:       fqn,
		byRef:      byRef,
		docComment: doc,
		fileName:   p.file.name,
		startLine:  s.At(start).Line(),
	}
	ctx := p.context()
	ctx.Function = fqn

	if err := p.advance(entity); err != nil {
		return err
	}
	if err := p.parseParameters(&f.functionDecl, ctx, nil, entity); err != nil {
		return err
	}
	returnType, err := p.parseReturnType(nil, entity)
	if err != nil {
		return err
	}
	f.returnType = returnType

	if err := p.expect(entity, parser.TokenLBrace); err != nil {
		return err
	}
	if err := p.skipBracket(entity); err != nil {
		return err
	}
	f.endLine = s.Current().Line()
	seg.addFunction(f)
	return s.Next()
}

// parseParameters reads a parameter list from its opening parenthesis and
// moves past the closing one.
func (p *fileParser) parseParameters(fn *functionDecl, ctx *Context, class *ClassModel, entity string) error {
	s := p.s
	if err := p.expect(entity, parser.TokenLParen); err != nil {
		return err
	}
	if err := p.advance(entity); err != nil {
		return err
	}
	for !s.Is(parser.TokenRParen) {
		prm := &ParameterModel{position: len(fn.params), owner: fn}
		if class != nil {
			prm.class = class.name
		}

	prefix:
		for {
			switch s.Current().Kind {
			case parser.TokenAttributeStart:
				if err := p.skipBracket(entity); err != nil {
					return err
				}
			case parser.TokenPublic, parser.TokenProtected, parser.TokenPrivate:
				if prm.promotedMods&AccessMask != 0 {
					return p.logical(entity, "multiple access modifiers on a parameter")
				}
				prm.promoted = true
				prm.promotedMods |= accessModifier(s.Current().Kind)
			case parser.TokenReadonly:
				prm.promoted = true
				prm.promotedMods |= ModifierReadonly
			default:
				break prefix
			}
			if err := p.advance(entity); err != nil {
				return err
			}
		}
		if prm.promoted {
			if class == nil || !strings.EqualFold(fn.name, "__construct") {
				return p.logical(entity, "cannot declare a promoted property outside a constructor")
			}
			if prm.promotedMods&AccessMask == 0 {
				prm.promotedMods |= ModifierPublic
			}
		}

		td, err := p.resolveType(p.collectType(), class, entity)
		if err != nil {
			return err
		}
		prm.typeKind, prm.typeHint, prm.nullable = td.kind, td.String(), td.nullable

		if s.Is(parser.TokenAmpersand) {
			prm.byRef = true
			if err := p.advance(entity); err != nil {
				return err
			}
		}
		if s.Is(parser.TokenEllipsis) {
			prm.variadic = true
			if err := p.advance(entity); err != nil {
				return err
			}
		}
		if err := p.expect(entity, parser.TokenVariable); err != nil {
			return err
		}
		prm.name = strings.TrimPrefix(s.Current().Literal, "$")
		for _, other := range fn.params {
			if other.name == prm.name {
				return p.logical(entity, "redefinition of parameter $%s", prm.name)
			}
		}
		if err := p.advance(entity); err != nil {
			return err
		}

		if s.Is(parser.TokenAssign) {
			if prm.variadic {
				return p.logical(entity, "variadic parameter $%s cannot have a default value", prm.name)
			}
			if err := p.advance(entity); err != nil {
				return err
			}
			tokens, err := p.capture(entity, parser.TokenComma, parser.TokenRParen)
			if err != nil {
				return err
			}
			prm.def = NewExpression(tokens, ctx)
		}
		fn.params = append(fn.params, prm)

		if s.Is(parser.TokenComma) {
			if err := p.advance(entity); err != nil {
				return err
			}
			continue
		}
		if !s.Is(parser.TokenRParen) {
			return p.unexpected(entity)
		}
	}
	return p.advance(entity)
}

// parseReturnType reads an optional `: type` clause.
func (p *fileParser) parseReturnType(class *ClassModel, entity string) (string, error) {
	if !p.s.Is(parser.TokenColon) {
		return "", nil
	}
	if err := p.advance(entity); err != nil {
		return "", err
	}
	text := p.collectType()
	if text == "" {
		return "", p.unexpected(entity)
	}
	td, err := p.resolveType(text, class, entity)
	if err != nil {
		return "", err
	}
	return td.String(), nil
}

// parseConstants reads `const A = 1, B = 2;` outside a class.
func (p *fileParser) parseConstants() error {
	const entity = "constant"
	s := p.s
	start, docPos := p.declPositions(-1, p.attrStart)
	doc := p.docBefore(docPos)
	seg := p.segment()
	ctx := p.context()

	if err := p.advance(entity); err != nil {
		return err
	}
	for {
		if !s.Current().IsName() {
			return p.unexpected(entity)
		}
		k := &ConstantModel{
			name:       s.Current().Literal,
			namespace:  seg.name,
			docComment: doc,
			fileName:   p.file.name,
			startLine:  s.At(start).Line(),
		}
		if err := p.advance(entity); err != nil {
			return err
		}
		if err := p.expect(entity, parser.TokenAssign); err != nil {
			return err
		}
		if err := p.advance(entity); err != nil {
			return err
		}
		tokens, err := p.capture(entity, parser.TokenComma, parser.TokenSemicolon)
		if err != nil {
			return err
		}
		k.value = NewExpression(tokens, ctx)
		k.endLine = s.Current().Line()
		seg.addConstant(k)

		if s.Is(parser.TokenSemicolon) {
			return s.Next()
		}
		if err := p.advance(entity); err != nil {
			return err
		}
	}
}

// parseDefine reads define('NAME', value). Calls whose name is not a plain
// string literal are skipped.
func (p *fileParser) parseDefine() error {
	const entity = "define()"
	s := p.s
	start := s.Pos()
	doc := p.docBefore(start)
	if err := p.advance(entity); err != nil {
		return err
	}
	open := s.Pos()
	skip := func() error {
		if err := s.Seek(open); err != nil {
			return err
		}
		if err := p.skipBracket(entity); err != nil {
			return err
		}
		return s.Next()
	}

	if err := p.advance(entity); err != nil {
		return err
	}
	if !s.Is(parser.TokenStringLiteral) {
		return skip()
	}
	v, err := NewExpression([]parser.Token{s.Current()}, nil).Value()
	name, _ := v.(string)
	name = TrimName(name)
	if err != nil || name == "" {
		return skip()
	}
	if err := p.advance(entity); err != nil {
		return err
	}
	if !s.Is(parser.TokenComma) {
		return skip()
	}
	if err := p.advance(entity); err != nil {
		return err
	}
	tokens, err := p.capture(entity, parser.TokenComma, parser.TokenRParen)
	if err != nil {
		return err
	}

	ns, short := SplitName(name)
	k := &ConstantModel{
		name:       short,
		namespace:  ns,
		value:      NewExpression(tokens, p.context()),
		docComment: doc,
		fileName:   p.file.name,
		startLine:  s.At(start).Line(),
	}
	if err := s.Seek(open); err != nil {
		return err
	}
	if err := p.skipBracket(entity); err != nil {
		return err
	}
	k.endLine = s.Current().Line()
	p.segment().addConstant(k)
	return s.Next()
}

// collectType reads a declared type: a name, a nullable name, or a union,
// intersection or DNF combination of names.
func (p *fileParser) collectType() string {
	s := p.s
	var sb strings.Builder
	wantName := true
	for {
		tok := s.Current()
		switch {
		case tok.Kind == parser.TokenQuestion && sb.Len() == 0:
		case tok.Kind == parser.TokenLParen && wantName:
		case tok.Kind == parser.TokenNsSeparator:
			wantName = true
		case tok.IsName() && wantName:
			wantName = false
		case tok.Kind == parser.TokenPipe && !wantName:
			wantName = true
		case tok.Kind == parser.TokenAmpersand && !wantName:
			next := s.At(p.nextSig(s.Pos())).Kind
			if next == parser.TokenVariable || next == parser.TokenEllipsis {
				return sb.String()
			}
			wantName = true
		case tok.Kind == parser.TokenRParen && !wantName:
		default:
			return sb.String()
		}
		sb.WriteString(tok.Literal)
		if err := s.NextSignificant(); err != nil {
			return sb.String()
		}
	}
}

type typeDecl struct {
	kind     TypeKind
	hint     string
	nullable bool
}

func (t typeDecl) String() string {
	if t.nullable && !strings.ContainsAny(t.hint, "|&") {
		switch strings.ToLower(t.hint) {
		case "null", "mixed":
			return t.hint
		}
		return "?" + t.hint
	}
	return t.hint
}

// resolveType classifies a declared type and resolves the class names in it.
func (p *fileParser) resolveType(text string, class *ClassModel, entity string) (typeDecl, error) {
	if text == "" {
		return typeDecl{}, nil
	}
	nullable := strings.HasPrefix(text, "?")
	base := strings.TrimPrefix(text, "?")
	if !strings.ContainsAny(base, "|&()") {
		hint, kind, err := p.resolveTypeName(base, class, entity)
		if err != nil {
			return typeDecl{}, err
		}
		lower := strings.ToLower(base)
		return typeDecl{kind: kind, hint: hint, nullable: nullable || lower == "null" || lower == "mixed"}, nil
	}

	var sb, name strings.Builder
	flush := func() error {
		if name.Len() == 0 {
			return nil
		}
		hint, _, err := p.resolveTypeName(name.String(), class, entity)
		if err != nil {
			return err
		}
		if strings.EqualFold(hint, "null") {
			nullable = true
		}
		sb.WriteString(hint)
		name.Reset()
		return nil
	}
	for i := 0; i < len(base); i++ {
		switch ch := base[i]; ch {
		case '|', '&', '(', ')':
			if err := flush(); err != nil {
				return typeDecl{}, err
			}
			sb.WriteByte(ch)
		default:
			name.WriteByte(ch)
		}
	}
	if err := flush(); err != nil {
		return typeDecl{}, err
	}
	return typeDecl{kind: TypeScalar, hint: sb.String(), nullable: nullable}, nil
}

func (p *fileParser) resolveTypeName(name string, class *ClassModel, entity string) (string, TypeKind, error) {
	lower := strings.ToLower(name)
	switch lower {
	case "array":
		return "array", TypeArray, nil
	case "callable":
		return "callable", TypeCallable, nil
	case "static":
		return "static", TypeScalar, nil
	case "self":
		if class == nil {
			return "", TypeNone, p.logical(entity, "cannot use self outside of a class")
		}
		if class.IsTrait() {
			return "self", TypeScalar, nil
		}
		return class.name, TypeClass, nil
	case "parent":
		if class == nil {
			return "", TypeNone, p.logical(entity, "cannot use parent outside of a class")
		}
		if class.IsTrait() {
			return "parent", TypeScalar, nil
		}
		if class.parent == "" {
			return "", TypeNone, p.logical(entity, "cannot use parent when %s has no parent", class.name)
		}
		return class.parent, TypeClass, nil
	}
	if builtinTypes[lower] {
		return lower, TypeScalar, nil
	}
	return p.resolveClassName(name), TypeClass, nil
}

func accessModifier(kind parser.TokenKind) int {
	switch kind {
	case parser.TokenPublic:
		return ModifierPublic
	case parser.TokenProtected:
		return ModifierProtected
	case parser.TokenPrivate:
		return ModifierPrivate
	}
	return 0
}
