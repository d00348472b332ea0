package php

import (
	"strings"

	"github.com/dhamidi/phpreflect/php/parser"
)

// parseClass reads a class, interface or trait declaration including its
// leading modifiers and registers it with the current segment.
func (p *fileParser) parseClass() error {
	s := p.s
	start, docPos := p.declPositions(-1, p.attrStart)
	doc := p.docBefore(docPos)
	startLine := s.At(start).Line()

	mods := 0
	for done := false; !done; {
		switch s.Current().Kind {
		case parser.TokenAbstract:
			mods |= ClassExplicitAbstract
		case parser.TokenFinal:
			mods |= ClassFinal
		case parser.TokenReadonly:
		default:
			done = true
			continue
		}
		if err := p.advance("class"); err != nil {
			return err
		}
	}

	var kind ClassKind
	switch s.Current().Kind {
	case parser.TokenClass:
		kind = ClassKindClass
	case parser.TokenInterface:
		kind = ClassKindInterface
	case parser.TokenTrait:
		kind = ClassKindTrait
	default:
		return p.unexpected("class")
	}
	if kind != ClassKindClass && mods != 0 {
		return p.logical(string(kind), "%s declarations cannot be abstract or final", kind)
	}
	if err := p.advance(string(kind)); err != nil {
		return err
	}
	if !s.Current().IsName() {
		return p.unexpected(string(kind))
	}

	c := newClassModel(p.context(), kind, s.Current().Literal)
	c.modifiers |= mods
	c.docComment = doc
	c.startLine = startLine
	entity := string(kind) + " " + c.name
	if mods&(ClassExplicitAbstract|ClassFinal) == ClassExplicitAbstract|ClassFinal {
		return p.logical(entity, "cannot use the final modifier on an abstract class")
	}

	if err := p.advance(entity); err != nil {
		return err
	}
	if s.Is(parser.TokenExtends) {
		if kind == ClassKindTrait {
			return p.logical(entity, "traits cannot extend other classes")
		}
		if err := p.advance(entity); err != nil {
			return err
		}
		names, err := p.readNameList(entity)
		if err != nil {
			return err
		}
		if kind == ClassKindClass {
			if len(names) != 1 {
				return p.logical(entity, "a class can extend only one class")
			}
			c.parent = p.resolveClassName(names[0])
		} else {
			for _, name := range names {
				c.interfaces = append(c.interfaces, p.resolveClassName(name))
			}
		}
	}
	if s.Is(parser.TokenImplements) {
		if kind != ClassKindClass {
			return p.logical(entity, "%s declarations cannot implement interfaces", kind)
		}
		if err := p.advance(entity); err != nil {
			return err
		}
		names, err := p.readNameList(entity)
		if err != nil {
			return err
		}
		for _, name := range names {
			c.interfaces = append(c.interfaces, p.resolveClassName(name))
		}
	}

	if err := p.expect(entity, parser.TokenLBrace); err != nil {
		return err
	}
	if err := p.parseClassBody(c, entity); err != nil {
		return err
	}
	p.segment().addClass(c)
	return nil
}

// parseClassBody reads members from the opening brace to the closing one.
func (p *fileParser) parseClassBody(c *ClassModel, entity string) error {
	s := p.s
	if err := p.advance(entity); err != nil {
		return err
	}

	mods, first, attr, typ := 0, -1, -1, ""
	reset := func() { mods, first, attr, typ = 0, -1, -1, "" }
	mark := func() {
		if first < 0 {
			first = s.Pos()
		}
	}
	modifier := func(bit int) error {
		if mods&bit != 0 {
			return p.logical(entity, "multiple %q modifiers", s.Current().Literal)
		}
		mods |= bit
		mark()
		return p.advance(entity)
	}

	for {
		tok := s.Current()
		var err error
		switch tok.Kind {
		case parser.TokenRBrace:
			if first >= 0 || typ != "" {
				return p.unexpected(entity)
			}
			c.endLine = tok.Line()
			return s.Next()
		case parser.TokenEOF:
			return p.unexpected(entity)
		case parser.TokenUse:
			err = p.parseTraitUse(c, entity)
			reset()
		case parser.TokenAttributeStart:
			if attr < 0 && first < 0 {
				attr = s.Pos()
			}
			if err = p.skipBracket(entity); err == nil {
				err = p.advance(entity)
			}
		case parser.TokenPublic, parser.TokenProtected, parser.TokenPrivate, parser.TokenVar:
			if mods&AccessMask != 0 {
				return p.logical(entity, "multiple access type modifiers are not allowed")
			}
			bit := accessModifier(tok.Kind)
			if tok.Kind == parser.TokenVar {
				bit = ModifierPublic
			}
			err = modifier(bit)
		case parser.TokenStatic:
			err = modifier(ModifierStatic)
		case parser.TokenAbstract:
			err = modifier(ModifierAbstract)
		case parser.TokenFinal:
			err = modifier(ModifierFinal)
		case parser.TokenReadonly:
			err = modifier(ModifierReadonly)
		case parser.TokenConst:
			err = p.parseClassConstants(c, mods, first, attr)
			reset()
		case parser.TokenFunction:
			err = p.parseMethod(c, mods, first, attr)
			reset()
		case parser.TokenVariable:
			err = p.parseProperties(c, mods, typ, first, attr)
			reset()
		case parser.TokenQuestion, parser.TokenNsSeparator, parser.TokenIdent,
			parser.TokenArray, parser.TokenCallable, parser.TokenLParen:
			if typ != "" {
				return p.unexpected(entity)
			}
			mark()
			typ = p.collectType()
			if !s.Is(parser.TokenVariable) {
				return p.unexpected(entity)
			}
		case parser.TokenSemicolon:
			err = p.advance(entity)
		default:
			return p.unexpected(entity)
		}
		if err != nil {
			return err
		}
	}
}

// parseTraitUse reads `use A, B;` or `use A, B { ... }` inside a class body
// and records the alias and exclusion rules.
func (p *fileParser) parseTraitUse(c *ClassModel, entity string) error {
	s := p.s
	if err := p.advance(entity); err != nil {
		return err
	}
	names, err := p.readNameList(entity)
	if err != nil {
		return err
	}
	for _, name := range names {
		c.traits = append(c.traits, p.resolveClassName(name))
	}
	if s.Is(parser.TokenSemicolon) {
		return p.advance(entity)
	}
	if err := p.expect(entity, parser.TokenLBrace); err != nil {
		return err
	}
	if err := p.advance(entity); err != nil {
		return err
	}

	for !s.Is(parser.TokenRBrace) {
		if s.AtEOF() {
			return p.unexpected(entity)
		}
		name, err := p.readName(entity)
		if err != nil {
			return err
		}
		trait, method := "", name
		if s.Is(parser.TokenDoubleColon) {
			trait = p.resolveClassName(name)
			if err := p.advance(entity); err != nil {
				return err
			}
			if !s.Current().IsName() {
				return p.unexpected(entity)
			}
			method = s.Current().Literal
			if err := p.advance(entity); err != nil {
				return err
			}
		}

		switch s.Current().Kind {
		case parser.TokenAs:
			if err := p.advance(entity); err != nil {
				return err
			}
			var rule TraitRule
			if access := accessModifier(s.Current().Kind); access != 0 {
				rule.Access = access
				if err := p.advance(entity); err != nil {
					return err
				}
			}
			if !s.Is(parser.TokenSemicolon) {
				if !s.Current().IsName() {
					return p.unexpected(entity)
				}
				rule.Alias = s.Current().Literal
				if err := p.advance(entity); err != nil {
					return err
				}
			}
			if rule.Access == 0 && rule.Alias == "" {
				return p.logical(entity, "trait alias for %s needs a name or a visibility", method)
			}
			c.addTraitRule(traitRuleKey(trait, method), rule)
		case parser.TokenInsteadof:
			if trait == "" {
				return p.logical(entity, "insteadof needs a Trait::method reference")
			}
			if err := p.advance(entity); err != nil {
				return err
			}
			excluded, err := p.readNameList(entity)
			if err != nil {
				return err
			}
			for _, ex := range excluded {
				c.addTraitRule(traitRuleKey(p.resolveClassName(ex), method), TraitRule{Excluded: true})
			}
		default:
			return p.unexpected(entity)
		}
		if err := p.expect(entity, parser.TokenSemicolon); err != nil {
			return err
		}
		if err := p.advance(entity); err != nil {
			return err
		}
	}
	return p.advance(entity)
}

func (p *fileParser) parseMethod(c *ClassModel, mods, first, attr int) error {
	s := p.s
	start, docPos := p.declPositions(first, attr)
	doc := p.docBefore(docPos)
	classEntity := string(c.kind) + " " + c.name

	if err := p.advance(classEntity); err != nil {
		return err
	}
	byRef := false
	if s.Is(parser.TokenAmpersand) {
		byRef = true
		if err := p.advance(classEntity); err != nil {
			return err
		}
	}
	if !s.Current().IsName() {
		return p.unexpected(classEntity)
	}
	name := s.Current().Literal
	entity := "method " + c.name + "::" + name

	if c.HasOwnMethod(name) {
		return p.logical(entity, "cannot redeclare %s::%s()", c.name, name)
	}
	if mods&AccessMask == 0 {
		mods |= ModifierPublic
	}
	if mods&ModifierReadonly != 0 {
		return p.logical(entity, "methods cannot be readonly")
	}
	if mods&(ModifierAbstract|ModifierFinal) == ModifierAbstract|ModifierFinal {
		return p.logical(entity, "cannot use the final modifier on an abstract method")
	}
	if c.IsInterface() {
		if mods&(ModifierProtected|ModifierPrivate) != 0 {
			return p.logical(entity, "interface methods must be public")
		}
		mods |= ModifierAbstract
	}

	m := &MethodModel{class: c, modifiers: mods}
	m.functionDecl = functionDecl{
		name:       name,
		byRef:      byRef,
		docComment: doc,
		fileName:   c.fileName,
		startLine:  s.At(start).Line(),
	}
	ctx := *c.ctx
	ctx.Function = name

	if err := p.advance(entity); err != nil {
		return err
	}
	if err := p.parseParameters(&m.functionDecl, &ctx, c, entity); err != nil {
		return err
	}
	returnType, err := p.parseReturnType(c, entity)
	if err != nil {
		return err
	}
	m.returnType = returnType

	abstract := mods&ModifierAbstract != 0
	switch s.Current().Kind {
	case parser.TokenLBrace:
		if c.IsInterface() {
			return p.logical(entity, "interface method cannot contain a body")
		}
		if abstract {
			return p.logical(entity, "abstract method cannot contain a body")
		}
		if err := p.skipBracket(entity); err != nil {
			return err
		}
	case parser.TokenSemicolon:
		if !abstract {
			return p.logical(entity, "non-abstract method must contain a body")
		}
	default:
		return p.unexpected(entity)
	}
	m.endLine = s.Current().Line()
	c.addMethod(m)

	for _, prm := range m.params {
		if !prm.promoted {
			continue
		}
		if c.ownProperty(prm.name) != nil {
			return p.logical(entity, "cannot redeclare %s::$%s", c.name, prm.name)
		}
		c.properties = append(c.properties, &PropertyModel{
			name:      prm.name,
			class:     c,
			modifiers: prm.promotedMods,
			typeHint:  prm.typeHint,
			fileName:  c.fileName,
			startLine: m.startLine,
			endLine:   m.startLine,
		})
	}
	return p.advance(entity)
}

// parseProperties reads one property declaration, which may name several
// properties sharing modifiers, type and doc-comment.
func (p *fileParser) parseProperties(c *ClassModel, mods int, typ string, first, attr int) error {
	s := p.s
	start, docPos := p.declPositions(first, attr)
	doc := p.docBefore(docPos)
	entity := string(c.kind) + " " + c.name

	if c.IsInterface() {
		return p.logical(entity, "interfaces may not include properties")
	}
	if mods&ModifierAbstract != 0 {
		return p.logical(entity, "properties cannot be declared abstract")
	}
	if mods&AccessMask == 0 {
		mods |= ModifierPublic
	}
	td, err := p.resolveType(typ, c, entity)
	if err != nil {
		return err
	}

	for {
		name := strings.TrimPrefix(s.Current().Literal, "$")
		if c.ownProperty(name) != nil {
			return p.logical(entity, "cannot redeclare %s::$%s", c.name, name)
		}
		prop := &PropertyModel{
			name:       name,
			class:      c,
			modifiers:  mods,
			typeHint:   td.String(),
			docComment: doc,
			fileName:   c.fileName,
			startLine:  s.At(start).Line(),
		}
		if err := p.advance(entity); err != nil {
			return err
		}
		if s.Is(parser.TokenAssign) {
			if err := p.advance(entity); err != nil {
				return err
			}
			tokens, err := p.capture(entity, parser.TokenComma, parser.TokenSemicolon)
			if err != nil {
				return err
			}
			prop.def = NewExpression(tokens, c.ctx)
		}
		prop.endLine = s.Current().Line()
		c.properties = append(c.properties, prop)

		switch s.Current().Kind {
		case parser.TokenSemicolon:
			return p.advance(entity)
		case parser.TokenComma:
			if err := p.advance(entity); err != nil {
				return err
			}
			if err := p.expect(entity, parser.TokenVariable); err != nil {
				return err
			}
		default:
			return p.unexpected(entity)
		}
	}
}

// parseClassConstants reads `const A = 1, B = 2;` inside a class body,
// with an optional declared type.
func (p *fileParser) parseClassConstants(c *ClassModel, mods, first, attr int) error {
	s := p.s
	start, docPos := p.declPositions(first, attr)
	doc := p.docBefore(docPos)
	entity := string(c.kind) + " " + c.name

	if mods&(ModifierStatic|ModifierAbstract|ModifierReadonly) != 0 {
		return p.logical(entity, "invalid modifier on a class constant")
	}
	if mods&AccessMask == 0 {
		mods |= ModifierPublic
	}
	if err := p.advance(entity); err != nil {
		return err
	}
	if s.At(p.nextSig(s.Pos())).Kind != parser.TokenAssign {
		p.collectType()
	}

	for {
		if !s.Current().IsName() {
			return p.unexpected(entity)
		}
		name := s.Current().Literal
		if strings.EqualFold(name, "class") {
			return p.logical(entity, "a class constant must not be called 'class'")
		}
		if c.ownConstant(name) != nil {
			return p.logical(entity, "cannot redefine class constant %s::%s", c.name, name)
		}
		k := &ConstantModel{
			name:       name,
			namespace:  c.namespace,
			class:      c,
			modifiers:  mods,
			docComment: doc,
			fileName:   c.fileName,
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
		k.value = NewExpression(tokens, c.ctx)
		k.endLine = s.Current().Line()
		c.constants = append(c.constants, k)

		if s.Is(parser.TokenSemicolon) {
			return p.advance(entity)
		}
		if err := p.advance(entity); err != nil {
			return err
		}
	}
}
