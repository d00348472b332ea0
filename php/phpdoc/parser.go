package phpdoc

import (
	"strings"
	"unicode"
)

// Parser is a line-oriented parser for doc-comments.
type Parser struct {
	lines []string
	pos   int
}

// Parse parses a raw doc-comment, framing included. It returns nil for an
// empty comment.
func Parse(comment string) *DocBlock {
	if strings.TrimSpace(comment) == "" {
		return nil
	}
	p := &Parser{lines: stripFraming(comment)}
	doc := p.parseDocBlock()
	doc.Raw = comment
	return doc
}

func (p *Parser) parseDocBlock() *DocBlock {
	doc := &DocBlock{}
	doc.Short = p.parseParagraph()
	doc.Long = p.parseLong()
	doc.Tags = p.parseTags()
	return doc
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.lines)
}

func (p *Parser) peek() string {
	if p.atEnd() {
		return ""
	}
	return p.lines[p.pos]
}

func (p *Parser) skipBlankLines() {
	for !p.atEnd() && strings.TrimSpace(p.peek()) == "" {
		p.pos++
	}
}

// parseParagraph reads lines up to a blank line or a tag line.
func (p *Parser) parseParagraph() string {
	p.skipBlankLines()
	var lines []string
	for !p.atEnd() {
		line := p.peek()
		if strings.TrimSpace(line) == "" || isTagLine(line) {
			break
		}
		lines = append(lines, line)
		p.pos++
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// parseLong reads everything up to the first tag line.
func (p *Parser) parseLong() string {
	var lines []string
	for !p.atEnd() && !isTagLine(p.peek()) {
		lines = append(lines, p.peek())
		p.pos++
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (p *Parser) parseTags() []Tag {
	var tags []Tag
	for !p.atEnd() {
		line := strings.TrimSpace(p.peek())
		p.pos++
		if !strings.HasPrefix(line, "@") {
			continue
		}
		name, value := splitTag(line[1:])
		var cont []string
		if value != "" {
			cont = append(cont, value)
		}
		for !p.atEnd() && !isTagLine(p.peek()) {
			cont = append(cont, strings.TrimSpace(p.peek()))
			p.pos++
		}
		tags = append(tags, Tag{Name: name, Value: strings.TrimSpace(strings.Join(cont, "\n"))})
	}
	return tags
}

func isTagLine(line string) bool {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	if !strings.HasPrefix(trimmed, "@") || len(trimmed) < 2 {
		return false
	}
	r := rune(trimmed[1])
	return unicode.IsLetter(r) || r == '_' || r == '\\'
}

func splitTag(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// stripFraming removes the comment delimiters and the leading asterisk of
// every line.
func stripFraming(comment string) []string {
	s := strings.TrimSpace(comment)
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimSuffix(s, "*/")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		if strings.HasPrefix(line, "*") {
			line = line[1:]
			if strings.HasPrefix(line, " ") {
				line = line[1:]
			}
		}
		lines = append(lines, strings.TrimRightFunc(line, unicode.IsSpace))
	}
	return lines
}
