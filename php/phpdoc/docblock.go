// Package phpdoc parses PHP doc-comments into a short description, a long
// description and @tag blocks, and merges inherited documentation.
package phpdoc

import (
	"strings"
)

// Tag is one @name block. Value holds the tag text with continuation lines
// joined by newlines.
type Tag struct {
	Name  string
	Value string
}

// DocBlock is a parsed doc-comment.
type DocBlock struct {
	Raw   string
	Short string
	Long  string
	Tags  []Tag
}

const inlineInherit = "{@inheritdoc}"

// Tag returns the values of every tag with the given name, in source order.
// Tag names compare case-insensitively.
func (d *DocBlock) Tag(name string) []string {
	if d == nil {
		return nil
	}
	var values []string
	for _, tag := range d.Tags {
		if strings.EqualFold(tag.Name, name) {
			values = append(values, tag.Value)
		}
	}
	return values
}

func (d *DocBlock) HasTag(name string) bool {
	if d == nil {
		return false
	}
	for _, tag := range d.Tags {
		if strings.EqualFold(tag.Name, name) {
			return true
		}
	}
	return false
}

// TagNames lists distinct tag names in order of first appearance.
func (d *DocBlock) TagNames() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, tag := range d.Tags {
		key := strings.ToLower(tag.Name)
		if !seen[key] {
			seen[key] = true
			names = append(names, tag.Name)
		}
	}
	return names
}

// IsEmpty reports whether the block carries no text and no tags.
func (d *DocBlock) IsEmpty() bool {
	return d == nil || (d.Short == "" && d.Long == "" && len(d.Tags) == 0)
}

// InheritsAll reports whether the block asks to take the whole parent block,
// which is the case when its only content is an inherit marker.
func (d *DocBlock) InheritsAll() bool {
	if d == nil {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(d.Short), inlineInherit) && d.Long == "" && len(d.Tags) == 0 {
		return true
	}
	if d.Short == "" && d.Long == "" && len(d.Tags) == 1 && strings.EqualFold(d.Tags[0].Name, "inheritdoc") {
		return true
	}
	return false
}

// Clone returns a deep copy of the block.
func (d *DocBlock) Clone() *DocBlock {
	if d == nil {
		return nil
	}
	c := *d
	c.Tags = append([]Tag(nil), d.Tags...)
	return &c
}

func hasInlineInherit(s string) bool {
	return strings.Contains(strings.ToLower(s), inlineInherit)
}

func replaceInlineInherit(s, with string) string {
	var sb strings.Builder
	lower := strings.ToLower(s)
	for {
		i := strings.Index(lower, inlineInherit)
		if i < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		sb.WriteString(s[:i])
		sb.WriteString(with)
		s = s[i+len(inlineInherit):]
		lower = lower[i+len(inlineInherit):]
	}
}
