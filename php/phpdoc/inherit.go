package phpdoc

import "strings"

// Tags a method inherits one by one when its own block lacks them.
var inheritedMethodTags = []string{"param", "return", "throws"}

// Inherit merges own with the already-resolved blocks of its parents, nearest
// first. A missing block, or one consisting only of an inherit marker, takes
// the first non-empty parent block whole. Otherwise inline {@inheritdoc}
// markers in the descriptions are replaced by the parent text, and for
// methods missing @param, @return and @throws tags are copied over.
func Inherit(own *DocBlock, parents []*DocBlock, method bool) *DocBlock {
	if own.InheritsAll() {
		for _, parent := range parents {
			if !parent.IsEmpty() {
				return parent.Clone()
			}
		}
		if own == nil {
			return nil
		}
		return own.Clone()
	}

	doc := own.Clone()
	if hasInlineInherit(doc.Short) {
		doc.Short = replaceInlineInherit(doc.Short, firstText(parents, func(p *DocBlock) string { return p.Short }))
	}
	if hasInlineInherit(doc.Long) {
		doc.Long = replaceInlineInherit(doc.Long, firstText(parents, func(p *DocBlock) string { return p.Long }))
	}

	if method {
		for _, name := range inheritedMethodTags {
			if doc.HasTag(name) {
				continue
			}
			for _, parent := range parents {
				if !parent.HasTag(name) {
					continue
				}
				for _, tag := range parent.Tags {
					if strings.EqualFold(tag.Name, name) {
						doc.Tags = append(doc.Tags, tag)
					}
				}
				break
			}
		}
	}
	return doc
}

func firstText(parents []*DocBlock, get func(*DocBlock) string) string {
	for _, parent := range parents {
		if parent == nil {
			continue
		}
		if text := get(parent); text != "" {
			return text
		}
	}
	return ""
}
