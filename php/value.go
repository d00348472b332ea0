package php

import (
	"math"
	"strconv"
	"strings"

	"github.com/dhamidi/phpreflect/php/parser"
)

// Values produced by literal evaluation are nil, bool, int64, float64,
// string or *Array.

type ArrayEntry struct {
	Key   any
	Value any
}

// Array is an ordered PHP array. Keys are int64 or string.
type Array struct {
	Entries []ArrayEntry
	next    int64
}

func NewArray() *Array {
	return &Array{}
}

// NormalizeKey applies PHP's array key casts: decimal integer strings and
// bools become integers, floats are truncated and null becomes "".
func NormalizeKey(key any) any {
	switch k := key.(type) {
	case nil:
		return ""
	case bool:
		if k {
			return int64(1)
		}
		return int64(0)
	case int64:
		return k
	case int:
		return int64(k)
	case float64:
		return int64(k)
	case string:
		if isCanonicalInt(k) {
			if n, err := strconv.ParseInt(k, 10, 64); err == nil {
				return n
			}
		}
		return k
	}
	return key
}

func isCanonicalInt(s string) bool {
	if s == "" {
		return false
	}
	digits := s
	if s[0] == '-' {
		digits = s[1:]
	}
	if digits == "" || (len(digits) > 1 && digits[0] == '0') || (digits == "0" && s[0] == '-') {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// Set stores value under key, replacing an existing entry in place.
func (a *Array) Set(key, value any) {
	key = NormalizeKey(key)
	for i := range a.Entries {
		if a.Entries[i].Key == key {
			a.Entries[i].Value = value
			return
		}
	}
	a.Entries = append(a.Entries, ArrayEntry{Key: key, Value: value})
	if n, ok := key.(int64); ok && n >= a.next {
		a.next = n + 1
	}
}

// Append stores value under the next integer key.
func (a *Array) Append(value any) {
	a.Set(a.next, value)
}

func (a *Array) Get(key any) (any, bool) {
	key = NormalizeKey(key)
	for _, e := range a.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func (a *Array) Len() int {
	return len(a.Entries)
}

// ExportValue renders a value as PHP literal source that evaluates back to an
// equal value.
func ExportValue(v any) string {
	var sb strings.Builder
	exportValue(&sb, v)
	return sb.String()
}

func exportValue(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if x {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case int64:
		sb.WriteString(strconv.FormatInt(x, 10))
	case int:
		sb.WriteString(strconv.Itoa(x))
	case float64:
		sb.WriteString(exportFloat(x))
	case string:
		sb.WriteString(quoteString(x))
	case *Array:
		sb.WriteByte('[')
		for i, e := range x.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			exportValue(sb, e.Key)
			sb.WriteString(" => ")
			exportValue(sb, e.Value)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString("null")
	}
}

func exportFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '\'':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('\'')
	return sb.String()
}

// RenderTokens re-renders a captured span as normalized source: comments are
// dropped and whitespace runs collapse to one space.
func RenderTokens(tokens []parser.Token) string {
	var sb strings.Builder
	pendingSpace := false
	for _, tok := range tokens {
		if tok.IsWhitespace(true) {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteString(tok.Literal)
	}
	return sb.String()
}
