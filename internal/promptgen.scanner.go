package internal

import (
	"strings"
)

// Position represents a location in template text.
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string.
func (p Position) String() string {
	return "line " + itoa(p.Line) + ", column " + itoa(p.Column)
}

// SyntaxError represents a malformed placeholder token.
type SyntaxError struct {
	Message  string
	Token    string
	Position Position
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Token != "" {
		return e.Message + ": " + e.Token + " at " + e.Position.String()
	}
	return e.Message + " at " + e.Position.String()
}

// Placeholder is one {Name}, {Name[selector]}, or {Name with ...} token
// found in template text.
type Placeholder struct {
	// Name is the placeholder identifier
	Name string
	// Raw is the full token including braces, used for substitution
	Raw string
	// Selector is the raw selector text between brackets, empty if absent
	Selector string
	// Overrides holds parsed with-clause field overrides
	Overrides []FieldOverride
	// HasWith is true when the token carries a with-clause
	HasWith bool
	// Pos is the token's position in the scanned text
	Pos Position
}

// FieldOverride is one field=SOURCE[selector] item of a with-clause.
type FieldOverride struct {
	// Field is the dotted chunk field path being overridden
	Field string
	// Source is the name of the pool the override selects from
	Source string
	// Selector is the raw selector text, empty for the full pool
	Selector string
}

// ScanPlaceholders finds all placeholder tokens in text, in order of
// appearance. Brace pairs whose content does not form a valid placeholder
// name are ignored as literal text; a valid name followed by a malformed
// with-clause is a syntax error.
func ScanPlaceholders(text string) ([]Placeholder, error) {
	var out []Placeholder

	for i := 0; i < len(text); i++ {
		if text[i] != PlaceholderOpen {
			continue
		}
		end := strings.IndexByte(text[i+1:], PlaceholderClose)
		if end == -1 {
			break
		}
		// An inner open brace means the first one was literal text.
		inner := strings.IndexByte(text[i+1:i+1+end], PlaceholderOpen)
		if inner != -1 {
			i += inner
			continue
		}

		raw := text[i : i+end+2]
		content := text[i+1 : i+1+end]
		ph, ok, err := parsePlaceholder(content, raw, calculatePosition(text[:i]))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, ph)
		}
		i += end + 1
	}

	return out, nil
}

// parsePlaceholder interprets the content between a brace pair. The second
// return value is false when the content is not a placeholder at all.
func parsePlaceholder(content, raw string, pos Position) (Placeholder, bool, error) {
	// The name ends at the first selector bracket or space.
	cut := len(content)
	if idx := strings.IndexByte(content, SelectorOpen); idx != -1 && idx < cut {
		cut = idx
	}
	if idx := strings.IndexByte(content, ' '); idx != -1 && idx < cut {
		cut = idx
	}
	name := content[:cut]
	rest := content[cut:]

	if !isValidName(name) {
		return Placeholder{}, false, nil
	}

	ph := Placeholder{
		Name: name,
		Raw:  raw,
		Pos:  pos,
	}

	// Optional bracketed selector directly after the name.
	if strings.HasPrefix(rest, string(SelectorOpen)) {
		closeIdx := strings.IndexByte(rest, SelectorClose)
		if closeIdx == -1 {
			return Placeholder{}, false, &SyntaxError{
				Message:  ErrMsgUnterminatedBrack,
				Token:    raw,
				Position: pos,
			}
		}
		ph.Selector = rest[1:closeIdx]
		rest = rest[closeIdx+1:]
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return ph, true, nil
	}

	// Anything left must be a with-clause.
	if rest != WithKeyword && !strings.HasPrefix(rest, WithKeyword+" ") {
		return Placeholder{}, false, nil
	}
	clause := strings.TrimSpace(rest[len(WithKeyword):])
	overrides, err := ParseWithClause(clause, raw, pos)
	if err != nil {
		return Placeholder{}, false, err
	}
	ph.Overrides = overrides
	ph.HasWith = true
	return ph, true, nil
}

// ParseWithClause parses "field=SOURCE[sel], field2=SOURCE2" into overrides.
// Commas inside selector brackets do not split items.
func ParseWithClause(clause, token string, pos Position) ([]FieldOverride, error) {
	items := splitTopLevel(clause)
	overrides := make([]FieldOverride, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		eq := strings.Index(item, OverrideAssign)
		if eq <= 0 || eq == len(item)-1 {
			return nil, &SyntaxError{
				Message:  ErrMsgBadOverride,
				Token:    token,
				Position: pos,
			}
		}
		field := strings.TrimSpace(item[:eq])
		source := strings.TrimSpace(item[eq+1:])
		selector := ""
		if idx := strings.IndexByte(source, SelectorOpen); idx != -1 {
			closeIdx := strings.IndexByte(source, SelectorClose)
			if closeIdx < idx || closeIdx != len(source)-1 {
				return nil, &SyntaxError{
					Message:  ErrMsgUnterminatedBrack,
					Token:    token,
					Position: pos,
				}
			}
			selector = source[idx+1 : closeIdx]
			source = source[:idx]
		}
		if field == "" || source == "" {
			return nil, &SyntaxError{
				Message:  ErrMsgBadOverride,
				Token:    token,
				Position: pos,
			}
		}
		overrides = append(overrides, FieldOverride{
			Field:    field,
			Source:   source,
			Selector: selector,
		})
	}

	return overrides, nil
}

// splitTopLevel splits on commas that are outside selector brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case SelectorOpen:
			depth++
		case SelectorClose:
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// isValidName reports whether s is a legal placeholder identifier: a letter
// or underscore followed by letters, digits, underscores, or hyphens.
func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '_':
		case i > 0 && (c >= '0' && c <= '9'):
		case i > 0 && c == '-':
		default:
			return false
		}
	}
	return true
}

// calculatePosition calculates the Position for a given prefix string.
func calculatePosition(prefix string) Position {
	pos := Position{
		Offset: len(prefix),
		Line:   1,
		Column: 1,
	}

	for i := 0; i < len(prefix); i++ {
		if prefix[i] == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}

	return pos
}

// itoa converts a non-negative int to string without importing strconv.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}

	var neg bool
	if i < 0 {
		neg = true
		i = -i
	}

	buf := make([]byte, 20)
	pos := len(buf)

	for i > 0 {
		pos--
		buf[pos] = byte(i%10) + '0'
		i /= 10
	}

	if neg {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}
