package promptgen

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PoolEntryKind discriminates the payload shapes a pool value can take.
type PoolEntryKind string

const (
	// EntrySingle is a plain string value
	EntrySingle PoolEntryKind = "single"
	// EntryParts is a multi-part record of part name to text
	EntryParts PoolEntryKind = "parts"
	// EntryMultiField sets several dotted chunk fields at once
	EntryMultiField PoolEntryKind = "multifield"
	// EntryChunkRef references a chunk document
	EntryChunkRef PoolEntryKind = "chunk"
	// EntryExtension is an opaque detector or effect payload passed through
	EntryExtension PoolEntryKind = "extension"
)

// PoolEntry is one key's payload in a variation pool.
type PoolEntry struct {
	Key  string
	Kind PoolEntryKind
	// Value holds the text of single entries
	Value string
	// Parts maps part names (positive, negative) to text
	Parts map[string]string
	// Fields maps dotted field paths to values for multi-field entries,
	// and instance overrides for chunk-reference entries
	Fields map[string]string
	// Ref is the chunk document path of chunk-reference entries,
	// relative to the pool file
	Ref string
	// Payload is the raw mapping of extension entries
	Payload map[string]any
	// Source is the pool file path or inline marker the entry came from
	Source string
}

// Text returns the substitutable text of the entry for plain placeholders.
// Extension and chunk-reference entries render through their own paths.
func (e *PoolEntry) Text() string {
	switch e.Kind {
	case EntrySingle:
		return e.Value
	case EntryParts:
		return e.Parts[PartPositive]
	case EntryMultiField:
		paths := make([]string, 0, len(e.Fields))
		for p := range e.Fields {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		values := make([]string, 0, len(paths))
		for _, p := range paths {
			if v := e.Fields[p]; v != "" {
				values = append(values, v)
			}
		}
		return strings.Join(values, ", ")
	default:
		return ""
	}
}

// Negative returns the text the entry contributes to the negative prompt.
func (e *PoolEntry) Negative() string {
	if e.Kind == EntryParts {
		return e.Parts[PartNegative]
	}
	return ""
}

// Binding returns the value recorded in a variant's bindings map:
// the text itself for single entries, the key for structured ones.
func (e *PoolEntry) Binding() string {
	if e.Kind == EntrySingle {
		return e.Value
	}
	return e.Key
}

// Pool is an ordered variation pool. Keys preserve source-file order;
// merged pools keep first-file order then append later files' keys.
type Pool struct {
	Name    string
	Keys    []string
	Entries map[string]*PoolEntry
}

// NewPool creates an empty pool.
func NewPool(name string) *Pool {
	return &Pool{
		Name:    name,
		Entries: make(map[string]*PoolEntry),
	}
}

// Len returns the number of entries.
func (p *Pool) Len() int {
	return len(p.Keys)
}

// Get returns the entry for key.
func (p *Pool) Get(key string) (*PoolEntry, bool) {
	e, ok := p.Entries[key]
	return e, ok
}

// add inserts an entry, appending its key when new.
func (p *Pool) add(entry *PoolEntry) {
	if _, ok := p.Entries[entry.Key]; !ok {
		p.Keys = append(p.Keys, entry.Key)
	}
	p.Entries[entry.Key] = entry
}

// HasMultiPart reports whether any entry is a multi-part record.
func (p *Pool) HasMultiPart() bool {
	for _, e := range p.Entries {
		if e.Kind == EntryParts {
			return true
		}
	}
	return false
}

// ParsePool parses one variation pool file. source is the store path the
// bytes came from; keys keep file order. A duplicate key within one file
// is a structural error; cross-file duplicates are handled at merge.
func ParsePool(name string, data []byte, source string) (*Pool, error) {
	pool := NewPool(name)

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, NewParseError(ErrMsgPoolParseFailed, source, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return pool, nil
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, NewParseError(ErrMsgPoolNotMapping, source, nil)
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if _, exists := pool.Entries[key]; exists {
			return nil, NewFieldError(ErrMsgDuplicatePoolKey, source, key)
		}
		entry, err := parsePoolEntry(key, mapping.Content[i+1], source)
		if err != nil {
			return nil, err
		}
		pool.add(entry)
	}

	return pool, nil
}

// parsePoolEntry classifies one pool value node.
func parsePoolEntry(key string, node *yaml.Node, source string) (*PoolEntry, error) {
	entry := &PoolEntry{Key: key, Source: source}

	switch node.Kind {
	case yaml.ScalarNode:
		entry.Kind = EntrySingle
		entry.Value = node.Value
		return entry, nil

	case yaml.MappingNode:
		return classifyMappingEntry(entry, node, source)

	default:
		return nil, NewFieldError(ErrMsgPoolValueInvalid, source, key)
	}
}

// classifyMappingEntry decides between chunk-reference, extension,
// multi-field, and multi-part payloads, in that precedence order.
func classifyMappingEntry(entry *PoolEntry, node *yaml.Node, source string) (*PoolEntry, error) {
	var hasChunk, hasExtension, hasDotted bool
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch k := node.Content[i].Value; {
		case k == ChunkRefKey:
			hasChunk = true
		case k == ExtensionKeyDetector || k == ExtensionKeyEffect:
			hasExtension = true
		case strings.Contains(k, FieldPathSep):
			hasDotted = true
		}
	}

	switch {
	case hasChunk:
		entry.Kind = EntryChunkRef
		fields := make(map[string]string)
		for i := 0; i+1 < len(node.Content); i += 2 {
			k := node.Content[i].Value
			v := node.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return nil, NewFieldError(ErrMsgPoolValueInvalid, source, entry.Key)
			}
			if k == ChunkRefKey {
				entry.Ref = v.Value
				continue
			}
			fields[k] = v.Value
		}
		if len(fields) > 0 {
			entry.Fields = fields
		}
		return entry, nil

	case hasExtension:
		entry.Kind = EntryExtension
		var payload map[string]any
		if err := node.Decode(&payload); err != nil {
			return nil, NewParseError(ErrMsgPoolValueInvalid, source, err)
		}
		entry.Payload = payload
		return entry, nil

	case hasDotted:
		entry.Kind = EntryMultiField
		var fields StringMap
		if err := node.Decode(&fields); err != nil {
			return nil, NewParseError(ErrMsgPoolValueInvalid, source, err)
		}
		entry.Fields = fields
		return entry, nil

	default:
		entry.Kind = EntryParts
		var parts StringMap
		if err := node.Decode(&parts); err != nil {
			return nil, NewParseError(ErrMsgPoolValueInvalid, source, err)
		}
		entry.Parts = parts
		return entry, nil
	}
}
