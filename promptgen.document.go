package promptgen

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one template, prompt, chunk, or theme file. The kind is
// decided once at parse time and never re-inferred downstream.
type Document struct {
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Kind    Kind   `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Body is the template text carrying {Placeholder} tokens. Templates
	// carry exactly one {prompt} injection token; chunk bodies carry
	// {category.field} tokens instead.
	Body string `yaml:"body,omitempty" json:"body,omitempty"`

	// ParentRef is the relative path of the document this one implements
	ParentRef string `yaml:"implements,omitempty" json:"implements,omitempty"`

	// Imports maps placeholder names to their variation data sources
	Imports map[string]ImportSpec `yaml:"imports,omitempty" json:"imports,omitempty"`

	// Parameters is a free-form bag merged across inheritance
	Parameters map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`

	NegativeText string `yaml:"negative_text,omitempty" json:"negative_text,omitempty"`

	// Chunks maps chunk names to chunk document paths
	Chunks StringMap `yaml:"chunks,omitempty" json:"chunks,omitempty"`

	// Defaults supplies fallback values: placeholder fallbacks on
	// templates and prompts, field defaults on chunk templates
	Defaults StringMap `yaml:"defaults,omitempty" json:"defaults,omitempty"`

	// ChunkType is the chunk type tag checked across chunk inheritance
	ChunkType string `yaml:"type,omitempty" json:"type,omitempty"`

	// Fields supplies concrete field values on chunk instances
	Fields StringMap `yaml:"fields,omitempty" json:"fields,omitempty"`

	// SourcePath is the store path the document was loaded from
	SourcePath string `yaml:"-" json:"-"`
}

// StringMap decodes a YAML mapping of scalars into strings, accepting
// unquoted numbers and booleans as their literal text.
type StringMap map[string]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *StringMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: line %d", ErrMsgWrongFieldType, value.Line)
	}
	out := make(map[string]string, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		val := value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("%s: line %d", ErrMsgWrongFieldType, val.Line)
		}
		out[key.Value] = val.Value
	}
	*m = out
	return nil
}

// ImportSpec is the raw right-hand side of one import entry: a single
// file, an ordered list of files and inline literals, or a nested
// mapping of sub-imports.
type ImportSpec struct {
	// File is set for plain single-file imports
	File string
	// Sources is set for list imports, in declaration order
	Sources []string
	// Nested is set for mapping imports, in declaration order
	Nested []NestedImport

	// baseDir is the directory of the document that declared this spec;
	// relative source paths resolve against it
	baseDir string
}

// NestedImport is one named sub-import of a mapping import.
type NestedImport struct {
	Name string
	Spec ImportSpec
}

// UnmarshalYAML implements yaml.Unmarshaler for the three spec shapes.
func (s *ImportSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		s.File = value.Value
		return nil

	case yaml.SequenceNode:
		s.Sources = make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("%s: line %d", ErrMsgWrongFieldType, item.Line)
			}
			s.Sources = append(s.Sources, item.Value)
		}
		return nil

	case yaml.MappingNode:
		s.Nested = make([]NestedImport, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			var sub ImportSpec
			if err := value.Content[i+1].Decode(&sub); err != nil {
				return err
			}
			s.Nested = append(s.Nested, NestedImport{
				Name: value.Content[i].Value,
				Spec: sub,
			})
		}
		return nil

	default:
		return fmt.Errorf("%s: line %d", ErrMsgWrongFieldType, value.Line)
	}
}

// MarshalYAML implements yaml.Marshaler, emitting the original shape.
func (s ImportSpec) MarshalYAML() (any, error) {
	switch {
	case s.File != "":
		return s.File, nil
	case len(s.Sources) > 0:
		return s.Sources, nil
	case len(s.Nested) > 0:
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, sub := range s.Nested {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: sub.Name}
			valNode := &yaml.Node{}
			if err := valNode.Encode(sub.Spec); err != nil {
				return nil, err
			}
			node.Content = append(node.Content, keyNode, valNode)
		}
		return node, nil
	}
	return nil, nil
}

// IsRemove reports whether the spec is the reserved ["Remove"] theme
// directive marking a placeholder as explicitly removed.
func (s ImportSpec) IsRemove() bool {
	return len(s.Sources) == 1 && s.Sources[0] == ThemeRemoveDirective
}

// IsEmpty reports whether the spec carries no source at all.
func (s ImportSpec) IsEmpty() bool {
	return s.File == "" && len(s.Sources) == 0 && len(s.Nested) == 0
}

// BaseDir returns the directory relative source paths resolve against.
func (s ImportSpec) BaseDir() string {
	return s.baseDir
}

// withBaseDir stamps the declaring document's directory onto the spec
// and all nested sub-specs.
func (s ImportSpec) withBaseDir(dir string) ImportSpec {
	s.baseDir = dir
	for i := range s.Nested {
		s.Nested[i].Spec = s.Nested[i].Spec.withBaseDir(dir)
	}
	return s
}

// clone returns a copy with fresh maps, safe for the caller to mutate
// without touching cached state.
func (d *Document) clone() *Document {
	out := *d
	out.Imports = cloneImportMap(d.Imports)
	out.Parameters = cloneAnyMap(d.Parameters)
	out.Chunks = cloneStringMap(d.Chunks)
	out.Defaults = cloneStringMap(d.Defaults)
	out.Fields = cloneStringMap(d.Fields)
	return &out
}

// inferKind classifies documents that omit the kind field. The decision
// is made once here and stored on the document.
func inferKind(doc *Document) Kind {
	switch {
	case doc.ChunkType != "" || len(doc.Fields) > 0:
		return KindChunk
	case strings.Contains(doc.Body, TokenPrompt):
		return KindTemplate
	case doc.ParentRef != "":
		return KindPrompt
	case doc.Body == "" && len(doc.Imports) > 0:
		return KindTheme
	default:
		return KindPrompt
	}
}

// cloneStringMap returns a shallow copy, never nil for non-nil input.
func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// cloneAnyMap returns a shallow copy of a parameter bag.
func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// cloneImportMap returns a shallow copy of an import spec map.
func cloneImportMap(m map[string]ImportSpec) map[string]ImportSpec {
	if m == nil {
		return nil
	}
	out := make(map[string]ImportSpec, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
