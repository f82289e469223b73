package promptgen

import "sort"

// ResolveOptions configure one resolution pass.
type ResolveOptions struct {
	// Style selects per-style variant files and theme keys
	Style string

	// Theme is the store path of a theme document to apply, empty for none
	Theme string

	// StyleSensitive adds placeholder names treated as style-sensitive
	// on top of the document's style_sensitive parameter
	StyleSensitive []string
}

// Context is the per-run aggregate of everything generation needs:
// resolved variation pools, the active style and theme, merged
// defaults, and the placeholders a theme explicitly removed. It is
// built once per resolution pass and not mutated afterward.
type Context struct {
	// Imports maps placeholder names to their loaded sources
	Imports map[string]*ResolvedImport

	// Style is the active style name, empty for none
	Style string

	// Theme is the applied theme's store path, empty for none
	Theme string

	// Removed marks placeholders explicitly removed by the theme; they
	// render as empty text, distinct from being undefined
	Removed map[string]bool

	// Defaults supplies fallback values for placeholders without a pool
	Defaults map[string]string

	// Parameters is the merged free-form parameter bag
	Parameters map[string]any
}

// Import returns the resolved import for a placeholder name.
func (c *Context) Import(name string) (*ResolvedImport, bool) {
	imp, ok := c.Imports[name]
	return imp, ok
}

// ImportNames returns all resolved placeholder names, sorted.
func (c *Context) ImportNames() []string {
	names := make([]string, 0, len(c.Imports))
	for name := range c.Imports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRemoved reports whether a theme explicitly removed the placeholder.
func (c *Context) IsRemoved(name string) bool {
	return c.Removed[name]
}

// Default returns the fallback value for a placeholder, if any.
func (c *Context) Default(name string) (string, bool) {
	value, ok := c.Defaults[name]
	return value, ok
}

// Resolution bundles a fully merged document with its generation
// context and the report of everything the pass decided.
type Resolution struct {
	Document *Document
	Context  *Context
	Report   *ResolutionReport
}
