package promptgen

import (
	"context"
	"path"
	"sort"

	"github.com/itsatony/go-promptgen/internal"
)

// ValidationIssue is one problem found while walking a document tree.
type ValidationIssue struct {
	Severity ValidationSeverity `json:"severity"`
	Path     string             `json:"path"`
	Field    string             `json:"field,omitempty"`
	Message  string             `json:"message"`
}

// ValidationResult collects every issue found in one validation walk.
// Unlike resolution, validation never fails fast: all reachable problems
// are reported together.
type ValidationResult struct {
	Root   string            `json:"root"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

func (r *ValidationResult) add(severity ValidationSeverity, p, field, message string) {
	r.Issues = append(r.Issues, ValidationIssue{
		Severity: severity,
		Path:     p,
		Field:    field,
		Message:  message,
	})
}

// Valid reports whether the walk found no error-severity issues.
func (r *ValidationResult) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// ErrorCount returns the number of error-severity issues.
func (r *ValidationResult) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity issues.
func (r *ValidationResult) WarningCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// ValidateTree walks the document at docPath together with its parent
// chain, imports, chunk references, and the optional theme, collecting
// every path and structure problem instead of stopping at the first.
func (e *Engine) ValidateTree(ctx context.Context, docPath string, opts ResolveOptions) (*ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docPath = path.Clean(docPath)
	v := &treeValidator{
		engine:  e,
		result:  &ValidationResult{Root: docPath},
		walked:  make(map[string]bool),
		visited: make(map[string]bool),
		failed:  make(map[string]bool),
	}

	v.walkChain(ctx, docPath, nil, ErrMsgDocumentNotFound)

	if opts.Theme != "" {
		themePath := path.Clean(opts.Theme)
		theme := v.loadDoc(ctx, themePath, ErrMsgThemeNotFound)
		if theme != nil {
			if theme.Kind != KindTheme {
				v.result.add(SeverityError, themePath, FieldKind, ErrMsgThemeKindInvalid)
			} else {
				v.walkImports(ctx, theme)
			}
		}
	}

	// Placeholder coverage needs the merged view, which only exists when
	// the tree itself is sound.
	if v.result.Valid() {
		v.checkPlaceholders(ctx, docPath, opts)
	}

	return v.result, nil
}

// treeValidator accumulates issues across one ValidateTree walk.
type treeValidator struct {
	engine  *Engine
	result  *ValidationResult
	walked  map[string]bool // chains already walked from their leaf
	visited map[string]bool // docs whose imports were already checked
	failed  map[string]bool // load failures already reported
}

// loadDoc loads and parses one document, reporting a failure at most
// once per path.
func (v *treeValidator) loadDoc(ctx context.Context, docPath, notFoundMsg string) *Document {
	doc, err := v.engine.inherit.Load(ctx, docPath)
	if err != nil {
		if !v.failed[docPath] {
			v.failed[docPath] = true
			if IsNotFound(err) {
				v.result.add(SeverityError, docPath, "", notFoundMsg)
			} else {
				v.result.add(SeverityError, docPath, "", err.Error())
			}
		}
		return nil
	}
	return doc
}

// walkChain validates one document and its implements chain.
func (v *treeValidator) walkChain(ctx context.Context, docPath string, chain []string, notFoundMsg string) {
	if len(chain) == 0 {
		if v.walked[docPath] {
			return
		}
		v.walked[docPath] = true
	}

	if containsPath(chain, docPath) {
		v.result.add(SeverityError, docPath, FieldImplements, ErrMsgInheritanceCycle)
		return
	}
	if len(chain) > v.engine.config.maxDepth {
		v.result.add(SeverityError, docPath, FieldImplements, ErrMsgInheritanceTooDeep)
		return
	}

	doc := v.loadDoc(ctx, docPath, notFoundMsg)
	if doc == nil {
		return
	}
	v.walkImports(ctx, doc)

	if doc.ParentRef == "" {
		return
	}
	parentPath := resolveRef(path.Dir(docPath), doc.ParentRef)
	parent := v.loadDoc(ctx, parentPath, ErrMsgParentNotFound)
	if parent == nil {
		return
	}

	if (doc.Kind == KindChunk) != (parent.Kind == KindChunk) {
		v.result.add(SeverityError, docPath, FieldImplements, ErrMsgChunkKindPairing)
		return
	}

	if doc.Kind == KindChunk {
		switch {
		case parent.ParentRef != "":
			v.result.add(SeverityError, docPath, FieldImplements, ErrMsgChunkParentHasParent)
		case parent.ChunkType == "":
			v.result.add(SeverityWarning, parentPath, FieldType, LogMsgChunkTypeAssumed)
		case doc.ChunkType != "" && doc.ChunkType != parent.ChunkType:
			v.result.add(SeverityError, docPath, FieldType, ErrMsgChunkTypeMismatch)
		}
		v.walkImports(ctx, parent)
		return
	}

	v.walkChain(ctx, parentPath, append(chain, docPath), ErrMsgParentNotFound)
}

// walkImports checks every import source of a document, once per doc.
func (v *treeValidator) walkImports(ctx context.Context, doc *Document) {
	if v.visited[doc.SourcePath] {
		return
	}
	v.visited[doc.SourcePath] = true

	names := make([]string, 0, len(doc.Imports))
	for name := range doc.Imports {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v.walkSpec(ctx, name, doc.Imports[name])
	}
}

// walkSpec validates one import spec's referenced sources.
func (v *treeValidator) walkSpec(ctx context.Context, name string, spec ImportSpec) {
	switch {
	case spec.File != "":
		v.checkSource(ctx, name, resolveRef(spec.BaseDir(), spec.File))

	case len(spec.Sources) > 0:
		if spec.IsRemove() {
			return
		}
		for _, item := range spec.Sources {
			if isInlineLiteral(item) {
				continue
			}
			v.checkSource(ctx, name, resolveRef(spec.BaseDir(), item))
		}

	case len(spec.Nested) > 0:
		for _, sub := range spec.Nested {
			v.walkSpec(ctx, name+FieldPathSep+sub.Name, sub.Spec)
		}
	}
}

// checkSource loads an import target and validates it as the kind its
// content declares.
func (v *treeValidator) checkSource(ctx context.Context, name, sourcePath string) {
	data, err := v.engine.store.Load(ctx, sourcePath)
	if err != nil {
		if !v.failed[sourcePath] {
			v.failed[sourcePath] = true
			if IsNotFound(err) {
				v.result.add(SeverityError, sourcePath, name, ErrMsgImportNotFound)
			} else {
				v.result.add(SeverityError, sourcePath, name, err.Error())
			}
		}
		return
	}

	switch kind := probeKind(data); kind {
	case string(KindChunk):
		v.walkChain(ctx, sourcePath, nil, ErrMsgChunkNotFound)

	case ExtensionKeyDetector, ExtensionKeyEffect:
		// opaque payloads pass through unvalidated

	case string(KindTemplate), string(KindPrompt), string(KindTheme):
		v.result.add(SeverityError, sourcePath, name, ErrMsgImportKindUnsupported)

	default:
		pool, err := ParsePool(name, data, sourcePath)
		if err != nil {
			if !v.failed[sourcePath] {
				v.failed[sourcePath] = true
				v.result.add(SeverityError, sourcePath, name, err.Error())
			}
			return
		}
		v.walkPool(ctx, pool)
	}
}

// walkPool validates chunk references inside a parsed pool.
func (v *treeValidator) walkPool(ctx context.Context, pool *Pool) {
	for _, key := range pool.Keys {
		entry, _ := pool.Get(key)
		if entry == nil || entry.Kind != EntryChunkRef {
			continue
		}
		chunkPath := resolveRef(path.Dir(entry.Source), entry.Ref)
		data, err := v.engine.store.Load(ctx, chunkPath)
		if err != nil {
			if !v.failed[chunkPath] {
				v.failed[chunkPath] = true
				v.result.add(SeverityError, entry.Source, key, ErrMsgChunkNotFound)
			}
			continue
		}
		if probeKind(data) != string(KindChunk) {
			v.result.add(SeverityError, chunkPath, key, ErrMsgImportKindUnsupported)
			continue
		}
		v.walkChain(ctx, chunkPath, nil, ErrMsgChunkNotFound)
	}
}

// checkPlaceholders resolves the tree and verifies every body token has
// a variation source and a parseable selector.
func (v *treeValidator) checkPlaceholders(ctx context.Context, docPath string, opts ResolveOptions) {
	res, err := v.engine.Resolve(ctx, docPath, opts)
	if err != nil {
		v.result.add(SeverityError, docPath, "", err.Error())
		return
	}

	for _, w := range res.Report.Warnings {
		v.result.add(SeverityWarning, w.Path, "", w.Message)
	}

	text := res.Document.Body
	if res.Document.NegativeText != "" {
		text += "\n" + res.Document.NegativeText
	}
	placeholders, err := internal.ScanPlaceholders(text)
	if err != nil {
		v.result.add(SeverityError, docPath, FieldBody, ErrMsgParseFailed)
		return
	}

	seen := make(map[string]bool, len(placeholders))
	for _, ph := range placeholders {
		if isReservedToken(ph.Raw) || seen[ph.Raw] {
			continue
		}
		seen[ph.Raw] = true

		if _, err := internal.ParseSelector(ph.Selector); err != nil {
			v.result.add(SeverityError, docPath, ph.Name, ErrMsgSelectorParseFailed)
			continue
		}
		if res.Context.IsRemoved(ph.Name) {
			continue
		}
		if _, ok := res.Context.Import(ph.Name); ok {
			v.checkOverrideSources(res, ph)
			continue
		}
		if _, ok := res.Context.Default(ph.Name); !ok {
			v.result.add(SeverityError, docPath, ph.Name, ErrMsgNoVariationSource)
		}
	}
}

// checkOverrideSources verifies with-clause override pools exist.
func (v *treeValidator) checkOverrideSources(res *Resolution, ph internal.Placeholder) {
	for _, ov := range ph.Overrides {
		imp, ok := res.Context.Import(ov.Source)
		if !ok || imp.Pool == nil {
			v.result.add(SeverityError, res.Document.SourcePath, ov.Source, ErrMsgNoVariationSource)
		}
	}
}
