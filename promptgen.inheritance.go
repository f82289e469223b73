package promptgen

import (
	"context"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// resolvedEntry is one cached resolution together with the chain of
// document paths it was built from.
type resolvedEntry struct {
	doc  *Document
	deps []string
}

// resolutionCache holds fully resolved documents keyed by store path.
// Invalidating a path also drops every resolution whose inheritance
// chain includes it, so edits to a shared parent propagate.
type resolutionCache struct {
	mu      sync.RWMutex
	entries map[string]*resolvedEntry
}

func newResolutionCache() *resolutionCache {
	return &resolutionCache{entries: make(map[string]*resolvedEntry)}
}

func (c *resolutionCache) get(docPath string) (*Document, []string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[docPath]
	if !ok {
		return nil, nil, false
	}
	return entry.doc, entry.deps, true
}

func (c *resolutionCache) put(docPath string, doc *Document, deps []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[docPath] = &resolvedEntry{doc: doc, deps: deps}
}

// invalidate drops docPath and every resolution depending on it.
// Returns the number of entries removed.
func (c *resolutionCache) invalidate(docPath string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if key == docPath || containsPath(entry.deps, docPath) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// invalidateAll clears the cache and returns the number of entries dropped.
func (c *resolutionCache) invalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*resolvedEntry)
	return removed
}

func (c *resolutionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func containsPath(paths []string, p string) bool {
	for _, candidate := range paths {
		if candidate == p {
			return true
		}
	}
	return false
}

// inheritanceResolver merges implements chains into flat documents.
// Parent references are resolved relative to the child's directory and
// must stay relative. Completed resolutions are cached by path.
type inheritanceResolver struct {
	store    DocumentStore
	logger   *zap.Logger
	maxDepth int
	cache    *resolutionCache
}

func newInheritanceResolver(store DocumentStore, logger *zap.Logger, maxDepth int) *inheritanceResolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxInheritanceDepth
	}
	return &inheritanceResolver{
		store:    store,
		logger:   logger,
		maxDepth: maxDepth,
		cache:    newResolutionCache(),
	}
}

// Load reads and parses a single document without resolving its chain.
func (r *inheritanceResolver) Load(ctx context.Context, docPath string) (*Document, error) {
	data, err := r.store.Load(ctx, docPath)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data, docPath)
}

// Resolve returns the fully merged document at docPath, following the
// implements chain parent by parent. The result has fresh maps safe for
// the caller to mutate. report may be nil.
func (r *inheritanceResolver) Resolve(ctx context.Context, docPath string, report *ResolutionReport) (*Document, error) {
	resolved, _, err := r.resolveAt(ctx, path.Clean(docPath), nil, report)
	if err != nil {
		return nil, err
	}
	return resolved.clone(), nil
}

// Invalidate drops the cached resolution for docPath and everything
// resolved through it. Returns the number of entries removed.
func (r *inheritanceResolver) Invalidate(docPath string) int {
	removed := r.cache.invalidate(path.Clean(docPath))
	if removed > 0 {
		r.logger.Debug(LogMsgCacheInvalidated,
			zap.String(LogFieldPath, docPath),
			zap.Int(LogFieldCount, removed))
	}
	return removed
}

// InvalidateAll clears the resolution cache.
func (r *inheritanceResolver) InvalidateAll() int {
	removed := r.cache.invalidateAll()
	if removed > 0 {
		r.logger.Debug(LogMsgCacheInvalidated, zap.Int(LogFieldCount, removed))
	}
	return removed
}

// CacheSize returns the number of cached resolutions.
func (r *inheritanceResolver) CacheSize() int {
	return r.cache.size()
}

// resolveAt resolves one document and returns it together with the
// paths its resolution depends on. chain carries the descent from the
// original leaf for cycle detection and depth guarding.
func (r *inheritanceResolver) resolveAt(ctx context.Context, docPath string, chain []string, report *ResolutionReport) (*Document, []string, error) {
	if doc, deps, ok := r.cache.get(docPath); ok {
		r.logger.Debug(LogMsgInheritanceCacheHit, zap.String(LogFieldPath, docPath))
		return doc, deps, nil
	}

	if containsPath(chain, docPath) {
		cycle := append(append([]string{}, chain...), docPath)
		return nil, nil, NewInheritanceCycleError(docPath, cycle)
	}
	if len(chain) > r.maxDepth {
		return nil, nil, NewInheritanceDepthError(docPath, len(chain), r.maxDepth)
	}
	chain = append(chain, docPath)

	doc, err := r.Load(ctx, docPath)
	if err != nil {
		return nil, nil, err
	}

	// Parentless documents resolve to themselves: a standalone prompt's
	// body is already its full template text.
	if doc.ParentRef == "" {
		deps := []string{docPath}
		r.cache.put(docPath, doc, deps)
		return doc, deps, nil
	}

	parentPath := resolveRef(path.Dir(docPath), doc.ParentRef)

	if doc.Kind == KindChunk {
		merged, deps, err := r.resolveChunk(ctx, doc, parentPath, report)
		if err != nil {
			return nil, nil, err
		}
		r.cache.put(docPath, merged, deps)
		return merged, deps, nil
	}

	parent, parentDeps, err := r.resolveAt(ctx, parentPath, chain, report)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil, NewPathError(ErrMsgParentNotFound, docPath, parentPath)
		}
		return nil, nil, err
	}
	if parent.Kind == KindChunk {
		return nil, nil, NewChunkKindError(docPath, parentPath)
	}

	merged := r.merge(parent, doc, report)
	deps := append([]string{docPath}, parentDeps...)
	r.cache.put(docPath, merged, deps)

	r.logger.Debug(LogMsgInheritanceMerged,
		zap.String(LogFieldPath, docPath),
		zap.String(LogFieldParent, parentPath))

	return merged, deps, nil
}

// resolveChunk merges a chunk instance into its template. Chunk chains
// are exactly one level deep and both sides must agree on the type tag.
func (r *inheritanceResolver) resolveChunk(ctx context.Context, doc *Document, parentPath string, report *ResolutionReport) (*Document, []string, error) {
	parent, err := r.Load(ctx, parentPath)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil, NewPathError(ErrMsgParentNotFound, doc.SourcePath, parentPath)
		}
		return nil, nil, err
	}

	if parent.Kind != KindChunk {
		return nil, nil, NewChunkKindError(doc.SourcePath, parentPath)
	}
	if parent.ParentRef != "" {
		return nil, nil, NewChunkDepthError(doc.SourcePath, parentPath)
	}

	switch {
	case parent.ChunkType == "":
		r.logger.Warn(LogMsgChunkTypeAssumed,
			zap.String(LogFieldPath, doc.SourcePath),
			zap.String(LogFieldParent, parentPath))
		report.AddWarning(LogMsgChunkTypeAssumed, doc.SourcePath, doc.ChunkType)
	case doc.ChunkType != "" && doc.ChunkType != parent.ChunkType:
		return nil, nil, NewChunkTypeMismatchError(doc.SourcePath, parent.ChunkType, doc.ChunkType)
	}

	merged := r.merge(parent, doc, report)
	return merged, []string{doc.SourcePath, parentPath}, nil
}

// merge combines one parent/child pair. The maps merge shallowly with
// child keys winning; the child body is injected into the parent's
// {prompt} token.
func (r *inheritanceResolver) merge(parent, child *Document, report *ResolutionReport) *Document {
	out := &Document{
		Version:    firstNonEmpty(child.Version, parent.Version),
		Name:       child.Name,
		Kind:       child.Kind,
		ParentRef:  child.ParentRef,
		ChunkType:  firstNonEmpty(child.ChunkType, parent.ChunkType),
		SourcePath: child.SourcePath,
	}

	out.Parameters = mergeAnyMaps(parent.Parameters, child.Parameters)
	out.Imports = mergeImportMaps(parent.Imports, child.Imports)
	out.Chunks = mergeStringMaps(parent.Chunks, child.Chunks)
	out.Defaults = mergeStringMaps(parent.Defaults, child.Defaults)
	out.Fields = mergeStringMaps(parent.Fields, child.Fields)

	out.Body = r.injectBody(parent, child, report)
	out.NegativeText = injectNegative(parent, child)

	return out
}

// injectBody places the child body into the parent's {prompt} token.
// A child without a body inherits the parent body unchanged; a parent
// without the token is replaced by the child body under a warning.
func (r *inheritanceResolver) injectBody(parent, child *Document, report *ResolutionReport) string {
	switch {
	case child.Body == "":
		return parent.Body
	case strings.Contains(parent.Body, TokenPrompt):
		return strings.Replace(parent.Body, TokenPrompt, child.Body, 1)
	case parent.Body == "":
		return child.Body
	default:
		r.logger.Warn(LogMsgInjectionFallback,
			zap.String(LogFieldPath, child.SourcePath),
			zap.String(LogFieldParent, parent.SourcePath))
		report.AddWarning(LogMsgInjectionFallback, child.SourcePath, parent.SourcePath)
		return child.Body
	}
}

// injectNegative merges negative text. The parent's {negprompt} token
// receives the child text; without the token a non-empty child wins.
func injectNegative(parent, child *Document) string {
	switch {
	case strings.Contains(parent.NegativeText, TokenNegPrompt):
		return strings.Replace(parent.NegativeText, TokenNegPrompt, child.NegativeText, 1)
	case child.NegativeText != "":
		return child.NegativeText
	default:
		return parent.NegativeText
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func mergeStringMaps(parent, child map[string]string) map[string]string {
	if parent == nil && child == nil {
		return nil
	}
	out := make(map[string]string, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func mergeAnyMaps(parent, child map[string]any) map[string]any {
	if parent == nil && child == nil {
		return nil
	}
	out := make(map[string]any, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func mergeImportMaps(parent, child map[string]ImportSpec) map[string]ImportSpec {
	if parent == nil && child == nil {
		return nil
	}
	out := make(map[string]ImportSpec, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}
