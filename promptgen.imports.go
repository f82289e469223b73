package promptgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ImportMeta records how one placeholder's sources were resolved.
type ImportMeta struct {
	// SourceCount is the number of sources merged into the pool
	SourceCount int
	// MultiPart is true when any entry is a multi-part record
	MultiPart bool
	// Origin is the document level that supplied the import spec
	Origin ImportOrigin
	// Style is the style suffix actually applied, empty when the base
	// file was used
	Style string
}

// ResolvedImport is one placeholder's fully loaded variation source.
// Exactly one of Pool, Chunk, or Extension is set.
type ResolvedImport struct {
	Name string
	// Pool holds flat or multi-part variation entries
	Pool *Pool
	// Chunk is set when the import targets a chunk document directly
	Chunk *Document
	// Extension is set when the import targets a detector or effect
	// payload file, passed through opaquely
	Extension map[string]any
	Meta      ImportMeta
}

// importResolver loads variation pools, chunk documents, and extension
// payloads for each placeholder import. Chunk targets resolve through
// the inheritance resolver so instances pick up their template.
type importResolver struct {
	store   DocumentStore
	inherit *inheritanceResolver
	logger  *zap.Logger
}

func newImportResolver(store DocumentStore, inherit *inheritanceResolver, logger *zap.Logger) *importResolver {
	return &importResolver{store: store, inherit: inherit, logger: logger}
}

// ResolveImports loads every placeholder's sources. docPath names the
// resolved document for error context. Names in removed are skipped and
// marked intentional. origins may be nil; missing names default to
// OriginTemplate.
func (r *importResolver) ResolveImports(ctx context.Context, docPath string, imports map[string]ImportSpec, origins map[string]ImportOrigin, style string, styleSensitive map[string]bool, removed map[string]bool, report *ResolutionReport) (map[string]*ResolvedImport, error) {
	resolved := make(map[string]*ResolvedImport, len(imports))

	for name, spec := range imports {
		if removed[name] {
			report.Placeholder(name).Removed = true
			continue
		}

		origin := OriginTemplate
		if origins != nil {
			if o, ok := origins[name]; ok {
				origin = o
			}
		}

		imp, err := r.resolveEntry(ctx, docPath, name, spec, origin, style, styleSensitive[name], report)
		if err != nil {
			return nil, err
		}
		resolved[name] = imp

		entry := report.Placeholder(name)
		entry.Origin = imp.Meta.Origin
		entry.Style = imp.Meta.Style
		entry.SourceCount = imp.Meta.SourceCount
		entry.MultiPart = imp.Meta.MultiPart
	}

	r.logger.Debug(LogMsgImportsResolved,
		zap.String(LogFieldPath, docPath),
		zap.Int(LogFieldCount, len(resolved)))

	return resolved, nil
}

// resolveEntry dispatches on the import spec shape: single file, merged
// source list, or nested part mapping.
func (r *importResolver) resolveEntry(ctx context.Context, docPath, name string, spec ImportSpec, origin ImportOrigin, style string, sensitive bool, report *ResolutionReport) (*ResolvedImport, error) {
	switch {
	case spec.File != "":
		return r.resolveSingle(ctx, docPath, name, spec, origin, style, sensitive, report)
	case len(spec.Sources) > 0:
		return r.resolveList(ctx, docPath, name, spec, origin, style, sensitive, report)
	case len(spec.Nested) > 0:
		return r.resolveNested(ctx, docPath, name, spec, origin, style, sensitive, report)
	default:
		// empty spec: an empty pool that generation resolves via defaults
		return &ResolvedImport{
			Name: name,
			Pool: NewPool(name),
			Meta: ImportMeta{Origin: origin},
		}, nil
	}
}

// resolveSingle loads one file, which may be a variation pool, a chunk
// document, or an extension payload by its declared kind.
func (r *importResolver) resolveSingle(ctx context.Context, docPath, name string, spec ImportSpec, origin ImportOrigin, style string, sensitive bool, report *ResolutionReport) (*ResolvedImport, error) {
	sourcePath, usedStyle, err := r.pickSourcePath(ctx, spec.BaseDir(), spec.File, style, sensitive)
	if err != nil {
		return nil, err
	}

	data, err := r.store.Load(ctx, sourcePath)
	if err != nil {
		if IsNotFound(err) {
			return nil, NewPathError(ErrMsgImportNotFound, docPath, sourcePath)
		}
		return nil, err
	}

	imp := &ResolvedImport{
		Name: name,
		Meta: ImportMeta{SourceCount: 1, Origin: origin, Style: usedStyle},
	}

	switch probeKind(data) {
	case string(KindChunk):
		chunk, err := r.inherit.Resolve(ctx, sourcePath, report)
		if err != nil {
			return nil, err
		}
		imp.Chunk = chunk
	case ExtensionKeyDetector, ExtensionKeyEffect:
		payload := make(map[string]any)
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, NewParseError(ErrMsgParseFailed, sourcePath, err)
		}
		imp.Extension = payload
	case string(KindTemplate), string(KindPrompt), string(KindTheme):
		return nil, NewPathError(ErrMsgImportKindUnsupported, docPath, sourcePath)
	default:
		pool, err := ParsePool(name, data, sourcePath)
		if err != nil {
			return nil, err
		}
		imp.Pool = pool
		imp.Meta.MultiPart = pool.HasMultiPart()
	}

	return imp, nil
}

// resolveList merges multiple sources left to right. Items are file
// paths unless they read as inline literals; colliding keys from later
// files are prefixed with their normalized source path so no value is
// ever silently dropped.
func (r *importResolver) resolveList(ctx context.Context, docPath, name string, spec ImportSpec, origin ImportOrigin, style string, sensitive bool, report *ResolutionReport) (*ResolvedImport, error) {
	merged := NewPool(name)
	count := 0

	for _, item := range spec.Sources {
		count++

		if isInlineLiteral(item) {
			content := stripQuotes(item)
			key := inlineKey(content)
			r.mergeEntry(merged, &PoolEntry{
				Key:    key,
				Kind:   EntrySingle,
				Value:  content,
				Source: docPath,
			}, report)
			continue
		}

		sourcePath, _, err := r.pickSourcePath(ctx, spec.BaseDir(), item, style, sensitive)
		if err != nil {
			return nil, err
		}
		pool, err := r.loadPoolFile(ctx, docPath, name, sourcePath)
		if err != nil {
			return nil, err
		}
		for _, key := range pool.Keys {
			entry, _ := pool.Get(key)
			r.mergeEntry(merged, entry, report)
		}
	}

	return &ResolvedImport{
		Name: name,
		Pool: merged,
		Meta: ImportMeta{
			SourceCount: count,
			MultiPart:   merged.HasMultiPart(),
			Origin:      origin,
		},
	}, nil
}

// resolveNested zips part-named sub-pools into multi-part entries: the
// key set is the union across parts in first-appearance order, and each
// entry carries one text per part name.
func (r *importResolver) resolveNested(ctx context.Context, docPath, name string, spec ImportSpec, origin ImportOrigin, style string, sensitive bool, report *ResolutionReport) (*ResolvedImport, error) {
	type partPool struct {
		part string
		pool *Pool
	}

	parts := make([]partPool, 0, len(spec.Nested))
	count := 0

	for _, nested := range spec.Nested {
		sub, err := r.resolveEntry(ctx, docPath, nested.Name, nested.Spec, origin, style, sensitive, report)
		if err != nil {
			return nil, err
		}
		if sub.Pool == nil {
			return nil, NewPathError(ErrMsgImportKindUnsupported, docPath, nested.Spec.File)
		}
		parts = append(parts, partPool{part: nested.Name, pool: sub.Pool})
		count += sub.Meta.SourceCount
	}

	merged := NewPool(name)
	for _, pp := range parts {
		for _, key := range pp.pool.Keys {
			sub, _ := pp.pool.Get(key)
			entry, ok := merged.Get(key)
			if !ok {
				entry = &PoolEntry{
					Key:    key,
					Kind:   EntryParts,
					Parts:  make(map[string]string),
					Source: sub.Source,
				}
				merged.add(entry)
			}
			entry.Parts[pp.part] = sub.Text()
		}
	}

	return &ResolvedImport{
		Name: name,
		Pool: merged,
		Meta: ImportMeta{
			SourceCount: count,
			MultiPart:   true,
			Origin:      origin,
		},
	}, nil
}

// mergeEntry adds an entry to the merged pool, prefixing the key with
// the normalized source path on collision.
func (r *importResolver) mergeEntry(merged *Pool, entry *PoolEntry, report *ResolutionReport) {
	if _, exists := merged.Get(entry.Key); !exists {
		merged.add(entry)
		return
	}

	prefixed := *entry
	prefixed.Key = normalizeSourceKey(entry.Source) + SourcePrefixSep + entry.Key

	r.logger.Warn(LogMsgKeyCollision,
		zap.String(LogFieldKey, entry.Key),
		zap.String(LogFieldSource, entry.Source))
	report.AddWarning(LogMsgKeyCollision, entry.Source, entry.Key)

	merged.add(&prefixed)
}

// loadPoolFile loads one source that must be a flat variation pool.
func (r *importResolver) loadPoolFile(ctx context.Context, docPath, name, sourcePath string) (*Pool, error) {
	data, err := r.store.Load(ctx, sourcePath)
	if err != nil {
		if IsNotFound(err) {
			return nil, NewPathError(ErrMsgImportNotFound, docPath, sourcePath)
		}
		return nil, err
	}

	// chunk and extension targets are only meaningful as single imports;
	// inside a merge list every source must be a flat pool
	kind := probeKind(data)
	if kind != "" && (IsValidKind(kind) || kind == ExtensionKeyDetector || kind == ExtensionKeyEffect) {
		return nil, NewPathError(ErrMsgImportKindUnsupported, docPath, sourcePath)
	}

	return ParsePool(name, data, sourcePath)
}

// pickSourcePath resolves a source reference against its base directory
// and, for style-sensitive placeholders, prefers the style-suffixed
// variant file when it exists.
func (r *importResolver) pickSourcePath(ctx context.Context, baseDir, ref, style string, sensitive bool) (string, string, error) {
	sourcePath := resolveRef(baseDir, ref)

	if !sensitive || style == "" {
		return sourcePath, "", nil
	}

	styled := styleVariantPath(sourcePath, style)
	exists, err := r.store.Exists(ctx, styled)
	if err != nil {
		return "", "", err
	}
	if exists {
		r.logger.Debug(LogMsgStyleVariantUsed,
			zap.String(LogFieldPath, styled),
			zap.String(LogFieldStyle, style))
		return styled, style, nil
	}

	r.logger.Debug(LogMsgStyleVariantMissed,
		zap.String(LogFieldPath, sourcePath),
		zap.String(LogFieldStyle, style))
	return sourcePath, "", nil
}

// probeKind reads only the declared kind field, distinguishing pools
// from chunk documents and extension payloads. Unparseable data probes
// as a pool so pool parsing reports the real error.
func probeKind(data []byte) string {
	var probe struct {
		Kind string `yaml:"kind"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return ""
	}
	return probe.Kind
}

// isInlineLiteral reports whether a source list item is a literal value
// rather than a file path: it starts with a quote character or does not
// carry a pool file extension.
func isInlineLiteral(item string) bool {
	if item == "" {
		return true
	}
	if item[0] == '"' || item[0] == '\'' {
		return true
	}
	return !strings.HasSuffix(item, PoolFileExtension) && !strings.HasSuffix(item, PoolFileExtensionAlt)
}

// stripQuotes removes one matching pair of surrounding quotes.
func stripQuotes(item string) string {
	if len(item) >= 2 {
		first, last := item[0], item[len(item)-1]
		if first == last && (first == '"' || first == '\'') {
			return item[1 : len(item)-1]
		}
	}
	return item
}

// inlineKey derives a stable short key from inline literal content.
func inlineKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:InlineKeyLength]
}

// normalizeSourceKey turns a source path into a key prefix: path
// separators and dots become double underscores.
func normalizeSourceKey(sourcePath string) string {
	replacer := strings.NewReplacer("/", SourcePrefixSep, "\\", SourcePrefixSep, ".", SourcePrefixSep)
	return replacer.Replace(sourcePath)
}

// styleVariantPath inserts the style name before the file extension.
func styleVariantPath(sourcePath, style string) string {
	ext := path.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + ThemeStyleSep + style + ext
}
