package promptgen

import (
	"errors"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/itsatony/go-promptgen/internal"
)

// chunkCandidate is one concrete rendering of a chunk placeholder.
type chunkCandidate struct {
	// Label identifies the override combination in variant bindings
	Label string
	// Text is the cleaned rendered chunk body
	Text string
}

// chunkRenderer expands chunk placeholders into rendered candidates.
// Field values merge lowest to highest priority: chunk template
// defaults, instance fields, pool entry fields, with-clause overrides.
type chunkRenderer struct {
	logger    *zap.Logger
	indexBase int
	strict    bool
}

func newChunkRenderer(logger *zap.Logger, indexBase int, strict bool) *chunkRenderer {
	return &chunkRenderer{logger: logger, indexBase: indexBase, strict: strict}
}

// overrideDim is one with-clause override's selected multi-field entries.
type overrideDim struct {
	field   string
	keys    []string
	entries []*PoolEntry
}

// Expand renders one chunk into candidates, one per with-override
// combination. placeholder names the template token for reporting;
// entryFields carries overrides from the pool entry that referenced the
// chunk, if any.
func (cr *chunkRenderer) Expand(placeholder string, chunk *Document, entryFields map[string]string, overrides []internal.FieldOverride, genCtx *Context, rng *rand.Rand, report *ResolutionReport) ([]chunkCandidate, error) {
	base := make(map[string]string, len(chunk.Defaults)+len(chunk.Fields)+len(entryFields))
	for k, v := range chunk.Defaults {
		base[k] = v
	}
	for k, v := range chunk.Fields {
		base[k] = v
	}
	for k, v := range entryFields {
		base[k] = v
	}

	dims, err := cr.overrideDims(placeholder, chunk, overrides, genCtx, rng, report)
	if err != nil {
		return nil, err
	}

	if len(dims) == 0 {
		candidate := chunkCandidate{Label: chunk.Name, Text: cr.render(chunk.Body, base)}
		cr.logger.Debug(LogMsgChunkRendered,
			zap.String(LogFieldChunk, chunk.Name),
			zap.Int(LogFieldCount, 1))
		return []chunkCandidate{candidate}, nil
	}

	sizes := make([]int, len(dims))
	for i, dim := range dims {
		sizes[i] = len(dim.keys)
	}

	var out []chunkCandidate
	product := internal.NewProduct(sizes)
	for {
		tuple, ok := product.Next()
		if !ok {
			break
		}

		fields := make(map[string]string, len(base)+4)
		for k, v := range base {
			fields[k] = v
		}

		labels := make([]string, 0, len(dims)+1)
		labels = append(labels, chunk.Name)
		for i, dim := range dims {
			entry := dim.entries[tuple[i]]
			for k, v := range entry.Fields {
				fields[k] = v
			}
			labels = append(labels, dim.keys[tuple[i]])
		}

		out = append(out, chunkCandidate{
			Label: strings.Join(labels, "+"),
			Text:  cr.render(chunk.Body, fields),
		})
	}

	cr.logger.Debug(LogMsgChunkRendered,
		zap.String(LogFieldChunk, chunk.Name),
		zap.Int(LogFieldCount, len(out)))

	return out, nil
}

// overrideDims evaluates each with-clause override against its named
// source pool. Only multi-field entries can route values into chunk
// fields; an override whose selection has none is recorded as
// unsupported and skipped.
func (cr *chunkRenderer) overrideDims(placeholder string, chunk *Document, overrides []internal.FieldOverride, genCtx *Context, rng *rand.Rand, report *ResolutionReport) ([]overrideDim, error) {
	dims := make([]overrideDim, 0, len(overrides))

	for _, ov := range overrides {
		imp, ok := genCtx.Import(ov.Source)
		if !ok || imp.Pool == nil {
			return nil, NewNoVariationSourceError(ov.Source, chunk.SourcePath)
		}

		sel, err := internal.ParseSelector(ov.Selector)
		if err != nil {
			return nil, wrapSelectorError(err, placeholder, ov.Selector)
		}
		keys, err := sel.Apply(imp.Pool.Keys, internal.ApplyConfig{
			IndexBase: cr.indexBase,
			Strict:    cr.strict,
			Rand:      rng,
		})
		if err != nil {
			return nil, wrapSelectorError(err, placeholder, ov.Selector)
		}

		dim := overrideDim{field: ov.Field}
		for _, key := range keys {
			entry, ok := imp.Pool.Get(key)
			if !ok || entry.Kind != EntryMultiField || len(entry.Fields) == 0 {
				continue
			}
			dim.keys = append(dim.keys, key)
			dim.entries = append(dim.entries, entry)
		}

		if len(dim.keys) == 0 {
			cr.logger.Warn(LogMsgOverrideUnsupported,
				zap.String(LogFieldChunk, chunk.Name),
				zap.String(LogFieldField, ov.Field),
				zap.String(LogFieldSource, ov.Source))
			entry := report.Placeholder(placeholder)
			entry.Unsupported = append(entry.Unsupported, ov.Field)
			continue
		}

		dims = append(dims, dim)
	}

	return dims, nil
}

func (cr *chunkRenderer) render(body string, fields map[string]string) string {
	return cleanChunkText(replaceFieldTokens(body, fields))
}

// replaceFieldTokens substitutes every {category.field} token with its
// resolved value. Unresolved fields render as empty text; tokens that
// are not dotted field paths pass through untouched.
func replaceFieldTokens(body string, fields map[string]string) string {
	var sb strings.Builder
	sb.Grow(len(body))

	for i := 0; i < len(body); {
		if body[i] != '{' {
			sb.WriteByte(body[i])
			i++
			continue
		}

		end := strings.IndexByte(body[i:], '}')
		if end < 0 {
			sb.WriteString(body[i:])
			break
		}

		content := body[i+1 : i+end]
		if isFieldPath(content) {
			sb.WriteString(fields[content])
			i += end + 1
			continue
		}

		sb.WriteByte('{')
		i++
	}

	return sb.String()
}

// isFieldPath reports whether token content is a dotted field path like
// category.field.
func isFieldPath(s string) bool {
	if !strings.Contains(s, FieldPathSep) {
		return false
	}
	if strings.ContainsAny(s, " \t\n{}[]") {
		return false
	}
	for _, part := range strings.Split(s, FieldPathSep) {
		if part == "" {
			return false
		}
	}
	return true
}

// wrapSelectorError lifts an internal selector failure into the typed
// error surface, keeping the specific failure message.
func wrapSelectorError(err error, placeholder, term string) error {
	var selErr *internal.SelectorError
	if errors.As(err, &selErr) {
		return NewSelectorError(selErr.Message, placeholder, selErr.Term, selErr.Cause)
	}
	return NewSelectorError(ErrMsgSelectorParseFailed, placeholder, term, err)
}
