package promptgen

import (
	"context"
	"math/rand"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itsatony/go-promptgen/internal"
)

// GenerateOptions configure a single generation run.
type GenerateOptions struct {
	// Mode selects combinatorial cross-product or bounded random draws.
	// Empty defaults to ModeCombinatorial.
	Mode GenerationMode

	// SeedMode selects how seeds are assigned to variants. Empty
	// defaults to SeedFixed.
	SeedMode SeedMode

	// BaseSeed is the seed for SeedFixed and the starting seed for
	// SeedProgressive.
	BaseSeed int64

	// MaxCount caps the number of emitted variants. Zero means
	// unbounded in combinatorial mode and one in random mode.
	MaxCount int

	// RandomSeed seeds selector sampling and random-mode draws so runs
	// are reproducible. Zero seeds from the wall clock.
	RandomSeed int64

	// AllowDuplicates permits random mode to emit the same combination
	// more than once.
	AllowDuplicates bool
}

// Variant is one generated output: the final prompt texts, the seed, and
// the placeholder bindings that produced them.
type Variant struct {
	// Index is the variant's position within the run, starting at zero.
	Index int `json:"index"`

	// Seed is the assigned generation seed. SeedValueRandom defers the
	// choice to the downstream consumer.
	Seed int64 `json:"seed"`

	// Prompt is the normalized positive prompt text.
	Prompt string `json:"prompt"`

	// NegativePrompt is the normalized negative prompt text.
	NegativePrompt string `json:"negative_prompt,omitempty"`

	// Variations maps each placeholder name to the binding chosen for
	// this variant.
	Variations map[string]string `json:"variations,omitempty"`

	// Parameters carries the template's parameter bag plus any payloads
	// contributed by extension imports.
	Parameters map[string]any `json:"parameters,omitempty"`
}

// GenerationResult packages one run's variants with identifying metadata.
type GenerationResult struct {
	// RunID uniquely identifies this generation run.
	RunID uuid.UUID `json:"run_id"`

	// Template is the source path of the resolved document.
	Template string `json:"template"`

	// Style is the style the run was resolved under, if any.
	Style string `json:"style,omitempty"`

	// Theme is the theme document path the run was resolved under, if any.
	Theme string `json:"theme,omitempty"`

	// Variants holds the emitted variants in generation order.
	Variants []Variant `json:"variants"`

	// Report is the resolution report accumulated while resolving and
	// generating.
	Report *ResolutionReport `json:"-"`
}

// GenerationClient receives finished generation results for downstream
// processing, such as dispatch to an image generation backend.
type GenerationClient interface {
	Submit(ctx context.Context, result *GenerationResult) error
}

// candidate is one renderable choice for a placeholder: its binding
// label, positive text, optional negative contribution, and any
// parameter payload it adds to the variant.
type candidate struct {
	label    string
	text     string
	negative string
	params   map[string]any
}

// dimension is one deduplicated placeholder token with its candidate
// list and loop-nesting weight. Dimensions are keyed by the raw token,
// so {Pose} and {Pose[random:2]} in the same body vary independently.
type dimension struct {
	name       string
	raw        string
	weight     int
	candidates []candidate
}

// generator turns a resolved template into variants.
type generator struct {
	inherit   *inheritanceResolver
	chunks    *chunkRenderer
	logger    *zap.Logger
	indexBase int
	strict    bool
}

func newGenerator(inherit *inheritanceResolver, chunks *chunkRenderer, logger *zap.Logger, indexBase int, strict bool) *generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if indexBase != 0 && indexBase != 1 {
		indexBase = DefaultIndexBase
	}
	return &generator{
		inherit:   inherit,
		chunks:    chunks,
		logger:    logger,
		indexBase: indexBase,
		strict:    strict,
	}
}

// Generate expands the resolved template into variants according to the
// given options.
func (g *generator) Generate(ctx context.Context, res *Resolution, opts GenerateOptions) (*GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Mode == "" {
		opts.Mode = ModeCombinatorial
	}
	if _, err := ParseGenerationMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.SeedMode == "" {
		opts.SeedMode = SeedFixed
	}
	if _, err := ParseSeedMode(string(opts.SeedMode)); err != nil {
		return nil, err
	}

	drawSeed := opts.RandomSeed
	if drawSeed == 0 {
		drawSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(drawSeed))

	doc := res.Document
	report := res.Report

	g.logger.Debug(LogMsgGenerateStart,
		zap.String(LogFieldTemplate, doc.SourcePath),
		zap.String(LogFieldMode, opts.Mode.String()),
		zap.String(LogFieldSeedMode, opts.SeedMode.String()))

	dims, err := g.buildDimensions(ctx, res, rng, report)
	if err != nil {
		return nil, err
	}

	var tuples [][]int
	if len(dims) == 0 {
		tuples = constantTuples(opts)
	} else if opts.Mode == ModeRandom {
		tuples = randomTuples(dims, opts, rng)
	} else {
		tuples = combinatorialTuples(dims, opts.MaxCount)
	}

	variants := make([]Variant, 0, len(tuples))
	for i, tuple := range tuples {
		variants = append(variants, renderVariant(doc, dims, tuple, i, opts))
	}

	result := &GenerationResult{
		RunID:    uuid.New(),
		Template: doc.SourcePath,
		Variants: variants,
		Report:   report,
	}
	if res.Context != nil {
		result.Style = res.Context.Style
		result.Theme = res.Context.Theme
	}

	g.logger.Debug(LogMsgGenerateDone,
		zap.String(LogFieldTemplate, doc.SourcePath),
		zap.Int(LogFieldVariants, len(variants)))

	return result, nil
}

// buildDimensions scans the resolved body and negative text for
// placeholder tokens and builds one dimension per unique raw token,
// ordered by ascending weight so lower weights vary slowest.
func (g *generator) buildDimensions(ctx context.Context, res *Resolution, rng *rand.Rand, report *ResolutionReport) ([]dimension, error) {
	doc := res.Document

	placeholders, err := internal.ScanPlaceholders(doc.Body)
	if err != nil {
		return nil, NewParseError(ErrMsgParseFailed, doc.SourcePath, err)
	}
	if doc.NegativeText != "" {
		negPlaceholders, err := internal.ScanPlaceholders(doc.NegativeText)
		if err != nil {
			return nil, NewParseError(ErrMsgParseFailed, doc.SourcePath, err)
		}
		placeholders = append(placeholders, negPlaceholders...)
	}

	var dims []dimension
	seen := make(map[string]bool, len(placeholders))
	for _, ph := range placeholders {
		if isReservedToken(ph.Raw) || seen[ph.Raw] {
			continue
		}
		seen[ph.Raw] = true

		dim, err := g.buildDimension(ctx, res, ph, rng, report)
		if err != nil {
			return nil, err
		}
		dims = append(dims, *dim)
	}

	sort.SliceStable(dims, func(i, j int) bool {
		if dims[i].weight != dims[j].weight {
			return dims[i].weight < dims[j].weight
		}
		return dims[i].name < dims[j].name
	})
	return dims, nil
}

// buildDimension resolves one placeholder token into its candidate list.
func (g *generator) buildDimension(ctx context.Context, res *Resolution, ph internal.Placeholder, rng *rand.Rand, report *ResolutionReport) (*dimension, error) {
	genCtx := res.Context
	doc := res.Document

	sel, err := internal.ParseSelector(ph.Selector)
	if err != nil {
		return nil, wrapSelectorError(err, ph.Name, ph.Selector)
	}

	dim := &dimension{name: ph.Name, raw: ph.Raw, weight: sel.Weight}

	if genCtx.IsRemoved(ph.Name) {
		dim.candidates = []candidate{{}}
		return dim, nil
	}

	imp, ok := genCtx.Import(ph.Name)
	if !ok {
		value, found := genCtx.Default(ph.Name)
		if !found {
			return nil, NewNoVariationSourceError(ph.Name, doc.SourcePath)
		}
		report.Placeholder(ph.Name).Origin = OriginDefault
		dim.candidates = []candidate{{label: value, text: value}}
		return dim, nil
	}

	switch {
	case imp.Chunk != nil:
		dim.candidates, err = g.chunkCandidates(ctx, ph.Name, imp.Chunk, nil, ph.Overrides, genCtx, rng, report)
	case imp.Extension != nil:
		dim.candidates = []candidate{{
			label:  ph.Name,
			params: map[string]any{ph.Name: imp.Extension},
		}}
	default:
		dim.candidates, err = g.poolCandidates(ctx, ph, sel, imp.Pool, genCtx, rng, report)
	}
	if err != nil {
		return nil, err
	}

	// An import that selected nothing still has to produce one variant
	// per combination: fall back to the template default, then to empty.
	if len(dim.candidates) == 0 {
		if value, found := genCtx.Default(ph.Name); found {
			dim.candidates = []candidate{{label: value, text: value}}
		} else {
			report.AddWarning(ErrMsgNoVariationSource, doc.SourcePath, ph.Raw)
			dim.candidates = []candidate{{}}
		}
	}
	return dim, nil
}

// poolCandidates applies the placeholder's selector to the pool and maps
// each selected entry to a candidate. Chunk-reference entries expand
// through the chunk renderer and may contribute several candidates each.
func (g *generator) poolCandidates(ctx context.Context, ph internal.Placeholder, sel *internal.Selector, pool *Pool, genCtx *Context, rng *rand.Rand, report *ResolutionReport) ([]candidate, error) {
	keys, err := sel.Apply(pool.Keys, internal.ApplyConfig{
		IndexBase: g.indexBase,
		Strict:    g.strict,
		Rand:      rng,
	})
	if err != nil {
		return nil, wrapSelectorError(err, ph.Name, ph.Selector)
	}

	out := make([]candidate, 0, len(keys))
	for _, key := range keys {
		entry, _ := pool.Get(key)
		if entry == nil {
			continue
		}
		switch entry.Kind {
		case EntryChunkRef:
			chunk, err := g.loadChunk(ctx, entry, report)
			if err != nil {
				return nil, err
			}
			expanded, err := g.chunkCandidates(ctx, ph.Name, chunk, entry.Fields, ph.Overrides, genCtx, rng, report)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		case EntryExtension:
			out = append(out, candidate{
				label:  entry.Key,
				params: map[string]any{ph.Name: entry.Payload},
			})
		default:
			out = append(out, candidate{
				label:    entry.Binding(),
				text:     entry.Text(),
				negative: entry.Negative(),
			})
		}
	}
	return out, nil
}

// chunkCandidates expands a chunk document into candidates via the chunk
// renderer.
func (g *generator) chunkCandidates(ctx context.Context, placeholder string, chunk *Document, entryFields map[string]string, overrides []internal.FieldOverride, genCtx *Context, rng *rand.Rand, report *ResolutionReport) ([]candidate, error) {
	expanded, err := g.chunks.Expand(placeholder, chunk, entryFields, overrides, genCtx, rng, report)
	if err != nil {
		return nil, err
	}
	out := make([]candidate, 0, len(expanded))
	for _, c := range expanded {
		out = append(out, candidate{label: c.Label, text: c.Text})
	}
	return out, nil
}

// loadChunk resolves a chunk-reference entry's target relative to the
// pool file it came from.
func (g *generator) loadChunk(ctx context.Context, entry *PoolEntry, report *ResolutionReport) (*Document, error) {
	chunkPath := resolveRef(path.Dir(entry.Source), entry.Ref)
	chunk, err := g.inherit.Resolve(ctx, chunkPath, report)
	if err != nil {
		if IsNotFound(err) {
			return nil, NewPathError(ErrMsgChunkNotFound, entry.Source, chunkPath)
		}
		return nil, err
	}
	if chunk.Kind != KindChunk {
		return nil, NewPathError(ErrMsgImportKindUnsupported, entry.Source, chunkPath)
	}
	return chunk, nil
}

// constantTuples handles the zero-placeholder edge: one variant unless
// the seed mode differentiates copies and an explicit count asks for
// more.
func constantTuples(opts GenerateOptions) [][]int {
	n := 1
	if (opts.SeedMode == SeedRandom || opts.SeedMode == SeedProgressive) && opts.MaxCount > 0 {
		n = opts.MaxCount
	}
	tuples := make([][]int, n)
	return tuples
}

// combinatorialTuples walks the full cross product in odometer order,
// truncating at maxCount when positive.
func combinatorialTuples(dims []dimension, maxCount int) [][]int {
	sizes := make([]int, len(dims))
	for i, d := range dims {
		sizes[i] = len(d.candidates)
	}

	var out [][]int
	product := internal.NewProduct(sizes)
	for {
		tuple, ok := product.Next()
		if !ok {
			break
		}
		out = append(out, tuple)
		if maxCount > 0 && len(out) >= maxCount {
			break
		}
	}
	return out
}

// randomTuples draws random index tuples, rejecting duplicates unless
// allowed. Attempts are bounded so a small combination space cannot
// spin forever.
func randomTuples(dims []dimension, opts GenerateOptions, rng *rand.Rand) [][]int {
	count := opts.MaxCount
	if count <= 0 {
		count = 1
	}
	sizes := make([]int, len(dims))
	for i, d := range dims {
		sizes[i] = len(d.candidates)
	}

	var out [][]int
	seen := make(map[string]bool, count)
	attempts := count * RandomDrawFactor
	for a := 0; a < attempts && len(out) < count; a++ {
		tuple := make([]int, len(dims))
		for i, size := range sizes {
			tuple[i] = rng.Intn(size)
		}
		if !opts.AllowDuplicates {
			sig := tupleSignature(tuple)
			if seen[sig] {
				continue
			}
			seen[sig] = true
		}
		out = append(out, tuple)
	}
	return out
}

func tupleSignature(tuple []int) string {
	var b strings.Builder
	for i, idx := range tuple {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// renderVariant substitutes one candidate tuple into the template body
// and negative text and assigns the variant's seed.
func renderVariant(doc *Document, dims []dimension, tuple []int, index int, opts GenerateOptions) Variant {
	text := doc.Body
	negative := doc.NegativeText
	variations := make(map[string]string, len(dims))
	params := cloneAnyMap(doc.Parameters)
	var negExtra []string

	for i, dim := range dims {
		cand := dim.candidates[tuple[i]]
		variations[dim.name] = cand.label
		text = strings.ReplaceAll(text, dim.raw, cand.text)
		negative = strings.ReplaceAll(negative, dim.raw, cand.text)
		if cand.negative != "" {
			negExtra = append(negExtra, cand.negative)
		}
		if len(cand.params) > 0 {
			if params == nil {
				params = make(map[string]any, len(cand.params))
			}
			for k, v := range cand.params {
				params[k] = v
			}
		}
	}

	if len(negExtra) > 0 {
		if negative != "" {
			negative += ", "
		}
		negative += strings.Join(negExtra, ", ")
	}

	text = fillReservedTokens(text, params)
	negative = fillReservedTokens(negative, params)

	return Variant{
		Index:          index,
		Seed:           variantSeed(opts, index),
		Prompt:         Normalize(text),
		NegativePrompt: Normalize(negative),
		Variations:     variations,
		Parameters:     params,
	}
}

// fillReservedTokens replaces {loras} with the loras parameter and
// strips any leftover injection tokens.
func fillReservedTokens(text string, params map[string]any) string {
	loras := ""
	if v, ok := params[ParamKeyLoras].(string); ok {
		loras = v
	}
	text = strings.ReplaceAll(text, TokenLoras, loras)
	text = strings.ReplaceAll(text, TokenPrompt, "")
	return strings.ReplaceAll(text, TokenNegPrompt, "")
}

func variantSeed(opts GenerateOptions, index int) int64 {
	switch opts.SeedMode {
	case SeedProgressive:
		return opts.BaseSeed + int64(index)
	case SeedRandom:
		return SeedValueRandom
	default:
		return opts.BaseSeed
	}
}

func isReservedToken(raw string) bool {
	return raw == TokenPrompt || raw == TokenNegPrompt || raw == TokenLoras
}
