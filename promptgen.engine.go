package promptgen

import (
	"context"
	"path"

	"go.uber.org/zap"
)

// Engine is the main entry point for template resolution and variant
// generation. It wires a document store to the inheritance, theme,
// import, and generation layers and caches resolved inheritance chains
// until invalidated.
type Engine struct {
	store   DocumentStore
	inherit *inheritanceResolver
	imports *importResolver
	gen     *generator
	config  *engineConfig
	logger  *zap.Logger
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := config.store
	if store == nil {
		store = NewMemoryStore()
	}

	inherit := newInheritanceResolver(store, logger, config.maxDepth)
	imports := newImportResolver(store, inherit, logger)
	chunks := newChunkRenderer(logger, config.indexBase, config.strictSelectors)
	gen := newGenerator(inherit, chunks, logger, config.indexBase, config.strictSelectors)

	return &Engine{
		store:   store,
		inherit: inherit,
		imports: imports,
		gen:     gen,
		config:  config,
		logger:  logger,
	}, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Store returns the document store the engine reads from.
func (e *Engine) Store() DocumentStore {
	return e.store
}

// Load parses a single document without resolving its inheritance chain.
func (e *Engine) Load(ctx context.Context, docPath string) (*Document, error) {
	return e.inherit.Load(ctx, path.Clean(docPath))
}

// Resolve runs the full resolution pipeline for the document at docPath:
// inheritance merging, theme application, style-variant lookup, and
// import resolution. The returned Resolution is ready for generation.
func (e *Engine) Resolve(ctx context.Context, docPath string, opts ResolveOptions) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docPath = path.Clean(docPath)
	report := NewResolutionReport(docPath)
	report.Style = opts.Style
	report.Theme = opts.Theme

	e.logger.Debug(LogMsgResolveStart,
		zap.String(LogFieldPath, docPath),
		zap.String(LogFieldStyle, opts.Style),
		zap.String(LogFieldTheme, opts.Theme))

	leaf, err := e.inherit.Load(ctx, docPath)
	if err != nil {
		return nil, err
	}

	merged, err := e.inherit.Resolve(ctx, docPath, report)
	if err != nil {
		return nil, err
	}

	sensitive := styleSensitiveNames(merged.Parameters, e.allStyleSensitive(opts.StyleSensitive))

	var theme *Document
	if opts.Theme != "" {
		themePath := path.Clean(opts.Theme)
		theme, err = e.inherit.Resolve(ctx, themePath, report)
		if err != nil {
			if IsNotFound(err) {
				return nil, NewPathError(ErrMsgThemeNotFound, docPath, themePath)
			}
			return nil, err
		}
		if theme.Kind != KindTheme {
			return nil, NewPathError(ErrMsgThemeKindInvalid, docPath, themePath)
		}
	}

	// Imports declared by the leaf prompt itself re-apply after the
	// theme, so a prompt always keeps its explicit choices.
	var leafImports map[string]ImportSpec
	if leaf.Kind == KindPrompt {
		leafImports = leaf.Imports
	}

	app := applyTheme(merged, theme, leafImports, opts.Style, sensitive, report, e.logger)

	resolved, err := e.imports.ResolveImports(ctx, docPath, app.imports, app.origins, opts.Style, sensitive, app.removed, report)
	if err != nil {
		return nil, err
	}

	e.logger.Debug(LogMsgResolveDone,
		zap.String(LogFieldPath, docPath),
		zap.Int(LogFieldCount, len(resolved)))

	return &Resolution{
		Document: merged,
		Context: &Context{
			Imports:    resolved,
			Style:      opts.Style,
			Theme:      opts.Theme,
			Removed:    app.removed,
			Defaults:   merged.Defaults,
			Parameters: merged.Parameters,
		},
		Report: report,
	}, nil
}

// Generate resolves the document at docPath and expands it into
// variants in one step.
func (e *Engine) Generate(ctx context.Context, docPath string, ropts ResolveOptions, gopts GenerateOptions) (*GenerationResult, error) {
	res, err := e.Resolve(ctx, docPath, ropts)
	if err != nil {
		return nil, err
	}
	return e.gen.Generate(ctx, res, gopts)
}

// GenerateResolved expands an already resolved template into variants,
// letting callers resolve once and generate repeatedly with different
// options.
func (e *Engine) GenerateResolved(ctx context.Context, res *Resolution, opts GenerateOptions) (*GenerationResult, error) {
	return e.gen.Generate(ctx, res, opts)
}

// Submit hands a finished result to the configured generation client.
func (e *Engine) Submit(ctx context.Context, result *GenerationResult) error {
	if e.config.client == nil {
		return NewGenerateError(ErrMsgNoClient, "", nil)
	}
	return e.config.client.Submit(ctx, result)
}

// Invalidate drops the cached resolution of docPath and of every
// document whose inheritance chain passes through it. It returns the
// number of cache entries removed.
func (e *Engine) Invalidate(docPath string) int {
	return e.inherit.Invalidate(path.Clean(docPath))
}

// InvalidateAll clears the resolution cache entirely.
func (e *Engine) InvalidateAll() int {
	return e.inherit.InvalidateAll()
}

// CacheSize reports the number of cached resolved documents.
func (e *Engine) CacheSize() int {
	return e.inherit.CacheSize()
}

// allStyleSensitive merges per-call style-sensitive names with the
// engine-wide ones.
func (e *Engine) allStyleSensitive(extra []string) []string {
	if len(e.config.styleSensitive) == 0 {
		return extra
	}
	merged := make([]string, 0, len(e.config.styleSensitive)+len(extra))
	merged = append(merged, e.config.styleSensitive...)
	merged = append(merged, extra...)
	return merged
}
