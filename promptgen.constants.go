package promptgen

import "time"

// Placeholder delimiters - single braces, matching the document syntax
const (
	PlaceholderOpen  = "{"
	PlaceholderClose = "}"
	SelectorOpen     = "["
	SelectorClose    = "]"
)

// Reserved token names - legal only in template and prompt bodies
const (
	ReservedNamePrompt    = "prompt"
	ReservedNameNegPrompt = "negprompt"
	ReservedNameLoras     = "loras"
)

// Reserved tokens in full spelling
const (
	TokenPrompt    = "{prompt}"
	TokenNegPrompt = "{negprompt}"
	TokenLoras     = "{loras}"
)

// Kind identifies the document kind. It is decided once at parse time and
// never re-inferred downstream.
type Kind string

const (
	// KindTemplate carries a {prompt} injection point
	KindTemplate Kind = "template"
	// KindPrompt is leaf content injected into a template's {prompt} token
	KindPrompt Kind = "prompt"
	// KindChunk is a reusable parameterized fragment with named fields
	KindChunk Kind = "chunk"
	// KindTheme supplies wholesale import overrides for style-sensitive placeholders
	KindTheme Kind = "theme"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValidKind checks if a string is a recognized document kind.
func IsValidKind(s string) bool {
	switch Kind(s) {
	case KindTemplate, KindPrompt, KindChunk, KindTheme:
		return true
	default:
		return false
	}
}

// Document field name constants for YAML serialization keys
const (
	FieldVersion      = "version"
	FieldName         = "name"
	FieldKind         = "kind"
	FieldBody         = "body"
	FieldImplements   = "implements"
	FieldImports      = "imports"
	FieldParameters   = "parameters"
	FieldNegativeText = "negative_text"
	FieldChunks       = "chunks"
	FieldDefaults     = "defaults"
	FieldType         = "type"
	FieldFields       = "fields"
)

// Well-known parameter keys
const (
	// ParamKeyStyleSensitive lists placeholder names that follow the active style
	ParamKeyStyleSensitive = "style_sensitive"
	// ParamKeyLoras fills the reserved {loras} token at generation time
	ParamKeyLoras = "loras"
)

// Pool entry part names for multi-part variation values
const (
	PartPositive = "positive"
	PartNegative = "negative"
)

// Pool entry mapping keys that mark extension payloads and chunk references
const (
	ExtensionKeyDetector = "detector"
	ExtensionKeyEffect   = "effect"
	ChunkRefKey          = "chunk"
)

// Selector syntax constants
const (
	SelectorAll          = "all"
	SelectorRangePrefix  = "range:"
	SelectorRandomPrefix = "random:"
	SelectorTermSep      = ","
	SelectorRangeSep     = "-"
	SelectorWeightMark   = "$"
)

// Selector defaults
const (
	// DefaultIndexBase makes numeric selectors 1-based
	DefaultIndexBase = 1
	// DefaultSelectorWeight is the loop-nesting weight of unweighted placeholders
	DefaultSelectorWeight = 0
)

// Chunk placeholder syntax
const (
	// WithKeyword separates a chunk name from its field overrides
	WithKeyword = "with"
	// FieldPathSep joins a category and field name in chunk body tokens
	FieldPathSep = "."
)

// GenerationMode selects how placeholder candidates combine into variants.
type GenerationMode string

const (
	// ModeCombinatorial emits the full cross-product of all candidate lists
	ModeCombinatorial GenerationMode = "combinatorial"
	// ModeRandom draws a bounded number of random combinations
	ModeRandom GenerationMode = "random"
)

// String returns the string representation of the generation mode.
func (m GenerationMode) String() string {
	return string(m)
}

// ParseGenerationMode parses a string into a GenerationMode.
// Unknown values are a fatal configuration error.
func ParseGenerationMode(s string) (GenerationMode, error) {
	switch GenerationMode(s) {
	case ModeCombinatorial, ModeRandom:
		return GenerationMode(s), nil
	default:
		return "", NewUnknownModeError(MetaKeyMode, s)
	}
}

// SeedMode selects how seeds are assigned to emitted variants.
type SeedMode string

const (
	// SeedFixed assigns the base seed to every variant
	SeedFixed SeedMode = "fixed"
	// SeedProgressive assigns baseSeed+i to the i-th variant
	SeedProgressive SeedMode = "progressive"
	// SeedRandom assigns the sentinel value; actual randomness is deferred
	// to the downstream generator
	SeedRandom SeedMode = "random"
)

// String returns the string representation of the seed mode.
func (m SeedMode) String() string {
	return string(m)
}

// ParseSeedMode parses a string into a SeedMode.
// Unknown values are a fatal configuration error.
func ParseSeedMode(s string) (SeedMode, error) {
	switch SeedMode(s) {
	case SeedFixed, SeedProgressive, SeedRandom:
		return SeedMode(s), nil
	default:
		return "", NewUnknownModeError(MetaKeySeedMode, s)
	}
}

// Seed assignment constants
const (
	// SeedValueRandom is the sentinel emitted under SeedRandom
	SeedValueRandom int64 = -1
	// RandomDrawFactor bounds random-mode draw attempts at factor*maxCount
	RandomDrawFactor = 10
)

// Inheritance constants
const (
	// DefaultMaxInheritanceDepth bounds the implements chain length
	DefaultMaxInheritanceDepth = 10
	// ChunkInheritanceMaxDepth restricts chunk-to-chunk inheritance to one level
	ChunkInheritanceMaxDepth = 1
)

// Theme constants
const (
	// ThemeRemoveDirective is the reserved single-element list value that
	// marks a placeholder as explicitly removed. Case-sensitive.
	ThemeRemoveDirective = "Remove"
	// ThemeStyleSep separates a placeholder name from its style suffix in
	// theme import keys (e.g. "Hair.anime")
	ThemeStyleSep = "."
)

// Import resolution constants
const (
	// PoolFileExtension is the canonical variation pool file extension;
	// list entries not ending in it are treated as inline literals
	PoolFileExtension = ".yaml"
	// PoolFileExtensionAlt is the accepted alternate pool file extension
	PoolFileExtensionAlt = ".yml"
	// SourcePrefixSep replaces path separators and dots when a colliding
	// key is prefixed with its source path
	SourcePrefixSep = "__"
	// InlineKeyLength is the hex length of inline literal keys
	InlineKeyLength = 8
)

// ImportOrigin records which document level supplied a placeholder's source.
type ImportOrigin string

const (
	// OriginTemplate means the merged template chain supplied the import
	OriginTemplate ImportOrigin = "template"
	// OriginTheme means the active theme supplied the import
	OriginTheme ImportOrigin = "theme"
	// OriginPrompt means the leaf prompt re-applied the import as a final override
	OriginPrompt ImportOrigin = "prompt"
	// OriginDefault means the merged defaults supplied a fallback value
	OriginDefault ImportOrigin = "default"
)

// ValidationSeverity indicates the severity of a validation issue.
type ValidationSeverity int

const (
	// SeverityError indicates a critical issue that prevents resolution
	SeverityError ValidationSeverity = iota
	// SeverityWarning indicates a potential issue that may cause problems
	SeverityWarning
	// SeverityInfo indicates informational feedback
	SeverityInfo
)

// Validation severity string names
const (
	SeverityNameError   = "error"
	SeverityNameWarning = "warning"
	SeverityNameInfo    = "info"
)

// String returns the string representation of the validation severity
func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return SeverityNameError
	case SeverityWarning:
		return SeverityNameWarning
	case SeverityInfo:
		return SeverityNameInfo
	default:
		return SeverityNameError
	}
}

// Store driver names
const (
	StoreDriverNameMemory     = "memory"
	StoreDriverNameFilesystem = "filesystem"
	StoreDriverNamePostgres   = "postgres"
)

// Filesystem store constants
const (
	FilesystemDirPermissions  = 0755
	FilesystemFilePermissions = 0644
)

// PostgreSQL store configuration defaults
const (
	PostgresTablePrefix            = "promptgen_"
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
)

// Store watcher defaults
const (
	// DefaultWatchDebounce coalesces rapid file events before invalidation
	DefaultWatchDebounce = 500 * time.Millisecond
	// DefaultWatchTickInterval is how often pending events are flushed
	DefaultWatchTickInterval = 100 * time.Millisecond
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyFile        = "file"
	MetaKeyField       = "field"
	MetaKeyPlaceholder = "placeholder"
	MetaKeyParent      = "parent"
	MetaKeySelector    = "selector"
	MetaKeyTerm        = "term"
	MetaKeySource      = "source"
	MetaKeyKey         = "key"
	MetaKeyDepth       = "depth"
	MetaKeyMaxDepth    = "max_depth"
	MetaKeyMode        = "mode"
	MetaKeySeedMode    = "seed_mode"
	MetaKeyValue       = "value"
	MetaKeyReason      = "reason"
	MetaKeyTheme       = "theme"
	MetaKeyStyle       = "style"
	MetaKeyChunk       = "chunk"
	MetaKeyChunkType   = "chunk_type"
	MetaKeyExpected    = "expected"
	MetaKeyActual      = "actual"
	MetaKeyPath        = "path"
	MetaKeyDriver      = "driver"
	MetaKeyLine        = "line"
	MetaKeyColumn      = "column"
	MetaKeyOffset      = "offset"
	MetaKeyKind        = "kind"
	MetaKeyChain       = "chain"
)

// Log message constants
const (
	LogMsgResolveStart        = "resolution started"
	LogMsgResolveDone         = "resolution finished"
	LogMsgInheritanceMerged   = "inheritance chain merged"
	LogMsgInheritanceCacheHit = "inheritance cache hit"
	LogMsgImportsResolved     = "imports resolved"
	LogMsgThemeApplied        = "theme applied"
	LogMsgStyleVariantUsed    = "style variant file used"
	LogMsgStyleVariantMissed  = "style variant file absent, using base"
	LogMsgKeyCollision        = "pool key collision, prefixing with source path"
	LogMsgChunkRendered       = "chunk rendered"
	LogMsgGenerateStart       = "generation started"
	LogMsgGenerateDone        = "generation finished"
	LogMsgSelectorSkipped     = "selector term skipped"
	LogMsgCacheInvalidated    = "resolver cache invalidated"
	LogMsgWatcherStarted      = "store watcher started"
	LogMsgWatcherStopped      = "store watcher stopped"
	LogMsgWatchEvent          = "store file changed"
	LogMsgInjectionFallback   = "parent body has no injection token, child body replaces it"
	LogMsgChunkTypeAssumed    = "parent chunk has no type tag, assuming child's"
	LogMsgOverrideUnsupported = "single-field chunk override is unsupported, skipping"
)

// Log field name constants
const (
	LogFieldTemplate    = "template"
	LogFieldPath        = "path"
	LogFieldParent      = "parent"
	LogFieldPlaceholder = "placeholder"
	LogFieldStyle       = "style"
	LogFieldTheme       = "theme"
	LogFieldKey         = "key"
	LogFieldSource      = "source"
	LogFieldChunk       = "chunk"
	LogFieldField       = "field"
	LogFieldMode        = "mode"
	LogFieldSeedMode    = "seed_mode"
	LogFieldCount       = "count"
	LogFieldVariants    = "variants"
	LogFieldSelector    = "selector"
	LogFieldTerm        = "term"
	LogFieldDepth       = "depth"
	LogFieldChain       = "chain"
	LogFieldDriver      = "driver"
	LogFieldError       = "error"
	LogFieldRun         = "run_id"
)
