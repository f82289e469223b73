package promptgen

import (
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	// Structural errors - raised at document load, never recovered
	ErrMsgParseFailed       = "document parsing failed"
	ErrMsgMissingField      = "required document field missing"
	ErrMsgWrongFieldType    = "document field has wrong type"
	ErrMsgUnknownKind       = "unknown document kind"
	ErrMsgReservedInChunk   = "reserved token is not allowed in chunk bodies"
	ErrMsgMissingInjection  = "template body must contain exactly one {prompt} token"
	ErrMsgMultipleInjection = "template body contains more than one {prompt} token"
	ErrMsgEmptyBody         = "document body is empty"
	ErrMsgPoolParseFailed   = "variation pool parsing failed"
	ErrMsgPoolNotMapping    = "variation pool root must be a mapping"
	ErrMsgDuplicatePoolKey  = "duplicate key in variation pool"
	ErrMsgPoolValueInvalid  = "variation pool value has unsupported type"

	// Path errors - collected during validation, fatal during resolution
	ErrMsgParentNotFound        = "implements target not found"
	ErrMsgAbsoluteParentRef     = "implements path must be relative"
	ErrMsgImportNotFound        = "import target not found"
	ErrMsgChunkNotFound         = "chunk target not found"
	ErrMsgThemeNotFound         = "theme document not found"
	ErrMsgNoVariationSource     = "placeholder has no variation source"
	ErrMsgImportKindUnsupported = "import target is not a variation source"
	ErrMsgThemeKindInvalid      = "theme target is not a theme document"

	// Inheritance errors
	ErrMsgInheritanceCycle     = "inheritance cycle detected"
	ErrMsgInheritanceTooDeep   = "inheritance chain exceeds maximum depth"
	ErrMsgChunkParentHasParent = "chunk inheritance is limited to one level"
	ErrMsgChunkTypeMismatch    = "chunk type tag does not match parent"
	ErrMsgChunkKindPairing     = "chunk inheritance requires chunk child and chunk parent"

	// Selector errors - fatal only under strict mode
	ErrMsgSelectorParseFailed = "selector parsing failed"
	ErrMsgSelectorUnknownKey  = "selector references unknown key"
	ErrMsgSelectorOutOfRange  = "selector index out of range"
	ErrMsgSelectorBadRange    = "selector range bounds are invalid"
	ErrMsgSelectorBadCount    = "selector sample count is invalid"

	// Generation errors
	ErrMsgUnknownMode    = "unknown mode string"
	ErrMsgGenerateFailed = "variant generation failed"
	ErrMsgNoClient       = "no generation client configured"
)

// Error code constants for categorization
const (
	ErrCodeParse       = "PROMPTGEN_PARSE"
	ErrCodePath        = "PROMPTGEN_PATH"
	ErrCodeInheritance = "PROMPTGEN_INHERIT"
	ErrCodeSelector    = "PROMPTGEN_SELECTOR"
	ErrCodeGeneration  = "PROMPTGEN_GENERATE"
)

// Position represents a location in a document body
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// NewParseError creates a structural load error with file context
func NewParseError(msg string, file string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeParse, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeParse, msg)
	}
	return err.WithMetadata(MetaKeyFile, file)
}

// NewFieldError creates a structural error for a specific document field
func NewFieldError(msg string, file string, field string) error {
	return cuserr.NewValidationError(ErrCodeParse, msg).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyField, field)
}

// NewReservedTokenError creates an error for reserved token misuse in chunks
func NewReservedTokenError(file string, token string) error {
	return cuserr.NewValidationError(ErrCodeParse, ErrMsgReservedInChunk).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyValue, token)
}

// NewPathError creates a path error for a missing or disallowed target
func NewPathError(msg string, file string, target string) error {
	return cuserr.NewNotFoundError(MetaKeyPath, msg).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyPath, target)
}

// NewAbsoluteParentError creates an error for an absolute implements path
func NewAbsoluteParentError(file string, target string) error {
	return cuserr.NewValidationError(ErrCodePath, ErrMsgAbsoluteParentRef).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyPath, target)
}

// NewInheritanceCycleError creates an error for a cyclic implements chain
func NewInheritanceCycleError(file string, chain []string) error {
	return cuserr.NewValidationError(ErrCodeInheritance, ErrMsgInheritanceCycle).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyChain, fmt.Sprintf("%v", chain))
}

// NewInheritanceDepthError creates an error for an over-deep implements chain
func NewInheritanceDepthError(file string, depth, maxDepth int) error {
	return cuserr.NewValidationError(ErrCodeInheritance, ErrMsgInheritanceTooDeep).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyDepth, strconv.Itoa(depth)).
		WithMetadata(MetaKeyMaxDepth, strconv.Itoa(maxDepth))
}

// NewChunkDepthError creates an error for a chunk whose parent has a parent
func NewChunkDepthError(file string, parent string) error {
	return cuserr.NewValidationError(ErrCodeInheritance, ErrMsgChunkParentHasParent).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyParent, parent)
}

// NewChunkKindError creates an error for a chunk inheriting from a
// non-chunk document or the reverse
func NewChunkKindError(file string, parent string) error {
	return cuserr.NewValidationError(ErrCodeInheritance, ErrMsgChunkKindPairing).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyParent, parent)
}

// NewChunkTypeMismatchError creates an error for mismatched chunk type tags
func NewChunkTypeMismatchError(file string, expected, actual string) error {
	return cuserr.NewValidationError(ErrCodeInheritance, ErrMsgChunkTypeMismatch).
		WithMetadata(MetaKeyFile, file).
		WithMetadata(MetaKeyExpected, expected).
		WithMetadata(MetaKeyActual, actual)
}

// NewSelectorError creates a selector error with placeholder context
func NewSelectorError(msg string, placeholder string, term string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeSelector, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeSelector, msg)
	}
	return err.
		WithMetadata(MetaKeyPlaceholder, placeholder).
		WithMetadata(MetaKeyTerm, term)
}

// NewUnknownModeError creates a fatal configuration error for mode strings
func NewUnknownModeError(field string, value string) error {
	return cuserr.NewValidationError(ErrCodeGeneration, ErrMsgUnknownMode).
		WithMetadata(MetaKeyField, field).
		WithMetadata(MetaKeyValue, value)
}

// NewGenerateError creates a generation error
func NewGenerateError(msg string, placeholder string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeGeneration, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeGeneration, msg)
	}
	return err.WithMetadata(MetaKeyPlaceholder, placeholder)
}

// NewNoVariationSourceError creates an error for a placeholder with no pool,
// no default, and no explicit removal
func NewNoVariationSourceError(placeholder string, file string) error {
	return cuserr.NewNotFoundError(MetaKeyPlaceholder, ErrMsgNoVariationSource).
		WithMetadata(MetaKeyPlaceholder, placeholder).
		WithMetadata(MetaKeyFile, file)
}

