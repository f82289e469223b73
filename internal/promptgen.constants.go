package internal

// TermType identifies a selector term variety.
type TermType int

const (
	// TermAll selects every pool entry
	TermAll TermType = iota
	// TermKey selects one entry by key
	TermKey
	// TermIndex selects one entry by numeric position
	TermIndex
	// TermRange selects an inclusive index range
	TermRange
	// TermRandom samples entries without replacement
	TermRandom
)

// Term type string names
const (
	TermNameAll    = "all"
	TermNameKey    = "key"
	TermNameIndex  = "index"
	TermNameRange  = "range"
	TermNameRandom = "random"
)

// String returns the string representation of the term type.
func (t TermType) String() string {
	switch t {
	case TermAll:
		return TermNameAll
	case TermKey:
		return TermNameKey
	case TermIndex:
		return TermNameIndex
	case TermRange:
		return TermNameRange
	case TermRandom:
		return TermNameRandom
	default:
		return TermNameAll
	}
}

// Selector syntax constants
const (
	SelectorAll    = "all"
	RangePrefix    = "range:"
	RandomPrefix   = "random:"
	TermSeparator  = ","
	RangeSeparator = "-"
	WeightMark     = "$"
	DefaultWeight  = 0
	DefaultIdxBase = 1
)

// Placeholder syntax constants
const (
	PlaceholderOpen  = '{'
	PlaceholderClose = '}'
	SelectorOpen     = '['
	SelectorClose    = ']'
	WithKeyword      = "with"
	OverrideAssign   = "="
)

// Scanner and selector error messages
const (
	ErrMsgBadRangeTerm      = "range term must be range:<start>-<end>"
	ErrMsgBadRandomTerm     = "random term must be random:<count> with count > 0"
	ErrMsgBadWeightSuffix   = "weight suffix must be an integer"
	ErrMsgUnknownKey        = "key not present in pool"
	ErrMsgIndexOutOfRange   = "index out of pool range"
	ErrMsgRangeOutOfRange   = "range exceeds pool bounds"
	ErrMsgBadOverride       = "override must be field=SOURCE or field=SOURCE[selector]"
	ErrMsgUnterminatedBrack = "unterminated selector bracket"
)
