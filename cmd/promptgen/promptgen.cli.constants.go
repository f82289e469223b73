package main

// Command names
const (
	CmdNameGenerate = "generate"
	CmdNameResolve  = "resolve"
	CmdNameValidate = "validate"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagRoot            = "root"
	FlagDoc             = "doc"
	FlagStyle           = "style"
	FlagTheme           = "theme"
	FlagMode            = "mode"
	FlagSeedMode        = "seed-mode"
	FlagSeed            = "seed"
	FlagCount           = "count"
	FlagRandomSeed      = "random-seed"
	FlagAllowDuplicates = "allow-duplicates"
	FlagOutput          = "output"
	FlagFormat          = "format"
	FlagStrictMode      = "strict"
	FlagQuiet           = "quiet"
)

// Flag names - short form
const (
	FlagRootShort   = "r"
	FlagDocShort    = "d"
	FlagOutputShort = "o"
	FlagFormatShort = "F"
	FlagQuietShort  = "q"
)

// Flag default values
const (
	FlagDefaultRoot   = "."
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand    = "unknown command"
	ErrMsgMissingDoc        = "document path required"
	ErrMsgOpenStoreFailed   = "failed to open document library"
	ErrMsgResolveFailed     = "resolution failed"
	ErrMsgGenerateFailed    = "generation failed"
	ErrMsgValidateFailed    = "validation failed"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgInvalidMode       = "invalid generation mode"
	ErrMsgJSONMarshalFailed = "failed to marshal JSON"
)

// Help text templates
const (
	HelpMainUsage = `go-promptgen - Template resolution and combinatorial prompt generation

Usage:
    promptgen <command> [options]

Commands:
    generate    Resolve a document and emit prompt variants
    resolve     Resolve a document and show the merged result
    validate    Validate a document tree without generating
    version     Show version information
    help        Show help for a command

Use "promptgen help <command>" for more information about a command.`

	HelpGenerateUsage = `Resolve a document and emit prompt variants

Usage:
    promptgen generate [options]

Options:
    -r, --root <dir>        Document library root (default: current directory)
    -d, --doc <path>        Document path inside the library
    --style <name>          Style to resolve under
    --theme <path>          Theme document to apply
    --mode <mode>           Generation mode: combinatorial, random
    --seed-mode <mode>      Seed mode: fixed, progressive, random
    --seed <n>              Base seed (default: 0)
    --count <n>             Maximum number of variants (0 = unbounded)
    --random-seed <n>       Sampling seed for reproducible random runs
    --allow-duplicates      Permit duplicate combinations in random mode
    -o, --output <file>     Output file (default: stdout)
    -F, --format <format>   Output format: text, json (default: text)
    -q, --quiet             Suppress the run header in text output

Examples:
    promptgen generate -r ./library -d prompts/elena.yaml
    promptgen generate -d prompts/elena.yaml --seed-mode progressive --seed 100
    promptgen generate -d prompts/elena.yaml --mode random --count 10 -F json`

	HelpResolveUsage = `Resolve a document and show the merged result

Usage:
    promptgen resolve [options]

Options:
    -r, --root <dir>        Document library root (default: current directory)
    -d, --doc <path>        Document path inside the library
    --style <name>          Style to resolve under
    --theme <path>          Theme document to apply
    -F, --format <format>   Output format: text, json (default: text)

Examples:
    promptgen resolve -r ./library -d prompts/elena.yaml
    promptgen resolve -d prompts/elena.yaml --theme themes/noir.yaml -F json`

	HelpValidateUsage = `Validate a document tree without generating

Usage:
    promptgen validate [options]

Options:
    -r, --root <dir>        Document library root (default: current directory)
    -d, --doc <path>        Document path inside the library
    --style <name>          Style to validate under
    --theme <path>          Theme document to include
    -F, --format <format>   Output format: text, json (default: text)
    --strict                Treat warnings as errors

Examples:
    promptgen validate -r ./library -d templates/portrait.yaml
    promptgen validate -d templates/portrait.yaml --strict -F json`

	HelpVersionUsage = `Show version information

Usage:
    promptgen version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    promptgen help [command]

Commands:
    generate    Show help for generate command
    resolve     Show help for resolve command
    validate    Show help for validate command
    version     Show help for version command`
)

// Version output format templates
const (
	VersionTextTemplate = "go-promptgen version %s\nCommit: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Validation output format templates
const (
	ValidationTextSuccess      = "Document tree is valid"
	ValidationTextIssueHeader  = "Validation issues:"
	ValidationTextIssueFormat  = "  [%s] %s: %s"
	ValidationTextFieldFormat  = "  [%s] %s (%s): %s"
	ValidationTextErrorSummary = "%d error(s), %d warning(s)"
)

// Severity names for output
const (
	SeverityNameError   = "ERROR"
	SeverityNameWarning = "WARNING"
	SeverityNameInfo    = "INFO"
)

// Generate output format templates
const (
	GenerateTextRunHeader     = "run %s: %d variant(s) from %s"
	GenerateTextVariantHeader = "# %d seed=%d"
	GenerateTextNegativeLine  = "negative: %s"
)

// Resolve output format templates
const (
	ResolveTextBodyHeader     = "body:"
	ResolveTextNegativeHeader = "negative_text:"
	ResolveTextIndent         = "  "
)

// CLI metadata
const (
	CLIName        = "promptgen"
	CLIDescription = "Template resolution and combinatorial prompt generation CLI"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)
