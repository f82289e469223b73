package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	promptgen "github.com/itsatony/go-promptgen"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	root    string
	docPath string
	style   string
	theme   string
	format  string
	strict  bool
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid  bool                    `json:"valid"`
	Root   string                  `json:"root"`
	Issues []validationIssueOutput `json:"issues,omitempty"`
}

type validationIssueOutput struct {
	Severity string `json:"severity"`
	Path     string `json:"path"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

func runValidate(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingDoc, err)
		return ExitCodeUsageError
	}

	engine, err := openEngine(cfg.root)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgOpenStoreFailed, err)
		return ExitCodeInputError
	}

	result, err := engine.ValidateTree(context.Background(), cfg.docPath, promptgen.ResolveOptions{
		Style: cfg.style,
		Theme: cfg.theme,
	})
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgValidateFailed, err)
		return ExitCodeError
	}

	if cfg.format == OutputFormatJSON {
		return outputValidationJSON(result, cfg.strict, stdout)
	}
	return outputValidationText(result, cfg.strict, stdout)
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &validateConfig{}

	fs.StringVar(&cfg.root, FlagRoot, FlagDefaultRoot, "")
	fs.StringVar(&cfg.root, FlagRootShort, FlagDefaultRoot, "")
	fs.StringVar(&cfg.docPath, FlagDoc, "", "")
	fs.StringVar(&cfg.docPath, FlagDocShort, "", "")
	fs.StringVar(&cfg.style, FlagStyle, "", "")
	fs.StringVar(&cfg.theme, FlagTheme, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.BoolVar(&cfg.strict, FlagStrictMode, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.docPath == "" {
		return nil, errors.New(ErrMsgMissingDoc)
	}
	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

func outputValidationText(result *promptgen.ValidationResult, strict bool, stdout io.Writer) int {
	if len(result.Issues) == 0 {
		fmt.Fprintln(stdout, ValidationTextSuccess)
		return ExitCodeSuccess
	}

	fmt.Fprintln(stdout, ValidationTextIssueHeader)
	for _, issue := range result.Issues {
		severityName := severityToName(issue.Severity)
		if issue.Field != "" {
			fmt.Fprintf(stdout, ValidationTextFieldFormat+FmtNewline,
				severityName, issue.Path, issue.Field, issue.Message)
		} else {
			fmt.Fprintf(stdout, ValidationTextIssueFormat+FmtNewline,
				severityName, issue.Path, issue.Message)
		}
	}

	errorCount := result.ErrorCount()
	warningCount := result.WarningCount()
	fmt.Fprintf(stdout, ValidationTextErrorSummary+FmtNewline, errorCount, warningCount)

	if errorCount > 0 || (strict && warningCount > 0) {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func outputValidationJSON(result *promptgen.ValidationResult, strict bool, stdout io.Writer) int {
	output := validationOutput{
		Valid:  result.Valid() && (!strict || result.WarningCount() == 0),
		Root:   result.Root,
		Issues: make([]validationIssueOutput, 0, len(result.Issues)),
	}

	for _, issue := range result.Issues {
		output.Issues = append(output.Issues, validationIssueOutput{
			Severity: severityToName(issue.Severity),
			Path:     issue.Path,
			Field:    issue.Field,
			Message:  issue.Message,
		})
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ")
	fmt.Fprintln(stdout, string(jsonBytes))

	if !output.Valid {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func severityToName(s promptgen.ValidationSeverity) string {
	switch s {
	case promptgen.SeverityError:
		return SeverityNameError
	case promptgen.SeverityWarning:
		return SeverityNameWarning
	case promptgen.SeverityInfo:
		return SeverityNameInfo
	default:
		return SeverityNameError
	}
}
