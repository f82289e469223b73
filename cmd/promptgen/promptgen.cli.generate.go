package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	promptgen "github.com/itsatony/go-promptgen"
)

// generateConfig holds parsed generate command configuration
type generateConfig struct {
	root            string
	docPath         string
	style           string
	theme           string
	mode            string
	seedMode        string
	seed            int64
	count           int
	randomSeed      int64
	allowDuplicates bool
	outputPath      string
	format          string
	quiet           bool
}

func runGenerate(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseGenerateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingDoc, err)
		return ExitCodeUsageError
	}

	engine, err := openEngine(cfg.root)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgOpenStoreFailed, err)
		return ExitCodeInputError
	}

	result, err := engine.Generate(context.Background(), cfg.docPath,
		promptgen.ResolveOptions{
			Style: cfg.style,
			Theme: cfg.theme,
		},
		promptgen.GenerateOptions{
			Mode:            promptgen.GenerationMode(cfg.mode),
			SeedMode:        promptgen.SeedMode(cfg.seedMode),
			BaseSeed:        cfg.seed,
			MaxCount:        cfg.count,
			RandomSeed:      cfg.randomSeed,
			AllowDuplicates: cfg.allowDuplicates,
		},
	)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgGenerateFailed, err)
		return ExitCodeError
	}

	var rendered []byte
	if cfg.format == OutputFormatJSON {
		rendered, err = json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgJSONMarshalFailed, err)
			return ExitCodeError
		}
		rendered = append(rendered, '\n')
	} else {
		rendered = renderGenerateText(result, cfg.quiet)
	}

	if err := writeOutput(cfg.outputPath, rendered, stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}

	return ExitCodeSuccess
}

func parseGenerateFlags(args []string) (*generateConfig, error) {
	fs := flag.NewFlagSet(CmdNameGenerate, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &generateConfig{}

	fs.StringVar(&cfg.root, FlagRoot, FlagDefaultRoot, "")
	fs.StringVar(&cfg.root, FlagRootShort, FlagDefaultRoot, "")
	fs.StringVar(&cfg.docPath, FlagDoc, "", "")
	fs.StringVar(&cfg.docPath, FlagDocShort, "", "")
	fs.StringVar(&cfg.style, FlagStyle, "", "")
	fs.StringVar(&cfg.theme, FlagTheme, "", "")
	fs.StringVar(&cfg.mode, FlagMode, "", "")
	fs.StringVar(&cfg.seedMode, FlagSeedMode, "", "")
	fs.Int64Var(&cfg.seed, FlagSeed, 0, "")
	fs.IntVar(&cfg.count, FlagCount, 0, "")
	fs.Int64Var(&cfg.randomSeed, FlagRandomSeed, 0, "")
	fs.BoolVar(&cfg.allowDuplicates, FlagAllowDuplicates, false, "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.BoolVar(&cfg.quiet, FlagQuiet, false, "")
	fs.BoolVar(&cfg.quiet, FlagQuietShort, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.docPath == "" {
		return nil, errors.New(ErrMsgMissingDoc)
	}
	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}
	if cfg.mode != "" {
		if _, err := promptgen.ParseGenerationMode(cfg.mode); err != nil {
			return nil, errors.New(ErrMsgInvalidMode)
		}
	}
	if cfg.seedMode != "" {
		if _, err := promptgen.ParseSeedMode(cfg.seedMode); err != nil {
			return nil, errors.New(ErrMsgInvalidMode)
		}
	}

	return cfg, nil
}

// renderGenerateText renders one block per variant, separated by blank
// lines so the output pipes cleanly into other tools.
func renderGenerateText(result *promptgen.GenerationResult, quiet bool) []byte {
	var buf bytes.Buffer

	if !quiet {
		fmt.Fprintf(&buf, GenerateTextRunHeader+FmtNewline,
			result.RunID, len(result.Variants), result.Template)
	}

	for _, v := range result.Variants {
		if buf.Len() > 0 {
			buf.WriteString(FmtNewline)
		}
		fmt.Fprintf(&buf, GenerateTextVariantHeader+FmtNewline, v.Index, v.Seed)
		buf.WriteString(v.Prompt)
		buf.WriteString(FmtNewline)
		if v.NegativePrompt != "" {
			fmt.Fprintf(&buf, GenerateTextNegativeLine+FmtNewline, v.NegativePrompt)
		}
		if len(v.Variations) > 0 {
			buf.WriteString(renderVariations(v.Variations))
			buf.WriteString(FmtNewline)
		}
	}

	return buf.Bytes()
}

// renderVariations renders the bindings map as sorted key=value pairs.
func renderVariations(variations map[string]string) string {
	names := make([]string, 0, len(variations))
	for name := range variations {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+variations[name])
	}
	return strings.Join(pairs, " ")
}
