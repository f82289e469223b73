package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	promptgen "github.com/itsatony/go-promptgen"
)

// resolveConfig holds parsed resolve command configuration
type resolveConfig struct {
	root    string
	docPath string
	style   string
	theme   string
	format  string
}

// resolveOutput represents JSON output for resolve
type resolveOutput struct {
	Document     string            `json:"document"`
	Kind         string            `json:"kind"`
	Body         string            `json:"body"`
	NegativeText string            `json:"negative_text,omitempty"`
	Style        string            `json:"style,omitempty"`
	Theme        string            `json:"theme,omitempty"`
	Imports      []resolveImport   `json:"imports,omitempty"`
	Removed      []string          `json:"removed,omitempty"`
	Defaults     map[string]string `json:"defaults,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
}

type resolveImport struct {
	Name   string   `json:"name"`
	Origin string   `json:"origin"`
	Style  string   `json:"style,omitempty"`
	Keys   []string `json:"keys,omitempty"`
}

func runResolve(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseResolveFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingDoc, err)
		return ExitCodeUsageError
	}

	engine, err := openEngine(cfg.root)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgOpenStoreFailed, err)
		return ExitCodeInputError
	}

	res, err := engine.Resolve(context.Background(), cfg.docPath, promptgen.ResolveOptions{
		Style: cfg.style,
		Theme: cfg.theme,
	})
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgResolveFailed, err)
		return ExitCodeError
	}

	if cfg.format == OutputFormatJSON {
		return outputResolveJSON(res, stdout, stderr)
	}
	return outputResolveText(res, stdout)
}

func parseResolveFlags(args []string) (*resolveConfig, error) {
	fs := flag.NewFlagSet(CmdNameResolve, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &resolveConfig{}

	fs.StringVar(&cfg.root, FlagRoot, FlagDefaultRoot, "")
	fs.StringVar(&cfg.root, FlagRootShort, FlagDefaultRoot, "")
	fs.StringVar(&cfg.docPath, FlagDoc, "", "")
	fs.StringVar(&cfg.docPath, FlagDocShort, "", "")
	fs.StringVar(&cfg.style, FlagStyle, "", "")
	fs.StringVar(&cfg.theme, FlagTheme, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

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

func outputResolveText(res *promptgen.Resolution, stdout io.Writer) int {
	var buf bytes.Buffer

	buf.WriteString(ResolveTextBodyHeader)
	buf.WriteString(FmtNewline)
	buf.WriteString(ResolveTextIndent)
	buf.WriteString(res.Document.Body)
	buf.WriteString(FmtNewline)

	if res.Document.NegativeText != "" {
		buf.WriteString(ResolveTextNegativeHeader)
		buf.WriteString(FmtNewline)
		buf.WriteString(ResolveTextIndent)
		buf.WriteString(res.Document.NegativeText)
		buf.WriteString(FmtNewline)
	}

	buf.WriteString(res.Report.String())

	_, err := stdout.Write(buf.Bytes())
	if err != nil {
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func outputResolveJSON(res *promptgen.Resolution, stdout, stderr io.Writer) int {
	output := resolveOutput{
		Document:     res.Document.SourcePath,
		Kind:         string(res.Document.Kind),
		Body:         res.Document.Body,
		NegativeText: res.Document.NegativeText,
		Style:        res.Context.Style,
		Theme:        res.Context.Theme,
		Removed:      res.Report.RemovedNames(),
		Defaults:     res.Context.Defaults,
	}

	for _, name := range res.Context.ImportNames() {
		resolved, _ := res.Context.Import(name)
		imp := resolveImport{
			Name:   name,
			Origin: string(resolved.Meta.Origin),
			Style:  resolved.Meta.Style,
		}
		if resolved.Pool != nil {
			imp.Keys = resolved.Pool.Keys
		}
		output.Imports = append(output.Imports, imp)
	}

	for _, w := range res.Report.Warnings {
		output.Warnings = append(output.Warnings, w.String())
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgJSONMarshalFailed, err)
		return ExitCodeError
	}
	fmt.Fprintln(stdout, string(jsonBytes))
	return ExitCodeSuccess
}
