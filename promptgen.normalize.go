package promptgen

import (
	"regexp"
	"strings"
)

var (
	// commaRunPattern matches runs of two or more commas with optional
	// intervening horizontal whitespace
	commaRunPattern = regexp.MustCompile(`,(?:[ \t]*,)+`)

	// spaceBeforeCommaPattern matches horizontal whitespace directly before a comma
	spaceBeforeCommaPattern = regexp.MustCompile(`[ \t]+,`)

	// commaSpacingPattern matches a comma and any trailing horizontal whitespace
	commaSpacingPattern = regexp.MustCompile(`,[ \t]*`)

	// blankRunPattern matches three or more consecutive newlines
	blankRunPattern = regexp.MustCompile(`\n{3,}`)

	// commaOnlyLinePattern matches lines consisting solely of commas and whitespace
	commaOnlyLinePattern = regexp.MustCompile(`^[,\s]+$`)
)

// Normalize canonicalizes comma, whitespace, and blank-line formatting of
// generated text. It collapses comma runs, strips comma-only lines, enforces
// "no space before a comma, exactly one space after" except at line end,
// trims each line, and limits consecutive blank lines to one.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// A genuinely blank line is kept for spacing.
			out = append(out, "")
			continue
		}
		if commaOnlyLinePattern.MatchString(trimmed) {
			continue
		}
		out = append(out, normalizeLine(trimmed))
	}

	joined := strings.Join(out, "\n")
	joined = blankRunPattern.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

// normalizeLine applies comma spacing rules to a single trimmed line.
func normalizeLine(line string) string {
	line = spaceBeforeCommaPattern.ReplaceAllString(line, ",")
	line = commaRunPattern.ReplaceAllString(line, ",")
	line = commaSpacingPattern.ReplaceAllString(line, ", ")
	// A trailing comma is intentional; only the space added after it goes.
	return strings.TrimRight(line, " ")
}

// cleanChunkText cleans rendered chunk output: blank lines are removed
// entirely, comma runs and orphan commas collapse, and trailing commas are
// stripped per line. Unresolved fields render as empty strings upstream, so
// the cleanup also absorbs the gaps they leave behind.
func cleanChunkText(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = spaceBeforeCommaPattern.ReplaceAllString(line, ",")
		line = commaRunPattern.ReplaceAllString(line, ",")
		line = strings.TrimLeft(line, ", ")
		line = commaSpacingPattern.ReplaceAllString(line, ", ")
		line = strings.TrimRight(line, ", ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
