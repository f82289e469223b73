package promptgen

import (
	"sort"
	"strconv"
	"strings"
)

// Warning is one non-fatal integration finding recorded during a
// resolution pass.
type Warning struct {
	// Message is the warning text, one of the LogMsg constants
	Message string
	// Path is the document the warning concerns
	Path string
	// Detail carries the placeholder, field, or token involved
	Detail string
}

// String returns a single-line rendering of the warning.
func (w Warning) String() string {
	var sb strings.Builder
	sb.WriteString(w.Message)
	if w.Path != "" {
		sb.WriteString(" (")
		sb.WriteString(w.Path)
		sb.WriteString(")")
	}
	if w.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(w.Detail)
	}
	return sb.String()
}

// PlaceholderReport records the provenance of one placeholder's
// variation sources.
type PlaceholderReport struct {
	Name string
	// Origin is the document level that supplied the import
	Origin ImportOrigin
	// Style is the style suffix actually applied, empty if none
	Style string
	// SourceCount is the number of sources merged into the pool
	SourceCount int
	// MultiPart is true when any pool entry is a multi-part record
	MultiPart bool
	// Removed is true when a theme explicitly removed the placeholder
	Removed bool
	// Unsupported lists override fields skipped as unsupported
	Unsupported []string
}

// ResolutionReport captures everything a resolution pass decided, for
// downstream reporting and debugging. All methods are nil-safe so
// resolver internals can record without guarding.
type ResolutionReport struct {
	TemplatePath string
	Style        string
	Theme        string
	Placeholders map[string]*PlaceholderReport
	Warnings     []Warning
}

// NewResolutionReport creates an empty report for one resolution pass.
func NewResolutionReport(templatePath string) *ResolutionReport {
	return &ResolutionReport{
		TemplatePath: templatePath,
		Placeholders: make(map[string]*PlaceholderReport),
	}
}

// Placeholder returns the report entry for name, creating it on first
// use. On a nil report a throwaway entry is returned.
func (r *ResolutionReport) Placeholder(name string) *PlaceholderReport {
	if r == nil {
		return &PlaceholderReport{Name: name}
	}
	if r.Placeholders == nil {
		r.Placeholders = make(map[string]*PlaceholderReport)
	}
	entry, ok := r.Placeholders[name]
	if !ok {
		entry = &PlaceholderReport{Name: name}
		r.Placeholders[name] = entry
	}
	return entry
}

// AddWarning records a non-fatal finding. No-op on a nil report.
func (r *ResolutionReport) AddWarning(message, path, detail string) {
	if r == nil {
		return
	}
	r.Warnings = append(r.Warnings, Warning{Message: message, Path: path, Detail: detail})
}

// RemovedNames returns the placeholders a theme explicitly removed,
// sorted by name.
func (r *ResolutionReport) RemovedNames() []string {
	if r == nil {
		return nil
	}
	var names []string
	for name, entry := range r.Placeholders {
		if entry.Removed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// String returns a human-readable multi-line report.
func (r *ResolutionReport) String() string {
	if r == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("resolution report for ")
	sb.WriteString(r.TemplatePath)
	if r.Style != "" || r.Theme != "" {
		sb.WriteString(" (")
		if r.Style != "" {
			sb.WriteString("style=")
			sb.WriteString(r.Style)
		}
		if r.Theme != "" {
			if r.Style != "" {
				sb.WriteString(", ")
			}
			sb.WriteString("theme=")
			sb.WriteString(r.Theme)
		}
		sb.WriteString(")")
	}
	sb.WriteString("\n")

	if len(r.Placeholders) > 0 {
		sb.WriteString("placeholders:\n")
		names := make([]string, 0, len(r.Placeholders))
		for name := range r.Placeholders {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			entry := r.Placeholders[name]
			sb.WriteString("  ")
			sb.WriteString(name)
			sb.WriteString(":")
			if entry.Removed {
				sb.WriteString(" removed")
				sb.WriteString("\n")
				continue
			}
			if entry.Origin != "" {
				sb.WriteString(" origin=")
				sb.WriteString(string(entry.Origin))
			}
			if entry.Style != "" {
				sb.WriteString(" style=")
				sb.WriteString(entry.Style)
			}
			if entry.SourceCount > 0 {
				sb.WriteString(" sources=")
				sb.WriteString(strconv.Itoa(entry.SourceCount))
			}
			if entry.MultiPart {
				sb.WriteString(" multipart")
			}
			for _, field := range entry.Unsupported {
				sb.WriteString(" unsupported=")
				sb.WriteString(field)
			}
			sb.WriteString("\n")
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.String())
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
