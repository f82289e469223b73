package promptgen

import (
	"strings"

	"go.uber.org/zap"
)

// themeApplication is the outcome of applying a theme: the effective
// import set, per-name origins, and the placeholders the theme
// explicitly removed.
type themeApplication struct {
	imports map[string]ImportSpec
	origins map[string]ImportOrigin
	removed map[string]bool
}

// applyTheme computes the effective import set for one resolution pass.
// A theme's entries replace the style-sensitive imports wholesale; the
// leaf prompt's own imports are re-applied afterward as final
// overrides, which also undoes a removal. theme may be nil.
func applyTheme(merged *Document, theme *Document, leafImports map[string]ImportSpec, style string, styleSensitive map[string]bool, report *ResolutionReport, logger *zap.Logger) themeApplication {
	app := themeApplication{
		imports: cloneImportMap(merged.Imports),
		origins: make(map[string]ImportOrigin),
		removed: make(map[string]bool),
	}
	if app.imports == nil {
		app.imports = make(map[string]ImportSpec)
	}

	for name := range app.imports {
		if _, ok := leafImports[name]; ok {
			app.origins[name] = OriginPrompt
		} else {
			app.origins[name] = OriginTemplate
		}
	}

	if theme == nil {
		return app
	}

	// wholesale replacement: the template's thematic imports are dropped
	// before the theme's own set is applied
	for name := range styleSensitive {
		delete(app.imports, name)
		delete(app.origins, name)
	}

	applyKey := func(name string, spec ImportSpec) {
		if spec.IsRemove() {
			delete(app.imports, name)
			delete(app.origins, name)
			app.removed[name] = true
			report.Placeholder(name).Removed = true
			return
		}
		app.imports[name] = spec
		app.origins[name] = OriginTheme
		delete(app.removed, name)
	}

	// plain keys first, then style-suffixed keys matching the active style
	for name, spec := range theme.Imports {
		if strings.Contains(name, ThemeStyleSep) {
			continue
		}
		applyKey(name, spec)
	}
	if style != "" {
		suffix := ThemeStyleSep + style
		for name, spec := range theme.Imports {
			if !strings.HasSuffix(name, suffix) {
				continue
			}
			base := strings.TrimSuffix(name, suffix)
			if base == "" {
				continue
			}
			applyKey(base, spec)
		}
	}

	// leaf imports win over everything, including removal
	for name, spec := range leafImports {
		app.imports[name] = spec
		app.origins[name] = OriginPrompt
		if app.removed[name] {
			delete(app.removed, name)
			report.Placeholder(name).Removed = false
		}
	}

	logger.Debug(LogMsgThemeApplied,
		zap.String(LogFieldTheme, theme.SourcePath),
		zap.String(LogFieldStyle, style),
		zap.Int(LogFieldCount, len(app.imports)))

	return app
}

// styleSensitiveNames reads the style_sensitive parameter from a merged
// parameter bag and folds in extra names supplied through options. The
// parameter accepts a list of names or one comma-separated string.
func styleSensitiveNames(parameters map[string]any, extra []string) map[string]bool {
	names := make(map[string]bool)

	switch v := parameters[ParamKeyStyleSensitive].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				names[s] = true
			}
		}
	case []string:
		for _, s := range v {
			if s != "" {
				names[s] = true
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				names[s] = true
			}
		}
	}

	for _, s := range extra {
		if s != "" {
			names[s] = true
		}
	}

	return names
}
