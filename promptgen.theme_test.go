package promptgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestApplyTheme_NoTheme(t *testing.T) {
	merged := &Document{
		Imports: map[string]ImportSpec{
			"Pose":       {File: "poses.yaml"},
			"Background": {File: "bg.yaml"},
		},
	}
	leaf := map[string]ImportSpec{"Background": {File: "bg.yaml"}}

	app := applyTheme(merged, nil, leaf, "", nil, nil, zap.NewNop())

	assert.Len(t, app.imports, 2)
	assert.Empty(t, app.removed)
	assert.Equal(t, OriginTemplate, app.origins["Pose"])
	assert.Equal(t, OriginPrompt, app.origins["Background"])
}

func TestApplyTheme_WholesaleReplacement(t *testing.T) {
	merged := &Document{
		Imports: map[string]ImportSpec{
			"Pose":       {File: "poses.yaml"},
			"Background": {File: "bg.yaml"},
			"Props":      {File: "props.yaml"},
		},
	}
	theme := &Document{
		SourcePath: "themes/cyber.yaml",
		Imports: map[string]ImportSpec{
			"Background": {File: "cyber-bg.yaml"},
		},
	}
	sensitive := map[string]bool{"Background": true, "Props": true}

	app := applyTheme(merged, theme, nil, "", sensitive, nil, zap.NewNop())

	// Background comes from the theme, Props is dropped wholesale, and
	// the insensitive Pose keeps the template's import
	assert.Equal(t, "cyber-bg.yaml", app.imports["Background"].File)
	assert.Equal(t, OriginTheme, app.origins["Background"])
	assert.NotContains(t, app.imports, "Props")
	assert.Equal(t, "poses.yaml", app.imports["Pose"].File)
	assert.Equal(t, OriginTemplate, app.origins["Pose"])
	assert.Empty(t, app.removed)
}

func TestApplyTheme_StyledKeys(t *testing.T) {
	merged := &Document{Imports: map[string]ImportSpec{}}
	theme := &Document{
		SourcePath: "themes/cyber.yaml",
		Imports: map[string]ImportSpec{
			"Background":      {File: "base-bg.yaml"},
			"Background.noir": {File: "noir-bg.yaml"},
		},
	}

	tests := []struct {
		name  string
		style string
		want  string
	}{
		{name: "matching style wins", style: "noir", want: "noir-bg.yaml"},
		{name: "no style uses plain key", style: "", want: "base-bg.yaml"},
		{name: "other style uses plain key", style: "pastel", want: "base-bg.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := applyTheme(merged, theme, nil, tt.style, nil, nil, zap.NewNop())
			assert.Equal(t, tt.want, app.imports["Background"].File)
			assert.Equal(t, OriginTheme, app.origins["Background"])
		})
	}
}

func TestApplyTheme_RemoveDirective(t *testing.T) {
	merged := &Document{
		Imports: map[string]ImportSpec{
			"Props": {File: "props.yaml"},
		},
	}
	theme := &Document{
		SourcePath: "themes/minimal.yaml",
		Imports: map[string]ImportSpec{
			"Props": {Sources: []string{ThemeRemoveDirective}},
		},
	}

	report := NewResolutionReport("doc.yaml")
	app := applyTheme(merged, theme, nil, "", map[string]bool{"Props": true}, report, zap.NewNop())

	assert.NotContains(t, app.imports, "Props")
	assert.True(t, app.removed["Props"])
	require.Contains(t, report.Placeholders, "Props")
	assert.True(t, report.Placeholders["Props"].Removed)
}

func TestApplyTheme_StyledRemove(t *testing.T) {
	merged := &Document{
		Imports: map[string]ImportSpec{"Props": {File: "props.yaml"}},
	}
	theme := &Document{
		SourcePath: "themes/minimal.yaml",
		Imports: map[string]ImportSpec{
			"Props.noir": {Sources: []string{ThemeRemoveDirective}},
		},
	}

	noir := applyTheme(merged, theme, nil, "noir", nil, nil, zap.NewNop())
	assert.True(t, noir.removed["Props"])
	assert.NotContains(t, noir.imports, "Props")

	plain := applyTheme(merged, theme, nil, "", nil, nil, zap.NewNop())
	assert.False(t, plain.removed["Props"])
	assert.Equal(t, "props.yaml", plain.imports["Props"].File)
}

func TestApplyTheme_LeafOverridesTheme(t *testing.T) {
	merged := &Document{
		Imports: map[string]ImportSpec{
			"Background": {File: "bg.yaml"},
			"Props":      {File: "props.yaml"},
		},
	}
	theme := &Document{
		SourcePath: "themes/cyber.yaml",
		Imports: map[string]ImportSpec{
			"Background": {File: "cyber-bg.yaml"},
			"Props":      {Sources: []string{ThemeRemoveDirective}},
		},
	}
	leaf := map[string]ImportSpec{
		"Background": {File: "my-bg.yaml"},
		"Props":      {File: "my-props.yaml"},
	}

	report := NewResolutionReport("doc.yaml")
	app := applyTheme(merged, theme, leaf, "", map[string]bool{"Background": true, "Props": true}, report, zap.NewNop())

	// the leaf prompt keeps the final word, including over a removal
	assert.Equal(t, "my-bg.yaml", app.imports["Background"].File)
	assert.Equal(t, OriginPrompt, app.origins["Background"])
	assert.Equal(t, "my-props.yaml", app.imports["Props"].File)
	assert.False(t, app.removed["Props"])
	assert.False(t, report.Placeholders["Props"].Removed)
}

func TestApplyTheme_RemoveIsCaseSensitive(t *testing.T) {
	spec := ImportSpec{Sources: []string{"remove"}}
	assert.False(t, spec.IsRemove())

	upper := ImportSpec{Sources: []string{"Remove"}}
	assert.True(t, upper.IsRemove())

	multi := ImportSpec{Sources: []string{"Remove", "more.yaml"}}
	assert.False(t, multi.IsRemove())
}

func TestStyleSensitiveNames(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		extra  []string
		want   map[string]bool
	}{
		{
			name:   "list parameter",
			params: map[string]any{ParamKeyStyleSensitive: []any{"Background", "Props"}},
			want:   map[string]bool{"Background": true, "Props": true},
		},
		{
			name:   "comma string parameter",
			params: map[string]any{ParamKeyStyleSensitive: "Background, Props"},
			want:   map[string]bool{"Background": true, "Props": true},
		},
		{
			name:   "extra names merge in",
			params: map[string]any{ParamKeyStyleSensitive: []any{"Background"}},
			extra:  []string{"Outfit"},
			want:   map[string]bool{"Background": true, "Outfit": true},
		},
		{
			name:   "absent parameter",
			params: map[string]any{},
			want:   map[string]bool{},
		},
		{
			name:   "wrong type ignored",
			params: map[string]any{ParamKeyStyleSensitive: 7},
			want:   map[string]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, styleSensitiveNames(tt.params, tt.extra))
		})
	}
}
