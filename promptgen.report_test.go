package promptgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarning_String(t *testing.T) {
	tests := []struct {
		name     string
		warning  Warning
		expected string
	}{
		{
			name:     "message only",
			warning:  Warning{Message: "pool is empty"},
			expected: "pool is empty",
		},
		{
			name:     "message and path",
			warning:  Warning{Message: "pool is empty", Path: "pools/pose.yaml"},
			expected: "pool is empty (pools/pose.yaml)",
		},
		{
			name:     "full",
			warning:  Warning{Message: "pool is empty", Path: "pools/pose.yaml", Detail: "Pose"},
			expected: "pool is empty (pools/pose.yaml): Pose",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.warning.String())
		})
	}
}

func TestResolutionReport_Placeholder(t *testing.T) {
	report := NewResolutionReport("templates/portrait.yaml")

	entry := report.Placeholder("Pose")
	entry.Origin = OriginTemplate
	entry.SourceCount = 2

	// Same name returns the same entry.
	again := report.Placeholder("Pose")
	assert.Same(t, entry, again)
	assert.Equal(t, OriginTemplate, again.Origin)

	other := report.Placeholder("Background")
	assert.NotSame(t, entry, other)
	assert.Len(t, report.Placeholders, 2)
}

func TestResolutionReport_NilSafe(t *testing.T) {
	var report *ResolutionReport

	entry := report.Placeholder("Pose")
	require.NotNil(t, entry)
	entry.Origin = OriginTheme

	report.AddWarning("something", "a.yaml", "")
	assert.Nil(t, report.RemovedNames())
	assert.Equal(t, "", report.String())
}

func TestResolutionReport_RemovedNames(t *testing.T) {
	report := NewResolutionReport("templates/portrait.yaml")
	report.Placeholder("Props").Removed = true
	report.Placeholder("Watermark").Removed = true
	report.Placeholder("Pose").Origin = OriginTemplate

	assert.Equal(t, []string{"Props", "Watermark"}, report.RemovedNames())
}

func TestResolutionReport_String(t *testing.T) {
	report := NewResolutionReport("templates/portrait.yaml")
	report.Style = "noir"
	report.Theme = "themes/noir.yaml"

	pose := report.Placeholder("Pose")
	pose.Origin = OriginTemplate
	pose.SourceCount = 2

	background := report.Placeholder("Background")
	background.Origin = OriginTheme
	background.Style = "noir"
	background.SourceCount = 1
	background.MultiPart = true

	report.Placeholder("Props").Removed = true
	report.AddWarning(LogMsgStyleVariantMissed, "pools/pose.yaml", "Pose")

	out := report.String()
	assert.Contains(t, out, "resolution report for templates/portrait.yaml")
	assert.Contains(t, out, "style=noir, theme=themes/noir.yaml")
	assert.Contains(t, out, "Background: origin=theme style=noir sources=1 multipart")
	assert.Contains(t, out, "Pose: origin=template sources=2")
	assert.Contains(t, out, "Props: removed")
	assert.Contains(t, out, "warnings:")
	assert.Contains(t, out, "Pose")
}
