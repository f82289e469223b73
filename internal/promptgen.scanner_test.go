package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanPlaceholders_Basic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Placeholder
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "plain text",
			input:    "a portrait of a person, studio light",
			expected: nil,
		},
		{
			name:  "bare placeholder",
			input: "{Pose}",
			expected: []Placeholder{
				{Name: "Pose", Raw: "{Pose}", Pos: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "placeholder with selector",
			input: "{Pose[1,3]}",
			expected: []Placeholder{
				{Name: "Pose", Raw: "{Pose[1,3]}", Selector: "1,3", Pos: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "selector with weight suffix",
			input: "{Pose[all$2]}",
			expected: []Placeholder{
				{Name: "Pose", Raw: "{Pose[all$2]}", Selector: "all$2", Pos: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "empty selector",
			input: "{Pose[]}",
			expected: []Placeholder{
				{Name: "Pose", Raw: "{Pose[]}", Pos: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "surrounded by text",
			input: "portrait, {Pose}, detailed",
			expected: []Placeholder{
				{Name: "Pose", Raw: "{Pose}", Pos: Position{Offset: 10, Line: 1, Column: 11}},
			},
		},
		{
			name:  "multiple placeholders in order",
			input: "{Style} and {Pose[2]}",
			expected: []Placeholder{
				{Name: "Style", Raw: "{Style}", Pos: Position{Offset: 0, Line: 1, Column: 1}},
				{Name: "Pose", Raw: "{Pose[2]}", Selector: "2", Pos: Position{Offset: 12, Line: 1, Column: 13}},
			},
		},
		{
			name:  "multiline positions",
			input: "first line\n{Pose}",
			expected: []Placeholder{
				{Name: "Pose", Raw: "{Pose}", Pos: Position{Offset: 11, Line: 2, Column: 1}},
			},
		},
		{
			name:  "reserved names scan like any other",
			input: "{prompt}\n{negprompt}",
			expected: []Placeholder{
				{Name: "prompt", Raw: "{prompt}", Pos: Position{Offset: 0, Line: 1, Column: 1}},
				{Name: "negprompt", Raw: "{negprompt}", Pos: Position{Offset: 9, Line: 2, Column: 1}},
			},
		},
		{
			name:  "hyphen and underscore names",
			input: "{art-style} {_hidden}",
			expected: []Placeholder{
				{Name: "art-style", Raw: "{art-style}", Pos: Position{Offset: 0, Line: 1, Column: 1}},
				{Name: "_hidden", Raw: "{_hidden}", Pos: Position{Offset: 12, Line: 1, Column: 13}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanPlaceholders(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestScanPlaceholders_WithClause(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Placeholder
	}{
		{
			name:  "single override",
			input: "{Person with outfit=Outfits}",
			expected: Placeholder{
				Name:    "Person",
				Raw:     "{Person with outfit=Outfits}",
				HasWith: true,
				Overrides: []FieldOverride{
					{Field: "outfit", Source: "Outfits"},
				},
				Pos: Position{Offset: 0, Line: 1, Column: 1},
			},
		},
		{
			name:  "override with selector",
			input: "{Person with outfit=Outfits[random:1]}",
			expected: Placeholder{
				Name:    "Person",
				Raw:     "{Person with outfit=Outfits[random:1]}",
				HasWith: true,
				Overrides: []FieldOverride{
					{Field: "outfit", Source: "Outfits", Selector: "random:1"},
				},
				Pos: Position{Offset: 0, Line: 1, Column: 1},
			},
		},
		{
			name:  "multiple overrides with bracketed commas",
			input: "{Person with outfit=Outfits[1,3], hair.color=Colors}",
			expected: Placeholder{
				Name:    "Person",
				Raw:     "{Person with outfit=Outfits[1,3], hair.color=Colors}",
				HasWith: true,
				Overrides: []FieldOverride{
					{Field: "outfit", Source: "Outfits", Selector: "1,3"},
					{Field: "hair.color", Source: "Colors"},
				},
				Pos: Position{Offset: 0, Line: 1, Column: 1},
			},
		},
		{
			name:  "selector then with clause",
			input: "{Person[2] with outfit=Outfits}",
			expected: Placeholder{
				Name:     "Person",
				Raw:      "{Person[2] with outfit=Outfits}",
				Selector: "2",
				HasWith:  true,
				Overrides: []FieldOverride{
					{Field: "outfit", Source: "Outfits"},
				},
				Pos: Position{Offset: 0, Line: 1, Column: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanPlaceholders(tt.input)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.expected, got[0])
		})
	}
}

func TestScanPlaceholders_LiteralBraces(t *testing.T) {
	tests := []struct {
		name  string
		input string
		// names of the placeholders that should still be found
		expected []string
	}{
		{
			name:     "json object",
			input:    `{"width": 512, "height": 768}`,
			expected: nil,
		},
		{
			name:     "prose in braces",
			input:    "{not a placeholder!}",
			expected: nil,
		},
		{
			name:     "empty braces",
			input:    "{}",
			expected: nil,
		},
		{
			name:     "unterminated brace",
			input:    "text {Pose",
			expected: nil,
		},
		{
			name:     "inner brace wins",
			input:    "{{Pose}}",
			expected: []string{"Pose"},
		},
		{
			name:     "literal braces around real token",
			input:    `{"a": 1} then {Pose}`,
			expected: []string{"Pose"},
		},
		{
			name:     "name with dot is literal",
			input:    "{person.outfit}",
			expected: nil,
		},
		{
			name:     "name starting with digit is literal",
			input:    "{1girl}",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanPlaceholders(tt.input)
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, ph := range got {
				names = append(names, ph.Name)
			}
			if tt.expected == nil {
				assert.Empty(t, names)
			} else {
				assert.Equal(t, tt.expected, names)
			}
		})
	}
}

func TestScanPlaceholders_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "unterminated selector bracket",
			input: "{Pose[1}",
		},
		{
			name:  "override missing source",
			input: "{Person with outfit=}",
		},
		{
			name:  "override missing field",
			input: "{Person with =Outfits}",
		},
		{
			name:  "override missing assignment",
			input: "{Person with outfit}",
		},
		{
			name:  "trailing junk after override selector",
			input: "{Person with outfit=Outfits[1]x}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScanPlaceholders(tt.input)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.NotEmpty(t, syntaxErr.Message)
		})
	}
}

func TestParseWithClause(t *testing.T) {
	tests := []struct {
		name      string
		clause    string
		expected  []FieldOverride
		expectErr bool
	}{
		{
			name:     "empty clause",
			clause:   "",
			expected: []FieldOverride{},
		},
		{
			name:   "plain override",
			clause: "outfit=Outfits",
			expected: []FieldOverride{
				{Field: "outfit", Source: "Outfits"},
			},
		},
		{
			name:   "spaces around items",
			clause: " outfit = Outfits ,  pose = Poses[all] ",
			expected: []FieldOverride{
				{Field: "outfit", Source: "Outfits"},
				{Field: "pose", Source: "Poses", Selector: "all"},
			},
		},
		{
			name:      "dangling assignment",
			clause:    "outfit=",
			expectErr: true,
		},
		{
			name:      "unterminated selector",
			clause:    "outfit=Outfits[1",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWithClause(tt.clause, "{test}", Position{Line: 1, Column: 1})
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsValidName(t *testing.T) {
	valid := []string{"Pose", "pose", "_x", "art-style", "Person2", "a"}
	invalid := []string{"", "1girl", "-x", "a b", "a.b", "a$b", "a[b"}

	for _, s := range valid {
		assert.True(t, isValidName(s), "expected %q to be valid", s)
	}
	for _, s := range invalid {
		assert.False(t, isValidName(s), "expected %q to be invalid", s)
	}
}

func TestCalculatePosition(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected Position
	}{
		{
			name:     "empty prefix",
			prefix:   "",
			expected: Position{Offset: 0, Line: 1, Column: 1},
		},
		{
			name:     "single line",
			prefix:   "hello",
			expected: Position{Offset: 5, Line: 1, Column: 6},
		},
		{
			name:     "after newline",
			prefix:   "one\ntwo\n",
			expected: Position{Offset: 8, Line: 3, Column: 1},
		},
		{
			name:     "mid second line",
			prefix:   "one\ntw",
			expected: Position{Offset: 6, Line: 2, Column: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calculatePosition(tt.prefix))
		})
	}
}
