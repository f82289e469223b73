package promptgen

import (
	"errors"
	"strconv"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewParseError tests structural error creation with file context
func TestNewParseError(t *testing.T) {
	t.Run("with cause error", func(t *testing.T) {
		causeErr := errors.New("yaml: line 3: mapping values are not allowed")
		err := NewParseError(ErrMsgParseFailed, "portrait.yaml", causeErr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgParseFailed)

		var customErr *cuserr.CustomError
		require.True(t, errors.As(err, &customErr))

		file, ok := customErr.GetMetadata(MetaKeyFile)
		assert.True(t, ok)
		assert.Equal(t, "portrait.yaml", file)

		assert.True(t, errors.Is(err, causeErr))
	})

	t.Run("without cause error", func(t *testing.T) {
		err := NewParseError(ErrMsgEmptyBody, "empty.yaml", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgEmptyBody)

		var customErr *cuserr.CustomError
		require.True(t, errors.As(err, &customErr))
	})
}

// TestNewFieldError tests field-level structural errors
func TestNewFieldError(t *testing.T) {
	err := NewFieldError(ErrMsgWrongFieldType, "base.yaml", FieldImports)

	require.Error(t, err)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))

	file, ok := customErr.GetMetadata(MetaKeyFile)
	assert.True(t, ok)
	assert.Equal(t, "base.yaml", file)

	field, ok := customErr.GetMetadata(MetaKeyField)
	assert.True(t, ok)
	assert.Equal(t, FieldImports, field)
}

// TestNewReservedTokenError tests reserved token misuse errors
func TestNewReservedTokenError(t *testing.T) {
	err := NewReservedTokenError("person_chunk.yaml", TokenPrompt)

	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgReservedInChunk)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))

	value, ok := customErr.GetMetadata(MetaKeyValue)
	assert.True(t, ok)
	assert.Equal(t, TokenPrompt, value)
}

// TestNewPathError tests path error creation
func TestNewPathError(t *testing.T) {
	err := NewPathError(ErrMsgImportNotFound, "portrait.yaml", "pools/missing.yaml")

	require.Error(t, err)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))

	target, ok := customErr.GetMetadata(MetaKeyPath)
	assert.True(t, ok)
	assert.Equal(t, "pools/missing.yaml", target)
}

// TestNewAbsoluteParentError tests the portability guard error
func TestNewAbsoluteParentError(t *testing.T) {
	err := NewAbsoluteParentError("child.yaml", "/etc/base.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgAbsoluteParentRef)
}

// TestNewInheritanceDepthError tests depth limit errors
func TestNewInheritanceDepthError(t *testing.T) {
	err := NewInheritanceDepthError("deep.yaml", 11, DefaultMaxInheritanceDepth)

	require.Error(t, err)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))

	depth, ok := customErr.GetMetadata(MetaKeyDepth)
	assert.True(t, ok)
	assert.Equal(t, "11", depth)

	maxDepth, ok := customErr.GetMetadata(MetaKeyMaxDepth)
	assert.True(t, ok)
	assert.Equal(t, strconv.Itoa(DefaultMaxInheritanceDepth), maxDepth)
}

// TestNewChunkTypeMismatchError tests chunk type tag errors
func TestNewChunkTypeMismatchError(t *testing.T) {
	err := NewChunkTypeMismatchError("person.yaml", "person", "scenery")

	require.Error(t, err)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))

	expected, ok := customErr.GetMetadata(MetaKeyExpected)
	assert.True(t, ok)
	assert.Equal(t, "person", expected)

	actual, ok := customErr.GetMetadata(MetaKeyActual)
	assert.True(t, ok)
	assert.Equal(t, "scenery", actual)
}

// TestNewSelectorError tests selector error creation
func TestNewSelectorError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("strconv.Atoi: parsing \"x\": invalid syntax")
		err := NewSelectorError(ErrMsgSelectorParseFailed, "Pose", "range:1-x", cause)

		require.Error(t, err)
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewSelectorError(ErrMsgSelectorUnknownKey, "Pose", "kneeling", nil)

		require.Error(t, err)

		var customErr *cuserr.CustomError
		require.True(t, errors.As(err, &customErr))

		placeholder, ok := customErr.GetMetadata(MetaKeyPlaceholder)
		assert.True(t, ok)
		assert.Equal(t, "Pose", placeholder)

		term, ok := customErr.GetMetadata(MetaKeyTerm)
		assert.True(t, ok)
		assert.Equal(t, "kneeling", term)
	})
}

// TestNewUnknownModeError tests fatal mode configuration errors
func TestNewUnknownModeError(t *testing.T) {
	err := NewUnknownModeError(MetaKeySeedMode, "sequential")

	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgUnknownMode)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))

	value, ok := customErr.GetMetadata(MetaKeyValue)
	assert.True(t, ok)
	assert.Equal(t, "sequential", value)
}

// TestNewNoVariationSourceError tests undefined placeholder errors
func TestNewNoVariationSourceError(t *testing.T) {
	err := NewNoVariationSourceError("Background", "portrait.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgNoVariationSource)
}

// TestPositionString tests the position formatting
func TestPositionString(t *testing.T) {
	pos := Position{Offset: 42, Line: 3, Column: 7}
	assert.Equal(t, "line 3, column 7", pos.String())
}

// TestParseGenerationMode tests generation mode parsing
func TestParseGenerationMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    GenerationMode
		wantErr bool
	}{
		{"combinatorial", "combinatorial", ModeCombinatorial, false},
		{"random", "random", ModeRandom, false},
		{"unknown", "exhaustive", "", true},
		{"empty", "", "", true},
		{"case sensitive", "Combinatorial", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGenerationMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParseSeedMode tests seed mode parsing
func TestParseSeedMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SeedMode
		wantErr bool
	}{
		{"fixed", "fixed", SeedFixed, false},
		{"progressive", "progressive", SeedProgressive, false},
		{"random", "random", SeedRandom, false},
		{"unknown", "increment", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeedMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
