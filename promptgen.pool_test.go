package promptgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePool_SingleEntries(t *testing.T) {
	src := `standing: standing tall
sitting: sitting on a chair
leaning: leaning against a wall
`

	pool, err := ParsePool("Pose", []byte(src), "pools/pose.yaml")
	require.NoError(t, err)

	assert.Equal(t, "Pose", pool.Name)
	assert.Equal(t, []string{"standing", "sitting", "leaning"}, pool.Keys)
	assert.Equal(t, 3, pool.Len())

	entry, ok := pool.Get("sitting")
	require.True(t, ok)
	assert.Equal(t, EntrySingle, entry.Kind)
	assert.Equal(t, "sitting on a chair", entry.Value)
	assert.Equal(t, "sitting on a chair", entry.Text())
	assert.Equal(t, "sitting on a chair", entry.Binding())
	assert.Equal(t, "pools/pose.yaml", entry.Source)
}

func TestParsePool_MultiPartEntries(t *testing.T) {
	src := `dramatic:
  positive: hard rim light
  negative: flat light
soft:
  positive: diffuse window light
`

	pool, err := ParsePool("Lighting", []byte(src), "pools/lighting.yaml")
	require.NoError(t, err)
	assert.True(t, pool.HasMultiPart())

	dramatic, _ := pool.Get("dramatic")
	assert.Equal(t, EntryParts, dramatic.Kind)
	assert.Equal(t, "hard rim light", dramatic.Text())
	assert.Equal(t, "flat light", dramatic.Negative())
	assert.Equal(t, "dramatic", dramatic.Binding())

	soft, _ := pool.Get("soft")
	assert.Equal(t, "diffuse window light", soft.Text())
	assert.Equal(t, "", soft.Negative())
}

func TestParsePool_MultiFieldEntries(t *testing.T) {
	src := `tactical:
  outfit.top: black vest
  outfit.bottom: cargo pants
  outfit.shoes: ""
`

	pool, err := ParsePool("Outfits", []byte(src), "pools/outfits.yaml")
	require.NoError(t, err)

	entry, _ := pool.Get("tactical")
	assert.Equal(t, EntryMultiField, entry.Kind)
	assert.Equal(t, "black vest", entry.Fields["outfit.top"])

	// Text joins non-empty field values in path order.
	assert.Equal(t, "cargo pants, black vest", entry.Text())
	assert.Equal(t, "tactical", entry.Binding())
}

func TestParsePool_ChunkRefEntries(t *testing.T) {
	src := `mira:
  chunk: ../chunks/mira.yaml
  character.hair: copper hair
rhea:
  chunk: ../chunks/rhea.yaml
`

	pool, err := ParsePool("Cast", []byte(src), "pools/cast.yaml")
	require.NoError(t, err)

	mira, _ := pool.Get("mira")
	assert.Equal(t, EntryChunkRef, mira.Kind)
	assert.Equal(t, "../chunks/mira.yaml", mira.Ref)
	assert.Equal(t, "copper hair", mira.Fields["character.hair"])

	rhea, _ := pool.Get("rhea")
	assert.Equal(t, EntryChunkRef, rhea.Kind)
	assert.Nil(t, rhea.Fields)

	// Chunk references render through the chunk path, not Text.
	assert.Equal(t, "", mira.Text())
	assert.Equal(t, "mira", mira.Binding())
}

func TestParsePool_ExtensionEntries(t *testing.T) {
	src := `facefix:
  detector: face_yolov8n
  strength: 0.4
`

	pool, err := ParsePool("FaceFix", []byte(src), "pools/facefix.yaml")
	require.NoError(t, err)

	entry, _ := pool.Get("facefix")
	assert.Equal(t, EntryExtension, entry.Kind)
	assert.Equal(t, "face_yolov8n", entry.Payload["detector"])
	assert.Equal(t, 0.4, entry.Payload["strength"])
	assert.Equal(t, "", entry.Text())
}

func TestParsePool_ClassificationPrecedence(t *testing.T) {
	// A chunk key wins over dotted fields in the same mapping.
	src := `hybrid:
  chunk: ../chunks/mira.yaml
  character.hair: silver
`
	pool, err := ParsePool("X", []byte(src), "pools/x.yaml")
	require.NoError(t, err)
	entry, _ := pool.Get("hybrid")
	assert.Equal(t, EntryChunkRef, entry.Kind)

	// An extension key wins over dotted fields.
	src = `hybrid:
  effect: bloom
  post.strength: high
`
	pool, err = ParsePool("X", []byte(src), "pools/x.yaml")
	require.NoError(t, err)
	entry, _ = pool.Get("hybrid")
	assert.Equal(t, EntryExtension, entry.Kind)
}

func TestParsePool_Errors(t *testing.T) {
	t.Run("duplicate key", func(t *testing.T) {
		_, err := ParsePool("X", []byte("a: one\na: two\n"), "pools/x.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgDuplicatePoolKey)
	})

	t.Run("not a mapping", func(t *testing.T) {
		_, err := ParsePool("X", []byte("- just\n- a list\n"), "pools/x.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgPoolNotMapping)
	})

	t.Run("list value", func(t *testing.T) {
		_, err := ParsePool("X", []byte("a:\n  - one\n  - two\n"), "pools/x.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgPoolValueInvalid)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParsePool("X", []byte("a: [unclosed\n"), "pools/x.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgPoolParseFailed)
	})
}

func TestParsePool_Empty(t *testing.T) {
	pool, err := ParsePool("X", []byte(""), "pools/x.yaml")
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Len())
	assert.False(t, pool.HasMultiPart())
}

func TestPool_AddReplacesInPlace(t *testing.T) {
	pool := NewPool("X")
	pool.add(&PoolEntry{Key: "a", Kind: EntrySingle, Value: "one"})
	pool.add(&PoolEntry{Key: "b", Kind: EntrySingle, Value: "two"})
	pool.add(&PoolEntry{Key: "a", Kind: EntrySingle, Value: "override"})

	assert.Equal(t, []string{"a", "b"}, pool.Keys)
	entry, _ := pool.Get("a")
	assert.Equal(t, "override", entry.Value)
}
