package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaltCodecRoundTrip(t *testing.T) {
	codec := NewTargetCodec(CodecVersionV1)
	require.Equal(t, CodecVersionV1, codec.Version())

	identifiers := []string{
		"some_handle",
		"a",
		"user.name_42",
		"1234567890",
		"handle-with-dash",
	}
	for _, plain := range identifiers {
		encoded := codec.Encode(plain)
		assert.NotEqual(t, plain, encoded)
		assert.Equal(t, plain, codec.Decode(encoded))
	}
}

func TestSaltCodecPassthrough(t *testing.T) {
	codec := NewTargetCodec(CodecVersionV1)

	t.Run("PlainValueUnchanged", func(t *testing.T) {
		assert.Equal(t, "plain_handle", codec.Decode("plain_handle"))
	})

	t.Run("EmptyValueUnchanged", func(t *testing.T) {
		assert.Equal(t, "", codec.Decode(""))
	})

	t.Run("MarkersOnlyUnchanged", func(t *testing.T) {
		assert.Equal(t, "xt1[]1tx", codec.Decode("xt1[]1tx"))
	})

	t.Run("CorruptedInnerUnchanged", func(t *testing.T) {
		corrupted := "xt1[not!valid!base64]1tx"
		assert.Equal(t, corrupted, codec.Decode(corrupted))
	})

	t.Run("PrefixWithoutSuffixUnchanged", func(t *testing.T) {
		assert.Equal(t, "xt1[abcdef", codec.Decode("xt1[abcdef"))
	})
}

func TestRotCodecRoundTrip(t *testing.T) {
	codec := NewTargetCodec(CodecVersionV2)
	require.Equal(t, CodecVersionV2, codec.Version())

	identifiers := []string{
		"some_handle",
		"user.name_42",
		"UPPER_and_lower",
	}
	for _, plain := range identifiers {
		encoded := codec.Encode(plain)
		assert.NotEqual(t, plain, encoded)
		assert.Equal(t, plain, codec.Decode(encoded))
	}
}

func TestRotCodecPassthroughOnInvalidBase64(t *testing.T) {
	codec := NewTargetCodec(CodecVersionV2)
	// Rotation of this value is not valid base64, so it must come back unchanged.
	assert.Equal(t, "not valid!", codec.Decode("not valid!"))
}

func TestNewTargetCodecDefaultsToV1(t *testing.T) {
	codec := NewTargetCodec("")
	assert.Equal(t, CodecVersionV1, codec.Version())

	codec = NewTargetCodec("unknown")
	assert.Equal(t, CodecVersionV1, codec.Version())
}

func TestCodecSchemesAreDistinct(t *testing.T) {
	v1 := NewTargetCodec(CodecVersionV1)
	v2 := NewTargetCodec(CodecVersionV2)
	assert.NotEqual(t, v1.Encode("same_input"), v2.Encode("same_input"))
}
