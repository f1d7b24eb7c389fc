package services

import (
	"encoding/base64"
	"log"
	"strings"
)

// TargetCodec reverses the obfuscation applied to social targets before they
// were committed on-chain. Decode is total: a value that does not conform to
// the scheme is returned unchanged, never an error.
type TargetCodec interface {
	Encode(plain string) string
	Decode(encoded string) string
	Version() string
}

// Codec scheme versions. Two incompatible schemes exist in the wild; the
// on-chain encoder version is pinned through configuration until a captured
// production payload settles which one it emits.
const (
	CodecVersionV1 = "v1"
	CodecVersionV2 = "v2"
)

// NewTargetCodec selects the codec scheme for the given version, defaulting to v1.
func NewTargetCodec(version string) TargetCodec {
	if version == CodecVersionV2 {
		return rotCodec{}
	}
	return saltCodec{}
}

const (
	targetPrefix     = "xt1["
	targetSuffix     = "]1tx"
	targetSalt       = "q7k2p9"
	targetSaltLength = len(targetSalt)
)

// saltCodec is the v1 scheme: salt-prefix the identifier, base64-encode,
// reverse the characters, and wrap in fixed markers.
type saltCodec struct{}

func (saltCodec) Version() string { return CodecVersionV1 }

func (saltCodec) Encode(plain string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(targetSalt + plain))
	return targetPrefix + reverseString(encoded) + targetSuffix
}

func (saltCodec) Decode(encoded string) string {
	if !strings.HasPrefix(encoded, targetPrefix) || !strings.HasSuffix(encoded, targetSuffix) ||
		len(encoded) <= len(targetPrefix)+len(targetSuffix) {
		// Already plaintext
		return encoded
	}

	inner := encoded[len(targetPrefix) : len(encoded)-len(targetSuffix)]
	decoded, err := base64.StdEncoding.DecodeString(reverseString(inner))
	if err != nil {
		log.Printf("target codec: undecodable v1 value, passing through: %v", err)
		return encoded
	}
	if len(decoded) < targetSaltLength {
		log.Printf("target codec: v1 value shorter than salt, passing through")
		return encoded
	}
	return string(decoded[targetSaltLength:])
}

// rotCodec is the v2 scheme: base64-encode, then rotate letters by 13 and
// digits by 5 character-wise. Both rotations are self-inverse, so decoding
// rotates first and base64-decodes the result.
type rotCodec struct{}

func (rotCodec) Version() string { return CodecVersionV2 }

func (rotCodec) Encode(plain string) string {
	return rotate(base64.StdEncoding.EncodeToString([]byte(plain)))
}

func (rotCodec) Decode(encoded string) string {
	decoded, err := base64.StdEncoding.DecodeString(rotate(encoded))
	if err != nil {
		log.Printf("target codec: undecodable v2 value, passing through: %v", err)
		return encoded
	}
	return string(decoded)
}

func rotate(s string) string {
	out := []byte(s)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = 'a' + (c-'a'+13)%26
		case c >= 'A' && c <= 'Z':
			out[i] = 'A' + (c-'A'+13)%26
		case c >= '0' && c <= '9':
			out[i] = '0' + (c-'0'+5)%10
		}
	}
	return string(out)
}

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
