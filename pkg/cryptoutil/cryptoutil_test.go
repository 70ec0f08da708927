package cryptoutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s1Fields(body []byte) CanonicalFields {
	return CanonicalFields{
		Method:      "GET",
		Host:        "127.0.0.1",
		Date:        "Mon, 01 Jan 2024 00:00:00 GMT",
		Accept:      "application/vnd.miele.v1+json",
		ContentType: "application/vnd.miele.v1+json",
		Path:        "/Devices",
		Body:        body,
	}
}

// S1: signed empty GET -- Authorization header shape and signature length.
func TestS1SignedEmptyGET(t *testing.T) {
	signKey := []byte(strings.Repeat("A", 48))
	canonical := BuildCanonical(s1Fields(nil))
	sigHex := SignHex(canonical, signKey)

	require.Len(t, sigHex, 64)
	header := AuthorizationHeader("0123456789ABCDEF", sigHex)
	assert.True(t, strings.HasPrefix(header, "MieleH256 0123456789ABCDEF:"))
	assert.Equal(t, sigHex, strings.ToUpper(sigHex))
}

// S2: round-trip of "PAYLOAD" -- pad to 16 bytes, encrypt, decrypt.
func TestS2RoundTripPayload(t *testing.T) {
	key := []byte(strings.Repeat("\x01", 16))
	var iv [16]byte
	for i := range iv {
		iv[i] = byte(i)
	}

	padded := PadBody([]byte("PAYLOAD"))
	require.Equal(t, append([]byte("PAYLOAD"), make([]byte, 9)...), padded)

	ciphertext, err := Encrypt(padded, key, iv)
	require.NoError(t, err)

	plaintext, err := Decrypt(ciphertext, key, iv)
	require.NoError(t, err)
	assert.Equal(t, padded, plaintext)
}

// Property 1: encryption round-trip for arbitrary padded plaintext.
func TestEncryptionRoundTripProperty(t *testing.T) {
	key := []byte(strings.Repeat("\x02", 16))
	var iv [16]byte
	inputs := [][]byte{nil, []byte(""), []byte("0123456789ABCDEF"), PadBody([]byte("short"))}
	for _, in := range inputs {
		ciphertext, err := Encrypt(in, key, iv)
		require.NoError(t, err)
		plaintext, err := Decrypt(ciphertext, key, iv)
		require.NoError(t, err)
		if len(in) == 0 {
			assert.Empty(t, plaintext)
		} else {
			assert.Equal(t, in, plaintext)
		}
	}
}

// Property 2: key sensitivity.
func TestKeySensitivity(t *testing.T) {
	key := []byte(strings.Repeat("\x03", 16))
	corrupt := append([]byte{}, key...)
	corrupt[0] ^= 0x01
	var iv [16]byte

	padded := PadBody([]byte("sensitive-data!!"))
	ciphertext, err := Encrypt(padded, key, iv)
	require.NoError(t, err)

	decrypted, err := Decrypt(ciphertext, corrupt, iv)
	require.NoError(t, err)
	assert.NotEqual(t, padded, decrypted)
}

// Property 3 / S5: signature verification and mutation sensitivity.
func TestVerifySignature(t *testing.T) {
	signKey := []byte(strings.Repeat("K", 48))
	canonical := []byte("some request identity")
	sigHex := SignHex(canonical, signKey)

	_, err := Verify(sigHex, canonical, signKey)
	require.NoError(t, err)

	_, err = Verify(sigHex, append(canonical, '~'), signKey)
	require.Error(t, err)
}

func TestVerifyRejectsMutatedSignatureHex(t *testing.T) {
	signKey := []byte(strings.Repeat("K", 48))
	canonical := []byte("payload")
	sigHex := SignHex(canonical, signKey)

	mutated := []byte(sigHex)
	// flip one hex nibble
	if mutated[0] == 'A' {
		mutated[0] = 'B'
	} else {
		mutated[0] = 'A'
	}

	_, err := Verify(string(mutated), canonical, signKey)
	require.Error(t, err)
}

// Property 4: IV determinism -- identical inputs produce identical IVs.
func TestIVDeterminism(t *testing.T) {
	signKey := []byte(strings.Repeat("Z", 48))
	fields := s1Fields([]byte("ciphertext-bytes"))

	canonical1 := BuildCanonical(fields)
	canonical2 := BuildCanonical(fields)

	tag1 := Sign(canonical1, signKey)
	tag2 := Sign(canonical2, signKey)
	assert.Equal(t, DeriveIV(tag1), DeriveIV(tag2))

	fields.Path = "/Different"
	canonical3 := BuildCanonical(fields)
	tag3 := Sign(canonical3, signKey)
	assert.NotEqual(t, DeriveIV(tag1), DeriveIV(tag3))
}

func TestBuildCanonicalEnforcesLeadingSlash(t *testing.T) {
	fields := s1Fields(nil)
	fields.Path = "Devices"
	canonical := BuildCanonical(fields)
	assert.Contains(t, string(canonical), "\n/Devices")
}

func TestPadBodyLeavesEmptyBodyEmpty(t *testing.T) {
	assert.Empty(t, PadBody(nil))
	assert.Empty(t, PadBody([]byte{}))
}

func TestStripTrailingZeros(t *testing.T) {
	assert.Equal(t, []byte("hello"), StripTrailingZeros([]byte("hello\x00\x00\x00")))
	assert.Equal(t, []byte{}, StripTrailingZeros([]byte{0, 0, 0}))
}

func TestDecryptRejectsUnalignedCiphertext(t *testing.T) {
	key := []byte(strings.Repeat("\x04", 16))
	_, err := Decrypt([]byte("not-16-aligned"), key, [16]byte{})
	require.Error(t, err)
}
