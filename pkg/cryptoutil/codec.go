// Copyright 2025 Alexander Kappner.

package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/akappner/mielecrypto/pkg/apperr"
)

const blockSize = aes.BlockSize // 16

// PadBody zero-pads data to a multiple of the AES block size. An empty body
// is returned unchanged -- it is sent as an empty ciphertext, never padded.
func PadBody(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	if rem := len(data) % blockSize; rem != 0 {
		pad := make([]byte, blockSize-rem)
		return append(append([]byte{}, data...), pad...)
	}
	return data
}

// StripTrailingZeros removes trailing 0x00 bytes, for callers that interpret
// a decoded body as text/JSON. DOP2 callers must not call this -- they read
// length-prefixed records and ignore the padding tail themselves.
func StripTrailingZeros(data []byte) []byte {
	end := len(data)
	for end > 0 && data[end-1] == 0x00 {
		end--
	}
	return data[:end]
}

// Encrypt runs AES-128-CBC over already-padded plaintext. An empty
// plaintext encrypts to an empty ciphertext.
func Encrypt(plaintext, key []byte, iv [16]byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, nil
	}
	if len(plaintext)%blockSize != 0 {
		return nil, apperr.New(apperr.Crypto, "UNPADDED_BODY", "plaintext length is not a multiple of the AES block size")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.Wrap(apperr.Crypto, "BAD_KEY", "could not construct AES cipher", err)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(ciphertext, plaintext)
	return ciphertext, nil
}

// Decrypt runs AES-128-CBC decryption over ciphertext. An empty ciphertext
// decrypts to an empty plaintext.
func Decrypt(ciphertext, key []byte, iv [16]byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, nil
	}
	if len(ciphertext)%blockSize != 0 {
		return nil, apperr.New(apperr.Crypto, "BAD_CIPHERTEXT_LENGTH", "ciphertext length is not a multiple of the AES block size")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.Wrap(apperr.Crypto, "BAD_KEY", "could not construct AES cipher", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}
