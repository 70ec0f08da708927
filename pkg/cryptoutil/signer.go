// Copyright 2025 Alexander Kappner.
//
// Package cryptoutil implements the canonical-string signer, IV derivation
// and AES-128-CBC body codec shared by every request/response pair in the
// protocol.
package cryptoutil

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/akappner/mielecrypto/pkg/apperr"
)

// CanonicalFields is the set of request/response metadata the signing
// string and IV are derived from. Host, Date, Accept and ContentType must be
// the exact header values placed on the wire -- the canonical string is
// built once and never reconstructed from a different set of header values.
type CanonicalFields struct {
	Method      string
	Host        string
	Date        string
	Accept      string
	ContentType string
	Path        string
	Body        []byte
}

// BuildCanonical renders the canonical signing string: METHOD, "Host: H",
// "Date: D", "Accept: A", "Content-Type: CT" and "/PATH" joined by "\n",
// followed directly by Body with no separator.
func BuildCanonical(f CanonicalFields) []byte {
	path := f.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var buf bytes.Buffer
	buf.WriteString(f.Method)
	buf.WriteByte('\n')
	buf.WriteString("Host: ")
	buf.WriteString(f.Host)
	buf.WriteByte('\n')
	buf.WriteString("Date: ")
	buf.WriteString(f.Date)
	buf.WriteByte('\n')
	buf.WriteString("Accept: ")
	buf.WriteString(f.Accept)
	buf.WriteByte('\n')
	buf.WriteString("Content-Type: ")
	buf.WriteString(f.ContentType)
	buf.WriteByte('\n')
	buf.WriteString(path)
	buf.Write(f.Body)
	return buf.Bytes()
}

// Sign computes the raw HMAC-SHA-256 tag of canonical under signKey.
func Sign(canonical, signKey []byte) [sha256.Size]byte {
	mac := hmac.New(sha256.New, signKey)
	mac.Write(canonical)
	var tag [sha256.Size]byte
	copy(tag[:], mac.Sum(nil))
	return tag
}

// SignHex computes the upper-case hex wire representation of Sign's tag.
func SignHex(canonical, signKey []byte) string {
	tag := Sign(canonical, signKey)
	return strings.ToUpper(hex.EncodeToString(tag[:]))
}

// DeriveIV takes the first 16 bytes of a raw HMAC tag as the CBC IV. The IV
// is therefore a pure function of the whole request identity: method, host,
// path, date, accept, content-type, the body bytes placed in the canonical
// string, and sign key.
func DeriveIV(tag [sha256.Size]byte) [16]byte {
	var iv [16]byte
	copy(iv[:], tag[:16])
	return iv
}

// Verify recomputes the HMAC over canonical and compares it in constant
// time against the hex signature supplied on the wire. It returns the raw
// tag (for IV derivation) when verification succeeds.
func Verify(signatureHex string, canonical, signKey []byte) ([sha256.Size]byte, error) {
	given, err := hex.DecodeString(signatureHex)
	if err != nil {
		return [sha256.Size]byte{}, apperr.Wrap(apperr.Auth, "BAD_SIGNATURE_HEX", "X-Signature header is not valid hex", err)
	}
	want := Sign(canonical, signKey)
	if len(given) != len(want) || subtle.ConstantTimeCompare(given, want[:]) != 1 {
		return [sha256.Size]byte{}, apperr.New(apperr.Auth, "SIGNATURE_MISMATCH", "signature did not verify")
	}
	return want, nil
}

// AuthorizationHeader renders the MieleH256 authorization header value for
// a given group id and canonical signature hex.
func AuthorizationHeader(groupID, signatureHex string) string {
	return "MieleH256 " + groupID + ":" + signatureHex
}
