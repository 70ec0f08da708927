// Copyright 2025 Alexander Kappner.
//
// Package provisioning holds the group id / group key pair established
// during appliance commissioning and derives the AES and HMAC subkeys used
// by the rest of the protocol engine.
package provisioning

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/akappner/mielecrypto/pkg/apperr"
)

const (
	groupIDBytes  = 8
	groupKeyBytes = 64
	aesKeyBytes   = 16
)

// Info is the immutable provisioning material for one appliance. Construct
// it with FromHex, FromPairingJSON or GenerateRandom; there is no exported
// way to mutate an Info after construction.
type Info struct {
	groupID  [groupIDBytes]byte
	groupKey [groupKeyBytes]byte
}

// PairingPayload is the wire/JSON form of Info exchanged during
// commissioning: {"GroupID": "<16 hex>", "GroupKey": "<128 hex>"}.
type PairingPayload struct {
	GroupID  string `json:"GroupID"`
	GroupKey string `json:"GroupKey"`
}

// FromHex validates and decodes a group id / group key hex pair. groupID
// must decode to exactly 8 bytes (16 hex chars) and groupKey to exactly 64
// bytes (128 hex chars); the hex alphabet is case-insensitive on input.
func FromHex(groupID, groupKey string) (Info, error) {
	var info Info

	idBytes, err := decodeExact(groupID, groupIDBytes, "GroupID")
	if err != nil {
		return Info{}, err
	}
	keyBytes, err := decodeExact(groupKey, groupKeyBytes, "GroupKey")
	if err != nil {
		return Info{}, err
	}

	copy(info.groupID[:], idBytes)
	copy(info.groupKey[:], keyBytes)
	return info, nil
}

func decodeExact(s string, n int, field string) ([]byte, error) {
	decoded, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, apperr.Wrap(apperr.Usage, "BAD_HEX", field+" is not valid hex", err)
	}
	if len(decoded) != n {
		return nil, apperr.New(apperr.Usage, "BAD_LENGTH", field+" must decode to exactly "+strconv.Itoa(n)+" bytes")
	}
	return decoded, nil
}

// FromPairingJSON decodes a pairing payload and validates it the same way
// FromHex does. Missing keys or wrong sizes are rejected.
func FromPairingJSON(data []byte) (Info, error) {
	var payload PairingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Info{}, apperr.Wrap(apperr.Usage, "BAD_JSON", "pairing payload is not valid JSON", err)
	}
	if payload.GroupID == "" || payload.GroupKey == "" {
		return Info{}, apperr.New(apperr.Usage, "MISSING_FIELD", "pairing payload must contain GroupID and GroupKey")
	}
	return FromHex(payload.GroupID, payload.GroupKey)
}

// GenerateRandom draws fresh group id and group key bytes from a
// cryptographic RNG. Used for first-time commissioning of a new appliance.
func GenerateRandom() (Info, error) {
	var info Info
	if _, err := rand.Read(info.groupID[:]); err != nil {
		return Info{}, apperr.Wrap(apperr.Crypto, "RNG_FAILURE", "could not read random bytes for GroupID", err)
	}
	if _, err := rand.Read(info.groupKey[:]); err != nil {
		return Info{}, apperr.Wrap(apperr.Crypto, "RNG_FAILURE", "could not read random bytes for GroupKey", err)
	}
	return info, nil
}

// ToPairingJSON serializes Info back to its wire form with the stable field
// order GroupID, GroupKey, both upper-case hex.
func (i Info) ToPairingJSON() ([]byte, error) {
	payload := PairingPayload{
		GroupID:  strings.ToUpper(hex.EncodeToString(i.groupID[:])),
		GroupKey: strings.ToUpper(hex.EncodeToString(i.groupKey[:])),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.Usage, "MARSHAL_FAILURE", "could not marshal pairing payload", err)
	}
	return data, nil
}

// GroupID returns the upper-case canonical hex group id. Safe to log.
func (i Info) GroupID() string {
	return strings.ToUpper(hex.EncodeToString(i.groupID[:]))
}

// AESKey returns the first 16 bytes of the group key, used for AES-128-CBC.
// Never log the returned bytes.
func (i Info) AESKey() []byte {
	key := make([]byte, aesKeyBytes)
	copy(key, i.groupKey[:aesKeyBytes])
	return key
}

// SignKey returns the remaining 48 bytes of the group key, used as the HMAC-SHA-256
// signing key. Never log the returned bytes.
func (i Info) SignKey() []byte {
	key := make([]byte, groupKeyBytes-aesKeyBytes)
	copy(key, i.groupKey[aesKeyBytes:])
	return key
}

// Equal reports whether two Info values hold byte-identical group id and key.
func (i Info) Equal(other Info) bool {
	return i.groupID == other.groupID && i.groupKey == other.groupKey
}
