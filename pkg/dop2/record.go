// Copyright 2025 Alexander Kappner.
//
// Package dop2 implements the nested binary attribute protocol ("DOP2")
// carried inside decrypted HTTP bodies on the /Devices/<route>/DOP2/...
// resource family: a TLV grammar with three primitive tags (opaque bytes,
// u16 sequences and nested record lists), a pluggable structured-leaf
// registry, and the recursive tree walker that enumerates a device's
// ExplorationTree.
package dop2

import (
	"encoding/binary"
	"fmt"

	"github.com/akappner/mielecrypto/pkg/apperr"
)

// Tag identifies the primitive wire type of a record's payload.
type Tag uint16

const (
	TagBytes  Tag = 0x0001
	TagU16Seq Tag = 0x0002
	TagNested Tag = 0x0003
)

// Coordinate addresses one DOP2 leaf. Reads identify a full
// (Unit, Attribute, Idx1, Idx2) tuple; writes identify (Unit, Attribute)
// and leave Idx1/Idx2 at their zero default.
type Coordinate struct {
	Unit      uint16
	Attribute uint16
	Idx1      uint16
	Idx2      uint16
}

// String renders a coordinate the way tree-walk results key their map:
// "(unit,attribute)" when both indices are zero, else the full 4-tuple.
func (c Coordinate) String() string {
	if c.Idx1 == 0 && c.Idx2 == 0 {
		return fmt.Sprintf("(%d,%d)", c.Unit, c.Attribute)
	}
	return fmt.Sprintf("(%d,%d,%d,%d)", c.Unit, c.Attribute, c.Idx1, c.Idx2)
}

// Record is one parsed DOP2 attribute: exactly one of Bytes, U16 or Nested
// is meaningful, selected by Tag. Unrecognized tags are preserved as opaque
// bytes with the original tag retained so no information is silently lost.
type Record struct {
	Tag    Tag
	Bytes  []byte
	U16    []uint16
	Nested []Record
}

// PayloadBytes returns the record's value area as raw bytes, re-encoding a
// u16 sequence back to big-endian pairs when necessary. Nested records have
// no flat byte form and return an error -- callers decoding a structured
// leaf field must route through a non-nested record.
func (r Record) PayloadBytes() ([]byte, error) {
	switch r.Tag {
	case TagNested:
		return nil, apperr.New(apperr.Protocol, "NESTED_HAS_NO_BYTES", "nested record has no flat byte payload")
	case TagU16Seq:
		buf := make([]byte, len(r.U16)*2)
		for i, v := range r.U16 {
			binary.BigEndian.PutUint16(buf[i*2:], v)
		}
		return buf, nil
	default:
		return r.Bytes, nil
	}
}

// Parse consumes a decrypted leaf byte buffer and returns an ordered
// sequence of records. The grammar is:
//
//	length uint16, data_type uint16, then a value area whose size is given
//	by length in the natural unit for data_type: bytes for TagBytes and any
//	unrecognized tag, u16 elements for TagU16Seq (so length*2 bytes are
//	consumed), and bytes of the nested sub-buffer for TagNested.
//
// The concatenation of all records must exactly consume buf; a short run of
// trailing zero bytes (fewer than 16, all zero) is tolerated as a padding
// remnant and discarded. An empty buf parses to an empty, non-nil slice.
func Parse(buf []byte) ([]Record, error) {
	records := make([]Record, 0)

	for len(buf) > 0 {
		if allZero(buf) {
			if len(buf) < 16 {
				break
			}
			return nil, apperr.New(apperr.Protocol, "LONG_ZERO_TAIL", "trailing all-zero region is too long to be padding")
		}
		if len(buf) < 4 {
			return nil, apperr.New(apperr.Protocol, "TRUNCATED_HEADER", "buffer ends mid attribute-record header")
		}

		length := binary.BigEndian.Uint16(buf[0:2])
		tag := Tag(binary.BigEndian.Uint16(buf[2:4]))
		rest := buf[4:]

		var (
			record   Record
			consumed int
		)

		switch tag {
		case TagU16Seq:
			need := int(length) * 2
			if need > len(rest) {
				return nil, apperr.New(apperr.Protocol, "RECORD_OVERRUN", "u16-sequence record exceeds remaining buffer")
			}
			values, err := decodeU16Seq(rest[:need])
			if err != nil {
				return nil, err
			}
			record = Record{Tag: TagU16Seq, U16: values}
			consumed = need

		case TagNested:
			need := int(length)
			if need > len(rest) {
				return nil, apperr.New(apperr.Protocol, "RECORD_OVERRUN", "nested record exceeds remaining buffer")
			}
			nested, err := Parse(rest[:need])
			if err != nil {
				return nil, err
			}
			record = Record{Tag: TagNested, Nested: nested}
			consumed = need

		default: // TagBytes and any opaque/unrecognized tag
			need := int(length)
			if need > len(rest) {
				return nil, apperr.New(apperr.Protocol, "RECORD_OVERRUN", "record exceeds remaining buffer")
			}
			payload := make([]byte, need)
			copy(payload, rest[:need])
			record = Record{Tag: tag, Bytes: payload}
			consumed = need
		}

		records = append(records, record)
		buf = rest[consumed:]
	}

	return records, nil
}

func decodeU16Seq(payload []byte) ([]uint16, error) {
	if len(payload)%2 != 0 {
		return nil, apperr.New(apperr.Protocol, "ODD_U16_PAYLOAD", "u16-sequence payload has an odd byte length")
	}
	values := make([]uint16, len(payload)/2)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(payload[i*2 : i*2+2])
	}
	return values, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Serialize is the inverse of Parse: it renders records back to the wire
// TLV grammar. Serialize(records) fed back through Parse reproduces an
// equal record sequence for any well-formed input.
func Serialize(records []Record) ([]byte, error) {
	var out []byte
	for _, r := range records {
		switch r.Tag {
		case TagU16Seq:
			header := make([]byte, 4)
			binary.BigEndian.PutUint16(header[0:2], uint16(len(r.U16)))
			binary.BigEndian.PutUint16(header[2:4], uint16(TagU16Seq))
			out = append(out, header...)
			for _, v := range r.U16 {
				var b [2]byte
				binary.BigEndian.PutUint16(b[:], v)
				out = append(out, b[:]...)
			}

		case TagNested:
			inner, err := Serialize(r.Nested)
			if err != nil {
				return nil, err
			}
			header := make([]byte, 4)
			binary.BigEndian.PutUint16(header[0:2], uint16(len(inner)))
			binary.BigEndian.PutUint16(header[2:4], uint16(TagNested))
			out = append(out, header...)
			out = append(out, inner...)

		default:
			header := make([]byte, 4)
			binary.BigEndian.PutUint16(header[0:2], uint16(len(r.Bytes)))
			binary.BigEndian.PutUint16(header[2:4], uint16(r.Tag))
			out = append(out, header...)
			out = append(out, r.Bytes...)
		}
	}
	return out, nil
}
