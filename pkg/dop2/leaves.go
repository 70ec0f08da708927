// Copyright 2025 Alexander Kappner.

package dop2

import (
	"strings"

	"github.com/akappner/mielecrypto/pkg/apperr"
)

// FieldType is the primitive wire type of one structured-leaf field.
type FieldType int

const (
	FieldU8 FieldType = iota
	FieldU16
	FieldU32
	FieldI8
	FieldI16
	FieldI32
	FieldBytes
	FieldString
	FieldBool
)

// Field describes one named, one-based attribute slot in a structured leaf.
type Field struct {
	Index int // one-based, per DOP2 field numbering
	Name  string
	Type  FieldType
}

// Schema is a fixed, ordered set of fields for one (unit, attribute) leaf.
// Schemas are values: the registry below maps a coordinate to a Schema,
// extension happens by registering a new entry, never by subclassing.
type Schema []Field

// LeafKey identifies a schema by its (unit, attribute) coordinate, ignoring
// idx1/idx2 -- the same schema applies regardless of index.
type LeafKey struct {
	Unit      uint16
	Attribute uint16
}

// Registry maps known leaf coordinates to their field schema. It is built
// once at startup (see DefaultRegistry) and is never mutated by request
// handlers; callers that need additional schemas build their own map and
// merge it before first use.
type Registry map[LeafKey]Schema

// SettingValueSchema is the built-in schema for the generic DOP2 "setting
// value" leaf used by the settings endpoint (spec requires at least one
// schema ship out of the box). Field layout: a reported length, the current
// value, and the device-advertised minimum/maximum bounds.
var SettingValueSchema = Schema{
	{Index: 1, Name: "Length", Type: FieldU16},
	{Index: 2, Name: "Value", Type: FieldU16},
	{Index: 3, Name: "Minimum", Type: FieldU16},
	{Index: 4, Name: "Maximum", Type: FieldU16},
}

// SettingValueKey is the coordinate the setting-value schema is registered
// under in DefaultRegistry: (unit=2, attribute=105), the leaf
// Dop2SettingAPI.get() reads via readDop2LeafRaw(2, 105, idx1=settingInt,
// idx2=0) in the original reference server.
var SettingValueKey = LeafKey{Unit: 2, Attribute: 105}

// DefaultRegistry returns the built-in schema set. Callers that need
// additional structured leaves construct their own Registry (a plain map)
// and add entries to it; the default registry is never mutated in place.
func DefaultRegistry() Registry {
	return Registry{
		SettingValueKey: SettingValueSchema,
	}
}

// DecodedLeaf is the result of applying a Schema to a parsed record stream:
// a name-keyed view of the known fields plus whatever records the schema
// didn't account for, so data is never silently dropped. Fields is a map and
// does not keep the schema's field order.
type DecodedLeaf struct {
	Fields      map[string]FieldValue
	ExtraFields []Record
}

// FieldValue holds one decoded field. Present is false when the schema
// names a field but the record stream didn't carry enough trailing records
// to fill it -- a tolerated condition, not an error.
type FieldValue struct {
	Present bool
	Value   interface{}
}

// Decode applies schema to records, indexing one-based per the DOP2
// convention. Missing trailing fields are reported absent; records beyond
// the schema's last field are returned as ExtraFields.
func Decode(records []Record, schema Schema) (DecodedLeaf, error) {
	result := DecodedLeaf{Fields: make(map[string]FieldValue, len(schema))}

	for _, f := range schema {
		idx := f.Index - 1
		if idx < 0 || idx >= len(records) {
			result.Fields[f.Name] = FieldValue{Present: false}
			continue
		}

		payload, err := records[idx].PayloadBytes()
		if err != nil {
			return DecodedLeaf{}, err
		}
		value, err := decodePrimitive(payload, f.Type)
		if err != nil {
			return DecodedLeaf{}, apperr.Wrap(apperr.Protocol, "BAD_FIELD", "could not decode field "+f.Name, err)
		}
		result.Fields[f.Name] = FieldValue{Present: true, Value: value}
	}

	maxIndex := 0
	for _, f := range schema {
		if f.Index > maxIndex {
			maxIndex = f.Index
		}
	}
	if maxIndex < len(records) {
		result.ExtraFields = append(result.ExtraFields, records[maxIndex:]...)
	}

	return result, nil
}

func decodePrimitive(payload []byte, typ FieldType) (interface{}, error) {
	switch typ {
	case FieldU8:
		if len(payload) != 1 {
			return nil, apperr.New(apperr.Protocol, "BAD_FIELD_WIDTH", "u8 field payload is not 1 byte")
		}
		return payload[0], nil
	case FieldI8:
		if len(payload) != 1 {
			return nil, apperr.New(apperr.Protocol, "BAD_FIELD_WIDTH", "i8 field payload is not 1 byte")
		}
		return int8(payload[0]), nil
	case FieldU16:
		if len(payload) != 2 {
			return nil, apperr.New(apperr.Protocol, "BAD_FIELD_WIDTH", "u16 field payload is not 2 bytes")
		}
		return uint16(payload[0])<<8 | uint16(payload[1]), nil
	case FieldI16:
		if len(payload) != 2 {
			return nil, apperr.New(apperr.Protocol, "BAD_FIELD_WIDTH", "i16 field payload is not 2 bytes")
		}
		return int16(uint16(payload[0])<<8 | uint16(payload[1])), nil
	case FieldU32:
		if len(payload) != 4 {
			return nil, apperr.New(apperr.Protocol, "BAD_FIELD_WIDTH", "u32 field payload is not 4 bytes")
		}
		return uint32(payload[0])<<24 | uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3]), nil
	case FieldI32:
		if len(payload) != 4 {
			return nil, apperr.New(apperr.Protocol, "BAD_FIELD_WIDTH", "i32 field payload is not 4 bytes")
		}
		return int32(uint32(payload[0])<<24 | uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])), nil
	case FieldBytes:
		return payload, nil
	case FieldString:
		return strings.TrimRight(string(payload), "\x00"), nil
	case FieldBool:
		if len(payload) != 1 {
			return nil, apperr.New(apperr.Protocol, "BAD_FIELD_WIDTH", "bool field payload is not 1 byte")
		}
		return payload[0] != 0, nil
	default:
		return nil, apperr.New(apperr.Usage, "UNKNOWN_FIELD_TYPE", "unrecognized structured-leaf field type")
	}
}
