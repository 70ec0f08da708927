package dop2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u16Record(v uint16) Record {
	return Record{Tag: TagBytes, Bytes: []byte{byte(v >> 8), byte(v)}}
}

func TestDecodeSettingValueSchema(t *testing.T) {
	records := []Record{u16Record(4), u16Record(42), u16Record(0), u16Record(100)}
	decoded, err := Decode(records, SettingValueSchema)
	require.NoError(t, err)

	assert.Equal(t, FieldValue{Present: true, Value: uint16(42)}, decoded.Fields["Value"])
	assert.Equal(t, FieldValue{Present: true, Value: uint16(100)}, decoded.Fields["Maximum"])
	assert.Empty(t, decoded.ExtraFields)
}

func TestDecodeToleratesMissingTrailingFields(t *testing.T) {
	records := []Record{u16Record(2), u16Record(7)}
	decoded, err := Decode(records, SettingValueSchema)
	require.NoError(t, err)

	assert.True(t, decoded.Fields["Value"].Present)
	assert.False(t, decoded.Fields["Minimum"].Present)
	assert.False(t, decoded.Fields["Maximum"].Present)
}

func TestDecodeSurfacesExtraFields(t *testing.T) {
	records := []Record{u16Record(4), u16Record(42), u16Record(0), u16Record(100), {Tag: TagBytes, Bytes: []byte("extra")}}
	decoded, err := Decode(records, SettingValueSchema)
	require.NoError(t, err)
	require.Len(t, decoded.ExtraFields, 1)
	assert.Equal(t, []byte("extra"), decoded.ExtraFields[0].Bytes)
}

func TestDecodeStringStripsTrailingNUL(t *testing.T) {
	schema := Schema{{Index: 1, Name: "Name", Type: FieldString}}
	records := []Record{{Tag: TagBytes, Bytes: []byte("Oven\x00\x00")}}
	decoded, err := Decode(records, schema)
	require.NoError(t, err)
	assert.Equal(t, "Oven", decoded.Fields["Name"].Value)
}

func TestDecodeRejectsWrongWidth(t *testing.T) {
	schema := Schema{{Index: 1, Name: "Flag", Type: FieldBool}}
	records := []Record{{Tag: TagBytes, Bytes: []byte{1, 2}}}
	_, err := Decode(records, schema)
	require.Error(t, err)
}

func TestDecodeU16SeqRecordAsBytesPayload(t *testing.T) {
	schema := Schema{{Index: 1, Name: "Pair", Type: FieldBytes}}
	records := []Record{{Tag: TagU16Seq, U16: []uint16{0x0102, 0x0304}}}
	decoded, err := Decode(records, schema)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, decoded.Fields["Pair"].Value)
}
