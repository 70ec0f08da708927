package dop2

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akappner/mielecrypto/pkg/apperr"
)

type mockReader struct {
	byCoord map[Coordinate][]Record
	fail    map[Coordinate]bool
	seen    []Coordinate
}

func (m *mockReader) ReadLeaf(_ context.Context, _, _ string, coord Coordinate) ([]Record, error) {
	m.seen = append(m.seen, coord)
	if m.fail[coord] {
		return nil, apperr.New(apperr.Device, "DEVICE_500", "device returned 500")
	}
	return m.byCoord[coord], nil
}

func u16SeqRecord(pairs ...uint16) Record {
	return Record{Tag: TagU16Seq, U16: pairs}
}

// S6: tree walk with one dead leaf.
func TestS6WalkIsolatesDeadLeaf(t *testing.T) {
	reader := &mockReader{
		byCoord: map[Coordinate][]Record{
			ExplorationRoot: {u16SeqRecord(2, 105, 2, 106)},
			{Unit: 2, Attribute: 106}: {u16SeqRecord()},
		},
		fail: map[Coordinate]bool{
			{Unit: 2, Attribute: 105}: true,
		},
	}

	results := Walk(context.Background(), reader, "host", "route")

	require.Contains(t, results, "(2,105)")
	require.Contains(t, results, "(2,106)")
	assert.Equal(t, apperr.Device, results["(2,105)"].Err.Kind)
	assert.Nil(t, results["(2,106)"].Err)
}

func TestWalkPreventsCycles(t *testing.T) {
	reader := &mockReader{
		byCoord: map[Coordinate][]Record{
			ExplorationRoot:          {u16SeqRecord(3, 1)},
			{Unit: 3, Attribute: 1}:  {u16SeqRecord(3, 2)},
			{Unit: 3, Attribute: 2}:  {u16SeqRecord(3, 1)}, // cycles back to (3,1)
		},
	}

	results := Walk(context.Background(), reader, "host", "route")

	assert.Len(t, results, 3) // root + (3,1) + (3,2), no infinite loop
	readCounts := map[Coordinate]int{}
	for _, c := range reader.seen {
		readCounts[c]++
	}
	assert.Equal(t, 1, readCounts[Coordinate{Unit: 3, Attribute: 1}])
}

func TestWalkIsDepthFirstInDeclarationOrder(t *testing.T) {
	reader := &mockReader{
		byCoord: map[Coordinate][]Record{
			ExplorationRoot:         {u16SeqRecord(9, 1, 9, 2)},
			{Unit: 9, Attribute: 1}: {u16SeqRecord(9, 11)},
			{Unit: 9, Attribute: 2}: {u16SeqRecord()},
			{Unit: 9, Attribute: 11}: {u16SeqRecord()},
		},
	}

	Walk(context.Background(), reader, "host", "route")

	expected := []Coordinate{
		ExplorationRoot,
		{Unit: 9, Attribute: 1},
		{Unit: 9, Attribute: 11},
		{Unit: 9, Attribute: 2},
	}
	assert.Equal(t, expected, reader.seen)
}
