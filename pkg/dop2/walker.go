// Copyright 2025 Alexander Kappner.

package dop2

import (
	"context"

	"github.com/akappner/mielecrypto/pkg/apperr"
)

// ExplorationTreeAttribute is the attribute, under unit 2, whose decoded
// record is expected to enumerate a device's child (unit, attribute)
// coordinates. Neither spec.md nor original_source/ pins this down directly:
// the reference server (Server.py's Dop2SettingAPI.get()) reads the
// concrete setting-value leaf at (2,105) -- see SettingValueKey -- which
// rules 105 out as the exploration root, since the two leaves are not the
// same attribute. This value is therefore an explicit, uncross-checked
// placeholder distinct from 105, not a grounded wire fact; a deployment
// with a confirmed root coordinate should override it before relying on
// Walk.
const ExplorationTreeAttribute uint16 = 1

// ExplorationRoot is the coordinate the tree walker starts from.
var ExplorationRoot = Coordinate{Unit: 2, Attribute: ExplorationTreeAttribute}

// LeafReader performs a single DOP2 read at a coordinate. TransportReader
// (readwrite.go) supplies the concrete implementation over a Requester; the walker
// only depends on this narrow interface so it can be driven by a mock in
// tests without a real HTTP round trip.
type LeafReader interface {
	ReadLeaf(ctx context.Context, host, route string, coord Coordinate) ([]Record, error)
}

// LeafOutcome is either a leaf's decoded records or the error isolating it
// from the rest of the walk.
type LeafOutcome struct {
	Records []Record
	Err     *apperr.Error
}

// ChildCoordinates extracts subtree coordinates advertised by a decoded
// record sequence: every pair of values in a u16-sequence record is read as
// one (unit, attribute) coordinate; nested records are searched recursively.
func ChildCoordinates(records []Record) []Coordinate {
	var coords []Coordinate
	for _, r := range records {
		switch r.Tag {
		case TagU16Seq:
			for i := 0; i+1 < len(r.U16); i += 2 {
				coords = append(coords, Coordinate{Unit: r.U16[i], Attribute: r.U16[i+1]})
			}
		case TagNested:
			coords = append(coords, ChildCoordinates(r.Nested)...)
		}
	}
	return coords
}

// Walk enumerates every (unit, attribute) coordinate reachable from
// ExplorationRoot. Traversal is iterative (an explicit stack, not
// recursion) and depth-first, visiting a parent's children in the order
// they were declared. A coordinate that fails to read is recorded with its
// error and does not abort the walk; a visited set prevents cycles and
// re-reads of coordinates shared by more than one parent.
func Walk(ctx context.Context, reader LeafReader, host, route string) map[string]LeafOutcome {
	results := make(map[string]LeafOutcome)
	visited := make(map[Coordinate]bool)

	visit := func(coord Coordinate) []Record {
		visited[coord] = true
		records, err := reader.ReadLeaf(ctx, host, route, coord)
		if err != nil {
			results[coord.String()] = LeafOutcome{Err: asAppErr(err)}
			return nil
		}
		results[coord.String()] = LeafOutcome{Records: records}
		return records
	}

	rootRecords := visit(ExplorationRoot)

	stack := pushReversed(nil, ChildCoordinates(rootRecords))
	for len(stack) > 0 {
		coord := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := Coordinate{Unit: coord.Unit, Attribute: coord.Attribute}
		if visited[key] {
			continue
		}

		records := visit(key)
		stack = pushReversed(stack, ChildCoordinates(records))
	}

	return results
}

// pushReversed appends children to stack in reverse declaration order, so
// popping from the end of stack yields them in forward (first-declared
// first) order -- the depth-first, declaration-order traversal the spec
// requires.
func pushReversed(stack []Coordinate, children []Coordinate) []Coordinate {
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, children[i])
	}
	return stack
}

func asAppErr(err error) *apperr.Error {
	if ae, ok := err.(*apperr.Error); ok {
		return ae
	}
	return apperr.Wrap(apperr.Transport, "LEAF_READ_FAILED", "could not read DOP2 leaf", err)
}
