// Copyright 2025 Alexander Kappner.

package dop2

import (
	"context"
	"fmt"
)

// Requester is the narrow transport dependency this package needs: one
// signed, encrypted, verified HTTP exchange. transport.DOP2Client satisfies
// this by wrapping a *transport.Transport; tests supply a stub instead of
// standing up a real server.
type Requester interface {
	Request(ctx context.Context, method, host, path string, body []byte) ([]byte, error)
}

// leafPath builds the DOP2 resource path for a coordinate. Both indices are
// always sent, even when zero, matching the wire behavior observed across
// every read in the reference traces.
func leafPath(route string, coord Coordinate) string {
	return fmt.Sprintf("/Devices/%s/DOP2/%d/%d?idx1=%d&idx2=%d", route, coord.Unit, coord.Attribute, coord.Idx1, coord.Idx2)
}

// Read fetches and parses one DOP2 leaf.
func Read(ctx context.Context, r Requester, host, route string, coord Coordinate) ([]Record, error) {
	body, err := r.Request(ctx, "GET", host, leafPath(route, coord), nil)
	if err != nil {
		return nil, err
	}
	return Parse(body)
}

// Write serializes records and PUTs them to a DOP2 leaf. The appliance's
// response body, if any, is parsed and returned the same way a Read result
// is -- some attributes echo the stored value back.
func Write(ctx context.Context, r Requester, host, route string, coord Coordinate, records []Record) ([]Record, error) {
	payload, err := Serialize(records)
	if err != nil {
		return nil, err
	}
	body, err := r.Request(ctx, "PUT", host, leafPath(route, coord), payload)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	return Parse(body)
}

// TransportReader adapts a Requester to the LeafReader interface Walk needs,
// discarding the route mismatch Walk's signature otherwise requires the
// caller to thread through (route is closed over once at construction).
type TransportReader struct {
	R     Requester
	Route string
}

func (t TransportReader) ReadLeaf(ctx context.Context, host, _ string, coord Coordinate) ([]Record, error) {
	return Read(ctx, t.R, host, t.Route, coord)
}
