// Copyright 2025 Alexander Kappner.

package transport

import "context"

// DOP2Client adapts a Transport to pkg/dop2's Requester interface, which
// wants a plain (body, error) result and has no use for ResponseMeta.
type DOP2Client struct {
	T *Transport
}

func (d DOP2Client) Request(ctx context.Context, method, host, path string, body []byte) ([]byte, error) {
	respBody, _, err := d.T.Request(ctx, method, host, path, body)
	return respBody, err
}
