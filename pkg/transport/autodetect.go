// Copyright 2025 Alexander Kappner.

package transport

import (
	"context"
	"encoding/json"

	"github.com/akappner/mielecrypto/pkg/apperr"
	"github.com/akappner/mielecrypto/pkg/cryptoutil"
)

// AutodetectRoute discovers the single route segment an appliance answers
// under by listing "/Devices" and requiring that the response name exactly
// one device. Appliances that multiplex more than one logical device behind
// one host are out of scope for autodetection; callers with more than one
// route must supply it explicitly instead of calling this.
func AutodetectRoute(ctx context.Context, t *Transport, host string) (string, error) {
	body, _, err := t.Request(ctx, "GET", host, "/Devices", nil)
	if err != nil {
		return "", err
	}

	var devices map[string]json.RawMessage
	if err := json.Unmarshal(cryptoutil.StripTrailingZeros(body), &devices); err != nil {
		return "", apperr.Wrap(apperr.Protocol, "BAD_DEVICES_LIST", "could not parse /Devices response", err)
	}

	switch len(devices) {
	case 0:
		return "", apperr.New(apperr.Usage, "NO_DEVICES", "appliance reported no devices to autodetect a route from")
	case 1:
		for route := range devices {
			return route, nil
		}
	}
	return "", apperr.New(apperr.Usage, "AMBIGUOUS_ROUTE", "appliance reported more than one device; a route must be supplied explicitly")
}
