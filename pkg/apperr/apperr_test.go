package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCategory(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Usage, 400},
		{Protocol, 400},
		{Auth, 500},
		{Crypto, 500},
		{Transport, 502},
		{Device, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusCategory(c.kind), c.kind.String())
	}
}

func TestIs(t *testing.T) {
	err := New(Auth, "SIG_MISMATCH", "signature did not verify")
	require.True(t, Is(err, Auth))
	require.False(t, Is(err, Crypto))
	require.False(t, Is(errors.New("plain"), Auth))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(Transport, "DIAL_TIMEOUT", "could not reach appliance", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "could not reach appliance")
}
