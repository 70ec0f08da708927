// Copyright 2025 Alexander Kappner.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURLSplitsHostAndPath(t *testing.T) {
	host, path, err := parseURL("http://192.168.1.50/Devices/000123/State")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50", host)
	assert.Equal(t, "/Devices/000123/State", path)
}

func TestParseURLKeepsQueryString(t *testing.T) {
	_, path, err := parseURL("http://host/DOP2/2/105?idx1=0&idx2=0")
	require.NoError(t, err)
	assert.Equal(t, "/DOP2/2/105?idx1=0&idx2=0", path)
}

func TestParseURLRejectsHTTPS(t *testing.T) {
	_, _, err := parseURL("https://host/x")
	require.Error(t, err)
}

func TestParseURLRejectsMissingHost(t *testing.T) {
	_, _, err := parseURL("http:///x")
	require.Error(t, err)
}

func TestParseURLRejectsBadScheme(t *testing.T) {
	_, _, err := parseURL("ftp://host/x")
	require.Error(t, err)
}

func TestHexDumpSpacedFormatsBytes(t *testing.T) {
	assert.Equal(t, "01 02 ff", hexDumpSpaced([]byte{0x01, 0x02, 0xff}))
}
