// Copyright 2025 Alexander Kappner.
//
// mctl is a minimal curl-like client for the encrypted appliance protocol:
// given a keys file and a URL, it signs, encrypts, sends, verifies and
// decrypts exactly one request, then prints the result.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"unicode"

	"github.com/akappner/mielecrypto/pkg/provisioning"
	"github.com/akappner/mielecrypto/pkg/transport"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("mctl", flag.ContinueOnError)
	method := fs.String("X", "GET", "HTTP method")
	data := fs.String("d", "", "request body (string payload)")
	keysPath := fs.String("k", "keys.json", "path to keys JSON file")
	includeInfo := fs.Bool("i", false, "include response status and headers in output")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: mctl [-X METHOD] [-d DATA] [-k KEYS_FILE] [-i] http://host/path")
	}
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	normalizedMethod := strings.ToUpper(strings.TrimSpace(*method))
	if normalizedMethod == "" {
		fmt.Fprintln(os.Stderr, "Error: HTTP method cannot be empty.")
		return 2
	}
	if strings.IndexFunc(normalizedMethod, unicode.IsSpace) >= 0 {
		fmt.Fprintf(os.Stderr, "httpMethod must not contain whitespace: %q\n", normalizedMethod)
		return 2
	}

	host, resourcePath, err := parseURL(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	info, err := loadProvisioningInfo(*keysPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	t := transport.New(info)
	body, meta, err := t.Request(context.Background(), normalizedMethod, host, resourcePath, []byte(*data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		return 1
	}

	printResponse(meta, body, *includeInfo)
	if meta.StatusCode >= 400 {
		return 1
	}
	return 0
}

func parseURL(raw string) (host, resourcePath string, err error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "https":
		return "", "", fmt.Errorf("https:// URLs are not supported; use http://")
	case "http":
	default:
		return "", "", fmt.Errorf("URL must start with http://")
	}
	if parsed.Host == "" {
		return "", "", fmt.Errorf("URL must include host, e.g. http://192.168.1.50/State")
	}

	resourcePath = parsed.Path
	if resourcePath == "" {
		resourcePath = "/"
	}
	if parsed.RawQuery != "" {
		resourcePath += "?" + parsed.RawQuery
	}
	return parsed.Host, resourcePath, nil
}

func loadProvisioningInfo(keysPath string) (provisioning.Info, error) {
	data, err := os.ReadFile(keysPath)
	if err != nil {
		return provisioning.Info{}, fmt.Errorf("unable to read keys file %q: %w", keysPath, err)
	}
	info, err := provisioning.FromPairingJSON(data)
	if err != nil {
		return provisioning.Info{}, fmt.Errorf("invalid provisioning data in keys file %q: %w", keysPath, err)
	}
	return info, nil
}

func printResponse(meta transport.ResponseMeta, body []byte, includeInfo bool) {
	if includeInfo {
		fmt.Printf("HTTP %d\n", meta.StatusCode)
		for name, values := range meta.Headers {
			fmt.Printf("%s: %s\n", name, strings.Join(values, ", "))
		}
		fmt.Println()
	}

	if len(body) == 0 {
		return
	}

	if isValidUTF8Text(body) {
		fmt.Println(string(body))
		return
	}
	fmt.Printf("<binary payload: %d bytes>\n", len(body))
	fmt.Println(hexDumpSpaced(body))
}

func isValidUTF8Text(b []byte) bool {
	return strings.ToValidUTF8(string(b), "�") == string(b)
}

func hexDumpSpaced(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = hex.EncodeToString([]byte{v})
	}
	return strings.Join(parts, " ")
}
