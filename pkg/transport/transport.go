// Copyright 2025 Alexander Kappner.
//
// Package transport builds and sends the encrypted, signed HTTP requests
// that every appliance resource (REST façade, DOP2 reads/writes, WLAN setup,
// security commissioning) rides on top of, and verifies and decrypts the
// matching responses. It never surfaces unverified plaintext to a caller.
package transport

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akappner/mielecrypto/pkg/apperr"
	"github.com/akappner/mielecrypto/pkg/cryptoutil"
	"github.com/akappner/mielecrypto/pkg/provisioning"
)

// AcceptHeader is the vendor media type used for both Accept and
// Content-Type on every request that carries a body.
const AcceptHeader = "application/vnd.miele.v1+json"

// DefaultTimeout bounds a single request's network I/O.
const DefaultTimeout = 8 * time.Second

// ResponseMeta carries everything about a response beyond its decrypted
// body: status, raw headers, and whether the signature verified. A response
// with an empty body is reported Verified without any signature check, since
// there is nothing to verify or decrypt. Transport never returns a
// ResponseMeta with Verified == false alongside a non-nil body -- a
// verification failure is always returned as an error instead.
type ResponseMeta struct {
	StatusCode    int
	Headers       http.Header
	Verified      bool
	CorrelationID string
}

// Transport is the single entry point for the encrypted wire protocol. It
// holds no per-request mutable state; the provisioning material is the only
// state it carries, and that is immutable after construction.
type Transport struct {
	info    provisioning.Info
	client  *http.Client
	logger  *log.Logger
	metrics Metrics
	now     func() time.Time
}

// Option configures a Transport at construction time.
type Option func(*Transport)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) { t.client.Timeout = d }
}

// WithHTTPClient swaps the underlying *http.Client, e.g. to inject a
// http.RoundTripper for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.client = c }
}

// WithLogger overrides the default component logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// WithMetrics attaches a request-observing collector (see pkg/metrics).
func WithMetrics(m Metrics) Option {
	return func(t *Transport) { t.metrics = m }
}

// New constructs a Transport bound to one appliance's provisioning material.
func New(info provisioning.Info, opts ...Option) *Transport {
	t := &Transport{
		info:    info,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  log.New(log.Writer(), "[transport] ", log.LstdFlags),
		metrics: noopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Request signs, encrypts, sends, verifies and decrypts one request/response
// pair. body may be nil for a bodyless request (e.g. a GET).
//
// Request-side signing uses the padded plaintext body, not the ciphertext:
// AES-CBC requires an IV to produce ciphertext, and that IV is itself
// derived from the signature, so signing the not-yet-produced ciphertext
// would be circular. Response-side verification uses the ciphertext exactly
// as received, which has no such circularity since the receiver already
// holds those bytes before it needs to derive anything from them.
func (t *Transport) Request(ctx context.Context, method, host, path string, body []byte) ([]byte, ResponseMeta, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return nil, ResponseMeta{}, apperr.New(apperr.Usage, "EMPTY_METHOD", "HTTP method must not be empty")
	}
	if strings.IndexFunc(method, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }) >= 0 {
		return nil, ResponseMeta{}, apperr.New(apperr.Usage, "METHOD_HAS_WHITESPACE", "HTTP method must not contain whitespace")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	date := t.now().UTC().Format(http.TimeFormat)

	contentType := ""
	paddedBody := cryptoutil.PadBody(body)
	if len(paddedBody) > 0 {
		contentType = AcceptHeader
	}

	signFields := cryptoutil.CanonicalFields{
		Method:      method,
		Host:        host,
		Date:        date,
		Accept:      AcceptHeader,
		ContentType: contentType,
		Path:        path,
		Body:        paddedBody,
	}
	signCanonical := cryptoutil.BuildCanonical(signFields)
	tag := cryptoutil.Sign(signCanonical, t.info.SignKey())
	iv := cryptoutil.DeriveIV(tag)
	sigHex := cryptoutil.SignHex(signCanonical, t.info.SignKey())

	cipherBody, err := cryptoutil.Encrypt(paddedBody, t.info.AESKey(), iv)
	if err != nil {
		return nil, ResponseMeta{}, err
	}

	correlationID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, method, "http://"+host+path, newBodyReader(cipherBody))
	if err != nil {
		return nil, ResponseMeta{}, apperr.Wrap(apperr.Usage, "BAD_REQUEST", "could not construct HTTP request", err)
	}
	req.Header.Set("Host", host)
	req.Header.Set("Date", date)
	req.Header.Set("Accept", AcceptHeader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", cryptoutil.AuthorizationHeader(t.info.GroupID(), sigHex))
	req.Header.Set("Accept-Encoding", "gzip")
	req.Host = host

	start := t.now()
	resp, err := t.client.Do(req)
	duration := t.now().Sub(start)
	if err != nil {
		t.metrics.ObserveRequest(method, "error", duration)
		t.logger.Printf("%s %s: %v", method, path, err)
		return nil, ResponseMeta{}, apperr.Wrap(apperr.Transport, "HTTP_FAILURE", "HTTP request failed", err)
	}
	defer resp.Body.Close()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.metrics.ObserveRequest(method, "error", duration)
		return nil, ResponseMeta{}, apperr.Wrap(apperr.Transport, "READ_FAILURE", "could not read response body", err)
	}
	t.metrics.ObserveRequest(method, statusClass(resp.StatusCode), duration)

	plainBody, meta, err := t.verifyAndDecrypt(method, host, path, resp, rawRespBody)
	meta.CorrelationID = correlationID
	if err != nil {
		return nil, meta, err
	}

	if resp.StatusCode >= 400 {
		return plainBody, meta, apperr.New(apperr.Device, "DEVICE_ERROR_"+strings.TrimSpace(resp.Status), "appliance returned a non-2xx status")
	}

	return plainBody, meta, nil
}

func (t *Transport) verifyAndDecrypt(method, host, path string, resp *http.Response, rawBody []byte) ([]byte, ResponseMeta, error) {
	meta := ResponseMeta{StatusCode: resp.StatusCode, Headers: resp.Header}

	if len(rawBody) == 0 {
		meta.Verified = true
		return nil, meta, nil
	}

	sigHex := resp.Header.Get("X-Signature")
	if sigHex == "" {
		return nil, meta, apperr.New(apperr.Auth, "MISSING_SIGNATURE", "response carried a body but no X-Signature header")
	}

	respDate := resp.Header.Get("Date")
	respContentType := resp.Header.Get("Content-Type")

	canonical := cryptoutil.BuildCanonical(cryptoutil.CanonicalFields{
		Method:      method,
		Host:        host,
		Date:        respDate,
		Accept:      AcceptHeader,
		ContentType: respContentType,
		Path:        path,
		Body:        rawBody,
	})

	tag, err := cryptoutil.Verify(sigHex, canonical, t.info.SignKey())
	if err != nil {
		t.logger.Printf("%s %s: signature verification failed", method, path)
		return nil, meta, err
	}
	iv := cryptoutil.DeriveIV(tag)

	plainBody, err := cryptoutil.Decrypt(rawBody, t.info.AESKey(), iv)
	if err != nil {
		return nil, meta, err
	}

	meta.Verified = true
	return plainBody, meta, nil
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}

func newBodyReader(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return strings.NewReader(string(b))
}
