package kbankqr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Operation paths, relative to the resolved base URL.
const (
	PathOAuthToken    = "v2/oauth/token"
	PathRequestQR     = "v1/qrpayment/request"
	PathInquiry       = "v1/qrpayment/v4/inquiry"
	PathCancel        = "v1/qrpayment/cancel"
	PathVoid          = "v1/qrpayment/void"
	PathSettlement    = "v1/qrpayment/settlement"
	PathExerciseSSL   = "exercise/ssl"
	contentTypeJSON   = "application/json"
	contentTypeForm   = "application/x-www-form-urlencoded"
	clientCredentials = "grant_type=client_credentials"
)

// maxResponseSize is the maximum allowed response body size (10MB)
var maxResponseSize int64 = 10 * 1024 * 1024

// ErrResponseTooLarge is returned when a response body exceeds the size limit.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// Client sends KBank QR payment API calls. It holds no credentials or
// transaction state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	debug      bool
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport. Timeouts, retries and connection reuse
// are configured there; the Client imposes none of its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithDebug toggles request/response debug logging. Secrets are masked.
func WithDebug(debug bool) Option {
	return func(c *Client) { c.debug = debug }
}

// WithClock overrides the clock used to stamp requestDt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a new KBank QR payment client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		debug:      os.Getenv("ENV") == "development",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one HTTP exchange.
type call struct {
	method        string
	path          string
	mode          RequestMode
	authorization string
	contentType   string
	body          []byte
}

func basicAuth(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

func bearerAuth(token string) string {
	return "Bearer " + token
}

// send performs the call and returns the response body of a 2xx response.
// Any other status is a TransportError carrying the raw body.
func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	endpoint, err := Resolve(cl.mode)
	if err != nil {
		return nil, err
	}
	url, err := endpoint.URL(cl.path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if cl.body != nil {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Authorization", cl.authorization)
	endpoint.Apply(req.Header)

	if c.debug {
		log.Debug().
			Str("method", cl.method).
			Str("endpoint", url).
			Str("env_id", req.Header.Get(HeaderEnvID)).
			RawJSON("request", sanitizeForLog(cl.contentType, cl.body)).
			Msg("[KBANK] Outgoing request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// One byte past the limit tells a full body from a cut one.
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(respBody)) > maxResponseSize {
		return nil, fmt.Errorf("%s (status %d): %w", cl.path, resp.StatusCode, ErrResponseTooLarge)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", cl.path).
			Int("status_code", resp.StatusCode).
			RawJSON("response", sanitizeForLog(resp.Header.Get("Content-Type"), respBody)).
			Msg("[KBANK] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Endpoint: cl.path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// postJSON validates and encodes req, sends it with bearer auth and decodes
// the 2xx body into dst.
func (c *Client) postJSON(ctx context.Context, path string, req envelope, accessToken string, mode RequestMode, dst any) error {
	if strings.TrimSpace(accessToken) == "" {
		return &ConfigurationError{Reason: "access token is required"}
	}
	if err := req.validate(); err != nil {
		return err
	}
	payload, err := req.encode(c.now())
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	body, err := c.send(ctx, call{
		method:        http.MethodPost,
		path:          path,
		mode:          mode,
		authorization: bearerAuth(accessToken),
		contentType:   contentTypeJSON,
		body:          payload,
	})
	if err != nil {
		return err
	}
	return decodeResponse(path, body, dst)
}

// sensitiveFields are masked, by substring, before logging.
var sensitiveFields = []string{"secret", "token", "password", "cardno"}

// sanitizeForLog returns a JSON document safe to log. Form bodies are
// converted to a flat object first.
func sanitizeForLog(contentType string, data []byte) []byte {
	if len(data) == 0 {
		return []byte(`{}`)
	}
	if strings.HasPrefix(contentType, contentTypeForm) {
		form := map[string]any{}
		for _, pair := range strings.Split(string(data), "&") {
			k, v, _ := strings.Cut(pair, "=")
			form[k] = v
		}
		sanitizeMap(form)
		out, _ := json.Marshal(form)
		return out
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return []byte(`{"_error": "failed to parse for sanitization"}`)
	}
	sanitizeMap(obj)

	sanitized, err := json.Marshal(obj)
	if err != nil {
		return []byte(`{"_error": "failed to marshal sanitized data"}`)
	}
	return sanitized
}

// sanitizeMap recursively masks sensitive fields in a map
func sanitizeMap(obj map[string]any) {
	for key, value := range obj {
		keyLower := strings.ToLower(key)
		for _, sensitive := range sensitiveFields {
			if strings.Contains(keyLower, sensitive) {
				obj[key] = "***MASKED***"
				break
			}
		}
		if nested, ok := value.(map[string]any); ok {
			sanitizeMap(nested)
		}
	}
}
