package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// TokenSource yields the credential to attach to outgoing requests. The
// second return is false when no credential is held; the request then goes
// out anonymous and the server decides.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the shared HTTP plumbing under the typed cart/stock/product/auth
// clients: base URL joining, bearer credential attachment, per-request
// timeout and circuit breaking. It never retries; retry policy belongs to
// callers.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	tokens  TokenSource
	log     *zap.Logger
}

// DefaultTimeout bounds every request issued through the client.
const DefaultTimeout = 10 * time.Second

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name: "storefront-api",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		tokens:  tokens,
		log:     log,
	}
}

// do issues one request and decodes a 2xx response into out (skipped when out
// is nil). Non-2xx statuses and transport failures come back as wrapped
// taxonomy errors; the response body's first line is carried as detail.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.http.Do(req)
	})
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%s %s: %v: %w", method, path, err, ErrTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %v: %w", method, path, err, ErrTransport)
	}
	return nil
}

// statusError maps an HTTP failure status onto the error taxonomy, mirroring
// the codes the backend uses: 401/403 credential problems, 404 missing item,
// 409 stock conflict, everything else a transport-level failure.
func statusError(method, path string, resp *http.Response) error {
	detail := readDetail(resp.Body)

	var kind error
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrUnauthenticated
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusConflict:
		kind = ErrInsufficientStock
	default:
		kind = ErrTransport
	}
	if detail == "" {
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, kind)
	}
	return fmt.Errorf("%s %s: status %d: %s: %w", method, path, resp.StatusCode, detail, kind)
}

func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 512))
	if err != nil {
		return ""
	}
	// The backend sends either a plain string or {"error": "..."}.
	var wrapped struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.Error != "" {
		return wrapped.Error
	}
	var plain string
	if json.Unmarshal(raw, &plain) == nil && plain != "" {
		return plain
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(raw)), "\n")
	return line
}
