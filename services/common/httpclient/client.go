// Package httpclient is the JSON client every service uses to call its
// upstreams. Calls go through a circuit breaker; non-2xx responses are decoded
// from the shared error envelope back into typed application errors.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/common/logger"
)

const maxErrorBody = 64 << 10

// Settings tunes the client's timeout and breaker.
type Settings struct {
	Timeout time.Duration
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 5,
		OpenTimeout:         15 * time.Second,
	}
}

type Client struct {
	name    string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// New creates a client for the upstream called name at baseURL.
func New(name, baseURL string, s Settings) *Client {
	if s.Timeout <= 0 {
		s.Timeout = DefaultSettings().Timeout
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = DefaultSettings().ConsecutiveFailures
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = DefaultSettings().OpenTimeout
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    name,
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("circuit breaker state changed",
				zap.String("upstream", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: s.Timeout},
		breaker: breaker,
	}
}

// Name returns the upstream's name.
func (c *Client) Name() string { return c.name }

type serverError struct {
	status int
	body   []byte
}

func (e *serverError) Error() string {
	return fmt.Sprintf("upstream status %d", e.status)
}

// Do sends in (when non-nil) as JSON and decodes a 2xx body into out (when
// non-nil). Transport failures, 5xx responses and an open breaker return
// UPSTREAM_UNAVAILABLE; 4xx responses return the upstream's error kind.
func (c *Client) Do(ctx context.Context, method, path string, headers http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.name, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := logger.RequestIDFrom(ctx); rid != "unknown" {
		req.Header.Set(logger.RequestIDHeader, rid)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			defer resp.Body.Close()
			b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &serverError{status: resp.StatusCode, body: b}
		}
		return resp, nil
	})
	if err != nil {
		return c.upstreamError(method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return decodeEnvelope(resp.StatusCode, b)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.KindUpstreamUnavailable,
			fmt.Sprintf("Invalid response from %s", c.name), err)
	}
	return nil
}

func (c *Client) upstreamError(method, path string, err error) error {
	var se *serverError
	switch {
	case errors.As(err, &se):
		msg := fmt.Sprintf("%s returned status %d", c.name, se.status)
		if env, ok := parseEnvelope(se.body); ok && env.Error != "" {
			msg = fmt.Sprintf("%s: %s", c.name, env.Error)
		}
		return apperrors.Wrap(apperrors.KindUpstreamUnavailable, msg, err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperrors.Wrap(apperrors.KindUpstreamUnavailable,
			fmt.Sprintf("%s is unavailable", c.name), err)
	default:
		return apperrors.Wrap(apperrors.KindUpstreamUnavailable,
			fmt.Sprintf("%s request %s %s failed", c.name, method, path), err)
	}
}

type envelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func parseEnvelope(b []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, false
	}
	if env.Error == "" {
		env.Error = env.Message
	}
	return env, true
}

var kindByStatus = map[int]apperrors.Kind{
	http.StatusBadRequest:      apperrors.KindInvalidInput,
	http.StatusUnauthorized:    apperrors.KindUnauthorized,
	http.StatusNotFound:        apperrors.KindNotFound,
	http.StatusConflict:        apperrors.KindConflict,
	http.StatusTooManyRequests: apperrors.KindRateLimited,
}

func decodeEnvelope(status int, b []byte) error {
	env, _ := parseEnvelope(b)

	kind := apperrors.Kind(env.Code)
	if kind == "" {
		if k, ok := kindByStatus[status]; ok {
			kind = k
		} else {
			kind = apperrors.KindInvalidInput
		}
	}
	msg := env.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	return apperrors.New(kind, msg)
}
