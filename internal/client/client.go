// Package client issues remote calls with bounded retry and returns every outcome as a model.Envelope.
//
// Retry policy: 4xx responses are final and never retried; 5xx responses, timeouts and transport
// failures are retried after a fixed delay until the attempt budget is spent.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"VoyageBot/internal/clock"
	"VoyageBot/internal/model"
)

const (
	DefaultMaxRetries = 5
	DefaultRetryDelay = 5 * time.Second
	DefaultTimeout    = 120 * time.Second

	// StatusUnknown is reported when no HTTP status was observed.
	StatusUnknown = 500

	MsgTokenExpired = "access token expired"
	MsgRateLimited  = "you've reached the daily limit"

	maxBodySize = 4 << 20
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Clock      clock.Clock
	Logger     zerolog.Logger
}

// Client is owned by a single account worker and is not safe for concurrent use.
type Client struct {
	http       *http.Client
	header     http.Header
	token      string
	maxRetries int
	delay      time.Duration
	timeout    time.Duration
	clock      clock.Clock
	log        zerolog.Logger
}

// New wraps httpClient. header holds the standard headers sent on every request.
func New(httpClient *http.Client, header http.Header, opts Options) *Client {
	c := &Client{
		http:       httpClient,
		header:     header.Clone(),
		maxRetries: opts.MaxRetries,
		delay:      opts.RetryDelay,
		timeout:    opts.Timeout,
		clock:      opts.Clock,
		log:        opts.Logger,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.delay <= 0 {
		c.delay = DefaultRetryDelay
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.clock == nil {
		c.clock = clock.Real{}
	}
	if c.header == nil {
		c.header = http.Header{}
	}
	return c
}

// SetToken replaces the bearer credential used for authenticated requests.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer credential.
func (c *Client) Token() string { return c.token }

// Send performs req, retrying transient failures. It never returns a raw transport error.
func (c *Client) Send(ctx context.Context, req model.Request) model.Envelope {
	method := strings.ToUpper(req.Method)
	if req.URL == "" {
		return model.Fail(0, "request URL is empty")
	}
	if !allowedMethods[method] {
		return model.Fail(0, "invalid HTTP method "+req.Method)
	}

	attempts := req.Retries
	if attempts <= 0 {
		attempts = c.maxRetries
	}

	var last model.Envelope
	for attempt := 1; attempt <= attempts; attempt++ {
		env, retry := c.do(ctx, method, req)
		if !retry {
			return env
		}
		last = env
		if attempt == attempts {
			break
		}
		c.log.Debug().
			Str("url", req.URL).
			Int("attempt", attempt).
			Int("status", env.Status).
			Str("error", env.Error).
			Dur("delay", c.delay).
			Msg("request failed, retrying")
		if err := c.clock.Sleep(ctx, c.delay); err != nil {
			return model.Fail(last.Status, err.Error())
		}
	}
	c.log.Debug().Str("url", req.URL).Int("attempts", attempts).Int("status", last.Status).Msg("retry budget exhausted")
	return last
}

// do runs one attempt and reports whether the outcome is retryable.
func (c *Client) do(ctx context.Context, method string, req model.Request) (model.Envelope, bool) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if method != http.MethodGet {
		payload := req.Body
		if len(payload) == 0 {
			payload = []byte("{}")
		}
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(actx, method, req.URL, body)
	if err != nil {
		return model.Fail(0, "build request: "+err.Error()), false
	}
	httpReq.Header = c.header.Clone()
	if !req.SkipAuth {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return model.Fail(StatusUnknown, err.Error()), true
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return model.Fail(StatusUnknown, "read body: "+err.Error()), true
	}

	if resp.StatusCode < 400 {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			return model.Ok(resp.StatusCode, nil, resp.Header), false
		}
		if !gjson.ValidBytes(raw) {
			return model.Fail(StatusUnknown, "decode body: invalid JSON"), true
		}
		return model.Ok(resp.StatusCode, unwrap(raw), resp.Header), false
	}
	return classify(resp.StatusCode, raw)
}

func classify(status int, raw []byte) (model.Envelope, bool) {
	switch {
	case status == http.StatusUnauthorized:
		return model.Fail(status, MsgTokenExpired), false
	case status == http.StatusTooManyRequests:
		return model.Fail(status, MsgRateLimited), false
	case status >= 400 && status < 500:
		return model.Fail(status, errorMessage(status, raw)), false
	default:
		return model.Fail(status, errorMessage(status, raw)), true
	}
}

// unwrap strips one level of {"data": ...} wrapping when the wrapped value is present.
func unwrap(raw []byte) []byte {
	d := gjson.GetBytes(raw, "data")
	if truthy(d) {
		return []byte(d.Raw)
	}
	return raw
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	}
	return r.Exists()
}

func errorMessage(status int, raw []byte) string {
	if gjson.ValidBytes(raw) {
		for _, key := range []string{"error", "message", "msg"} {
			r := gjson.GetBytes(raw, key)
			switch {
			case r.Type == gjson.String && r.Str != "":
				return r.Str
			case r.IsObject() || r.IsArray():
				return r.Raw
			}
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		if len(s) > 512 {
			s = s[:512]
		}
		return s
	}
	return http.StatusText(status)
}
