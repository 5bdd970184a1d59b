// Package proxy verifies that an account's egress path works before any request uses it.
// The probe is deliberately not retried: a broken proxy should fail fast.
package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"VoyageBot/internal/client"
	"VoyageBot/internal/model"
)

const DefaultCheckURL = "https://api.ipify.org?format=json"

// Error reports an unreachable or misbehaving proxy.
type Error struct {
	Proxy  string // credentials redacted
	Status int    // 0 when no response was received
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("check proxy %s: status %d", e.Proxy, e.Status)
	}
	return fmt.Sprintf("check proxy %s: %v", e.Proxy, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Binder resolves the public IP an account's traffic egresses from.
type Binder struct {
	CheckURL           string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// NewBinder creates a Binder. An empty checkURL uses DefaultCheckURL.
func NewBinder(checkURL string, timeout time.Duration, insecureSkipVerify bool) *Binder {
	if checkURL == "" {
		checkURL = DefaultCheckURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Binder{CheckURL: checkURL, Timeout: timeout, InsecureSkipVerify: insecureSkipVerify}
}

// Resolve probes the check endpoint through acc.Proxy and stores the observed IP on acc.
func (b *Binder) Resolve(ctx context.Context, acc *model.Account) (string, error) {
	name := redact(acc.Proxy)
	if acc.Proxy == "" {
		return "", &Error{Proxy: "<none>", Err: fmt.Errorf("no proxy assigned")}
	}
	hc, err := client.NewHTTPClient(acc.Proxy, b.Timeout, b.InsecureSkipVerify)
	if err != nil {
		return "", &Error{Proxy: name, Err: err}
	}
	defer hc.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.CheckURL, nil)
	if err != nil {
		return "", &Error{Proxy: name, Err: err}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", &Error{Proxy: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Proxy: name, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", &Error{Proxy: name, Err: fmt.Errorf("read body: %w", err)}
	}
	ip := parseIP(body)
	if ip == "" {
		return "", &Error{Proxy: name, Err: fmt.Errorf("no ip in response")}
	}
	acc.ProxyIP = ip
	return ip, nil
}

func parseIP(body []byte) string {
	if gjson.ValidBytes(body) {
		return strings.TrimSpace(gjson.GetBytes(body, "ip").String())
	}
	return strings.TrimSpace(string(body))
}

func redact(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := client.ParseProxy(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
