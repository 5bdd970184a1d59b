package client

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"
)

// ParseProxy parses a proxy line. A line without a scheme is treated as an HTTP proxy.
func ParseProxy(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty proxy")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse proxy: missing host in %q", raw)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("parse proxy: unsupported scheme %q", u.Scheme)
	}
	return u, nil
}

// NewHTTPClient builds an HTTP client whose traffic egresses through proxyURL,
// or through the local network when proxyURL is empty.
func NewHTTPClient(proxyURL string, timeout time.Duration, insecureSkipVerify bool) (*http.Client, error) {
	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: insecureSkipVerify},
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 20 * time.Second,
	}
	if proxyURL != "" {
		u, err := ParseProxy(proxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(u)
	}
	if _, err := http2.ConfigureTransports(transport); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
