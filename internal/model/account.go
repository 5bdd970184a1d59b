package model

import "time"

// Account is one automated identity derived from a stored credential.
// Index is the credential's line position and never changes during the process lifetime.
type Account struct {
	Index     int
	Subject   string
	Proxy     string
	Token     string
	ExpiresAt time.Time
	ProxyIP   string
}

// Number returns the 1-based ordinal used in log lines.
func (a *Account) Number() int { return a.Index + 1 }
