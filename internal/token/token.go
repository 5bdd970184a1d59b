// Package token inspects bearer credentials without contacting the network.
// Signatures are never verified; the claims are only used for identity and expiry.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmpty     = errors.New("token is empty")
	ErrNoSubject = errors.New("token has no sub claim")
	ErrNoExpiry  = errors.New("token has no exp claim")
)

// Claims are the parts of a credential the bot cares about.
type Claims struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

var parser = jwt.NewParser()

// Decode reads the subject and expiry claims from raw.
func Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrEmpty
	}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	if sub == "" {
		return Claims{}, ErrNoSubject
	}
	out := Claims{Subject: sub}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Status is the advisory validity of a token.
type Status struct {
	Expired   bool
	ExpiresAt time.Time
	Err       error // why the token counts as expired when it could not be read
}

// Validator checks token expiry against a clock.
type Validator struct {
	now func() time.Time
}

// NewValidator returns a Validator. A nil now uses time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate fails closed: anything that cannot be decoded, or has no exp claim, is expired.
// A token expiring exactly now counts as expired.
func (v *Validator) Validate(raw string) Status {
	c, err := Decode(raw)
	if err != nil {
		return Status{Expired: true, Err: err}
	}
	if c.ExpiresAt.IsZero() {
		return Status{Expired: true, Err: ErrNoExpiry}
	}
	return Status{
		Expired:   !c.ExpiresAt.After(v.now()),
		ExpiresAt: c.ExpiresAt,
	}
}
