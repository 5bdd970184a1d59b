package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"VoyageBot/internal/model"
	"VoyageBot/internal/token"
)

// ConfigError is a fatal startup misconfiguration.
type ConfigError struct {
	Accounts int
	Proxies  int
	UseProxy bool
	Dropped  int // credentials that failed to decode
}

func (e *ConfigError) Error() string {
	if e.Accounts == 0 && e.Dropped > 0 {
		return fmt.Sprintf("no usable credentials: all %d failed to decode", e.Dropped)
	}
	if e.Accounts == 0 {
		return "no credentials found"
	}
	return fmt.Sprintf("accounts (%d) exceed available proxies (%d)", e.Accounts, e.Proxies)
}

// Preflight refuses to start with no credentials, or with more credentials than
// proxies when proxies are enabled.
func Preflight(credentials, proxies []string, useProxy bool) error {
	if len(credentials) == 0 || (useProxy && len(credentials) > len(proxies)) {
		return &ConfigError{Accounts: len(credentials), Proxies: len(proxies), UseProxy: useProxy}
	}
	return nil
}

// RequireAccounts refuses to start when no credential survived decoding.
func RequireAccounts(accounts []*model.Account, credentials, proxies []string, useProxy bool) error {
	if len(accounts) == 0 {
		return &ConfigError{Proxies: len(proxies), UseProxy: useProxy, Dropped: len(credentials)}
	}
	return nil
}

// BuildAccounts decodes every credential once. Undecodable ones are dropped.
// Proxies pair with the credential's line position, so a dropped line never
// shifts the proxies of the accounts after it.
func BuildAccounts(credentials, proxies []string, useProxy bool, log zerolog.Logger) []*model.Account {
	accounts := make([]*model.Account, 0, len(credentials))
	for i, raw := range credentials {
		claims, err := token.Decode(raw)
		if err != nil {
			log.Debug().Err(err).Int("line", i+1).Msg("dropping undecodable credential")
			continue
		}
		acc := &model.Account{
			Index:     i,
			Subject:   claims.Subject,
			Token:     raw,
			ExpiresAt: claims.ExpiresAt,
		}
		if useProxy && len(proxies) > 0 {
			acc.Proxy = proxies[i%len(proxies)]
		}
		accounts = append(accounts, acc)
	}
	return accounts
}
