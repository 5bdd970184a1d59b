package worker

import (
	"strings"
	"time"
)

// FallbackRefCode is used when neither the referral pool nor the config supplies a code.
const FallbackRefCode = "v_50362288"

// Endpoints are the API paths, relative to Config.BaseURL.
type Endpoints struct {
	Profile       string
	Points        string
	CheckinStatus string
	Checkin       string
	Onboard       string
}

// DefaultEndpoints returns the stock API paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Profile:       "/v1/user/profile",
		Points:        "/v1/points/balance",
		CheckinStatus: "/v1/task/checkin/status",
		Checkin:       "/v1/task/checkin",
		Onboard:       "/v1/auth/onboard",
	}
}

// Config is the per-run worker configuration shared by every account.
type Config struct {
	BaseURL            string
	Origin             string
	Endpoints          Endpoints
	UseProxy           bool
	DefaultRefCode     string
	InsecureSkipVerify bool
	MaxRetries         int
	RetryDelay         time.Duration
	RequestTimeout     time.Duration
}

func (c Config) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
