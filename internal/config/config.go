package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	API struct {
		BaseURL            string `yaml:"base_url"`
		Origin             string `yaml:"origin"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
		Endpoints          struct {
			Profile       string `yaml:"profile"`
			Points        string `yaml:"points"`
			CheckinStatus string `yaml:"checkin_status"`
			Checkin       string `yaml:"checkin"`
			Onboard       string `yaml:"onboard"`
		} `yaml:"endpoints"`
	} `yaml:"api"`
	Proxy struct {
		Enabled    bool   `yaml:"enabled"`
		IPCheckURL string `yaml:"ip_check_url"`
	} `yaml:"proxy"`
	Scheduler struct {
		MaxThreads          int    `yaml:"max_threads"`
		MaxThreadsNoProxy   int    `yaml:"max_threads_no_proxy"`
		CooldownMinutes     int    `yaml:"cooldown_minutes"`
		StartDelaySeconds   [2]int `yaml:"start_delay_seconds"`
		AccountTimeoutHours int    `yaml:"account_timeout_hours"`
		CycleBufferSeconds  int    `yaml:"cycle_buffer_seconds"`
	} `yaml:"scheduler"`
	Client struct {
		MaxRetries            int `yaml:"max_retries"`
		RetryDelaySeconds     int `yaml:"retry_delay_seconds"`
		RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
	} `yaml:"client"`
	Files struct {
		Tokens       string `yaml:"tokens"`
		Proxies      string `yaml:"proxies"`
		RefCodes     string `yaml:"ref_codes"`
		Fingerprints string `yaml:"fingerprints"`
	} `yaml:"files"`
	Referral struct {
		DefaultCode string `yaml:"default_code"`
	} `yaml:"referral"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Database struct {
		SQLitePath    string `yaml:"sqlite_path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"database"`
	Housekeeping struct {
		PruneCron  string `yaml:"prune_cron"`
		ReportCron string `yaml:"report_cron"`
	} `yaml:"housekeeping"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Scheduler.CooldownMinutes = -1
	cfg.Scheduler.CycleBufferSeconds = -1

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("USE_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("USE_PROXY: %w", err)
		}
		cfg.Proxy.Enabled = b
	}
	if err := envInt("MAX_THREADS", &cfg.Scheduler.MaxThreads); err != nil {
		return nil, err
	}
	if err := envInt("MAX_THREADS_NO_PROXY", &cfg.Scheduler.MaxThreadsNoProxy); err != nil {
		return nil, err
	}
	if err := envInt("TIME_SLEEP", &cfg.Scheduler.CooldownMinutes); err != nil {
		return nil, err
	}
	if v := os.Getenv("REF_CODE"); v != "" {
		cfg.Referral.DefaultCode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}

	// Defaults
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.Scheduler.MaxThreads == 0 {
		cfg.Scheduler.MaxThreads = 10
	}
	if cfg.Scheduler.MaxThreadsNoProxy == 0 {
		cfg.Scheduler.MaxThreadsNoProxy = 5
	}
	if cfg.Scheduler.CooldownMinutes == -1 {
		cfg.Scheduler.CooldownMinutes = 1440
	}
	if cfg.Scheduler.AccountTimeoutHours == 0 {
		cfg.Scheduler.AccountTimeoutHours = 24
	}
	if cfg.Scheduler.CycleBufferSeconds == -1 {
		cfg.Scheduler.CycleBufferSeconds = 5
	}
	if cfg.Client.MaxRetries == 0 {
		cfg.Client.MaxRetries = 5
	}
	if cfg.Client.RetryDelaySeconds == 0 {
		cfg.Client.RetryDelaySeconds = 5
	}
	if cfg.Client.RequestTimeoutSeconds == 0 {
		cfg.Client.RequestTimeoutSeconds = 120
	}
	if cfg.Files.Tokens == "" {
		cfg.Files.Tokens = "tokens.txt"
	}
	if cfg.Files.Proxies == "" {
		cfg.Files.Proxies = "proxy.txt"
	}
	if cfg.Files.RefCodes == "" {
		cfg.Files.RefCodes = "reffCodes.txt"
	}
	if cfg.Files.Fingerprints == "" {
		cfg.Files.Fingerprints = "data/agents.json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Database.RetentionDays == 0 {
		cfg.Database.RetentionDays = 90
	}
	if cfg.Housekeeping.PruneCron == "" {
		cfg.Housekeeping.PruneCron = "0 30 3 * * *"
	}
	if cfg.Housekeeping.ReportCron == "" {
		cfg.Housekeeping.ReportCron = "0 0 9 * * *"
	}

	return cfg, nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Scheduler.MaxThreads <= 0 {
		return fmt.Errorf("scheduler.max_threads must be positive")
	}
	if c.Scheduler.MaxThreadsNoProxy <= 0 {
		return fmt.Errorf("scheduler.max_threads_no_proxy must be positive")
	}
	if c.Scheduler.CooldownMinutes < 0 {
		return fmt.Errorf("scheduler.cooldown_minutes must not be negative")
	}
	if d := c.Scheduler.StartDelaySeconds; d[0] < 0 || d[1] < d[0] {
		return fmt.Errorf("scheduler.start_delay_seconds must be [min, max] with 0 <= min <= max, got %v", d)
	}
	if c.Scheduler.AccountTimeoutHours <= 0 {
		return fmt.Errorf("scheduler.account_timeout_hours must be positive")
	}
	if c.Client.MaxRetries <= 0 {
		return fmt.Errorf("client.max_retries must be positive")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}

// Workers is the concurrency bound for the configured proxy mode.
func (c *Config) Workers() int {
	if c.Proxy.Enabled {
		return c.Scheduler.MaxThreads
	}
	return c.Scheduler.MaxThreadsNoProxy
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Scheduler.CooldownMinutes) * time.Minute
}

func (c *Config) StartDelay() (lo, hi time.Duration) {
	return time.Duration(c.Scheduler.StartDelaySeconds[0]) * time.Second,
		time.Duration(c.Scheduler.StartDelaySeconds[1]) * time.Second
}

func (c *Config) AccountTimeout() time.Duration {
	return time.Duration(c.Scheduler.AccountTimeoutHours) * time.Hour
}

func (c *Config) CycleBuffer() time.Duration {
	return time.Duration(c.Scheduler.CycleBufferSeconds) * time.Second
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Client.RetryDelaySeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Client.RequestTimeoutSeconds) * time.Second
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}
