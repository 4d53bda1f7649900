package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTargetURL is the MCX aluminium quote page the pipeline reads.
const DefaultTargetURL = "https://www.5paisa.com/commodity-trading/mcx-aluminium-price"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	History   HistoryConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Publish   PublishConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5002
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls how browser sessions are constructed.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path (CHROME_PATH or MCX_BROWSER_BIN).
	BrowserBin string

	// CandidateBins are checked in order when BrowserBin is empty.
	CandidateBins []string

	// RemoteURL connects to an already running browser over CDP instead of
	// launching one. Tried before every local strategy when set.
	RemoteURL string

	// UserAgent is sent with every navigation.
	UserAgent string

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockTrackers fails requests to known analytics and ad hosts.
	BlockTrackers bool // default: true

	// RemoveOverlays strips consent banners and modal layers after load.
	RemoveOverlays bool // default: true
}

// ScraperConfig controls one extraction cycle.
type ScraperConfig struct {
	// TargetURL is the quote page.
	TargetURL string

	// Interval is the refresh loop period and the /stream emit period.
	Interval time.Duration // default: 10s

	// ContractMonths is how many contract months, starting with the current
	// one, are extracted per cycle.
	ContractMonths int // default: 3

	// NavigationTimeout bounds page load.
	NavigationTimeout time.Duration // default: 30s

	// LocatorTimeout is the per-locator wait for date, contract and price locators.
	LocatorTimeout time.Duration // default: 5s

	// RateTimeout is the per-locator wait for the rate change locators.
	RateTimeout time.Duration // default: 3s

	// SettleDelay is the pause after selecting a contract month.
	SettleDelay time.Duration // default: 3s

	// Location is the time zone used to interpret the page timestamp.
	Location string // default: "Asia/Kolkata"
}

// HistoryConfig controls the CSV history file.
type HistoryConfig struct {
	Path string // default: "mcx_aluminium_prices.csv"
}

// AuthConfig controls API key authentication on /scrape.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	APIKeys []string
}

// RateLimitConfig controls the token bucket in front of /scrape.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 0.2
	Burst             int     // default: 2
}

// CORSConfig controls cross-origin access.
type CORSConfig struct {
	AllowOrigins []string // default: ["*"]
}

// PublishConfig controls optional snapshot fan-out. Empty addresses disable
// the corresponding publisher.
type PublishConfig struct {
	RedisAddr      string
	RedisDB        int
	RedisStream    string // default: "mcx:snapshots"
	RedisMaxLength int64  // default: 10000

	WebhookURL    string
	WebhookSecret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	bin := os.Getenv("CHROME_PATH")
	if bin == "" {
		bin = os.Getenv("MCX_BROWSER_BIN")
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("MCX_HOST", "0.0.0.0"),
			Port: envIntOr("MCX_PORT", 5002),
			Mode: envOr("MCX_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("MCX_HEADLESS", true),
			NoSandbox:  envBoolOr("MCX_NO_SANDBOX", true),
			BrowserBin: bin,
			CandidateBins: envSliceOr("MCX_BROWSER_CANDIDATES", []string{
				"/usr/bin/google-chrome-stable",
				"/usr/bin/google-chrome",
				"/usr/local/bin/google-chrome",
				"/opt/google/chrome/google-chrome",
			}),
			RemoteURL: os.Getenv("MCX_CDP_URL"),
			UserAgent: envOr("MCX_USER_AGENT",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"),
			BlockedResourceTypes: envSliceOr("MCX_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockTrackers:  envBoolOr("MCX_BLOCK_TRACKERS", true),
			RemoveOverlays: envBoolOr("MCX_REMOVE_OVERLAYS", true),
		},
		Scraper: ScraperConfig{
			TargetURL:         envOr("MCX_TARGET_URL", DefaultTargetURL),
			Interval:          envDurationOr("MCX_INTERVAL", 10*time.Second),
			ContractMonths:    envIntOr("MCX_CONTRACT_MONTHS", 3),
			NavigationTimeout: envDurationOr("MCX_NAV_TIMEOUT", 30*time.Second),
			LocatorTimeout:    envDurationOr("MCX_LOCATOR_TIMEOUT", 5*time.Second),
			RateTimeout:       envDurationOr("MCX_RATE_TIMEOUT", 3*time.Second),
			SettleDelay:       envDurationOr("MCX_SETTLE_DELAY", 3*time.Second),
			Location:          envOr("MCX_TIMEZONE", "Asia/Kolkata"),
		},
		History: HistoryConfig{
			Path: envOr("MCX_CSV_PATH", "mcx_aluminium_prices.csv"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("MCX_AUTH_ENABLED", false),
			APIKeys: envSliceOr("MCX_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("MCX_RATE_RPS", 0.2),
			Burst:             envIntOr("MCX_RATE_BURST", 2),
		},
		CORS: CORSConfig{
			AllowOrigins: envSliceOr("MCX_CORS_ORIGINS", []string{"*"}),
		},
		Publish: PublishConfig{
			RedisAddr:      os.Getenv("MCX_REDIS_ADDR"),
			RedisDB:        envIntOr("MCX_REDIS_DB", 0),
			RedisStream:    envOr("MCX_REDIS_STREAM", "mcx:snapshots"),
			RedisMaxLength: int64(envIntOr("MCX_REDIS_MAXLEN", 10000)),
			WebhookURL:     os.Getenv("MCX_WEBHOOK_URL"),
			WebhookSecret:  os.Getenv("MCX_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("MCX_LOG_LEVEL", "info"),
			Format: envOr("MCX_LOG_FORMAT", "json"),
		},
	}
}

// Validate rejects configurations the refresh loop cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Scraper.TargetURL == "" {
		errs = append(errs, errors.New("target URL is empty"))
	}
	if c.Scraper.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Scraper.Interval))
	}
	if c.Scraper.ContractMonths <= 0 {
		errs = append(errs, fmt.Errorf("contract months must be positive, got %d", c.Scraper.ContractMonths))
	}
	if c.Scraper.LocatorTimeout <= 0 || c.Scraper.RateTimeout <= 0 || c.Scraper.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.Scraper.SettleDelay < 0 {
		errs = append(errs, errors.New("settle delay must not be negative"))
	}
	if _, err := time.LoadLocation(c.Scraper.Location); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Scraper.Location, err))
	}
	if c.History.Path == "" {
		errs = append(errs, errors.New("history path is empty"))
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, errors.New("auth enabled without API keys"))
	}
	return errors.Join(errs...)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
