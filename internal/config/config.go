package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultLookbackDays = 7
	minLookbackDays     = 1
	maxLookbackDays     = 365

	defaultCacheTTL = 5 * time.Minute
)

// Config holds all application configuration
type Config struct {
	// Tautulli
	TautulliURL    string
	TautulliAPIKey string

	// Plex (cover art resolution)
	PlexURL   string
	PlexToken string

	// Webhook
	WebhookURL             string
	WebhookMode            string
	WebhookMessageTemplate string
	WebhookPayloadTemplate string
	WebhookOnEmpty         bool

	// Signal (signal-cli REST gateway)
	SignalNumber        string
	SignalRecipients    string
	SignalTextMode      string
	SignalIncludeCovers bool

	// Scan window
	LookbackDays int    // Days to look back for added seasons (default: 7)
	ExcludeShows string // Comma-separated show titles that never notify

	// Server (daemon mode)
	ServerPort  string
	RunSchedule string // Cron expression for scheduled runs

	// Cache
	CacheTTL time.Duration

	// Logging
	LogLevel string

	warnings []string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("WEBHOOK_MODE", "default")
	viper.SetDefault("WEBHOOK_MESSAGE_TEMPLATE", "📺 {season_count} new season(s) completed this week!")
	viper.SetDefault("WEBHOOK_ON_EMPTY", false)
	viper.SetDefault("SIGNAL_TEXT_MODE", "styled")
	viper.SetDefault("SIGNAL_INCLUDE_COVERS", false)
	viper.SetDefault("LOOKBACK_DAYS", defaultLookbackDays)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("RUN_SCHEDULE", "0 9 * * *")
	viper.SetDefault("CACHE_TTL", defaultCacheTTL)
	viper.SetDefault("LOG_LEVEL", "info")

	config := &Config{
		// Tautulli
		TautulliURL:    viper.GetString("TAUTULLI_URL"),
		TautulliAPIKey: viper.GetString("TAUTULLI_APIKEY"),

		// Plex
		PlexURL:   viper.GetString("PLEX_URL"),
		PlexToken: viper.GetString("PLEX_TOKEN"),

		// Webhook
		WebhookURL:             viper.GetString("WEBHOOK_URL"),
		WebhookMode:            viper.GetString("WEBHOOK_MODE"),
		WebhookMessageTemplate: viper.GetString("WEBHOOK_MESSAGE_TEMPLATE"),
		WebhookPayloadTemplate: viper.GetString("WEBHOOK_PAYLOAD_TEMPLATE"),
		WebhookOnEmpty:         viper.GetBool("WEBHOOK_ON_EMPTY"),

		// Signal
		SignalNumber:        viper.GetString("SIGNAL_NUMBER"),
		SignalRecipients:    viper.GetString("SIGNAL_RECIPIENTS"),
		SignalTextMode:      viper.GetString("SIGNAL_TEXT_MODE"),
		SignalIncludeCovers: viper.GetBool("SIGNAL_INCLUDE_COVERS"),

		// Scan window
		LookbackDays: viper.GetInt("LOOKBACK_DAYS"),
		ExcludeShows: viper.GetString("EXCLUDE_SHOWS"),

		// Server
		ServerPort:  viper.GetString("SERVER_PORT"),
		RunSchedule: viper.GetString("RUN_SCHEDULE"),

		// Cache
		CacheTTL: viper.GetDuration("CACHE_TTL"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.TautulliURL == "" {
		return nil, fmt.Errorf("TAUTULLI_URL is required")
	}
	if config.TautulliAPIKey == "" {
		return nil, fmt.Errorf("TAUTULLI_APIKEY is required")
	}

	// Out-of-range or unparseable lookback falls back to the default with a
	// warning instead of aborting.
	if config.LookbackDays < minLookbackDays || config.LookbackDays > maxLookbackDays {
		config.warnings = append(config.warnings, fmt.Sprintf(
			"LOOKBACK_DAYS must be between %d and %d (got %q), using default of %d",
			minLookbackDays, maxLookbackDays, viper.GetString("LOOKBACK_DAYS"), defaultLookbackDays))
		config.LookbackDays = defaultLookbackDays
	}

	if config.CacheTTL <= 0 {
		config.warnings = append(config.warnings, fmt.Sprintf(
			"CACHE_TTL must be a positive duration (got %q), using default of %s",
			viper.GetString("CACHE_TTL"), defaultCacheTTL))
		config.CacheTTL = defaultCacheTTL
	}

	return config, nil
}

// Warnings returns non-fatal configuration problems found during Load.
// They are logged once the logger exists; Load itself has no log sink.
func (c *Config) Warnings() []string {
	return c.warnings
}
