package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/seasonarr/internal/config"
	"github.com/amaumene/seasonarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Webhook modes selectable via WEBHOOK_MODE
const (
	ModeDefault   = "default"
	ModeCustom    = "custom"
	ModeSignalCLI = "signal-cli"
)

const userAgent = "seasonarr/1.0"

// Provider turns a list of finished seasons into a destination-specific
// webhook payload. Implementations are stateless; all inputs come from the
// configuration and the season list.
type Provider interface {
	// Name identifies the provider in logs and metrics
	Name() string
	// ValidateConfig checks the provider's own required settings
	ValidateConfig() error
	// ShouldSendOnEmpty decides whether an empty result still notifies
	ShouldSendOnEmpty() bool
	// FormatMessage renders the human-readable notification text
	FormatMessage(seasons []models.NewFinishedSeason) string
	// BuildPayload assembles the JSON-serializable webhook body
	BuildPayload(ctx context.Context, seasons []models.NewFinishedSeason) (interface{}, error)
	// Headers returns the HTTP headers for the webhook POST
	Headers() map[string]string
}

// CoverFetcher downloads cover art bytes for attachment embedding
type CoverFetcher interface {
	DownloadImage(ctx context.Context, url string) ([]byte, error)
}

// New selects and validates the provider for the configured webhook mode
func New(cfg *config.Config, covers CoverFetcher, logger *logrus.Logger) (Provider, error) {
	var provider Provider

	switch strings.ToLower(cfg.WebhookMode) {
	case ModeDefault, ModeCustom:
		provider = NewGenericProvider(cfg, logger)
	case ModeSignalCLI:
		provider = NewSignalProvider(cfg, covers, logger)
	default:
		return nil, fmt.Errorf("unsupported webhook mode: %s", cfg.WebhookMode)
	}

	if err := provider.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s provider: %w", provider.Name(), err)
	}

	return provider, nil
}

// baseProvider carries the behavior shared by every destination
type baseProvider struct {
	cfg    *config.Config
	logger *logrus.Logger
	now    func() time.Time
}

func newBaseProvider(cfg *config.Config, logger *logrus.Logger) baseProvider {
	return baseProvider{cfg: cfg, logger: logger, now: time.Now}
}

// ValidateConfig passes by default; destinations override as needed
func (b *baseProvider) ValidateConfig() error {
	return nil
}

// ShouldSendOnEmpty reads the shared on-empty flag
func (b *baseProvider) ShouldSendOnEmpty() bool {
	return b.cfg.WebhookOnEmpty
}

// Headers returns the default webhook headers
func (b *baseProvider) Headers() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   userAgent,
	}
}

// FormatMessage renders the configured message template. Substitution is a
// single pass over the template, so placeholder-looking text inside a value
// is never expanded again.
func (b *baseProvider) FormatMessage(seasons []models.NewFinishedSeason) string {
	replacer := strings.NewReplacer(
		"{season_count}", strconv.Itoa(len(seasons)),
		"{period_days}", strconv.Itoa(b.cfg.LookbackDays),
		"{timestamp}", b.now().Format(time.RFC3339),
		"{show_list}", ShowList(seasons),
	)
	return replacer.Replace(b.cfg.WebhookMessageTemplate)
}

// ShowList renders a comma-joined "Show S3" list, or "None" when empty
func ShowList(seasons []models.NewFinishedSeason) string {
	if len(seasons) == 0 {
		return "None"
	}

	entries := make([]string, 0, len(seasons))
	for _, season := range seasons {
		entries = append(entries, fmt.Sprintf("%s S%d", season.Show, season.Season))
	}
	return strings.Join(entries, ", ")
}
