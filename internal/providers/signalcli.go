package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/amaumene/seasonarr/internal/config"
	"github.com/amaumene/seasonarr/internal/models"
	"github.com/sirupsen/logrus"
)

// SignalProvider sends notifications through a signal-cli REST gateway
type SignalProvider struct {
	baseProvider
	covers CoverFetcher
}

// NewSignalProvider creates the signal-cli provider
func NewSignalProvider(cfg *config.Config, covers CoverFetcher, logger *logrus.Logger) *SignalProvider {
	return &SignalProvider{
		baseProvider: newBaseProvider(cfg, logger),
		covers:       covers,
	}
}

// Name identifies the provider in logs and metrics
func (p *SignalProvider) Name() string {
	return "signal-cli"
}

// ValidateConfig requires a sender number and at least one recipient
func (p *SignalProvider) ValidateConfig() error {
	if p.cfg.SignalNumber == "" {
		p.logger.Error("SIGNAL_NUMBER is required for the signal-cli provider")
		return fmt.Errorf("signal number is required")
	}
	if p.cfg.SignalRecipients == "" {
		p.logger.Error("SIGNAL_RECIPIENTS is required for the signal-cli provider")
		return fmt.Errorf("signal recipients are required")
	}
	return nil
}

// ShouldSendOnEmpty is always false for Signal; an empty window never
// messages anyone, whatever the shared on-empty flag says.
func (p *SignalProvider) ShouldSendOnEmpty() bool {
	return false
}

// FormatMessage renders the styled multi-line Signal message
func (p *SignalProvider) FormatMessage(seasons []models.NewFinishedSeason) string {
	plural := ""
	if len(seasons) > 1 {
		plural = "s"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📺 *%d new season%s* completed in the last %d days!\n\n",
		len(seasons), plural, p.cfg.LookbackDays)

	for _, season := range seasons {
		fmt.Fprintf(&b, "• *%s* - Season %d (%d episodes)\n",
			season.Show, season.Season, season.EpisodeCount)
	}

	fmt.Fprintf(&b, "\n_%s_", p.now().Format("2006-01-02 15:04"))
	return b.String()
}

// signalPayload is the JSON body for the signal-cli REST API. The
// attachments key disappears entirely when no cover was downloaded.
type signalPayload struct {
	Message           string   `json:"message"`
	Number            string   `json:"number"`
	Recipients        []string `json:"recipients"`
	TextMode          string   `json:"text_mode"`
	Base64Attachments []string `json:"base64_attachments,omitempty"`
}

// BuildPayload assembles the signal-cli message body
func (p *SignalProvider) BuildPayload(ctx context.Context, seasons []models.NewFinishedSeason) (interface{}, error) {
	payload := signalPayload{
		Message:    p.FormatMessage(seasons),
		Number:     p.cfg.SignalNumber,
		Recipients: p.Recipients(),
		TextMode:   p.cfg.SignalTextMode,
	}

	if p.cfg.SignalIncludeCovers {
		payload.Base64Attachments = p.downloadCovers(ctx, seasons)
	}

	return payload, nil
}

// Recipients parses the comma-separated recipient list, dropping empties
func (p *SignalProvider) Recipients() []string {
	var recipients []string
	for _, recipient := range strings.Split(p.cfg.SignalRecipients, ",") {
		recipient = strings.TrimSpace(recipient)
		if recipient != "" {
			recipients = append(recipients, recipient)
		}
	}
	return recipients
}

// downloadCovers fetches each season's cover art. A failed download skips
// that one season; the batch still goes out.
func (p *SignalProvider) downloadCovers(ctx context.Context, seasons []models.NewFinishedSeason) []string {
	var attachments []string
	for _, season := range seasons {
		if season.CoverURL == "" {
			continue
		}

		data, err := p.covers.DownloadImage(ctx, season.CoverURL)
		if err != nil {
			p.logger.WithError(err).WithField("show", season.Show).Warn("Failed to download cover, skipping attachment")
			continue
		}

		attachments = append(attachments, base64.StdEncoding.EncodeToString(data))
	}
	return attachments
}
