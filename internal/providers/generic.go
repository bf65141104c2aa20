package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/amaumene/seasonarr/internal/config"
	"github.com/amaumene/seasonarr/internal/models"
	"github.com/sirupsen/logrus"
)

// GenericProvider posts to a plain webhook endpoint, either with the
// built-in payload shape or with a user-supplied JSON payload template.
type GenericProvider struct {
	baseProvider
}

// NewGenericProvider creates the provider for the default and custom modes
func NewGenericProvider(cfg *config.Config, logger *logrus.Logger) *GenericProvider {
	return &GenericProvider{baseProvider: newBaseProvider(cfg, logger)}
}

// Name identifies the provider in logs and metrics
func (p *GenericProvider) Name() string {
	return "generic"
}

// defaultPayload is the payload shape used when no template is configured
type defaultPayload struct {
	Timestamp   string                     `json:"timestamp"`
	PeriodDays  int                        `json:"period_days"`
	SeasonCount int                        `json:"season_count"`
	Seasons     []models.NewFinishedSeason `json:"seasons"`
	Message     string                     `json:"message"`
}

// BuildPayload assembles the webhook body. A configured payload template
// takes precedence; if it cannot be rendered into valid JSON the provider
// falls back to the default shape rather than failing the dispatch.
func (p *GenericProvider) BuildPayload(ctx context.Context, seasons []models.NewFinishedSeason) (interface{}, error) {
	if seasons == nil {
		seasons = []models.NewFinishedSeason{}
	}

	message := p.FormatMessage(seasons)

	if template := p.cfg.WebhookPayloadTemplate; template != "" && template != "default" {
		payload, err := p.renderTemplate(template, seasons, message)
		if err == nil {
			return payload, nil
		}
		p.logger.WithError(err).Warn("Invalid payload template, using default payload")
	}

	return defaultPayload{
		Timestamp:   p.now().Format(time.RFC3339),
		PeriodDays:  p.cfg.LookbackDays,
		SeasonCount: len(seasons),
		Seasons:     seasons,
		Message:     message,
	}, nil
}

// renderTemplate splices JSON-encoded values into the template and parses
// the result. Each placeholder becomes a JSON literal (strings quoted and
// escaped, numbers bare, the season list an array) in one pass over the
// original template; replacement text is never rescanned, so a value that
// happens to contain a placeholder stays literal.
func (p *GenericProvider) renderTemplate(template string, seasons []models.NewFinishedSeason, message string) (map[string]interface{}, error) {
	values := []struct {
		token string
		value interface{}
	}{
		{"{timestamp}", p.now().Format(time.RFC3339)},
		{"{period_days}", p.cfg.LookbackDays},
		{"{season_count}", len(seasons)},
		{"{message}", message},
		{"{show_list}", ShowList(seasons)},
		{"{seasons}", seasons},
	}

	pairs := make([]string, 0, 2*len(values))
	for _, v := range values {
		encoded, err := json.Marshal(v.value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", v.token, err)
		}
		pairs = append(pairs, v.token, string(encoded))
	}

	rendered := strings.NewReplacer(pairs...).Replace(template)

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(rendered), &payload); err != nil {
		return nil, fmt.Errorf("template did not produce a JSON object: %w", err)
	}

	return payload, nil
}
