package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amaumene/seasonarr/internal/metrics"
	"github.com/amaumene/seasonarr/internal/models"
	"github.com/amaumene/seasonarr/internal/providers"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrRunInProgress is returned when a run is requested while another one
// is still going
var ErrRunInProgress = errors.New("a notification run is already in progress")

// SeasonFinder produces the seasons a run should notify about
type SeasonFinder interface {
	FindNewFinishedSeasons(ctx context.Context) []models.NewFinishedSeason
}

// Sender delivers a payload to a webhook endpoint
type Sender interface {
	Send(ctx context.Context, url string, payload interface{}, headers map[string]string) error
}

// NotifyController runs the scan-format-deliver pipeline. At most one run
// executes at a time; concurrent requests are rejected, not queued.
type NotifyController struct {
	finder     SeasonFinder
	provider   providers.Provider
	dispatcher Sender
	webhookURL string
	logger     *logrus.Logger
	output     io.Writer

	running atomic.Bool
	mu      sync.Mutex
	lastRun *models.RunSummary
}

// NewNotifyController creates a new notify controller
func NewNotifyController(finder SeasonFinder, provider providers.Provider, dispatcher Sender, webhookURL string, logger *logrus.Logger) *NotifyController {
	return &NotifyController{
		finder:     finder,
		provider:   provider,
		dispatcher: dispatcher,
		webhookURL: webhookURL,
		logger:     logger,
		output:     os.Stdout,
	}
}

// RunOnce executes a single notification run end to end
func (c *NotifyController) RunOnce(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer c.running.Store(false)

	log := c.logger.WithField("run_id", uuid.NewString())
	started := time.Now()
	summary := models.RunSummary{StartedAt: started}

	log.Info("Starting notification run")

	seasons := c.finder.FindNewFinishedSeasons(ctx)
	summary.SeasonsFound = len(seasons)
	metrics.SeasonsFound.Add(float64(len(seasons)))

	err := c.notify(ctx, log, seasons, &summary)

	summary.FinishedAt = time.Now()
	metrics.RunDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		summary.Error = err.Error()
		metrics.Runs.WithLabelValues("error").Inc()
		log.WithError(err).Error("Notification run failed")
	} else {
		metrics.Runs.WithLabelValues("success").Inc()
		log.WithFields(logrus.Fields{
			"seasons": summary.SeasonsFound,
			"sent":    summary.Sent,
		}).Info("Notification run finished")
	}

	c.setLastRun(summary)
	return err
}

func (c *NotifyController) notify(ctx context.Context, log *logrus.Entry, seasons []models.NewFinishedSeason, summary *models.RunSummary) error {
	if len(seasons) == 0 && !c.provider.ShouldSendOnEmpty() {
		log.Info("No new seasons found, skipping webhook")
		return nil
	}

	if c.webhookURL == "" {
		log.Warn("No webhook URL configured, printing seasons instead")
		return c.printSeasons(seasons)
	}

	payload, err := c.provider.BuildPayload(ctx, seasons)
	if err != nil {
		metrics.WebhookSends.WithLabelValues(c.provider.Name(), "error").Inc()
		return fmt.Errorf("failed to build webhook payload: %w", err)
	}

	if err := c.dispatcher.Send(ctx, c.webhookURL, payload, c.provider.Headers()); err != nil {
		metrics.WebhookSends.WithLabelValues(c.provider.Name(), "error").Inc()
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}

	metrics.WebhookSends.WithLabelValues(c.provider.Name(), "success").Inc()
	summary.Sent = true
	return nil
}

func (c *NotifyController) printSeasons(seasons []models.NewFinishedSeason) error {
	if len(seasons) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(seasons, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render seasons: %w", err)
	}

	fmt.Fprintln(c.output, string(data))
	return nil
}

// Running reports whether a run is currently executing
func (c *NotifyController) Running() bool {
	return c.running.Load()
}

// LastRun returns a copy of the most recent run summary, or nil before
// the first run
func (c *NotifyController) LastRun() *models.RunSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastRun == nil {
		return nil
	}
	summary := *c.lastRun
	return &summary
}

func (c *NotifyController) setLastRun(summary models.RunSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRun = &summary
}
