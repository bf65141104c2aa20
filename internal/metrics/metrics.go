package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the notification pipeline
var (
	// Runs tracks completed notification runs per outcome
	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seasonarr_runs_total",
			Help: "Total number of notification runs",
		},
		[]string{"status"}, // status: success|error
	)

	// RunDuration tracks how long a full notification run takes
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seasonarr_run_duration_seconds",
			Help:    "Duration of a full notification run in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	// SeasonsFound tracks how many finished seasons the classifier emitted
	SeasonsFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seasonarr_seasons_found_total",
			Help: "Total number of new finished seasons detected",
		},
	)

	// WebhookSends tracks webhook delivery attempts per provider
	WebhookSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seasonarr_webhook_sends_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"provider", "status"}, // status: success|error
	)

	// TautulliRequests tracks upstream API calls per command
	TautulliRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seasonarr_tautulli_requests_total",
			Help: "Total number of Tautulli API requests",
		},
		[]string{"cmd", "status"}, // status: success|error
	)

	// CoverDownloads tracks cover art downloads for attachments
	CoverDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seasonarr_cover_downloads_total",
			Help: "Total number of cover art download attempts",
		},
		[]string{"status"}, // status: success|failure
	)
)
