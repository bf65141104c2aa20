package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/seasonarr/internal/config"
	"github.com/amaumene/seasonarr/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Maximum poster size we are willing to pull into memory
const maxImageSize = 10 * 1024 * 1024 // 10MB

// Client resolves and downloads Plex cover art. Both the base URL and the
// token are optional; without them every cover lookup yields an empty
// result instead of an error.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new Plex cover art client
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.PlexURL, "/"),
		token:   cfg.PlexToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// CoverURL resolves a relative image path against the Plex base URL and
// appends the auth token. Empty when the base URL, token or path is missing.
func (c *Client) CoverURL(path string) string {
	if c.baseURL == "" || c.token == "" || path == "" {
		return ""
	}

	full := c.baseURL + "/" + strings.TrimLeft(path, "/")

	separator := "?"
	if strings.Contains(full, "?") {
		separator = "&"
	}

	return full + separator + "X-Plex-Token=" + url.QueryEscape(c.token)
}

// DownloadImage fetches cover art bytes for attachment embedding
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	c.logger.WithField("url", imageURL).Debug("Downloading cover image")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		metrics.CoverDownloads.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	req.Header.Set("User-Agent", "seasonarr/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.CoverDownloads.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.CoverDownloads.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("image download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		metrics.CoverDownloads.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("failed to read image content: %w", err)
	}

	metrics.CoverDownloads.WithLabelValues("success").Inc()
	c.logger.WithFields(logrus.Fields{
		"size_bytes": len(data),
		"size_kb":    len(data) / 1024,
	}).Debug("Cover image downloaded successfully")

	return data, nil
}
