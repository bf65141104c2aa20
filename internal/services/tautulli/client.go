package tautulli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/seasonarr/internal/config"
	"github.com/amaumene/seasonarr/internal/metrics"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Client wraps direct Tautulli API HTTP calls. Metadata and children
// lookups are cached so the classifier can re-read a season without a
// second round trip.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new Tautulli client with direct HTTP calls
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TautulliURL == "" {
		return nil, fmt.Errorf("tautulli URL is required")
	}
	if cfg.TautulliAPIKey == "" {
		return nil, fmt.Errorf("tautulli API key is required")
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.TautulliURL, "/"),
		apiKey:  cfg.TautulliAPIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger: logger,
	}, nil
}

// command performs a Tautulli API v2 call and unwraps the response envelope
func (c *Client) command(ctx context.Context, cmd string, params url.Values) (json.RawMessage, error) {
	apiURL, err := url.Parse(c.baseURL + "/api/v2")
	if err != nil {
		return nil, fmt.Errorf("invalid tautulli URL: %w", err)
	}

	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("cmd", cmd)
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	apiURL.RawQuery = query.Encode()

	c.logger.WithField("cmd", cmd).Debug("Performing Tautulli API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		metrics.TautulliRequests.WithLabelValues(cmd, "error").Inc()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "seasonarr/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TautulliRequests.WithLabelValues(cmd, "error").Inc()
		return nil, fmt.Errorf("tautulli API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.TautulliRequests.WithLabelValues(cmd, "error").Inc()
		c.logger.WithFields(logrus.Fields{
			"cmd":         cmd,
			"status_code": resp.StatusCode,
			"body":        string(body),
		}).Error("Tautulli API returned non-OK status")
		return nil, fmt.Errorf("tautulli API returned status %d", resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.TautulliRequests.WithLabelValues(cmd, "error").Inc()
		return nil, fmt.Errorf("failed to parse tautulli response: %w", err)
	}

	if envelope.Response.Result != "success" {
		metrics.TautulliRequests.WithLabelValues(cmd, "error").Inc()
		return nil, fmt.Errorf("tautulli API error: %s", envelope.Response.Message)
	}

	metrics.TautulliRequests.WithLabelValues(cmd, "success").Inc()
	return envelope.Response.Data, nil
}

// GetRecentlyAdded fetches the most recently added library items. Any
// failure degrades to an empty list so a flaky Tautulli never aborts a run.
func (c *Client) GetRecentlyAdded(ctx context.Context, mediaType string, count int) []RecentItem {
	params := url.Values{}
	params.Set("media_type", mediaType)
	params.Set("count", strconv.Itoa(count))

	data, err := c.command(ctx, "get_recently_added", params)
	if err != nil {
		c.logger.WithError(err).Error("Failed to fetch recently added items")
		return nil
	}

	// Tautulli returns either a bare list or a {recently_added: [...]}
	// object depending on version.
	var items []RecentItem
	if err := json.Unmarshal(data, &items); err == nil {
		return items
	}

	var wrapped struct {
		RecentlyAdded []RecentItem `json:"recently_added"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		c.logger.WithError(err).Error("Failed to parse recently added items")
		return nil
	}

	return wrapped.RecentlyAdded
}

// GetMetadata fetches metadata for one rating key, nil when unavailable
func (c *Client) GetMetadata(ctx context.Context, ratingKey string) *ShowMetadata {
	if ratingKey == "" {
		return nil
	}

	cacheKey := "metadata:" + ratingKey
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*ShowMetadata)
	}

	params := url.Values{}
	params.Set("rating_key", ratingKey)

	data, err := c.command(ctx, "get_metadata", params)
	if err != nil {
		c.logger.WithError(err).WithField("rating_key", ratingKey).Error("Failed to fetch metadata")
		return nil
	}

	var meta ShowMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		c.logger.WithError(err).WithField("rating_key", ratingKey).Error("Failed to parse metadata")
		return nil
	}

	c.cache.Set(cacheKey, &meta, cache.DefaultExpiration)
	return &meta
}

// GetChildren fetches the child items of a season (its episodes). Entries
// without a rating key are dropped. Empty on any failure.
func (c *Client) GetChildren(ctx context.Context, ratingKey string) []ChildItem {
	if ratingKey == "" {
		return nil
	}

	cacheKey := "children:" + ratingKey
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]ChildItem)
	}

	params := url.Values{}
	params.Set("rating_key", ratingKey)

	data, err := c.command(ctx, "get_children_metadata", params)
	if err != nil {
		c.logger.WithError(err).WithField("rating_key", ratingKey).Error("Failed to fetch children metadata")
		return nil
	}

	// Same version split as recently added: bare list or children_list.
	var children []ChildItem
	if err := json.Unmarshal(data, &children); err != nil {
		var wrapped struct {
			ChildrenList []ChildItem `json:"children_list"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			c.logger.WithError(err).WithField("rating_key", ratingKey).Error("Failed to parse children metadata")
			return nil
		}
		children = wrapped.ChildrenList
	}

	valid := make([]ChildItem, 0, len(children))
	for _, child := range children {
		if child.RatingKey != "" {
			valid = append(valid, child)
		}
	}

	c.cache.Set(cacheKey, valid, cache.DefaultExpiration)
	return valid
}
