package controllers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/seasonarr/internal/models"
	"github.com/amaumene/seasonarr/internal/services/tautulli"
	"github.com/amaumene/seasonarr/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	// How many recently-added rows to pull per scan
	recentlyAddedCount = 100

	// Placeholder extension for episodes whose file is not materialized
	stubExtension = ".strm"
)

// MetadataFetcher is the slice of the Tautulli client the classifier needs
type MetadataFetcher interface {
	GetRecentlyAdded(ctx context.Context, mediaType string, count int) []tautulli.RecentItem
	GetMetadata(ctx context.Context, ratingKey string) *tautulli.ShowMetadata
	GetChildren(ctx context.Context, ratingKey string) []tautulli.ChildItem
}

// CoverResolver maps a relative image path to a public cover URL
type CoverResolver interface {
	CoverURL(path string) string
}

// SeasonController decides which recently-added seasons are worth a
// notification: recent, belonging to an existing show, and finished.
type SeasonController struct {
	fetcher      MetadataFetcher
	covers       CoverResolver
	exclusions   *utils.Exclusions
	lookbackDays int
	logger       *logrus.Logger
	now          func() time.Time
}

// NewSeasonController creates a new season controller
func NewSeasonController(fetcher MetadataFetcher, covers CoverResolver, exclusions *utils.Exclusions, lookbackDays int, logger *logrus.Logger) *SeasonController {
	return &SeasonController{
		fetcher:      fetcher,
		covers:       covers,
		exclusions:   exclusions,
		lookbackDays: lookbackDays,
		logger:       logger,
		now:          time.Now,
	}
}

// FindNewFinishedSeasons scans the recently-added window and returns every
// season that passes all gates, in upstream order. Upstream failures
// degrade to an empty result; they never abort the scan.
func (c *SeasonController) FindNewFinishedSeasons(ctx context.Context) []models.NewFinishedSeason {
	cutoff := c.now().AddDate(0, 0, -c.lookbackDays)
	c.logger.WithFields(logrus.Fields{
		"lookback_days": c.lookbackDays,
		"cutoff":        cutoff.Format(time.RFC3339),
	}).Info("Looking for new finished seasons")

	items := c.fetcher.GetRecentlyAdded(ctx, "season", recentlyAddedCount)
	c.logger.WithField("count", len(items)).Debug("Fetched recently added items")

	seasons := []models.NewFinishedSeason{}
	for _, item := range items {
		if item.MediaType != "season" {
			continue
		}

		if c.exclusions.Match(item.ParentTitle) {
			c.logger.WithField("show", item.ParentTitle).Debug("Skipping season, show is excluded")
			continue
		}

		addedAt, ok := c.parseAddedAt(item)
		if !ok {
			continue
		}

		if addedAt.Before(cutoff) {
			c.logger.WithFields(logrus.Fields{
				"title":    item.Title,
				"added_at": addedAt.Format(time.RFC3339),
			}).Debug("Skipping season, added before cutoff")
			continue
		}

		c.logger.WithFields(logrus.Fields{
			"show":     item.ParentTitle,
			"season":   int(item.ParentIndex),
			"added_at": addedAt.Format(time.RFC3339),
		}).Info("Processing season candidate")

		if item.GrandparentRatingKey == "" {
			c.logger.WithField("title", item.Title).Debug("Skipping season, no show reference")
			continue
		}

		if c.isNewShow(ctx, item.GrandparentRatingKey, cutoff) {
			c.logger.WithField("show", item.ParentTitle).Info("Skipping season, the show itself is new")
			continue
		}

		if item.RatingKey == "" {
			c.logger.WithField("title", item.Title).Debug("Skipping season, no rating key")
			continue
		}

		if !c.isSeasonFinished(ctx, item.RatingKey) {
			c.logger.WithFields(logrus.Fields{
				"show":   item.ParentTitle,
				"season": int(item.ParentIndex),
			}).Info("Skipping season, not finished yet")
			continue
		}

		seasons = append(seasons, models.NewFinishedSeason{
			Show:         item.ParentTitle,
			Season:       int(item.ParentIndex),
			SeasonTitle:  item.Title,
			AddedAt:      addedAt.Format(time.RFC3339),
			EpisodeCount: c.countEpisodes(ctx, item.RatingKey),
			RatingKey:    item.RatingKey,
			CoverURL:     c.coverURL(ctx, item.GrandparentRatingKey),
		})
	}

	c.logger.WithField("count", len(seasons)).Info("Season scan finished")
	return seasons
}

// parseAddedAt returns the item's added time, or false when the timestamp
// is missing or unparseable
func (c *SeasonController) parseAddedAt(item tautulli.RecentItem) (time.Time, bool) {
	if item.AddedAt == "" {
		c.logger.WithField("title", item.Title).Debug("Skipping season, no added_at timestamp")
		return time.Time{}, false
	}

	ts, err := strconv.ParseInt(item.AddedAt, 10, 64)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"title":    item.Title,
			"added_at": item.AddedAt,
		}).Warn("Skipping season, unparseable added_at timestamp")
		return time.Time{}, false
	}

	return time.Unix(ts, 0), true
}

// isNewShow reports whether the show itself arrived within the window. A
// brand-new show's seasons are part of its launch, not "new seasons". When
// the metadata fetch fails the gate passes, so a season is not silently
// lost to a transient upstream error.
func (c *SeasonController) isNewShow(ctx context.Context, showKey string, cutoff time.Time) bool {
	meta := c.fetcher.GetMetadata(ctx, showKey)
	if meta == nil {
		c.logger.WithField("rating_key", showKey).Warn("Could not fetch show metadata, assuming existing show")
		return false
	}

	if meta.AddedAt == "" {
		return false
	}

	ts, err := strconv.ParseInt(meta.AddedAt, 10, 64)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"rating_key": showKey,
			"added_at":   meta.AddedAt,
		}).Warn("Unparseable show added_at, assuming existing show")
		return false
	}

	// Same inclusive comparison as the season recency check.
	return !time.Unix(ts, 0).Before(cutoff)
}

// isSeasonFinished reports whether at least one episode has a materialized
// file. Stub files only pointing at a remote source do not count.
func (c *SeasonController) isSeasonFinished(ctx context.Context, ratingKey string) bool {
	children := c.fetcher.GetChildren(ctx, ratingKey)
	if len(children) == 0 {
		return false
	}

	available := 0
	for _, child := range children {
		if child.MediaType != "episode" {
			continue
		}
		file := child.MediaInfo.Parts.File
		if file == "" || strings.HasSuffix(file, stubExtension) {
			continue
		}
		available++
	}

	c.logger.WithFields(logrus.Fields{
		"rating_key": ratingKey,
		"available":  available,
		"total":      len(children),
	}).Debug("Episode availability")

	return available > 0
}

// countEpisodes counts episode children with no file filtering; the
// notification reports library size, not availability
func (c *SeasonController) countEpisodes(ctx context.Context, ratingKey string) int {
	count := 0
	for _, child := range c.fetcher.GetChildren(ctx, ratingKey) {
		if child.MediaType == "episode" {
			count++
		}
	}
	return count
}

// coverURL resolves the owning show's poster, preferring thumb, then art,
// then poster_thumb. Best-effort; empty when anything is missing.
func (c *SeasonController) coverURL(ctx context.Context, showKey string) string {
	meta := c.fetcher.GetMetadata(ctx, showKey)
	if meta == nil {
		return ""
	}

	path := meta.Thumb
	if path == "" {
		path = meta.Art
	}
	if path == "" {
		path = meta.PosterThumb
	}

	return c.covers.CoverURL(path)
}
