package models

import "time"

// NewFinishedSeason represents a season that completed within the lookback
// window and is owned by a show that is not itself new. Records are created
// by the season controller and consumed read-only by the webhook providers.
type NewFinishedSeason struct {
	Show         string `json:"show"`
	Season       int    `json:"season"`
	SeasonTitle  string `json:"season_title"`
	AddedAt      string `json:"added_at"`
	EpisodeCount int    `json:"episode_count"`
	RatingKey    string `json:"rating_key"`
	CoverURL     string `json:"cover_url,omitempty"`
}

// RunSummary captures the outcome of the most recent notification run
type RunSummary struct {
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	SeasonsFound int       `json:"seasons_found"`
	Sent         bool      `json:"sent"`
	Error        string    `json:"error,omitempty"`
}
