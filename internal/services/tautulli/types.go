package tautulli

import (
	"encoding/json"
	"strconv"
	"strings"
)

// apiResponse is the envelope Tautulli wraps around every API result
type apiResponse struct {
	Response struct {
		Result  string          `json:"result"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"response"`
}

// FlexInt decodes Tautulli numeric fields that arrive either as a bare
// number or as a quoted string. Unparseable values decode to zero instead
// of failing the surrounding object.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		*f = 0
		return nil
	}

	*f = FlexInt(value)
	return nil
}

// RecentItem is one entry from a get_recently_added call. added_at stays a
// raw string so the caller can distinguish missing from unparseable.
type RecentItem struct {
	RatingKey            string  `json:"rating_key"`
	MediaType            string  `json:"media_type"`
	Title                string  `json:"title"`
	ParentTitle          string  `json:"parent_title"`
	GrandparentRatingKey string  `json:"grandparent_rating_key"`
	ParentIndex          FlexInt `json:"parent_index"`
	AddedAt              string  `json:"added_at"`
}

// ShowMetadata is the subset of a get_metadata response the notifier
// inspects: when the show itself arrived, and where its poster lives.
type ShowMetadata struct {
	RatingKey   string `json:"rating_key"`
	MediaType   string `json:"media_type"`
	Title       string `json:"title"`
	AddedAt     string `json:"added_at"`
	Thumb       string `json:"thumb"`
	Art         string `json:"art"`
	PosterThumb string `json:"poster_thumb"`
}

// ChildItem is an episode (or sub-season) row under a season. The nested
// file path is empty when the episode has no materialized media part.
type ChildItem struct {
	RatingKey string    `json:"rating_key"`
	MediaType string    `json:"media_type"`
	Title     string    `json:"title"`
	MediaInfo MediaInfo `json:"media_info"`
}

// MediaInfo carries the media part for a child item
type MediaInfo struct {
	Parts MediaParts `json:"parts"`
}

// MediaParts holds the backing file reference for a media part
type MediaParts struct {
	File string `json:"file"`
}
