package player

import (
	"time"
)

// Source identifies which catalog a request was resolved against, and
// therefore which delivery backend plays it.
type Source string

const (
	SourceYouTube Source = "youtube"
	SourceYandex  Source = "yandex"
)

// WaveRequester is the requester name attached to auto-filled catalog tracks.
const WaveRequester = "My Wave"

// SongRequest is one resolved queue entry. ID is a YouTube video id for
// SourceYouTube and an "albumID:trackID" catalog key for SourceYandex.
type SongRequest struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Requester   string        `json:"requester"`
	Duration    time.Duration `json:"duration"`
	Source      Source        `json:"source"`
	RequestedAt time.Time     `json:"requestedAt"`

	// Catalog-only metadata, nil for video requests.
	Track *TrackInfo `json:"track,omitempty"`
}

// TrackInfo carries the catalog identifiers needed to download and
// display a Yandex Music track.
type TrackInfo struct {
	TrackID  string   `json:"trackId"`
	AlbumID  string   `json:"albumId"`
	Title    string   `json:"title"`
	Artists  []string `json:"artists"`
	CoverURL string   `json:"coverUrl,omitempty"`
}

// IsWave reports whether the entry was auto-filled rather than requested
// by a chatter.
func (s SongRequest) IsWave() bool {
	return s.Requester == WaveRequester
}
