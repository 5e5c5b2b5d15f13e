package resolve

import (
	"context"
	"errors"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/yandexmusic"
)

var (
	// ErrNoResults means every lookup strategy came up empty.
	ErrNoResults = errors.New("no results found for your request")
	// ErrNotAuthorized means a catalog request arrived without a
	// connected Yandex Music session.
	ErrNotAuthorized = errors.New("music catalog is not connected")
)

// defaultDuration stands in when no strategy could tell how long a
// video is. The safety timer still needs something to count down from.
const defaultDuration = 180 * time.Second

var (
	videoURLPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube|youtu|youtube-nocookie)\.(?:com|be)/(?:watch\?v=|embed/|v/|.+\?v=)?([A-Za-z0-9_-]{11})`)
	bareIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	catalogURLIDs   = regexp.MustCompile(`album/(\d+)(?:/track/(\d+))?`)
)

// ExtractVideoID pulls an 11-character video id out of a URL or a bare
// id string. Free text returns false.
func ExtractVideoID(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if m := videoURLPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if bareIDPattern.MatchString(text) {
		return text, true
	}
	return "", false
}

// VideoResult is one resolved video candidate.
type VideoResult struct {
	VideoID  string
	Title    string
	Duration time.Duration
}

// Strategy is one rung of the video lookup ladder. Strategies return an
// error to pass the query down the chain.
type Strategy interface {
	Name() string
	// Lookup returns metadata for a known video id.
	Lookup(ctx context.Context, videoID string) (*VideoResult, error)
	// Search returns the top result for a free-text query.
	Search(ctx context.Context, query string) (*VideoResult, error)
}

var errUnsupported = errors.New("not supported by this strategy")

// Catalog is the slice of the Yandex Music client the resolver needs.
type Catalog interface {
	IsAuthorized() bool
	SearchTrack(ctx context.Context, query string) (*yandexmusic.Track, error)
	TrackByID(ctx context.Context, trackID string) (*yandexmusic.Track, error)
	WaveTracks(ctx context.Context, count int) ([]yandexmusic.Track, error)
	CoverURL(t yandexmusic.Track) string
}

// Resolver turns free text, URLs and ids into playable SongRequests.
type Resolver struct {
	chain   []Strategy
	catalog Catalog
	log     *log.Logger
}

func New(catalog Catalog) *Resolver {
	return newResolver([]Strategy{
		ytdlpStrategy{},
		ytMusicStrategy{},
		ytSearchStrategy{},
		newScrapeStrategy(nil),
	}, catalog)
}

func newResolver(chain []Strategy, catalog Catalog) *Resolver {
	return &Resolver{
		chain:   chain,
		catalog: catalog,
		log:     log.New(os.Stderr, "RESOLVE ", log.Ldate|log.Ltime),
	}
}

// Resolve maps a chat request to a SongRequest. A `ym:` prefix or a
// music.yandex URL routes to the catalog; everything else is treated as
// a video id, video URL or video search query.
func (r *Resolver) Resolve(ctx context.Context, query, requester string) (*player.SongRequest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoResults
	}
	if rest, ok := catalogQuery(query); ok {
		return r.resolveCatalog(ctx, rest, requester)
	}
	if id, ok := ExtractVideoID(query); ok {
		res := r.lookupVideo(ctx, id)
		return r.videoSong(res, requester), nil
	}
	res, err := r.searchVideo(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.videoSong(res, requester), nil
}

// WaveSongs fetches up to n auto-fill tracks from the listener's wave.
// Unauthorized or failed fetches return nil, callers treat that as "no
// top-up available".
func (r *Resolver) WaveSongs(ctx context.Context, n int) []player.SongRequest {
	if r.catalog == nil || !r.catalog.IsAuthorized() {
		return nil
	}
	tracks, err := r.catalog.WaveTracks(ctx, n)
	if err != nil {
		r.log.Println("wave fetch failed:", err)
		return nil
	}
	songs := make([]player.SongRequest, 0, len(tracks))
	for _, t := range tracks {
		songs = append(songs, r.catalogSong(t, player.WaveRequester, " & "))
	}
	return songs
}

func catalogQuery(q string) (string, bool) {
	if rest, ok := strings.CutPrefix(q, "ym:"); ok {
		return strings.TrimSpace(rest), true
	}
	if strings.Contains(q, "music.yandex.") {
		return q, true
	}
	return "", false
}

func (r *Resolver) resolveCatalog(ctx context.Context, query, requester string) (*player.SongRequest, error) {
	if r.catalog == nil || !r.catalog.IsAuthorized() {
		return nil, ErrNotAuthorized
	}
	var (
		track *yandexmusic.Track
		err   error
	)
	if m := catalogURLIDs.FindStringSubmatch(query); m != nil && m[2] != "" {
		track, err = r.catalog.TrackByID(ctx, m[2])
	} else {
		track, err = r.catalog.SearchTrack(ctx, query)
	}
	if err != nil {
		if errors.Is(err, yandexmusic.ErrNoResults) {
			return nil, ErrNoResults
		}
		return nil, err
	}
	song := r.catalogSong(*track, requester, ", ")
	return &song, nil
}

func (r *Resolver) catalogSong(t yandexmusic.Track, requester, artistSep string) player.SongRequest {
	title := t.Title
	if len(t.Artists) > 0 {
		title = strings.Join(t.Artists, artistSep) + " - " + t.Title
	}
	return player.SongRequest{
		ID:          t.Key(),
		Title:       title,
		Requester:   requester,
		Duration:    normalizeDuration(t.Duration()),
		Source:      player.SourceYandex,
		RequestedAt: time.Now(),
		Track: &player.TrackInfo{
			TrackID:  t.ID,
			AlbumID:  t.AlbumID,
			Title:    t.Title,
			Artists:  t.Artists,
			CoverURL: r.catalog.CoverURL(t),
		},
	}
}

// lookupVideo walks the chain for a known id. It cannot fail: the last
// resort plays the id with itself as the title.
func (r *Resolver) lookupVideo(ctx context.Context, id string) *VideoResult {
	for _, s := range r.chain {
		res, err := s.Lookup(ctx, id)
		if err != nil {
			if !errors.Is(err, errUnsupported) {
				r.log.Printf("%s lookup for %s failed: %v", s.Name(), id, err)
			}
			continue
		}
		if res != nil && res.VideoID != "" {
			return res
		}
	}
	return &VideoResult{VideoID: id, Title: id, Duration: defaultDuration}
}

func (r *Resolver) searchVideo(ctx context.Context, query string) (*VideoResult, error) {
	for _, s := range r.chain {
		res, err := s.Search(ctx, query)
		if err != nil {
			if !errors.Is(err, errUnsupported) {
				r.log.Printf("%s search for %q failed: %v", s.Name(), query, err)
			}
			continue
		}
		if res != nil && res.VideoID != "" {
			return res, nil
		}
	}
	return nil, ErrNoResults
}

func (r *Resolver) videoSong(res *VideoResult, requester string) *player.SongRequest {
	return &player.SongRequest{
		ID:          res.VideoID,
		Title:       res.Title,
		Requester:   requester,
		Duration:    normalizeDuration(res.Duration),
		Source:      player.SourceYouTube,
		RequestedAt: time.Now(),
	}
}

func normalizeDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultDuration
	}
	return d
}
