package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/yandexmusic"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		id    string
		ok    bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short url with params", "youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", true},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"nocookie url", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"no scheme", "www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"free text", "rick astley never gonna give you up", "", false},
		{"eleven letter word", "abcdefghijk", "abcdefghijk", true},
		{"empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := ExtractVideoID(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.id, id)
		})
	}
}

// stubStrategy answers from fixed values.
type stubStrategy struct {
	name     string
	lookup   *VideoResult
	search   *VideoResult
	err      error
	lookups  int
	searches int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Lookup(ctx context.Context, videoID string) (*VideoResult, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	return s.lookup, nil
}

func (s *stubStrategy) Search(ctx context.Context, query string) (*VideoResult, error) {
	s.searches++
	if s.err != nil {
		return nil, s.err
	}
	return s.search, nil
}

// stubCatalog implements Catalog from canned tracks.
type stubCatalog struct {
	authorized bool
	track      *yandexmusic.Track
	byID       *yandexmusic.Track
	wave       []yandexmusic.Track
	err        error
}

func (c *stubCatalog) IsAuthorized() bool { return c.authorized }

func (c *stubCatalog) SearchTrack(ctx context.Context, query string) (*yandexmusic.Track, error) {
	return c.track, c.err
}

func (c *stubCatalog) TrackByID(ctx context.Context, trackID string) (*yandexmusic.Track, error) {
	return c.byID, c.err
}

func (c *stubCatalog) WaveTracks(ctx context.Context, count int) ([]yandexmusic.Track, error) {
	return c.wave, c.err
}

func (c *stubCatalog) CoverURL(t yandexmusic.Track) string { return "https://covers/" + t.ID }

func TestResolveFallsDownTheChain(t *testing.T) {
	broken := &stubStrategy{name: "broken", err: errors.New("boom")}
	working := &stubStrategy{name: "working", search: &VideoResult{VideoID: "dQw4w9WgXcQ", Title: "found", Duration: 212 * time.Second}}
	r := newResolver([]Strategy{broken, working}, nil)

	song, err := r.Resolve(context.Background(), "never gonna give you up", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, broken.searches)
	assert.Equal(t, 1, working.searches)
	assert.Equal(t, "dQw4w9WgXcQ", song.ID)
	assert.Equal(t, "found", song.Title)
	assert.Equal(t, "alice", song.Requester)
	assert.Equal(t, player.SourceYouTube, song.Source)
	assert.Equal(t, 212*time.Second, song.Duration)
}

func TestResolveSearchExhaustedChain(t *testing.T) {
	broken := &stubStrategy{name: "broken", err: errors.New("boom")}
	r := newResolver([]Strategy{broken}, nil)

	_, err := r.Resolve(context.Background(), "some query", "alice")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestResolveLookupNeverFails(t *testing.T) {
	broken := &stubStrategy{name: "broken", err: errors.New("boom")}
	r := newResolver([]Strategy{broken}, nil)

	song, err := r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "alice")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", song.ID)
	// id stands in for the title when no strategy answered
	assert.Equal(t, "dQw4w9WgXcQ", song.Title)
	assert.Equal(t, 180*time.Second, song.Duration)
}

func TestResolveLookupSkipsUnsupportedRungs(t *testing.T) {
	searchOnly := &stubStrategy{name: "search-only", err: errUnsupported}
	full := &stubStrategy{name: "full", lookup: &VideoResult{VideoID: "dQw4w9WgXcQ", Title: "real title", Duration: 212 * time.Second}}
	r := newResolver([]Strategy{searchOnly, full}, nil)

	song, err := r.Resolve(context.Background(), "dQw4w9WgXcQ", "alice")
	require.NoError(t, err)
	assert.Equal(t, "real title", song.Title)
}

func TestResolveDefaultsUnknownDuration(t *testing.T) {
	s := &stubStrategy{name: "s", search: &VideoResult{VideoID: "dQw4w9WgXcQ", Title: "t"}}
	r := newResolver([]Strategy{s}, nil)

	song, err := r.Resolve(context.Background(), "query", "alice")
	require.NoError(t, err)
	assert.Equal(t, 180*time.Second, song.Duration)
}

func TestResolveEmptyQuery(t *testing.T) {
	r := newResolver(nil, nil)
	_, err := r.Resolve(context.Background(), "   ", "alice")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestResolveCatalogPrefix(t *testing.T) {
	cat := &stubCatalog{
		authorized: true,
		track:      &yandexmusic.Track{ID: "42", AlbumID: "7", Title: "Houdini", Artists: []string{"Dua Lipa"}, DurationMs: 185000},
	}
	r := newResolver(nil, cat)

	song, err := r.Resolve(context.Background(), "ym:dua lipa houdini", "alice")
	require.NoError(t, err)
	assert.Equal(t, "7:42", song.ID)
	assert.Equal(t, "Dua Lipa - Houdini", song.Title)
	assert.Equal(t, player.SourceYandex, song.Source)
	assert.Equal(t, 185*time.Second, song.Duration)
	require.NotNil(t, song.Track)
	assert.Equal(t, "42", song.Track.TrackID)
	assert.Equal(t, "https://covers/42", song.Track.CoverURL)
}

func TestResolveCatalogURLWithTrackID(t *testing.T) {
	cat := &stubCatalog{
		authorized: true,
		byID:       &yandexmusic.Track{ID: "99", Title: "Linked", DurationMs: 60000},
	}
	r := newResolver(nil, cat)

	song, err := r.Resolve(context.Background(), "https://music.yandex.ru/album/123/track/99", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Linked", song.Title)
	assert.Equal(t, player.SourceYandex, song.Source)
}

func TestResolveCatalogUnauthorized(t *testing.T) {
	r := newResolver(nil, &stubCatalog{authorized: false})
	_, err := r.Resolve(context.Background(), "ym:anything", "alice")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestResolveCatalogNoResults(t *testing.T) {
	r := newResolver(nil, &stubCatalog{authorized: true, err: yandexmusic.ErrNoResults})
	_, err := r.Resolve(context.Background(), "ym:gibberish", "alice")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestWaveSongs(t *testing.T) {
	cat := &stubCatalog{
		authorized: true,
		wave: []yandexmusic.Track{
			{ID: "1", Title: "One", Artists: []string{"A", "B"}, DurationMs: 90000},
			{ID: "2", Title: "Two", DurationMs: 120000},
		},
	}
	r := newResolver(nil, cat)

	songs := r.WaveSongs(context.Background(), 2)
	require.Len(t, songs, 2)
	assert.Equal(t, "A & B - One", songs[0].Title)
	assert.Equal(t, player.WaveRequester, songs[0].Requester)
	assert.Equal(t, player.SourceYandex, songs[0].Source)
	assert.Equal(t, "Two", songs[1].Title)
}

func TestWaveSongsUnauthorized(t *testing.T) {
	r := newResolver(nil, &stubCatalog{authorized: false})
	assert.Nil(t, r.WaveSongs(context.Background(), 3))
}

func TestParseColonDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"3:20", 3*time.Minute + 20*time.Second},
		{"1:05:20", time.Hour + 5*time.Minute + 20*time.Second},
		{"0:07", 7 * time.Second},
		{"garbage", 0},
		{"1:2:3:4", 0},
		{"", 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, parseColonDuration(tc.input), "input %q", tc.input)
	}
}
