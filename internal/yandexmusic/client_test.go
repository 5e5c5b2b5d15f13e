package yandexmusic

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	return &Client{
		httpClient: srv.Client(),
		apiBase:    srv.URL,
		tokenPath:  filepath.Join(dir, "yandex_music_token"),
		cacheDir:   filepath.Join(dir, "cache"),
		log:        log.New(os.Stderr, "YANDEX ", log.Ldate|log.Ltime),
		token:      "test-token",
		authorized: true,
	}
}

func TestAuthorize(t *testing.T) {
	var gotAuth string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/account/status", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"result":{"account":{"login":"listener"}}}`))
	}))
	c.authorized = false
	c.token = ""

	err := c.Authorize(context.Background(), "  new-token \n")
	require.NoError(t, err)
	assert.Equal(t, "OAuth new-token", gotAuth)
	assert.True(t, c.IsAuthorized())
	assert.Equal(t, "new-token", c.Token())

	// token survives on disk for the next start
	b, err := os.ReadFile(c.tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "new-token", string(b))
}

func TestAuthorizeRejected(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	c.authorized = false

	err := c.Authorize(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.False(t, c.IsAuthorized())
}

func TestAuthorizeEmptyToken(t *testing.T) {
	c := testClient(t, http.NewServeMux())
	c.authorized = false
	assert.ErrorIs(t, c.Authorize(context.Background(), "   "), ErrNotAuthorized)
}

func TestSearchTrack(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "houdini", r.URL.Query().Get("text"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		// ids arrive as numbers here, as strings elsewhere
		w.Write([]byte(`{"result":{"tracks":{"results":[
			{"id":12345,"title":"Houdini","durationMs":185000,
			 "coverUri":"avatars.example/%%",
			 "albums":[{"id":777}],
			 "artists":[{"name":"Dua Lipa"}]}
		]}}}`))
	}))

	track, err := c.SearchTrack(context.Background(), "houdini")
	require.NoError(t, err)
	assert.Equal(t, "12345", track.ID)
	assert.Equal(t, "777", track.AlbumID)
	assert.Equal(t, "777:12345", track.Key())
	assert.Equal(t, "Houdini", track.Title)
	assert.Equal(t, []string{"Dua Lipa"}, track.Artists)
	assert.Equal(t, 185*time.Second, track.Duration())
	assert.Equal(t, "https://avatars.example/400x400", c.CoverURL(*track))
}

func TestSearchTrackNoResults(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"tracks":{"results":[]}}}`))
	}))
	_, err := c.SearchTrack(context.Background(), "gibberish")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestSearchTrackUnauthorizedStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	_, err := c.SearchTrack(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestSearchTrackNotAuthorizedLocally(t *testing.T) {
	c := testClient(t, http.NewServeMux())
	c.authorized = false
	_, err := c.SearchTrack(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestTrackByID(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tracks/42", r.URL.Path)
		w.Write([]byte(`{"result":[{"id":"42","title":"Linked","durationMs":60000}]}`))
	}))

	track, err := c.TrackByID(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Linked", track.Title)
	assert.Equal(t, "42", track.Key(), "albumless track keys on the bare id")
}

func TestWaveTracks(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rotor/station/user:onyourwave/tracks", r.URL.Path)
		w.Write([]byte(`{"result":{"sequence":[
			{"track":{"id":1,"title":"One","durationMs":90000,"albums":[{"id":10}]}},
			{"track":{"id":1,"title":"One again","durationMs":90000,"albums":[{"id":10}]}},
			{"track":{"id":2,"title":"Two","durationMs":120000,"albums":[{"id":20}]}}
		]}}`))
	}))

	tracks, err := c.WaveTracks(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "One", tracks[0].Title)
	assert.Equal(t, "Two", tracks[1].Title, "duplicate keys are dropped")
}

func TestWaveTracksStationFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rotor/station/user:onyourwave/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/rotor/stations/list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[
			{"station":{"id":{"type":"genre","tag":"rock"}}},
			{"station":{"id":{"type":"personal-station","tag":"daily"}}}
		]}`))
	})
	mux.HandleFunc("/rotor/station/personal-station:daily/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"sequence":[{"track":{"id":5,"title":"Fallback","durationMs":100000}}]}}`))
	})
	c := testClient(t, mux)

	tracks, err := c.WaveTracks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Fallback", tracks[0].Title)
}

func TestWaveTracksUnauthorized(t *testing.T) {
	c := testClient(t, http.NewServeMux())
	c.authorized = false
	_, err := c.WaveTracks(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestLoadTokenOnNew(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yandex_music_token"), []byte("saved-token\n"), 0o600))

	c := New(dir)
	assert.True(t, c.IsAuthorized())
	assert.Equal(t, "saved-token", c.Token())

	c2 := New(t.TempDir())
	assert.False(t, c2.IsAuthorized())
}

func TestCoverURLEmpty(t *testing.T) {
	c := testClient(t, http.NewServeMux())
	assert.Equal(t, "", c.CoverURL(Track{}))
}
