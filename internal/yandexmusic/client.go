package yandexmusic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fastjson"
)

const apiBase = "https://api.music.yandex.net"

var (
	// ErrNotAuthorized means no valid OAuth token is attached to the client.
	ErrNotAuthorized = errors.New("yandex music: not authorized")
	// ErrNoResults means the catalog had nothing for the query.
	ErrNoResults = errors.New("yandex music: no tracks found")
)

// Track is the slice of catalog metadata the player needs.
type Track struct {
	ID         string
	AlbumID    string
	Title      string
	Artists    []string
	DurationMs int
	CoverURI   string
}

// Key is the queue identifier for a catalog entry: "albumID:trackID",
// or the bare track id for albumless uploads.
func (t Track) Key() string {
	if t.AlbumID != "" {
		return t.AlbumID + ":" + t.ID
	}
	return t.ID
}

func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// Client talks to the Yandex Music API. The OAuth token is persisted to
// disk so a restart does not require re-entering it.
type Client struct {
	httpClient *http.Client
	apiBase    string
	tokenPath  string
	cacheDir   string
	log        *log.Logger

	mu         sync.RWMutex
	token      string
	authorized bool
}

// New builds a client whose token lives under dataDir and whose
// download cache lives in the OS temp dir. A token saved by a previous
// run is picked up immediately.
func New(dataDir string) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiBase:    apiBase,
		tokenPath:  filepath.Join(dataDir, "yandex_music_token"),
		cacheDir:   filepath.Join(os.TempDir(), "wave-desktop-music-cache"),
		log:        log.New(os.Stderr, "YANDEX ", log.Ldate|log.Ltime),
	}
	c.loadToken()
	return c
}

// Authorize validates token against the account endpoint and, on
// success, makes it the active session and persists it.
func (c *Client) Authorize(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNotAuthorized
	}
	v, err := c.getJSONWithToken(ctx, "/account/status", token)
	if err != nil {
		return fmt.Errorf("validate token: %w", err)
	}
	login := string(v.GetStringBytes("result", "account", "login"))
	if login == "" {
		return ErrNotAuthorized
	}

	c.mu.Lock()
	c.token = token
	c.authorized = true
	c.mu.Unlock()

	if err := c.saveToken(token); err != nil {
		c.log.Println("failed to persist token:", err)
	}
	c.log.Println("authorized as", login)
	return nil
}

func (c *Client) IsAuthorized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authorized
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SearchTrack returns the first track matching the free-text query.
func (c *Client) SearchTrack(ctx context.Context, query string) (*Track, error) {
	q := url.Values{
		"text": {query},
		"type": {"track"},
		"page": {"0"},
	}
	v, err := c.getJSON(ctx, "/search?"+q.Encode())
	if err != nil {
		return nil, err
	}
	results := v.GetArray("result", "tracks", "results")
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	t := parseTrack(results[0])
	return &t, nil
}

// TrackByID fetches one track by its catalog id.
func (c *Client) TrackByID(ctx context.Context, trackID string) (*Track, error) {
	v, err := c.getJSON(ctx, "/tracks/"+url.PathEscape(trackID))
	if err != nil {
		return nil, err
	}
	results := v.GetArray("result")
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	t := parseTrack(results[0])
	return &t, nil
}

// WaveTracks pulls up to count tracks from the personal wave rotor,
// falling back to the first station on the stations list when the wave
// is unavailable for this account.
func (c *Client) WaveTracks(ctx context.Context, count int) ([]Track, error) {
	if !c.IsAuthorized() {
		return nil, ErrNotAuthorized
	}
	tracks, err := c.stationTracks(ctx, "user:onyourwave", count)
	if err != nil || len(tracks) == 0 {
		station, ferr := c.firstStation(ctx)
		if ferr != nil {
			if err != nil {
				return nil, err
			}
			return nil, ferr
		}
		tracks, err = c.stationTracks(ctx, station, count)
	}
	return tracks, err
}

func (c *Client) stationTracks(ctx context.Context, station string, count int) ([]Track, error) {
	seen := map[string]struct{}{}
	var out []Track
	// The rotor hands out a handful of tracks per call.
	for call := 0; call < 5 && len(out) < count; call++ {
		v, err := c.getJSON(ctx, "/rotor/station/"+url.PathEscape(station)+"/tracks?settings2=true")
		if err != nil {
			if len(out) > 0 {
				break
			}
			return nil, err
		}
		before := len(out)
		for _, item := range v.GetArray("result", "sequence") {
			t := parseTrack(item.Get("track"))
			if t.ID == "" {
				continue
			}
			if _, dup := seen[t.Key()]; dup {
				continue
			}
			seen[t.Key()] = struct{}{}
			out = append(out, t)
			if len(out) >= count {
				break
			}
		}
		if len(out) == before {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrNoResults
	}
	return out, nil
}

func (c *Client) firstStation(ctx context.Context) (string, error) {
	v, err := c.getJSON(ctx, "/rotor/stations/list")
	if err != nil {
		return "", err
	}
	stations := v.GetArray("result")
	pick := ""
	for _, s := range stations {
		id := s.Get("station", "id")
		if id == nil {
			continue
		}
		typ := string(id.GetStringBytes("type"))
		tag := string(id.GetStringBytes("tag"))
		if typ == "" || tag == "" {
			continue
		}
		if typ == "personal-station" {
			return typ + ":" + tag, nil
		}
		if pick == "" {
			pick = typ + ":" + tag
		}
	}
	if pick == "" {
		return "", ErrNoResults
	}
	return pick, nil
}

// CoverURL expands the catalog cover template to a 400x400 image URL.
func (c *Client) CoverURL(t Track) string {
	if t.CoverURI == "" {
		return ""
	}
	return "https://" + strings.Replace(t.CoverURI, "%%", "400x400", 1)
}

func parseTrack(v *fastjson.Value) Track {
	if v == nil {
		return Track{}
	}
	t := Track{
		ID:         idString(v.Get("id")),
		Title:      string(v.GetStringBytes("title")),
		DurationMs: v.GetInt("durationMs"),
		CoverURI:   string(v.GetStringBytes("coverUri")),
	}
	if albums := v.GetArray("albums"); len(albums) > 0 {
		t.AlbumID = idString(albums[0].Get("id"))
	}
	for _, a := range v.GetArray("artists") {
		if name := string(a.GetStringBytes("name")); name != "" {
			t.Artists = append(t.Artists, name)
		}
	}
	return t
}

// idString copes with the API returning ids as either numbers or strings.
func idString(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeNumber:
		return strconv.Itoa(v.GetInt())
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	}
	return ""
}

func (c *Client) getJSON(ctx context.Context, path string) (*fastjson.Value, error) {
	c.mu.RLock()
	token := c.token
	authorized := c.authorized
	c.mu.RUnlock()
	if !authorized {
		return nil, ErrNotAuthorized
	}
	return c.getJSONWithToken(ctx, path, token)
}

func (c *Client) getJSONWithToken(ctx context.Context, path, token string) (*fastjson.Value, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrNotAuthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yandex music: status %d for %s", resp.StatusCode, path)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("yandex music: parse response: %w", err)
	}
	return v, nil
}

func (c *Client) loadToken() {
	b, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return
	}
	c.mu.Lock()
	c.token = token
	c.authorized = true
	c.mu.Unlock()
	c.log.Println("loaded saved token")
}

func (c *Client) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(c.tokenPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.tokenPath, []byte(token), 0o600)
}
