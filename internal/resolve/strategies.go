package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
	"github.com/valyala/fastjson"
)

// ytdlpStrategy shells out to yt-dlp, the most reliable extractor and
// therefore the first rung for both lookups and searches.
type ytdlpStrategy struct{}

func (ytdlpStrategy) Name() string { return "yt-dlp" }

func (ytdlpStrategy) Lookup(ctx context.Context, videoID string) (*VideoResult, error) {
	return runYtdlp(ctx, "https://www.youtube.com/watch?v="+videoID)
}

func (ytdlpStrategy) Search(ctx context.Context, query string) (*VideoResult, error) {
	return runYtdlp(ctx, "ytsearch1:"+query)
}

func runYtdlp(ctx context.Context, target string) (*VideoResult, error) {
	res, err := ytdlp.New().
		Print("%(id)s\t%(title)s\t%(duration)s").
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "--skip-download", target)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		ps := strings.Split(strings.TrimSpace(line), "\t")
		if len(ps) != 3 || ps[0] == "" {
			continue
		}
		d, _ := time.ParseDuration(ps[2] + "s")
		return &VideoResult{VideoID: ps[0], Title: ps[1], Duration: d}, nil
	}
	return nil, ErrNoResults
}

// ytMusicStrategy queries the YouTube Music search API. Search only;
// id lookups fall through to the next rung.
type ytMusicStrategy struct{}

func (ytMusicStrategy) Name() string { return "ytmusic" }

func (ytMusicStrategy) Lookup(ctx context.Context, videoID string) (*VideoResult, error) {
	return nil, errUnsupported
}

func (ytMusicStrategy) Search(ctx context.Context, query string) (*VideoResult, error) {
	search := ytmusic.TrackSearch(query)
	r, err := search.Next()
	if err != nil {
		return nil, err
	}
	for _, t := range r.Tracks {
		if t.VideoID == "" {
			continue
		}
		title := t.Title
		if len(t.Artists) > 0 {
			title = t.Artists[0].Name + " - " + t.Title
		}
		return &VideoResult{
			VideoID:  t.VideoID,
			Title:    title,
			Duration: time.Duration(t.Duration) * time.Second,
		}, nil
	}
	return nil, ErrNoResults
}

// ytSearchStrategy uses the plain YouTube search scraper. For lookups it
// searches the id and trusts only an exact match.
type ytSearchStrategy struct{}

func (ytSearchStrategy) Name() string { return "ytsearch" }

func (ytSearchStrategy) Lookup(ctx context.Context, videoID string) (*VideoResult, error) {
	c := ytsearch.NewClient(nil)
	res, err := c.Search(ctx, videoID)
	if err != nil {
		return nil, err
	}
	for _, v := range res.Results {
		if v.VideoID == videoID {
			return &VideoResult{
				VideoID:  v.VideoID,
				Title:    v.Title,
				Duration: parseColonDuration(v.Duration),
			}, nil
		}
	}
	return nil, ErrNoResults
}

func (ytSearchStrategy) Search(ctx context.Context, query string) (*VideoResult, error) {
	c := ytsearch.NewClient(nil)
	res, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, v := range res.Results {
		if v.VideoID == "" {
			continue
		}
		return &VideoResult{
			VideoID:  v.VideoID,
			Title:    v.Title,
			Duration: parseColonDuration(v.Duration),
		}, nil
	}
	return nil, ErrNoResults
}

// parseColonDuration parses "3:20" or "1:05:20" style durations.
func parseColonDuration(s string) time.Duration {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}

// scrapeStrategy is the unauthenticated last rung: the results page
// scrape for searches and the oEmbed endpoint for id lookups. oEmbed
// never reports a duration, so results fall back to the default.
type scrapeStrategy struct {
	httpClient *http.Client
	resultsURL string
	oembedURL  string
}

var scrapeVideoIDPattern = regexp.MustCompile(`"videoId":"([A-Za-z0-9_-]{11})"`)

func newScrapeStrategy(httpClient *http.Client) scrapeStrategy {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return scrapeStrategy{
		httpClient: httpClient,
		resultsURL: "https://www.youtube.com/results?search_query=",
		oembedURL:  "https://www.youtube.com/oembed?format=json&url=",
	}
}

func (scrapeStrategy) Name() string { return "scrape" }

func (s scrapeStrategy) Lookup(ctx context.Context, videoID string) (*VideoResult, error) {
	title, err := s.oembedTitle(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return &VideoResult{VideoID: videoID, Title: title}, nil
}

func (s scrapeStrategy) Search(ctx context.Context, query string) (*VideoResult, error) {
	body, err := s.get(ctx, s.resultsURL+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	m := scrapeVideoIDPattern.FindSubmatch(body)
	if m == nil {
		return nil, ErrNoResults
	}
	id := string(m[1])
	title, err := s.oembedTitle(ctx, id)
	if err != nil {
		title = id
	}
	return &VideoResult{VideoID: id, Title: title}, nil
}

func (s scrapeStrategy) oembedTitle(ctx context.Context, videoID string) (string, error) {
	watchURL := url.QueryEscape("https://www.youtube.com/watch?v=" + videoID)
	body, err := s.get(ctx, s.oembedURL+watchURL)
	if err != nil {
		return "", err
	}
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return "", fmt.Errorf("parse oembed response: %w", err)
	}
	title := string(v.GetStringBytes("title"))
	if title == "" {
		return "", ErrNoResults
	}
	return title, nil
}

func (s scrapeStrategy) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}
