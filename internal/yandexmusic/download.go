package yandexmusic

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// signSecret is the well-known key the web player uses to sign direct
// download links.
const signSecret = "XGRlBW9FXlekgbPrRHuSiA"

// SanitizeFilename makes a track title safe to use as a file name on
// every supported OS.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// CacheDir is where downloaded tracks live.
func (c *Client) CacheDir() string {
	return c.cacheDir
}

// CachePath returns the file a track downloads to, "artists - title.mp3"
// in the cache dir.
func (c *Client) CachePath(t Track) string {
	name := t.Title
	if len(t.Artists) > 0 {
		name = strings.Join(t.Artists, ", ") + " - " + t.Title
	}
	return filepath.Join(c.cacheDir, SanitizeFilename(name)+".mp3")
}

// DownloadTrack fetches the track's mp3 into the cache and returns the
// local path. A previously downloaded file is reused as-is.
func (c *Client) DownloadTrack(ctx context.Context, t Track) (string, error) {
	if !c.IsAuthorized() {
		return "", ErrNotAuthorized
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	path := c.CachePath(t)
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		return path, nil
	}

	src, err := c.directLink(ctx, t.ID)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download track: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download track: status %d", resp.StatusCode)
	}

	part := path + ".part"
	f, err := os.Create(part)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(part)
		return "", fmt.Errorf("write track: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(part)
		return "", err
	}
	if err := os.Rename(part, path); err != nil {
		os.Remove(part)
		return "", err
	}
	c.log.Printf("downloaded %q", filepath.Base(path))
	return path, nil
}

// directLink resolves a playable URL: download-info picks the best mp3
// variant, its XML descriptor yields the host/path/ts/s quad, and the
// md5 over secret+path+s signs the final get-mp3 URL.
func (c *Client) directLink(ctx context.Context, trackID string) (string, error) {
	v, err := c.getJSON(ctx, "/tracks/"+url.PathEscape(trackID)+"/download-info")
	if err != nil {
		return "", err
	}
	infoURL := ""
	bestBitrate := -1
	for _, item := range v.GetArray("result") {
		if string(item.GetStringBytes("codec")) != "mp3" {
			continue
		}
		if br := item.GetInt("bitrateInKbps"); br > bestBitrate {
			bestBitrate = br
			infoURL = string(item.GetStringBytes("downloadInfoUrl"))
		}
	}
	if infoURL == "" {
		return "", errors.New("yandex music: no mp3 variant available")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "OAuth "+c.Token())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch download info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch download info: status %d", resp.StatusCode)
	}

	var info struct {
		XMLName xml.Name `xml:"download-info"`
		Host    string   `xml:"host"`
		Path    string   `xml:"path"`
		Ts      string   `xml:"ts"`
		S       string   `xml:"s"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("parse download info: %w", err)
	}
	if info.Host == "" || len(info.Path) < 2 {
		return "", errors.New("yandex music: malformed download info")
	}
	sum := md5.Sum([]byte(signSecret + info.Path[1:] + info.S))
	return "https://" + info.Host + "/get-mp3/" + hex.EncodeToString(sum[:]) + "/" + info.Ts + info.Path, nil
}

// CleanCache evicts cached files older than maxAge and returns how many
// were removed.
func (c *Client) CleanCache(maxAge time.Duration) int {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return 0
	}
	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(c.cacheDir, e.Name())) == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		c.log.Printf("evicted %d cached track(s)", removed)
	}
	return removed
}
