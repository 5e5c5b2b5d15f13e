package controlchannel

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"
)

// RegisterRoutes mounts the polling surface the browser player talks to.
func (b *Bridge) RegisterRoutes(g *echo.Group) {
	g.GET("/get_current_video", b.handleGetCurrentVideo)
	g.GET("/check_for_commands", b.handleCheckForCommands)
	g.GET("/player_ready", b.handlePlayerReady)
	g.GET("/video_ended", b.handleVideoEnded)
	g.GET("/player_error", b.handlePlayerError)
	g.GET("/skip_song", b.handleSkipSong)
	g.GET("/audio/*", b.handleAudio)
}

func (b *Bridge) handleGetCurrentVideo(c echo.Context) error {
	videoID, title, audioSrc, info := b.current()
	return c.JSON(http.StatusOK, echo.Map{
		"video_id":   videoID,
		"title":      title,
		"audio_src":  audioSrc,
		"audio_info": info,
	})
}

func (b *Bridge) handleCheckForCommands(c echo.Context) error {
	return c.JSON(http.StatusOK, b.TakeCommand())
}

func (b *Bridge) handlePlayerReady(c echo.Context) error {
	b.emit(player.Event{Kind: player.EventReady})
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (b *Bridge) handleVideoEnded(c echo.Context) error {
	b.emit(player.Event{Kind: player.EventEnded})
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (b *Bridge) handlePlayerError(c echo.Context) error {
	code := c.QueryParam("code")
	b.log.Println("player reported error, code", code)
	b.emit(player.Event{Kind: player.EventError, Code: code})
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (b *Bridge) handleSkipSong(c echo.Context) error {
	b.emit(player.Event{Kind: player.EventSkipRequested})
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// handleAudio streams a downloaded track back to the player page. Only
// files under the audio root are reachable.
func (b *Bridge) handleAudio(c echo.Context) error {
	raw := c.Param("*")
	path, err := url.PathUnescape(raw)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	path = filepath.Clean(path)
	if b.audioRoot != "" {
		root := filepath.Clean(b.audioRoot)
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			return c.NoContent(http.StatusNotFound)
		}
	}
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return c.NoContent(http.StatusNotFound)
	}
	c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	c.Response().Header().Set(echo.HeaderContentType, "audio/mpeg")
	return c.File(path)
}

// AudioSrc maps a cached file to the URL path the player fetches it at.
func AudioSrc(path string) string {
	return "/player/audio/" + url.PathEscape(path)
}
