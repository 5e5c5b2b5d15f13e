package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/data"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/resolve"
)

// handleYandexToken stores the pasted OAuth token after a probe against
// the account endpoint, and mirrors it into sqlite so a wiped token file
// doesn't log the streamer out.
func (a *App) handleYandexToken(c echo.Context) error {
	body := struct {
		Token string `json:"token"`
	}{}
	if err := c.Bind(&body); err != nil || body.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	if err := a.yandex.Authorize(c.Request().Context(), body.Token); err != nil {
		log.Println("Yandex Music authorization failed:", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token rejected"})
	}
	if err := a.store.Set(a.ctx, data.DB_KEY_YANDEX_MUSIC_TOKEN, body.Token); err != nil {
		log.Println("Failed to mirror Yandex Music token:", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"authorized": true})
}

func (a *App) handleGetQueue(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"now":   a.player.NowPlaying(),
		"state": a.player.State(),
		"items": a.player.QueueSnapshot(),
	})
}

// handleAddToQueue is the control panel's version of !sr. The requester
// is always the logged-in streamer.
func (a *App) handleAddToQueue(c echo.Context) error {
	body := struct {
		Query string `json:"query"`
	}{}
	if err := c.Bind(&body); err != nil || body.Query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query is required"})
	}

	requester := a.twitchDataStruct.login
	if requester == "" {
		requester = "streamer"
	}
	song, err := a.resolver.Resolve(c.Request().Context(), body.Query, requester)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, resolve.ErrNoResults):
			status = http.StatusNotFound
		case errors.Is(err, resolve.ErrNotAuthorized):
			status = http.StatusUnauthorized
		}
		return c.JSON(status, echo.Map{"error": err.Error()})
	}

	position, _ := a.player.Enqueue(*song)
	go func() {
		if err := a.store.RecordSongRequest(a.ctx, *song); err != nil {
			log.Println("Somehow failed to save request history:", err)
		}
	}()
	return c.JSON(http.StatusOK, echo.Map{"song": song, "position": position})
}

func (a *App) handleClearQueue(c echo.Context) error {
	n := a.player.Clear()
	return c.JSON(http.StatusOK, echo.Map{"removed": n})
}

// handleRemoveFromQueue removes by zero-based index into the pending
// queue, matching the order handleGetQueue reports.
func (a *App) handleRemoveFromQueue(c echo.Context) error {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad index"})
	}
	removed, ok := a.player.RemoveAt(i)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no such entry"})
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}

func (a *App) handleShuffleQueue(c echo.Context) error {
	a.player.ShuffleQueue()
	return c.JSON(http.StatusOK, echo.Map{"items": a.player.QueueSnapshot()})
}

func (a *App) handleGetSong(c echo.Context) error {
	now := a.player.NowPlaying()
	if now == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "nothing is playing"})
	}
	return c.JSON(http.StatusOK, now)
}

func (a *App) handleSkip(c echo.Context) error {
	skipped, msg := a.player.Skip()
	return c.JSON(http.StatusOK, echo.Map{"skipped": skipped, "message": msg})
}

func (a *App) handleTogglePlay(c echo.Context) error {
	ok, msg := a.player.TogglePlayback()
	return c.JSON(http.StatusOK, echo.Map{"ok": ok, "message": msg, "state": a.player.State()})
}

func (a *App) handleGetVolume(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"volume": a.player.Volume()})
}

func (a *App) handleSetVolume(c echo.Context) error {
	body := struct {
		Volume int `json:"volume"`
	}{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "volume is required"})
	}
	return c.JSON(http.StatusOK, echo.Map{"volume": a.player.SetVolume(body.Volume)})
}

func (a *App) handleAddWave(c echo.Context) error {
	body := struct {
		Count int `json:"count"`
	}{Count: defaultMyWave}
	_ = c.Bind(&body)
	if body.Count < 1 || body.Count > maxMyWave {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must be 1-" + strconv.Itoa(maxMyWave)})
	}
	added := a.player.AddWaveTracks(body.Count)
	if added == 0 {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "wave unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"added": added})
}

func (a *App) handleToggleWave(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"auto_wave": a.player.ToggleAutoWave()})
}
