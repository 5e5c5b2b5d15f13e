package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nicklaw5/helix/v2"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/data"
)

// processTwitchOAuth receives the implicit-grant token the control panel
// extracted from the redirect hash, validates it and brings the chat
// services up.
func (a *App) processTwitchOAuth(c echo.Context) error {
	// auth data in url hash string params as get request
	body := c.Request().Body
	rawBodyData, err := io.ReadAll(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "read request body",
		})
	}
	defer body.Close()

	authData := struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
		TokenType   string `json:"token_type"`
	}{}
	err = json.Unmarshal(rawBodyData, &authData)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "parse request body",
		})
	}

	if authData.TokenType != "bearer" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "unexpected token type",
		})
	}

	if err := a.adoptTwitchToken(authData.AccessToken); err != nil {
		c.Logger().Error(err)
		return c.NoContent(http.StatusUnauthorized)
	}

	if err := a.store.Set(c.Request().Context(), data.DB_KEY_TWITCH_ACCESS_TOKEN, authData.AccessToken); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to save token in database",
		})
	}

	resp, err := a.helix.GetStreams(&helix.StreamsParams{
		UserLogins: []string{a.twitchDataStruct.login},
	})
	if err == nil && len(resp.Data.Streams) > 0 && resp.Data.Streams[0].ID != "" {
		a.streamOnline = true
	}

	a.startTwitchServices()

	log.Println("Authenticated as " + a.twitchDataStruct.login)
	bb, _ := json.Marshal(echo.Map{
		"type":          "TWITCH_INFO",
		"login":         a.twitchDataStruct.login,
		"expiry_date":   a.twitchDataStruct.expiresDate.Local().Format(data.TWITCH_SERVER_DATE_LAYOUT),
		"stream_online": a.streamOnline,
	})
	a.clientsBroadcast <- string(bb)
	return c.NoContent(http.StatusOK)
}
