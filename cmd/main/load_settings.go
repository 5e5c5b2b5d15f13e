package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/data"
)

// loadSqliteSettings restores persisted state: the Twitch session (token
// re-validated against Helix), the Yandex Music token mirror (used when
// the token file is gone), the player volume and the auto-wave flag.
func (a *App) loadSqliteSettings() (volume int, autoWave bool) {
	volume = a.store.PlayerVolume(a.ctx)
	autoWave = a.store.AutoWave(a.ctx)

	if !a.yandex.IsAuthorized() {
		if token, err := a.store.Get(a.ctx, data.DB_KEY_YANDEX_MUSIC_TOKEN); err == nil && token != "" {
			if err := a.yandex.Authorize(a.ctx, token); err != nil {
				log.Println("Saved Yandex Music token is no longer valid:", err)
			}
		}
	}

	token, err := a.store.Get(a.ctx, data.DB_KEY_TWITCH_ACCESS_TOKEN)
	if err != nil || token == "" {
		return volume, autoWave
	}
	if err := a.adoptTwitchToken(token); err != nil {
		log.Println("Saved Twitch token is no longer valid:", err)
	}
	return volume, autoWave
}

// adoptTwitchToken validates the token and fills the twitch session
// struct from the validation response.
func (a *App) adoptTwitchToken(token string) error {
	isValid, response, err := a.helix.ValidateToken(token)
	if err != nil {
		return err
	}
	if response.StatusCode != http.StatusOK || !isValid {
		return errors.New("token rejected by Twitch")
	}
	strDate := response.Header.Get("Date")
	t, err := time.Parse(data.TWITCH_SERVER_DATE_LAYOUT, strDate)
	if err != nil {
		return errors.New("Failed to validate server date time expiry, original error:\n" + err.Error())
	}
	t = t.Add(time.Duration(response.Data.ExpiresIn) * time.Second)

	a.helix.SetUserAccessToken(token)
	a.twitchDataStruct = twitchData{
		accessToken:     token,
		expiresDate:     t,
		isAuthenticated: true,
		userID:          response.Data.UserID,
		login:           response.Data.Login,
	}
	return nil
}
