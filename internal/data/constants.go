package data

import (
	"os"
	"time"
)

var twitchClientID = "q6batx0epnphncdfpvbjqoqnc5wymf"

func GetTwitchClientID() string {
	if v := os.Getenv("TWITCH_CLIENT_ID"); v != "" {
		return v
	}
	return twitchClientID
}

// GetListenAddr is the loopback address the app and the browser player
// page agree on.
func GetListenAddr() string {
	return "127.0.0.1:3999"
}

const (
	DB_KEY_TWITCH_ACCESS_TOKEN = "twitch_access_token"
	DB_KEY_YANDEX_MUSIC_TOKEN  = "yandex_music_token"
	DB_KEY_PLAYER_VOLUME       = "player_volume"
	DB_KEY_AUTO_WAVE           = "auto_play_from_wave"
	TWITCH_SERVER_DATE_LAYOUT  = time.RFC1123
)
