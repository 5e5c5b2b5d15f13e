package main

import (
	"context"
	"log"
	"time"

	"github.com/nicklaw5/helix/v2"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/data"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/settings"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/staticservices"
)

// Fires a burst of chat commands at the streamer's own channel to
// exercise request resolution, the purge rule and skip throttling.
func main() {
	store := settings.NewStore()
	token, err := store.Get(context.Background(), data.DB_KEY_TWITCH_ACCESS_TOKEN)
	if err != nil || token == "" {
		panic("no saved twitch token, log in through the control panel first")
	}

	c, err := helix.NewClient(&helix.Options{
		ClientID: data.GetTwitchClientID(),
	})
	if err != nil {
		panic(err)
	}
	ok, _, err := c.ValidateToken(token)
	if err != nil || !ok {
		panic("api: unauthorized")
	}
	c.SetUserAccessToken(token)

	svc, err := staticservices.NewTwitchHelixService(c)
	if err != nil {
		panic(err)
	}
	id := svc.GetUserID()
	log.Println("blasting as", svc.GetNickname())

	cmds := []string{
		"!mywave 3",
		"!sr yena nemonemo",
		"!sr https://youtu.be/dQw4w9WgXcQ",
		"!ymsr dua lipa houdini",
		"!queue",
		"!skip",
	}

	// App must survive this blast with the wave tracks purged by the
	// first direct request
	for i, m := range cmds {
		if i > 0 {
			time.Sleep(time.Millisecond * 200)
		}
		c.SendChatMessage(&helix.SendChatMessageParams{
			BroadcasterID: id,
			SenderID:      id,
			Message:       m,
		})
	}
}
