package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joeyak/go-twitch-eventsub/v3"
	"github.com/labstack/echo/v4"
	"github.com/nicklaw5/helix/v2"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/resolve"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/utils"
)

func chatSubscriptions() []twitch.EventSubscription {
	return []twitch.EventSubscription{
		twitch.SubStreamOnline,
		twitch.SubStreamOffline,
		twitch.SubChannelChatMessage,
	}
}

const (
	msgAddedSong   = "Added song: {title} {link}"
	msgAddedTrack  = "Added track: {title}"
	defaultMyWave  = 3
	maxMyWave      = 10
	resolveTimeout = 30 * time.Second
)

func (a *App) SetSubscriptionHandlers() {
	a.twitchWSService.Client().OnEventStreamOnline(func(event twitch.EventStreamOnline) {
		a.streamOnline = true

		j, _ := json.Marshal(echo.Map{
			"stream_online": true,
		})
		a.clientsBroadcast <- string(j)
		log.Println("STREAM_ONLINE")
	})
	a.twitchWSService.Client().OnEventStreamOffline(func(event twitch.EventStreamOffline) {
		a.streamOnline = false
		j, _ := json.Marshal(echo.Map{
			"stream_online": false,
		})
		a.clientsBroadcast <- string(j)
		log.Println("STREAM_OFFLINE")
	})
	a.twitchWSService.Client().OnEventChannelChatMessage(func(event twitch.EventChannelChatMessage) {
		isBroadcaster := false
		isModerator := false
		for _, v := range event.Badges {
			if v.SetId == "broadcaster" {
				isBroadcaster = true
				isModerator = true
			}
			if v.SetId == "moderator" {
				isModerator = true
			}
		}
		if !a.streamOnline && !isBroadcaster {
			return
		}

		text := strings.TrimSpace(event.Message.Text)
		cmd, rest, _ := strings.Cut(text, " ")
		rest = strings.TrimSpace(rest)

		switch strings.ToLower(cmd) {
		case "!sr":
			go a.songRequestSubmit(event, rest)
		case "!ymsr":
			if rest != "" {
				go a.songRequestSubmit(event, "ym:"+rest)
			}
		case "!queue":
			a.replyQueue(event)
		case "!song":
			a.replyCurrentSong(event)
		case "!skipsong", "!skip":
			a.skipSong(event, isModerator)
		case "!wrongsong":
			if removed, ok := a.player.RemoveLastBy(event.ChatterUserLogin); ok {
				a.reply(event, "Removed your request: "+removed.Title)
			} else {
				a.reply(event, "You have no songs in the queue")
			}
		case "!volume":
			a.volumeCommand(event, rest, isModerator)
		case "!play":
			if !isModerator {
				return
			}
			_, msg := a.player.TogglePlayback()
			a.reply(event, msg)
		case "!mywave":
			a.myWaveCommand(event, rest)
		case "!togglewave":
			if !isModerator {
				return
			}
			if a.player.ToggleAutoWave() {
				a.reply(event, "My Wave will keep the queue filled")
			} else {
				a.reply(event, "My Wave auto-fill is off")
			}
		}
	})
}

// songRequestSubmit resolves the request and queues it. Runs on its own
// goroutine so a slow lookup never stalls chat dispatch; resolution
// errors turn into chat replies.
func (a *App) songRequestSubmit(event twitch.EventChannelChatMessage, query string) {
	if query == "" {
		return
	}
	ctx, cancel := context.WithTimeout(a.ctx, resolveTimeout)
	defer cancel()

	song, err := a.resolver.Resolve(ctx, query, event.ChatterUserLogin)
	if err != nil {
		switch {
		case errors.Is(err, resolve.ErrNotAuthorized):
			a.reply(event, "Yandex Music is not connected, ask the streamer to log in")
		case errors.Is(err, resolve.ErrNoResults):
			a.reply(event, "Couldn't find anything for your request")
		default:
			log.Println("Failed to resolve request:", err)
			a.reply(event, "Internal error while looking up your request")
		}
		return
	}

	// Reject duplicates of what's pending or playing.
	if now := a.player.NowPlaying(); now != nil && now.ID == song.ID {
		a.reply(event, "Song is already playing!")
		return
	}
	for _, queued := range a.player.QueueSnapshot() {
		if queued.ID == song.ID {
			a.reply(event, "Song is already in queue!")
			return
		}
	}

	position, _ := a.player.Enqueue(*song)
	log.Println(event.ChatterUserLogin + ": Queued song " + song.Title)

	// save to history
	go func() {
		if err := a.store.RecordSongRequest(a.ctx, *song); err != nil {
			log.Println("Somehow failed to save request history:", err)
		}
	}()

	if song.Source == player.SourceYouTube {
		a.reply(event, utils.ReplaceVars(msgAddedSong, map[string]string{
			"title": song.Title,
			"link":  "https://youtu.be/" + song.ID,
		})+queueSuffix(position))
		return
	}
	a.reply(event, utils.ReplaceVars(msgAddedTrack, map[string]string{
		"title": song.Title,
	})+queueSuffix(position))
}

func queueSuffix(position int) string {
	if position <= 0 {
		return ""
	}
	return " (#" + strconv.Itoa(position) + " in queue)"
}

func (a *App) skipSong(event twitch.EventChannelChatMessage, isModerator bool) {
	now := a.player.NowPlaying()
	isRequester := now != nil && strings.EqualFold(now.Requester, event.ChatterUserLogin)
	if !isModerator && !isRequester {
		return
	}

	hasSkipped := false
	msg := ""
	skipMutex.Lock()
	if time.Now().After(lastSkipped.Add(time.Second * 5)) {
		hasSkipped, msg = a.player.Skip()
		lastSkipped = time.Now()
	}
	skipMutex.Unlock()
	if hasSkipped {
		a.reply(event, msg)
	}
}

func (a *App) replyCurrentSong(event twitch.EventChannelChatMessage) {
	currentSongMutex.Lock()
	throttled := !time.Now().After(lastUsedCurrentSong.Add(time.Second * 10))
	if !throttled {
		lastUsedCurrentSong = time.Now()
	}
	currentSongMutex.Unlock()
	if throttled {
		return
	}

	now := a.player.NowPlaying()
	if now == nil {
		a.reply(event, "Nothing is playing right now")
		return
	}
	msg := "Song: " + now.Title + ", requested by " + now.Requester
	if now.Source == player.SourceYouTube {
		msg += " https://youtu.be/" + now.ID
	}
	a.reply(event, msg)
}

func (a *App) replyQueue(event twitch.EventChannelChatMessage) {
	queueCmdMutex.Lock()
	throttled := !time.Now().After(lastUsedQueueCmd.Add(time.Second * 10))
	if !throttled {
		lastUsedQueueCmd = time.Now()
	}
	queueCmdMutex.Unlock()
	if throttled {
		return
	}

	s := "Now: "
	if now := a.player.NowPlaying(); now != nil {
		s += now.Title
	} else {
		s += "nothing"
	}
	for i, v := range a.player.QueueSnapshot() {
		if i >= 5 {
			s += ", ..."
			break
		}
		s += ", #" + strconv.Itoa(i+1) + ": " + v.Title
	}
	a.reply(event, s)
}

func (a *App) volumeCommand(event twitch.EventChannelChatMessage, rest string, isModerator bool) {
	if rest == "" {
		a.reply(event, "Volume: "+strconv.Itoa(a.player.Volume()))
		return
	}
	if !isModerator {
		return
	}
	v, err := strconv.Atoi(rest)
	if err != nil {
		a.reply(event, "Usage: !volume [0-100]")
		return
	}
	applied := a.player.SetVolume(v)
	a.reply(event, "Volume set to "+strconv.Itoa(applied))
}

func (a *App) myWaveCommand(event twitch.EventChannelChatMessage, rest string) {
	count := defaultMyWave
	if rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 || n > maxMyWave {
			a.reply(event, "Usage: !mywave [1-"+strconv.Itoa(maxMyWave)+"]")
			return
		}
		count = n
	}
	added := a.player.AddWaveTracks(count)
	if added == 0 {
		a.reply(event, "My Wave is not available right now")
		return
	}
	a.reply(event, "Added "+strconv.Itoa(added)+" track(s) from My Wave")
}

func (a *App) reply(event twitch.EventChannelChatMessage, message string) {
	_, err := a.helix.SendChatMessage(&helix.SendChatMessageParams{
		BroadcasterID:        event.BroadcasterUserId,
		SenderID:             a.twitchDataStruct.userID,
		Message:              message,
		ReplyParentMessageID: event.MessageId,
	})
	if err != nil {
		log.Println("Failed to send chat reply:", err)
	}
}

var skipMutex = sync.Mutex{}
var lastSkipped = time.Now().Add(time.Second * -5)

var currentSongMutex = sync.Mutex{}
var lastUsedCurrentSong = time.Now().Add(time.Second * -10)

var queueCmdMutex = sync.Mutex{}
var lastUsedQueueCmd = time.Now().Add(time.Second * -10)
