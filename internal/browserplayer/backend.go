// Package browserplayer delivers video requests by steering the
// embedded browser player page through the control-channel mailbox.
package browserplayer

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/controlchannel"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"
)

// safetyGrace is added on top of the song duration before the watchdog
// declares the player stuck.
const safetyGrace = 30 * time.Second

// Backend pushes load/pause/play/volume commands into the bridge and
// arms a safety timer per song. The browser acknowledges progress
// through the bridge, which reports on the shared event channel; the
// timer only fires when those acknowledgements never arrive.
type Backend struct {
	bridge *controlchannel.Bridge
	events chan<- player.Event
	log    *log.Logger

	mu     sync.Mutex
	safety *time.Timer
	gen    int
	volume int
}

func New(bridge *controlchannel.Bridge, events chan<- player.Event, volume int) *Backend {
	return &Backend{
		bridge: bridge,
		events: events,
		log:    log.New(os.Stderr, "VIDEO ", log.Ldate|log.Ltime),
		volume: player.ClampVolume(volume),
	}
}

func (b *Backend) UpdateNowPlaying(song *player.SongRequest) bool {
	b.mu.Lock()
	b.cancelSafetyLocked()
	if song == nil {
		b.mu.Unlock()
		b.bridge.ClearCurrent()
		b.bridge.PushCommand(controlchannel.Command{"command": "clear"})
		return true
	}
	if song.Source != player.SourceYouTube {
		b.mu.Unlock()
		return false
	}
	gen := b.gen
	volume := b.volume
	watchdog := song.Duration + safetyGrace
	title := song.Title
	b.safety = time.AfterFunc(watchdog, func() { b.safetyFired(gen, title) })
	b.mu.Unlock()

	b.bridge.SetCurrentVideo(song.ID, song.Title)
	b.bridge.PushCommand(controlchannel.Command{
		"command":  "load",
		"video_id": song.ID,
		"title":    song.Title,
		"volume":   volume,
	})
	return true
}

func (b *Backend) SetVolume(percent int) bool {
	percent = player.ClampVolume(percent)
	b.mu.Lock()
	b.volume = percent
	b.mu.Unlock()
	b.bridge.PushCommand(controlchannel.Command{"command": "volume", "volume": percent})
	return true
}

func (b *Backend) Stop() {
	b.mu.Lock()
	b.cancelSafetyLocked()
	b.mu.Unlock()
}

func (b *Backend) Pause() {
	b.bridge.PushCommand(controlchannel.Command{"command": "pause"})
}

func (b *Backend) Resume() {
	b.bridge.PushCommand(controlchannel.Command{"command": "play"})
}

// cancelSafetyLocked disarms the watchdog and invalidates any timer
// callback already in flight.
func (b *Backend) cancelSafetyLocked() {
	b.gen++
	if b.safety != nil {
		b.safety.Stop()
		b.safety = nil
	}
}

func (b *Backend) safetyFired(gen int, title string) {
	b.mu.Lock()
	stale := gen != b.gen
	b.mu.Unlock()
	if stale {
		return
	}
	b.log.Printf("no end-of-video callback for %q, forcing advance", title)
	select {
	case b.events <- player.Event{Kind: player.EventError, Code: "stuck"}:
	default:
	}
}
