package controlchannel

import (
	"log"
	"os"
	"sync"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"
)

// Command is one instruction for the polling browser player. The
// "command" key names the action; the rest is command-specific.
type Command map[string]any

// noneCommand is what an empty mailbox hands out.
var noneCommand = Command{"command": "none"}

// AudioInfo describes the catalog track mirrored to the player page.
type AudioInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Cover  string `json:"cover,omitempty"`
}

// Bridge is the shared state between the app and the browser player:
// a single-slot command mailbox (newest command wins, read-and-clear)
// plus the current-item snapshot the player re-reads on reload. Player
// callbacks (ready, ended, error, skip) are forwarded to the
// orchestrator's event channel.
type Bridge struct {
	events    chan<- player.Event
	audioRoot string
	log       *log.Logger

	mu        sync.Mutex
	pending   Command
	videoID   string
	title     string
	audioSrc  string
	audioInfo *AudioInfo
}

// NewBridge wires the bridge to the orchestrator's event channel.
// audioRoot bounds which local files the /audio route may serve.
func NewBridge(events chan<- player.Event, audioRoot string) *Bridge {
	return &Bridge{
		events:    events,
		audioRoot: audioRoot,
		log:       log.New(os.Stderr, "BRIDGE ", log.Ldate|log.Ltime),
	}
}

// PushCommand replaces whatever is waiting in the mailbox.
func (b *Bridge) PushCommand(cmd Command) {
	b.mu.Lock()
	b.pending = cmd
	b.mu.Unlock()
}

// TakeCommand empties the mailbox, returning the none command when
// nothing is pending.
func (b *Bridge) TakeCommand() Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return noneCommand
	}
	cmd := b.pending
	b.pending = nil
	return cmd
}

// SetCurrentVideo records the video item the player should show. The
// audio slot is cleared: the player displays exactly one of the two.
func (b *Bridge) SetCurrentVideo(videoID, title string) {
	b.mu.Lock()
	b.videoID = videoID
	b.title = title
	b.audioSrc = ""
	b.audioInfo = nil
	b.mu.Unlock()
}

// SetCurrentAudio records the audio item, clearing the video slot.
func (b *Bridge) SetCurrentAudio(src string, info AudioInfo) {
	b.mu.Lock()
	b.videoID = ""
	b.title = info.Title
	b.audioSrc = src
	copied := info
	b.audioInfo = &copied
	b.mu.Unlock()
}

// ClearCurrent blanks both slots.
func (b *Bridge) ClearCurrent() {
	b.mu.Lock()
	b.videoID = ""
	b.title = ""
	b.audioSrc = ""
	b.audioInfo = nil
	b.mu.Unlock()
}

func (b *Bridge) current() (videoID, title, audioSrc string, info *AudioInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.videoID, b.title, b.audioSrc, b.audioInfo
}

// emit forwards a player callback without ever blocking the HTTP
// handler; a full channel drops the event.
func (b *Bridge) emit(ev player.Event) {
	select {
	case b.events <- ev:
	default:
		b.log.Printf("event channel full, dropped event kind=%d code=%s", ev.Kind, ev.Code)
	}
}
