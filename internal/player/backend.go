package player

// Backend is the capability contract shared by the two delivery
// mechanisms (browser-hosted video player, local audio output).
//
// UpdateNowPlaying hands the backend a new song, or nil to clear the
// player entirely. The bool reports whether the backend accepted the
// song; a rejection makes the orchestrator discard the entry and
// advance. Acceptance is not playback: backends report actual playback
// progress through the shared event channel.
type Backend interface {
	UpdateNowPlaying(song *SongRequest) bool
	SetVolume(percent int) bool
	Stop()
}

// PauseResumer is implemented by backends that can suspend playback in
// place. The orchestrator probes for it on toggle.
type PauseResumer interface {
	Pause()
	Resume()
}

// EventKind discriminates backend notifications.
type EventKind int

const (
	// EventReady: the backend finished loading and playback started.
	EventReady EventKind = iota
	// EventEnded: the current song finished playing.
	EventEnded
	// EventError: playback failed; Code carries a backend-specific cause.
	EventError
	// EventSkipRequested: the player UI asked to skip the current song.
	EventSkipRequested
)

// Event is a backend notification consumed by the Player's Run loop.
type Event struct {
	Kind EventKind
	Code string
}
