package localaudio

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/controlchannel"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/yandexmusic"
)

// Downloader is the slice of the catalog client the backend needs.
type Downloader interface {
	IsAuthorized() bool
	DownloadTrack(ctx context.Context, t yandexmusic.Track) (string, error)
}

// Backend plays catalog tracks: download through the gateway, then
// decode and play on the local speaker. The bridge is kept in sync so
// the player page mirrors what is playing.
type Backend struct {
	ctx     context.Context
	speaker *Speaker
	gateway Downloader
	bridge  *controlchannel.Bridge
	events  chan<- player.Event
	log     *log.Logger

	mu     sync.Mutex
	gen    int
	volume int
}

func New(ctx context.Context, speaker *Speaker, gateway Downloader, bridge *controlchannel.Bridge, events chan<- player.Event, volume int) *Backend {
	return &Backend{
		ctx:     ctx,
		speaker: speaker,
		gateway: gateway,
		bridge:  bridge,
		events:  events,
		log:     log.New(os.Stderr, "AUDIO ", log.Ldate|log.Ltime),
		volume:  player.ClampVolume(volume),
	}
}

// UpdateNowPlaying accepts catalog songs only, and only while the
// gateway session is authorized. The download and playback start run in
// the background; progress lands on the event channel.
func (b *Backend) UpdateNowPlaying(song *player.SongRequest) bool {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	if song == nil {
		b.speaker.Stop()
		return true
	}
	if song.Source != player.SourceYandex || song.Track == nil {
		return false
	}
	if !b.gateway.IsAuthorized() {
		return false
	}
	go b.load(gen, *song)
	return true
}

func (b *Backend) load(gen int, song player.SongRequest) {
	track := yandexmusic.Track{
		ID:      song.Track.TrackID,
		AlbumID: song.Track.AlbumID,
		Title:   song.Track.Title,
		Artists: song.Track.Artists,
	}
	path, err := b.gateway.DownloadTrack(b.ctx, track)
	if b.stale(gen) {
		return
	}
	if err != nil {
		b.log.Printf("download failed for %q: %v", song.Title, err)
		b.emit(player.Event{Kind: player.EventError, Code: "download"})
		return
	}

	src := controlchannel.AudioSrc(path)
	info := controlchannel.AudioInfo{
		Title:  song.Track.Title,
		Artist: strings.Join(song.Track.Artists, ", "),
		Cover:  song.Track.CoverURL,
	}
	b.bridge.SetCurrentAudio(src, info)
	b.bridge.PushCommand(controlchannel.Command{
		"command":   "load",
		"audio_src": src,
		"title":     info.Title,
		"artist":    info.Artist,
		"cover":     info.Cover,
	})

	b.mu.Lock()
	volume := b.volume
	b.mu.Unlock()
	err = b.speaker.Play(path, volume, func() { b.finished(gen) })
	if b.stale(gen) {
		return
	}
	if err != nil {
		b.log.Printf("playback failed for %q: %v", song.Title, err)
		b.emit(player.Event{Kind: player.EventError, Code: "decode"})
		return
	}
	b.emit(player.Event{Kind: player.EventReady})
}

func (b *Backend) finished(gen int) {
	if b.stale(gen) {
		return
	}
	b.emit(player.Event{Kind: player.EventEnded})
}

func (b *Backend) SetVolume(percent int) bool {
	percent = player.ClampVolume(percent)
	b.mu.Lock()
	b.volume = percent
	b.mu.Unlock()
	b.speaker.SetVolume(percent)
	return true
}

func (b *Backend) Stop() {
	b.mu.Lock()
	b.gen++
	b.mu.Unlock()
	b.speaker.Stop()
}

func (b *Backend) Pause() {
	b.speaker.Pause()
	b.bridge.PushCommand(controlchannel.Command{"command": "pause"})
}

func (b *Backend) Resume() {
	b.speaker.Resume()
	b.bridge.PushCommand(controlchannel.Command{"command": "play"})
}

// stale reports whether another song replaced the one this work item
// belongs to.
func (b *Backend) stale(gen int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return gen != b.gen
}

func (b *Backend) emit(ev player.Event) {
	select {
	case b.events <- ev:
	default:
		b.log.Println("event channel full, dropped event")
	}
}
