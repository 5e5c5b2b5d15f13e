package localaudio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/controlchannel"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/player"
	"github.com/veslov/wave-desktop-twitch-song-requests/internal/yandexmusic"
)

type fakeGateway struct {
	authorized bool
}

func (f *fakeGateway) IsAuthorized() bool { return f.authorized }

func (f *fakeGateway) DownloadTrack(ctx context.Context, t yandexmusic.Track) (string, error) {
	panic("download should not start in these tests")
}

func newTestBackend(authorized bool) *Backend {
	events := make(chan player.Event, 4)
	bridge := controlchannel.NewBridge(events, "")
	return New(context.Background(), NewSpeaker(), &fakeGateway{authorized: authorized}, bridge, events, 50)
}

func TestUpdateNowPlayingRejectsVideos(t *testing.T) {
	b := newTestBackend(true)
	ok := b.UpdateNowPlaying(&player.SongRequest{ID: "abc12345678", Source: player.SourceYouTube})
	assert.False(t, ok)
}

func TestUpdateNowPlayingRejectsMissingTrackInfo(t *testing.T) {
	b := newTestBackend(true)
	ok := b.UpdateNowPlaying(&player.SongRequest{ID: "1:2", Source: player.SourceYandex})
	assert.False(t, ok)
}

func TestUpdateNowPlayingRejectsWhenUnauthorized(t *testing.T) {
	b := newTestBackend(false)
	ok := b.UpdateNowPlaying(&player.SongRequest{
		ID:     "1:2",
		Source: player.SourceYandex,
		Track:  &player.TrackInfo{TrackID: "2", AlbumID: "1", Title: "T"},
	})
	assert.False(t, ok)
}

func TestUpdateNowPlayingNilStopsQuietly(t *testing.T) {
	b := newTestBackend(true)
	assert.True(t, b.UpdateNowPlaying(nil))
}

func TestVolumeGain(t *testing.T) {
	assert.Equal(t, 0.0, volumeGain(100), "full volume is unity gain")
	assert.Equal(t, -1.0, volumeGain(50), "half volume drops one power of two")
	assert.Equal(t, 0.0, volumeGain(150), "clamped above 100")
	assert.Equal(t, 0.0, volumeGain(0))
	assert.Equal(t, 0.0, volumeGain(-3))
}
