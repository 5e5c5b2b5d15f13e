package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records calls and accepts or rejects songs on demand.
type fakeBackend struct {
	mu        sync.Mutex
	loaded    []string
	cleared   int
	stopped   int
	paused    int
	resumed   int
	volume    int
	rejectAll bool
}

func (f *fakeBackend) UpdateNowPlaying(song *SongRequest) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if song == nil {
		f.cleared++
		return true
	}
	if f.rejectAll {
		return false
	}
	f.loaded = append(f.loaded, song.ID)
	return true
}

func (f *fakeBackend) SetVolume(v int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
	return true
}

func (f *fakeBackend) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeBackend) Pause()  { f.mu.Lock(); f.paused++; f.mu.Unlock() }
func (f *fakeBackend) Resume() { f.mu.Lock(); f.resumed++; f.mu.Unlock() }

func (f *fakeBackend) lastLoaded() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.loaded) == 0 {
		return ""
	}
	return f.loaded[len(f.loaded)-1]
}

func newTestPlayer(opts Options) (*Player, *fakeBackend, *fakeBackend) {
	yt := &fakeBackend{}
	ym := &fakeBackend{}
	backends := map[Source]Backend{SourceYouTube: yt, SourceYandex: ym}
	p := NewPlayer(NewQueue(), backends, nil, opts, Callbacks{})
	return p, yt, ym
}

func TestEnqueueStartsWhenIdle(t *testing.T) {
	p, yt, _ := newTestPlayer(Options{})

	position, _ := p.Enqueue(video("a", "alice"))
	assert.Equal(t, 0, position, "first request should start immediately")
	assert.Equal(t, StateLoading, p.State())
	require.NotNil(t, p.NowPlaying())
	assert.Equal(t, "a", p.NowPlaying().ID)
	assert.Equal(t, "a", yt.lastLoaded())

	position, _ = p.Enqueue(video("b", "bob"))
	assert.Equal(t, 1, position)
	assert.Equal(t, 1, len(p.QueueSnapshot()))
}

func TestReadyMovesLoadingToPlaying(t *testing.T) {
	p, _, _ := newTestPlayer(Options{})
	p.Enqueue(video("a", "alice"))

	p.handleEvent(Event{Kind: EventReady})
	assert.Equal(t, StatePlaying, p.State())
}

func TestEndedAdvancesToNext(t *testing.T) {
	p, yt, _ := newTestPlayer(Options{})
	p.Enqueue(video("a", "alice"))
	p.Enqueue(video("b", "bob"))

	p.handleEvent(Event{Kind: EventEnded})
	require.NotNil(t, p.NowPlaying())
	assert.Equal(t, "b", p.NowPlaying().ID)
	assert.Equal(t, "b", yt.lastLoaded())

	p.handleEvent(Event{Kind: EventEnded})
	assert.Nil(t, p.NowPlaying())
	assert.Equal(t, StateIdle, p.State())
}

func TestErrorAdvancesLikeEnded(t *testing.T) {
	p, _, _ := newTestPlayer(Options{})
	p.Enqueue(video("a", "alice"))
	p.Enqueue(video("b", "bob"))

	p.handleEvent(Event{Kind: EventError, Code: "150"})
	require.NotNil(t, p.NowPlaying())
	assert.Equal(t, "b", p.NowPlaying().ID)
}

func TestSkip(t *testing.T) {
	p, _, _ := newTestPlayer(Options{})

	ok, msg := p.Skip()
	assert.False(t, ok)
	assert.Equal(t, "Nothing is playing right now", msg)

	p.Enqueue(video("a", "alice"))
	ok, msg = p.Skip()
	assert.True(t, ok)
	assert.Equal(t, "Skipped: video a", msg)
	assert.Nil(t, p.NowPlaying())
}

func TestRejectedSongIsDropped(t *testing.T) {
	p, _, ym := newTestPlayer(Options{})
	ym.rejectAll = true

	p.Enqueue(catalog("t1"))
	assert.Nil(t, p.NowPlaying())
	assert.Equal(t, StateIdle, p.State())

	// a playable song after the rejected one still gets picked up
	p.Enqueue(video("a", "alice"))
	require.NotNil(t, p.NowPlaying())
	assert.Equal(t, "a", p.NowPlaying().ID)
}

func TestTogglePlaybackPauseResume(t *testing.T) {
	p, yt, _ := newTestPlayer(Options{})
	p.Enqueue(video("a", "alice"))
	p.handleEvent(Event{Kind: EventReady})

	ok, msg := p.TogglePlayback()
	assert.True(t, ok)
	assert.Equal(t, "Paused", msg)
	assert.Equal(t, StatePaused, p.State())
	assert.Equal(t, 1, yt.paused)

	ok, msg = p.TogglePlayback()
	assert.True(t, ok)
	assert.Equal(t, "Resumed", msg)
	assert.Equal(t, StatePlaying, p.State())
	assert.Equal(t, 1, yt.resumed)
}

func TestTogglePlaybackEmptyQueue(t *testing.T) {
	p, _, _ := newTestPlayer(Options{})
	ok, msg := p.TogglePlayback()
	assert.False(t, ok)
	assert.Equal(t, "The queue is empty", msg)
}

func TestTogglePlaybackStartsFromWaveWhenEnabled(t *testing.T) {
	fetched := 0
	backends := map[Source]Backend{SourceYouTube: &fakeBackend{}, SourceYandex: &fakeBackend{}}
	p := NewPlayer(NewQueue(), backends, func(n int) []SongRequest {
		fetched = n
		return []SongRequest{catalog("t1"), catalog("t2")}
	}, Options{AutoWave: true}, Callbacks{})

	ok, _ := p.TogglePlayback()
	assert.True(t, ok)
	assert.Equal(t, 25, fetched)
	require.NotNil(t, p.NowPlaying())
	assert.Equal(t, "t1", p.NowPlaying().ID)
}

func TestSetVolumeClampsAndPropagates(t *testing.T) {
	p, yt, ym := newTestPlayer(Options{Volume: 50})

	assert.Equal(t, 100, p.SetVolume(150))
	assert.Equal(t, 100, yt.volume)
	assert.Equal(t, 100, ym.volume)

	assert.Equal(t, 0, p.SetVolume(-5))
	assert.Equal(t, 0, p.Volume())
}

func TestAutoWaveTopUpAfterSongEnds(t *testing.T) {
	var fetchCalls int
	backends := map[Source]Backend{SourceYouTube: &fakeBackend{}, SourceYandex: &fakeBackend{}}
	p := NewPlayer(NewQueue(), backends, func(n int) []SongRequest {
		fetchCalls++
		return []SongRequest{catalog("t1"), catalog("t2")}
	}, Options{AutoWave: true, LowWaterMark: 3}, Callbacks{})

	p.Enqueue(video("a", "alice"))
	p.handleEvent(Event{Kind: EventEnded})

	assert.Equal(t, 1, fetchCalls)
	require.NotNil(t, p.NowPlaying())
	assert.Equal(t, "t1", p.NowPlaying().ID)
}

func TestAddWaveTracks(t *testing.T) {
	backends := map[Source]Backend{SourceYandex: &fakeBackend{}}
	p := NewPlayer(NewQueue(), backends, func(n int) []SongRequest {
		out := []SongRequest{}
		for i := 0; i < n; i++ {
			out = append(out, catalog(string(rune('a'+i))))
		}
		return out
	}, Options{}, Callbacks{})

	added := p.AddWaveTracks(3)
	assert.Equal(t, 3, added)
	require.NotNil(t, p.NowPlaying())
	assert.Equal(t, 2, len(p.QueueSnapshot()))
}

func TestRunConsumesBackendEvents(t *testing.T) {
	p, _, _ := newTestPlayer(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Enqueue(video("a", "alice"))
	p.Events() <- Event{Kind: EventReady}

	require.Eventually(t, func() bool {
		return p.State() == StatePlaying
	}, time.Second, 10*time.Millisecond)

	p.Events() <- Event{Kind: EventEnded}
	require.Eventually(t, func() bool {
		return p.NowPlaying() == nil
	}, time.Second, 10*time.Millisecond)
}

func TestCallbacksFireOutsideLock(t *testing.T) {
	var mu sync.Mutex
	messages := []string{}
	queueChanges := 0

	backends := map[Source]Backend{SourceYouTube: &fakeBackend{}}
	var p *Player
	p = NewPlayer(NewQueue(), backends, nil, Options{}, Callbacks{
		QueueChanged: func() {
			mu.Lock()
			queueChanges++
			mu.Unlock()
			// re-entrancy would deadlock if callbacks ran under the lock
			_ = p.State()
		},
		Message: func(m string) {
			mu.Lock()
			messages = append(messages, m)
			mu.Unlock()
		},
	})

	p.Enqueue(video("a", "alice"))
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, messages, "Now playing: video a")
	assert.Greater(t, queueChanges, 0)
}
