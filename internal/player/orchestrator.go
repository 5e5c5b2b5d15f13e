package player

import (
	"context"
	"log"
	"os"
	"sync"
)

// State is the orchestrator's playback phase.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateError   State = "error"
)

// Options holds the orchestrator's tunables. Zero values fall back to
// the defaults used by the chat bot.
type Options struct {
	Volume       int
	AutoWave     bool
	LowWaterMark int // top-up trigger depth
	WaveFillMin  int
	WaveFillMax  int
}

// Callbacks are the orchestrator's observers. All of them are optional
// and are invoked outside the player lock.
type Callbacks struct {
	// QueueChanged fires after any mutation of the queue or the
	// now-playing slot.
	QueueChanged func()
	// Message receives human-readable one-liners about what happened.
	Message func(string)
	// VolumeChanged fires with the clamped value after SetVolume.
	VolumeChanged func(int)
	// AutoWaveChanged fires after ToggleAutoWave.
	AutoWaveChanged func(bool)
}

// Player owns the queue, the now-playing slot and the playback state
// machine. Public mutators serialize on one mutex; backend notifications
// arrive on the event channel and are consumed by Run.
type Player struct {
	queue     *Queue
	backends  map[Source]Backend
	waveFetch func(n int) []SongRequest
	cb        Callbacks
	opts      Options
	events    chan Event
	log       *log.Logger

	mu       sync.Mutex
	current  *SongRequest
	state    State
	volume   int
	autoWave bool
}

func NewPlayer(queue *Queue, backends map[Source]Backend, waveFetch func(n int) []SongRequest, opts Options, cb Callbacks) *Player {
	if opts.LowWaterMark <= 0 {
		opts.LowWaterMark = 3
	}
	if opts.WaveFillMin <= 0 {
		opts.WaveFillMin = 25
	}
	if opts.WaveFillMax < opts.WaveFillMin {
		opts.WaveFillMax = opts.WaveFillMin
	}
	if waveFetch == nil {
		waveFetch = func(int) []SongRequest { return nil }
	}
	p := &Player{
		queue:     queue,
		backends:  backends,
		waveFetch: waveFetch,
		cb:        cb,
		opts:      opts,
		events:    make(chan Event, 16),
		log:       log.New(os.Stderr, "PLAYER ", log.Ldate|log.Ltime),
		state:     StateIdle,
		volume:    ClampVolume(opts.Volume),
		autoWave:  opts.AutoWave,
	}
	return p
}

// ClampVolume bounds a requested volume to the accepted 0-100 range.
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Events returns the channel backends report on. Sends must not block;
// backends drop events when the buffer is full.
func (p *Player) Events() chan<- Event {
	return p.events
}

// Run consumes backend events until ctx is cancelled. It is the only
// goroutine that reads from the event channel.
func (p *Player) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			p.handleEvent(ev)
		}
	}
}

func (p *Player) handleEvent(ev Event) {
	switch ev.Kind {
	case EventReady:
		p.mu.Lock()
		if p.current != nil && p.state == StateLoading {
			p.state = StatePlaying
		}
		p.mu.Unlock()
		p.notifyQueueChanged()
	case EventEnded:
		p.advanceAfter("", "")
	case EventError:
		p.advanceAfter("Playback failed", ev.Code)
	case EventSkipRequested:
		p.Skip()
	}
}

// advanceAfter finishes the current song (normally or due to failure)
// and moves on to the next entry.
func (p *Player) advanceAfter(failure, code string) {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return
	}
	finished := *p.current
	if failure != "" {
		p.log.Printf("%s for %q (code %s)", failure, finished.Title, code)
	}
	p.topUpLocked()
	msgs := p.advanceLocked()
	p.mu.Unlock()

	if failure != "" {
		p.say(failure + ": " + finished.Title)
	}
	for _, m := range msgs {
		p.say(m)
	}
	p.notifyQueueChanged()
}

// Enqueue appends a resolved request and starts playback when idle.
// Returns the song's position in line (1 = next up, 0 = started
// immediately) and how many catalog entries its arrival purged.
func (p *Player) Enqueue(song SongRequest) (position, purged int) {
	p.mu.Lock()
	purged = p.queue.Enqueue(song)
	position = p.queue.Len()
	var msgs []string
	if p.current == nil {
		msgs = p.advanceLocked()
		position = 0
	}
	p.mu.Unlock()

	if purged > 0 {
		p.say("Cleared the wave to make room for a request")
	}
	for _, m := range msgs {
		p.say(m)
	}
	p.notifyQueueChanged()
	return position, purged
}

// Skip ends the current song and advances. Safe to call when nothing is
// playing.
func (p *Player) Skip() (bool, string) {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return false, "Nothing is playing right now"
	}
	skipped := p.current.Title
	p.topUpLocked()
	msgs := p.advanceLocked()
	p.mu.Unlock()

	for _, m := range msgs {
		p.say(m)
	}
	p.notifyQueueChanged()
	return true, "Skipped: " + skipped
}

// TogglePlayback pauses/resumes the current song, or starts playback
// when idle (topping up from the wave first when enabled).
func (p *Player) TogglePlayback() (bool, string) {
	p.mu.Lock()
	if p.current != nil {
		backend := p.backends[p.current.Source]
		pr, canPause := backend.(PauseResumer)
		switch {
		case p.state == StatePlaying && canPause:
			pr.Pause()
			p.state = StatePaused
			p.mu.Unlock()
			p.notifyQueueChanged()
			return true, "Paused"
		case p.state == StatePaused && canPause:
			pr.Resume()
			p.state = StatePlaying
			p.mu.Unlock()
			p.notifyQueueChanged()
			return true, "Resumed"
		default:
			p.mu.Unlock()
			return false, "Player is busy, try again in a moment"
		}
	}

	if p.queue.Len() == 0 && p.autoWave {
		p.queue.EnsureMinimum(p.opts.WaveFillMin, p.opts.WaveFillMax, p.waveFetch)
	}
	if p.queue.Len() == 0 {
		p.mu.Unlock()
		return false, "The queue is empty"
	}
	msgs := p.advanceLocked()
	p.mu.Unlock()

	for _, m := range msgs {
		p.say(m)
	}
	p.notifyQueueChanged()
	return true, "Started playback"
}

// SetVolume clamps and applies the volume on every backend, returning
// the effective value.
func (p *Player) SetVolume(v int) int {
	v = ClampVolume(v)
	p.mu.Lock()
	p.volume = v
	for _, b := range p.backends {
		b.SetVolume(v)
	}
	p.mu.Unlock()

	if p.cb.VolumeChanged != nil {
		p.cb.VolumeChanged(v)
	}
	return v
}

func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// ToggleAutoWave flips the auto-fill flag and returns the new value.
func (p *Player) ToggleAutoWave() bool {
	p.mu.Lock()
	p.autoWave = !p.autoWave
	on := p.autoWave
	p.mu.Unlock()

	if p.cb.AutoWaveChanged != nil {
		p.cb.AutoWaveChanged(on)
	}
	return on
}

func (p *Player) AutoWave() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoWave
}

// AddWaveTracks fetches n tracks from the wave and appends them,
// starting playback when idle. Returns how many were added.
func (p *Player) AddWaveTracks(n int) int {
	tracks := p.waveFetch(n)

	p.mu.Lock()
	added := 0
	for _, t := range tracks {
		p.queue.Enqueue(t)
		added++
	}
	var msgs []string
	if added > 0 && p.current == nil {
		msgs = p.advanceLocked()
	}
	p.mu.Unlock()

	for _, m := range msgs {
		p.say(m)
	}
	if added > 0 {
		p.notifyQueueChanged()
	}
	return added
}

// NowPlaying returns a copy of the current song, or nil when idle.
func (p *Player) NowPlaying() *SongRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	song := *p.current
	return &song
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) QueueSnapshot() []SongRequest {
	return p.queue.Snapshot()
}

// Clear empties the pending queue. The current song keeps playing.
func (p *Player) Clear() int {
	n := p.queue.Clear()
	p.notifyQueueChanged()
	return n
}

func (p *Player) ShuffleQueue() {
	p.queue.Shuffle()
	p.notifyQueueChanged()
}

func (p *Player) RemoveAt(i int) (SongRequest, bool) {
	removed, ok := p.queue.RemoveAt(i)
	if ok {
		p.notifyQueueChanged()
	}
	return removed, ok
}

func (p *Player) RemoveLastBy(requester string) (SongRequest, bool) {
	removed, ok := p.queue.RemoveLastBy(requester)
	if ok {
		p.notifyQueueChanged()
	}
	return removed, ok
}

// topUpLocked refills from the wave when the queue is about to run dry.
func (p *Player) topUpLocked() {
	if !p.autoWave || p.queue.Len() >= p.opts.LowWaterMark {
		return
	}
	p.queue.EnsureMinimum(p.opts.WaveFillMin, p.opts.WaveFillMax, p.waveFetch)
}

// advanceLocked stops whatever is loaded, pops entries until a backend
// accepts one, and returns the messages to emit once the lock is
// released. An empty queue lands in Idle with the backends cleared.
func (p *Player) advanceLocked() []string {
	var msgs []string
	if p.current != nil {
		if b := p.backends[p.current.Source]; b != nil {
			b.Stop()
		}
		p.current = nil
	}
	for {
		next, ok := p.queue.DequeueHead()
		if !ok {
			p.state = StateIdle
			for _, b := range p.backends {
				b.UpdateNowPlaying(nil)
			}
			msgs = append(msgs, "Queue is empty")
			return msgs
		}
		backend := p.backends[next.Source]
		if backend == nil {
			p.log.Printf("no backend for source %q, dropping %q", next.Source, next.Title)
			msgs = append(msgs, "Cannot play: "+next.Title)
			continue
		}
		song := next
		p.current = &song
		p.state = StateLoading
		if !backend.UpdateNowPlaying(&song) {
			p.log.Printf("backend rejected %q", song.Title)
			p.current = nil
			msgs = append(msgs, "Cannot play: "+song.Title)
			continue
		}
		msgs = append(msgs, "Now playing: "+song.Title)
		return msgs
	}
}

func (p *Player) notifyQueueChanged() {
	if p.cb.QueueChanged != nil {
		p.cb.QueueChanged()
	}
}

func (p *Player) say(msg string) {
	if p.cb.Message != nil {
		p.cb.Message(msg)
	}
}
