// Package localaudio delivers catalog tracks through the machine's own
// audio output: downloaded mp3 files decoded and mixed in-process.
package localaudio

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// Speaker plays one mp3 file at a time. The underlying output device is
// initialized lazily on first play and kept at a fixed sample rate;
// later files are resampled to match.
type Speaker struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	ctrl        *beep.Ctrl
	vol         *effects.Volume
	streamer    beep.StreamSeekCloser
}

func NewSpeaker() *Speaker {
	return &Speaker{sampleRate: beep.SampleRate(44100)}
}

// Play replaces whatever is playing with the file at path. onDone fires
// once when the song plays to its natural end; stopping or replacing
// the song does not fire it.
func (s *Speaker) Play(path string, volume int, onDone func()) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio file: %w", err)
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode audio file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	if !s.initialized {
		if err := speaker.Init(s.sampleRate, s.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("init speaker: %w", err)
		}
		s.initialized = true
	}

	var stream beep.Streamer = streamer
	if format.SampleRate != s.sampleRate {
		stream = beep.Resample(4, format.SampleRate, s.sampleRate, streamer)
	}
	s.ctrl = &beep.Ctrl{Streamer: stream}
	s.vol = &effects.Volume{
		Streamer: s.ctrl,
		Base:     2,
		Volume:   volumeGain(volume),
		Silent:   volume <= 0,
	}
	s.streamer = streamer

	speaker.Play(beep.Seq(s.vol, beep.Callback(func() {
		if onDone != nil {
			// Separate goroutine: the callback runs under the speaker
			// lock and onDone usually starts the next song.
			go onDone()
		}
	})))
	return nil
}

func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *Speaker) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

// SetVolume adjusts the running stream; it has no effect when idle.
func (s *Speaker) SetVolume(volume int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vol == nil {
		return
	}
	speaker.Lock()
	s.vol.Volume = volumeGain(volume)
	s.vol.Silent = volume <= 0
	speaker.Unlock()
}

// Stop drops the current stream without firing its completion callback.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Speaker) stopLocked() {
	if !s.initialized {
		return
	}
	speaker.Clear()
	if s.streamer != nil {
		s.streamer.Close()
		s.streamer = nil
	}
	s.ctrl = nil
	s.vol = nil
}

// volumeGain maps the 0-100 percent scale onto the exponential gain the
// mixer expects: 100 is unity, each halving drops one power of Base.
func volumeGain(volume int) float64 {
	if volume <= 0 {
		return 0
	}
	if volume > 100 {
		volume = 100
	}
	return math.Log2(float64(volume) / 100)
}
