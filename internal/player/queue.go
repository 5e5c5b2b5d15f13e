package player

import (
	"math/rand"
	"strings"
	"sync"
)

// Queue is the ordered list of pending requests. The now-playing slot is
// owned by the Player, never by the queue. All methods are safe for
// concurrent use.
type Queue struct {
	mu    sync.RWMutex
	items []SongRequest
}

func NewQueue() *Queue {
	return &Queue{items: []SongRequest{}}
}

// Enqueue appends song and enforces the source-mixing policy: a viewer's
// video request evicts every pending catalog track, so the wave never
// delays a human request. Returns how many catalog entries were purged.
func (q *Queue) Enqueue(song SongRequest) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	purged := 0
	if song.Source == SourceYouTube {
		purged = q.purgeCatalogLocked()
	}
	q.items = append(q.items, song)
	return purged
}

// DequeueHead removes and returns the first entry, or false when empty.
func (q *Queue) DequeueHead() (SongRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return SongRequest{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// RemoveAt removes the entry at the given queue index (0 = next up).
func (q *Queue) RemoveAt(i int) (SongRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.items) {
		return SongRequest{}, false
	}
	removed := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return removed, true
}

// RemoveLastBy removes the requester's most recent entry, scanning from
// the tail. Requester comparison is case-insensitive.
func (q *Queue) RemoveLastBy(requester string) (SongRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.items) - 1; i >= 0; i-- {
		if strings.EqualFold(q.items[i].Requester, requester) {
			removed := q.items[i]
			q.items = append(q.items[:i], q.items[i+1:]...)
			return removed, true
		}
	}
	return SongRequest{}, false
}

func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = q.items[:0]
	return n
}

func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	rand.Shuffle(len(q.items), func(i, j int) {
		q.items[i], q.items[j] = q.items[j], q.items[i]
	})
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// Snapshot returns a defensive copy of the pending entries in order.
func (q *Queue) Snapshot() []SongRequest {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]SongRequest, len(q.items))
	copy(out, q.items)
	return out
}

// PurgeCatalog removes every pending catalog entry.
func (q *Queue) PurgeCatalog() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.purgeCatalogLocked()
}

func (q *Queue) purgeCatalogLocked() int {
	kept := q.items[:0]
	purged := 0
	for _, it := range q.items {
		if it.Source == SourceYandex {
			purged++
			continue
		}
		kept = append(kept, it)
	}
	q.items = kept
	return purged
}

// hasVideoLocked reports whether any pending entry is a video request.
func (q *Queue) hasVideoLocked() bool {
	for _, it := range q.items {
		if it.Source == SourceYouTube {
			return true
		}
	}
	return false
}

// EnsureMinimum tops the queue up to max entries via fetch when the depth
// has fallen below min. It is a no-op when the queue already holds min
// entries, when any pending entry is a video request, or when fetch
// produces nothing (e.g. the catalog session is not authorized).
// Returns the number of entries added.
func (q *Queue) EnsureMinimum(min, max int, fetch func(n int) []SongRequest) int {
	q.mu.Lock()
	if len(q.items) >= min || q.hasVideoLocked() {
		q.mu.Unlock()
		return 0
	}
	want := max - len(q.items)
	q.mu.Unlock()

	// fetch hits the network; never hold the lock across it.
	tracks := fetch(want)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.hasVideoLocked() {
		// A video request landed while we were fetching; it wins.
		return 0
	}
	added := 0
	for _, t := range tracks {
		if len(q.items) >= max {
			break
		}
		q.items = append(q.items, t)
		added++
	}
	return added
}
