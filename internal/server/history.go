package server

import (
	"sync"

	"github.com/forPelevin/audioconv/internal/transcode"
)

// history keeps jobs by ID in submission order. When it grows past max the
// oldest settled jobs are dropped; running jobs are never evicted.
type history struct {
	mu    sync.Mutex
	max   int
	order []string
	byID  map[string]*transcode.Job
}

func newHistory(max int) *history {
	return &history{max: max, byID: make(map[string]*transcode.Job)}
}

func (h *history) add(j *transcode.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.byID[j.ID] = j
	h.order = append(h.order, j.ID)

	for i := 0; len(h.order) > h.max && i < len(h.order); {
		id := h.order[i]
		if !settled(h.byID[id]) {
			i++
			continue
		}
		delete(h.byID, id)
		h.order = append(h.order[:i], h.order[i+1:]...)
	}
}

func (h *history) get(id string) (*transcode.Job, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	j, ok := h.byID[id]
	return j, ok
}

func (h *history) list() []*transcode.Job {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*transcode.Job, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.byID[id])
	}
	return out
}

func settled(j *transcode.Job) bool {
	select {
	case <-j.Done():
		return true
	default:
		return false
	}
}
