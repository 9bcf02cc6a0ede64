package transcode

import (
	"sort"
	"sync"
)

// registry tracks in-flight jobs by canonical output path. Two jobs that
// would write the same file are never run concurrently.
type registry struct {
	mu   sync.Mutex
	byID map[string]*Job
	keys map[string]string // canonical output -> job ID
}

func newRegistry() *registry {
	return &registry{
		byID: make(map[string]*Job),
		keys: make(map[string]string),
	}
}

func (r *registry) reserve(key string, j *Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.keys[key]; busy {
		return false
	}
	r.keys[key] = j.ID
	r.byID[j.ID] = j
	return true
}

func (r *registry) release(j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, j.ID)
	for k, id := range r.keys {
		if id == j.ID {
			delete(r.keys, k)
		}
	}
}

func (r *registry) list() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Job, 0, len(r.byID))
	for _, j := range r.byID {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].StartedAt.Before(out[b].StartedAt) })
	return out
}
