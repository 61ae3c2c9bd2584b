package supervisor

import (
	"errors"
	"os"
	"sync"
)

// Killer is a started process that can be force-killed.
type Killer interface {
	Kill() error
}

// Registry holds the processes started for the current slot.
type Registry struct {
	mu    sync.Mutex
	procs []Killer
}

// Add registers a process.
func (r *Registry) Add(k Killer) {
	r.mu.Lock()
	r.procs = append(r.procs, k)
	r.mu.Unlock()
}

// Len returns the number of registered processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}

// KillAll force-kills every registered process and empties the registry,
// whether or not the kills succeeded. Errors are passed to onErr when non-nil.
func (r *Registry) KillAll(onErr func(error)) (killed, failed int) {
	r.mu.Lock()
	procs := r.procs
	r.procs = nil
	r.mu.Unlock()

	for _, p := range procs {
		err := p.Kill()
		// Already exited counts as killed
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			failed++
			if onErr != nil {
				onErr(err)
			}
			continue
		}
		killed++
	}
	return killed, failed
}
