package jobs

import (
	"fmt"
	"sync"
)

// Registry is the in-memory mapping from job ID to Job record and the single
// source of truth for job state. It is written by request handlers and the
// Supervisor concurrently; all operations take the internal lock, and the
// lock is never held across process polls or file I/O.
//
// NOTE: Records are kept indefinitely. The stated assumption is "everything
// fits in memory" and callers may read terminal jobs long after completion;
// eviction would need a retention policy that is out of scope here.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
	}
}

// Insert adds a new Job record. IDs are UUIDs generated at submission, so a
// collision indicates a caller bug; it is rejected rather than overwriting
// an existing record.
func (r *Registry) Insert(job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already registered", job.ID)
	}

	r.jobs[job.ID] = job

	return nil
}

// Get returns a copy of the Job with the given ID. The copy reflects the
// latest committed state at the time of the read.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return Job{}, false
	}

	return job.clone(), true
}

// Update applies mutate to the Job with the given id under the Registry
// lock. It reports whether the job exists. mutate must not block; it only
// ever sets record fields.
func (r *Registry) Update(id string, mutate func(*Job)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return false
	}

	mutate(job)

	return true
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.jobs)
}
