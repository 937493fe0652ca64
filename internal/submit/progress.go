package submit

import "sync"

// Progress is the user-visible stage of a submission.
type Progress string

const (
	ProgressIdle          Progress = "idle"
	ProgressConnecting    Progress = "connecting"
	ProgressCreating      Progress = "creating"
	ProgressAddingDetails Progress = "adding-details"
	ProgressFinalizing    Progress = "finalizing"
	ProgressComplete      Progress = "complete"
	ProgressError         Progress = "error"
)

// Terminal reports whether no further progress follows.
func (p Progress) Terminal() bool {
	return p == ProgressComplete || p == ProgressError
}

// tracker forwards changes to an observer. Once it reports error it stays
// there.
type tracker struct {
	mu      sync.Mutex
	current Progress
	observe func(Progress)
}

func newTracker(observe func(Progress)) *tracker {
	return &tracker{current: ProgressIdle, observe: observe}
}

func (t *tracker) set(p Progress) {
	t.mu.Lock()
	if t.current == ProgressError || t.current == p {
		t.mu.Unlock()
		return
	}
	t.current = p
	observe := t.observe
	t.mu.Unlock()

	if observe != nil {
		observe(p)
	}
}

func (t *tracker) get() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
