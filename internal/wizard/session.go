package wizard

import (
	"context"
	"errors"
	"sync"
)

// SubmitFunc submits a completed state.
type SubmitFunc func(ctx context.Context, st *State) error

// Session ties a State to its Store across an authentication round trip.
type Session struct {
	store Store

	mu            sync.Mutex
	autoSubmitted bool
}

// NewSession wraps store.
func NewSession(store Store) *Session {
	return &Session{store: store}
}

// Suspend saves st before the user is sent away to sign in.
func (s *Session) Suspend(ctx context.Context, st *State) error {
	return s.store.Save(ctx, st)
}

// Resume restores the saved state, or starts a new one. When the saved
// state had reached the guest step with guests entered, submit is called
// once per Session; later calls only restore.
func (s *Session) Resume(ctx context.Context, submit SubmitFunc) (st *State, submitted bool, err error) {
	st, err = s.store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return New(), false, nil
	}
	if err != nil {
		return New(), false, err
	}

	if !st.ReadyToSubmit() || submit == nil {
		return st, false, nil
	}

	s.mu.Lock()
	if s.autoSubmitted {
		s.mu.Unlock()
		return st, false, nil
	}
	s.autoSubmitted = true
	s.mu.Unlock()

	return st, true, submit(ctx, st)
}

// Complete clears the saved state after a successful submission.
func (s *Session) Complete(ctx context.Context) error {
	return s.store.Clear(ctx)
}
