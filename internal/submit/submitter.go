package submit

import (
	"context"
	"errors"
	"sync"

	"github.com/arosenfeld2003/lockstep/internal/wizard"
)

// Submitter allows one submission at a time. Starting a new one cancels
// the one in flight.
type Submitter struct {
	pipeline *Pipeline

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewSubmitter wraps pipeline.
func NewSubmitter(pipeline *Pipeline) *Submitter {
	return &Submitter{pipeline: pipeline}
}

// Submit runs the pipeline for st, cancelling any earlier submission.
func (s *Submitter) Submit(ctx context.Context, st *wizard.State, observe func(Progress)) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	mine := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == mine {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	res, err := s.pipeline.Run(ctx, st, observe)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		s.mu.Lock()
		superseded := s.seq != mine
		s.mu.Unlock()
		if superseded {
			return Result{}, ErrSuperseded
		}
	}
	return res, err
}

// Close cancels the submission in flight, if any.
func (s *Submitter) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
