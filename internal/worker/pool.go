package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/broker"
	"github.com/arosenfeld2003/lockstep/internal/checkpoint"
	"github.com/arosenfeld2003/lockstep/internal/template"
)

// Pool runs a fixed number of workers for every checkpoint type.
type Pool struct {
	Broker  broker.Broker
	RSVPs   RSVPs
	Nudger  Nudger
	PerType int
	Log     zerolog.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	cancel context.CancelFunc
	errs   []error
}

// Start launches the workers and returns once each has subscribed.
func (p *Pool) Start(ctx context.Context) error {
	per := p.PerType
	if per <= 0 {
		per = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	id := 0
	for _, t := range template.CheckpointTypes() {
		for i := 0; i < per; i++ {
			w := &Worker{
				ID:     id,
				Type:   t,
				Broker: p.Broker,
				RSVPs:  p.RSVPs,
				Nudger: p.Nudger,
				Log:    p.Log.With().Str("checkpoint_type", string(t)).Int("worker", id).Logger(),
			}
			id++

			deliveries, err := p.Broker.Consume(ctx, checkpoint.Queue(t), w.consumerTag())
			if err != nil {
				cancel()
				p.wg.Wait()
				return err
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				if err := w.Serve(ctx, deliveries); err != nil && !errors.Is(err, context.Canceled) {
					p.record(err)
				}
			}()
		}
	}
	p.Log.Info().Int("workers", id).Msg("worker pool started")
	return nil
}

func (p *Pool) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

// Shutdown stops every worker and waits for them.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}
