package runner

import (
	"context"
	"time"
)

// pacer spaces repeated executions at a fixed rate using a leaky bucket:
// each call to next reserves the following slot, and a caller that fell
// behind schedule runs immediately without building up a burst.
type pacer struct {
	interval time.Duration
	slot     time.Time
	now      func() time.Time
}

func newPacer(perSecond float64) *pacer {
	return &pacer{
		interval: time.Duration(float64(time.Second) / perSecond),
		now:      time.Now,
	}
}

// next returns the start time of the next slot and reserves it.
func (p *pacer) next() time.Time {
	now := p.now()
	if p.slot.Before(now) {
		p.slot = now
	}
	at := p.slot
	p.slot = p.slot.Add(p.interval)
	return at
}

// wait blocks until the next slot or until ctx is done.
func (p *pacer) wait(ctx context.Context) error {
	delay := time.Until(p.next())
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
