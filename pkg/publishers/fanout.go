package publishers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samvad-hq/saucerest/internal/logger"
)

// Fanout dispatches job events to every subscribed publisher concurrently.
type Fanout struct {
	publishers []Publisher
	log        logger.Logger
}

// NewFanout builds a dispatcher over pubs. Nil entries are dropped.
func NewFanout(pubs []Publisher, log logger.Logger) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			cp = append(cp, p)
		}
	}
	return &Fanout{publishers: cp, log: logger.OrNop(log)}
}

// Publish delivers evt to each publisher subscribed to its action and
// returns how many accepted it. Failures are joined in publisher order.
func (f *Fanout) Publish(ctx context.Context, evt JobEvent) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	errs := make([]error, len(f.publishers))
	attempted := make([]bool, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		if s, ok := p.(Subscriber); ok && !s.Subscribes(evt.Action) {
			continue
		}
		attempted[i] = true
		wg.Add(1)
		go func(i int, p Publisher) {
			defer wg.Done()
			if err := p.Publish(ctx, evt); err != nil {
				errs[i] = fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
			}
		}(i, p)
	}
	wg.Wait()

	delivered, skipped := 0, 0
	for i := range f.publishers {
		switch {
		case !attempted[i]:
			skipped++
		case errs[i] == nil:
			delivered++
		}
	}
	err := errors.Join(errs...)
	f.log.DebugObj("job event dispatched", "job_event_fanout", map[string]any{
		"job_id":    evt.JobID,
		"action":    evt.Action,
		"delivered": delivered,
		"skipped":   skipped,
		"failed":    len(f.publishers) - delivered - skipped,
	})
	return delivered, err
}

// Size returns the number of publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases publishers that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.publishers)
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if c, ok := p.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
