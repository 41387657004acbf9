package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Fanout publishes every event to each of its publishers in order. A failing
// sink does not stop delivery to the rest.
type Fanout struct {
	pubs []Publisher
	log  Logger
}

// NewFanout wraps pubs. A Fanout with no publishers is a no-op.
func NewFanout(log Logger, pubs ...Publisher) *Fanout {
	return &Fanout{pubs: pubs, log: ensureLogger(log)}
}

// Len returns the number of wrapped publishers.
func (f *Fanout) Len() int {
	if f == nil {
		return 0
	}
	return len(f.pubs)
}

// Publish sends evt to all publishers and joins their errors.
func (f *Fanout) Publish(ctx context.Context, evt Event) error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.pubs {
		if err := p.Publish(ctx, evt); err != nil {
			f.log.WarnObj("publisher failed", "publisher_error", map[string]any{
				"publisher_id": p.ID(),
				"type":         p.Type(),
				"record_id":    evt.RecordID,
				"error":        err.Error(),
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", p.ID(), err))
			continue
		}
		f.log.DebugObj("event published", "publisher_delivered", map[string]any{
			"publisher_id": p.ID(),
			"record_id":    evt.RecordID,
		})
	}
	return errors.Join(errs...)
}

// Close releases every publisher that holds resources, in reverse order.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for i := len(f.pubs) - 1; i >= 0; i-- {
		c, ok := f.pubs[i].(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher %s: %w", f.pubs[i].ID(), err))
		}
	}
	return errors.Join(errs...)
}
