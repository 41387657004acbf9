package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// sender pushes an encoded event to one cloud messaging service.
type sender interface {
	Send(ctx context.Context, evt Event, payload []byte) error
}

// senderPublisher adapts a sender to the Publisher interface.
type senderPublisher struct {
	id     string
	typ    string
	sender sender
}

func (p *senderPublisher) ID() string   { return p.id }
func (p *senderPublisher) Type() string { return p.typ }

// Publish encodes evt as JSON and hands it to the sender.
func (p *senderPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.sender.Send(ctx, evt, payload); err != nil {
		return fmt.Errorf("%s send failed: %w", p.typ, err)
	}
	return nil
}

// Close releases the sender's client when it holds one.
func (p *senderPublisher) Close() error {
	if c, ok := p.sender.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// attributes are attached to every message so subscribers can filter.
func attributes(evt Event) map[string]string {
	return map[string]string{
		"event_type": evt.Type,
		"source_id":  evt.SourceID,
		"record_id":  evt.RecordID,
	}
}
