package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type pubsubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func newPubSubPublisher(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("publisher %q missing pubsub configuration", cfg.ID)
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	s := &pubsubSender{
		client: client,
		topic:  client.Topic(cfg.PubSub.Topic),
		log:    ensureLogger(log),
	}
	return &senderPublisher{id: cfg.ID, typ: cfg.Type, sender: s}, nil
}

// Close flushes pending messages and closes the client.
func (s *pubsubSender) Close() error {
	s.topic.Stop()
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}

func (s *pubsubSender) Send(ctx context.Context, evt Event, payload []byte) error {
	res := s.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: attributes(evt),
	})
	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	s.log.DebugObj("pubsub message sent", "publisher_pubsub_delivery", map[string]any{
		"record_id":  evt.RecordID,
		"message_id": id,
	})
	return nil
}
