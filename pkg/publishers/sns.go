package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsSender struct {
	topicARN string
	client   snsAPI
	log      Logger
}

func newSNSPublisher(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("publisher %q missing sns configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.AWSCredentials)
	if err != nil {
		return nil, err
	}
	s := &snsSender{
		topicARN: cfg.SNS.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}
	return &senderPublisher{id: cfg.ID, typ: cfg.Type, sender: s}, nil
}

func (s *snsSender) Send(ctx context.Context, evt Event, payload []byte) error {
	attrs := make(map[string]types.MessageAttributeValue)
	for k, v := range attributes(evt) {
		if v == "" {
			continue
		}
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	resp, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Subject:           aws.String(subject(evt.Title)),
		Message:           aws.String(string(payload)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("publish to sns: %w", err)
	}
	s.log.DebugObj("sns message sent", "publisher_sns_delivery", map[string]any{
		"record_id":  evt.RecordID,
		"message_id": aws.ToString(resp.MessageId),
	})
	return nil
}

// subject trims title to the 100 character limit SNS puts on subjects.
func subject(title string) string {
	r := []rune(title)
	if len(r) > 100 {
		r = r[:100]
	}
	if len(r) == 0 {
		return "new record"
	}
	return string(r)
}
