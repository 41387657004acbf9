package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsSender struct {
	queueURL string
	groupID  string
	client   sqsAPI
	log      Logger
}

func newSQSPublisher(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("publisher %q missing sqs configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.AWSCredentials)
	if err != nil {
		return nil, err
	}
	s := &sqsSender{
		queueURL: cfg.SQS.QueueURL,
		groupID:  cfg.SQS.MessageGroupID,
		client:   sqs.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}
	return &senderPublisher{id: cfg.ID, typ: cfg.Type, sender: s}, nil
}

func (s *sqsSender) Send(ctx context.Context, evt Event, payload []byte) error {
	attrs := make(map[string]types.MessageAttributeValue)
	for k, v := range attributes(evt) {
		if v == "" {
			continue
		}
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: attrs,
	}
	if s.groupID != "" {
		input.MessageGroupId = aws.String(s.groupID)
		input.MessageDeduplicationId = aws.String(evt.SourceID + ":" + evt.RecordID)
	}

	resp, err := s.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs message sent", "publisher_sqs_delivery", map[string]any{
		"record_id":  evt.RecordID,
		"message_id": aws.ToString(resp.MessageId),
	})
	return nil
}
