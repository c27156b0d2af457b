package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// SQSAPI is the part of the SQS client the consumer uses.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSConsumer provides methods for consuming messages from SQS queues
type SQSConsumer struct {
	client   SQSAPI
	queueURL string
	wait     int32
}

// NewSQSConsumer creates a new SQS consumer for the given queue URL
func NewSQSConsumer(cfg aws.Config, queueURL string) *SQSConsumer {
	return NewSQSConsumerWithClient(sqs.NewFromConfig(cfg), queueURL)
}

func NewSQSConsumerWithClient(client SQSAPI, queueURL string) *SQSConsumer {
	return &SQSConsumer{client: client, queueURL: queueURL, wait: 20}
}

// MessageHandler is a function that processes an SQS message. A message is
// deleted only when the handler returns nil.
type MessageHandler func(ctx context.Context, body string) error

// Drain polls until a receive comes back empty and returns how many
// messages were handled successfully.
func (c *SQSConsumer) Drain(ctx context.Context, handler MessageHandler) (int, error) {
	total := 0
	for {
		n, received, err := c.poll(ctx, handler)
		total += n
		if err != nil {
			return total, err
		}
		if received == 0 {
			return total, nil
		}
	}
}

func (c *SQSConsumer) poll(ctx context.Context, handler MessageHandler) (handled, received int, err error) {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     c.wait,
		VisibilityTimeout:   30,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range result.Messages {
		if msg.Body == nil {
			continue
		}
		if err := handler(ctx, *msg.Body); err != nil {
			// Visible again after the visibility timeout.
			zap.L().Warn("Failed to process message", zap.String("message_id", aws.ToString(msg.MessageId)), zap.Error(err))
			continue
		}
		handled++
		if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(c.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil {
			zap.L().Warn("Failed to delete message", zap.String("message_id", aws.ToString(msg.MessageId)), zap.Error(err))
		}
	}
	return handled, len(result.Messages), nil
}

// UnwrapSNS returns the inner message of an SNS notification delivered to
// SQS without raw message delivery. Other bodies come back unchanged.
func UnwrapSNS(body string) string {
	var envelope struct {
		Type    string `json:"Type"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil || envelope.Type != "Notification" {
		return body
	}
	return envelope.Message
}
