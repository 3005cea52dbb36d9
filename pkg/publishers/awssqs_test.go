package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/samvad-hq/saucerest/internal/domain"
	"github.com/samvad-hq/saucerest/internal/logger"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSPublisherSendSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   client,
		log:      logger.NopLogger{},
	}

	err := pub.Publish(context.Background(), NewJobEvent("fakeuser", "job-1", domain.JobActionPass).WithPassed(true))
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["job_id"]
	if !ok || aws.ToString(attr.StringValue) != "job-1" {
		t.Fatalf("job_id attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	body := aws.ToString(client.input.MessageBody)
	for _, part := range []string{`"job_id":"job-1"`, `"action":"pass"`, `"passed":true`} {
		if !strings.Contains(body, part) {
			t.Fatalf("MessageBody missing %s: %s", part, body)
		}
	}
}

func TestSQSPublisherSkipsEmptyAttributes(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "queue", queueURL: "q", client: client, log: logger.NopLogger{}}

	if err := pub.Publish(context.Background(), JobEvent{JobID: "j", Action: domain.JobActionStop}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, ok := client.input.MessageAttributes["username"]; ok {
		t.Fatalf("empty username should not become an attribute")
	}
	if client.input.MessageGroupId != nil {
		t.Fatalf("standard queues take no message group")
	}
}

func TestSQSPublisherSendError(t *testing.T) {
	client := &fakeSQSClient{err: errors.New("boom")}
	pub := &sqsPublisher{
		queueURL: "https://example.com/queue",
		client:   client,
		log:      logger.NopLogger{},
	}

	if err := pub.Publish(context.Background(), JobEvent{JobID: "a1"}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestSQSPublisherFIFOGroupsByJob(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "queue", queueURL: "https://sqs/jobs.fifo", fifo: true, client: client, log: logger.NopLogger{}}

	evt := NewJobEvent("fakeuser", "job-1", domain.JobActionPass).WithPassed(true)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(client.input.MessageGroupId); got != "job-1" {
		t.Fatalf("MessageGroupId = %q", got)
	}
	if got := aws.ToString(client.input.MessageDeduplicationId); got != evt.Key() {
		t.Fatalf("MessageDeduplicationId = %q, want %q", got, evt.Key())
	}
	if got := aws.ToString(client.input.MessageAttributes["passed"].StringValue); got != "true" {
		t.Fatalf("passed attribute = %q", got)
	}
}

func TestDedupIDIsBounded(t *testing.T) {
	evt := NewJobEvent(strings.Repeat("u", 200), "job", domain.JobActionStop)
	if got := dedupID(evt); len(got) != 128 || !strings.HasSuffix(evt.Key(), got) {
		t.Fatalf("dedupID = %q (%d)", got, len(got))
	}
}
