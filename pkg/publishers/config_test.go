package publishers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/saucerest/internal/domain"
)

func writeFile(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadFileEnabledFilter(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    actions: [Pass, " fail "]
    http:
      url: https://example.com/2
  - id: topic
    type: SNS
    sns:
      topic_arn: " arn:aws:sns:us-east-1:123:jobs "
      region: us-east-1
`)

	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	enabled := cat.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "http2" || enabled[1].ID != "topic" {
		t.Fatalf("expected http2 and topic enabled, got %#v", enabled)
	}
	topic, ok := cat.ByID("topic")
	if !ok || topic.Type != TypeSNS || topic.SNS.TopicARN != "arn:aws:sns:us-east-1:123:jobs" {
		t.Fatalf("sns entry not normalized: %#v", topic)
	}
	if enabled[0].HTTP.Method != "POST" || enabled[0].HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %#v", enabled[0].HTTP)
	}
	if !enabled[0].Subscribes(domain.JobActionFail) || enabled[0].Subscribes(domain.JobActionStop) {
		t.Fatalf("actions not normalized: %v", enabled[0].Actions)
	}
	if !topic.Subscribes(domain.JobActionStop) {
		t.Fatalf("an entry without actions subscribes to everything")
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "publishers.json", `{"publishers":[{"id":"ps","type":"gcp_pubsub","gcp_pubsub":{"project_id":"p","topic":"jobs"}}]}`)
	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if all := cat.All(); len(all) != 1 || all[0].GCPPubSub.Topic != "jobs" {
		t.Fatalf("unexpected catalog %#v", all)
	}
}

func TestLoadFileExpandsEnvironment(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "s3cret")
	path := writeFile(t, "publishers.yml", `
publishers:
  - id: hook
    type: http
    http:
      url: https://example.com
      headers:
        Authorization: Bearer ${HOOK_TOKEN}
`)
	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	hook, _ := cat.ByID("hook")
	if got := hook.HTTP.Headers["Authorization"]; got != "Bearer s3cret" {
		t.Fatalf("Authorization = %q", got)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: q
    type: sqs
    sqs: {url: https://sqs/q, region: us-east-1}
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for misspelled sqs key")
	}
}

func TestLoadFileRejectsDuplicatesAndEmpty(t *testing.T) {
	dup := writeFile(t, "publishers.yaml", `
publishers:
  - id: dup
    type: http
    http: {url: https://a}
  - id: dup
    type: http
    http: {url: https://b}
`)
	if _, err := LoadFile(dup); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if _, err := LoadFile(writeFile(t, "empty.yaml", "publishers: []\n")); err == nil {
		t.Fatalf("expected error for empty file")
	}
	if _, err := LoadFile(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]PublisherConfig{
		"http block":     {ID: "h1", Type: TypeHTTP},
		"sqs.region":     {ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "q"}},
		"sns.topic_arn":  {ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "us-east-1"}},
		"project_id":     {ID: "g1", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{Topic: "t"}},
		"id is required": {Type: TypeHTTP},
		"unsupported":    {ID: "k", Type: "kafka"},
		"unknown action": {ID: "a", Type: TypeHTTP, Actions: []domain.JobAction{"archive"}, HTTP: &HTTPPublisherConfig{URL: "u"}},
	}
	for want, cfg := range cases {
		err := cfg.normalize().validate()
		if err == nil {
			t.Fatalf("expected validation error for %#v", cfg)
		}
		if want != "http block" && !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %q", err, want)
		}
	}
}
