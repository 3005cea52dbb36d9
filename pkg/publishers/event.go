package publishers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/samvad-hq/saucerest/internal/domain"
)

// JobEvent represents a job state change published downstream.
type JobEvent struct {
	JobID      string           `json:"job_id"`
	Username   string           `json:"username"`
	Action     domain.JobAction `json:"action"`
	Passed     *bool            `json:"passed,omitempty"`
	Updates    map[string]any   `json:"updates,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewJobEvent constructs a JobEvent stamped with the current time.
func NewJobEvent(username, jobID string, action domain.JobAction) JobEvent {
	return JobEvent{
		JobID:      jobID,
		Username:   username,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
}

// WithPassed returns a copy of e carrying the pass/fail verdict.
func (e JobEvent) WithPassed(passed bool) JobEvent {
	e.Passed = &passed
	return e
}

// Key identifies one occurrence of an event. Sinks use it for deduplication.
func (e JobEvent) Key() string {
	return e.Username + "/" + e.JobID + "/" + string(e.Action) + "/" + strconv.FormatInt(e.OccurredAt.UnixNano(), 10)
}

// payload is the JSON body every sink delivers.
func (e JobEvent) payload() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal job event %s: %w", e.JobID, err)
	}
	return raw, nil
}

// attributes are the routing attributes attached by queue publishers.
// Empty values are left out.
func (e JobEvent) attributes() map[string]string {
	attrs := make(map[string]string, 4)
	for k, v := range map[string]string{
		"job_id":   e.JobID,
		"action":   string(e.Action),
		"username": e.Username,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	if e.Passed != nil {
		attrs["passed"] = strconv.FormatBool(*e.Passed)
	}
	return attrs
}
