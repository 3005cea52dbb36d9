package domain

import "time"

// UploadRecord is what the upload ledger remembers about a file pushed to
// temporary storage.
type UploadRecord struct {
	Name       string    `json:"name"`
	MD5        string    `json:"md5"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// JobAction names a state change made to a job.
type JobAction string

const (
	JobActionUpdate JobAction = "update"
	JobActionPass   JobAction = "pass"
	JobActionFail   JobAction = "fail"
	JobActionStop   JobAction = "stop"
	JobActionDelete JobAction = "delete"
)

// JobActions lists every action in a stable order.
var JobActions = []JobAction{JobActionUpdate, JobActionPass, JobActionFail, JobActionStop, JobActionDelete}

// Valid reports whether a is a known action.
func (a JobAction) Valid() bool {
	for _, known := range JobActions {
		if a == known {
			return true
		}
	}
	return false
}
