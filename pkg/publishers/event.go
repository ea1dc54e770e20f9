package publishers

import (
	"time"

	"github.com/gamedex-hq/gamedex-catalog-sync/internal/domain"
)

// Event represents the payload published downstream after a job run.
type Event struct {
	JobID     string              `json:"job_id"`
	JobName   string              `json:"job_name,omitempty"`
	Report    domain.ImportReport `json:"report"`
	EmittedAt time.Time           `json:"emitted_at"`
}

// NewEvent constructs an Event for the given job + report.
func NewEvent(jobID, jobName string, report domain.ImportReport) Event {
	return Event{
		JobID:     jobID,
		JobName:   jobName,
		Report:    report,
		EmittedAt: time.Now().UTC(),
	}
}
