package notify

import (
	"context"
	"slices"
	"time"

	"github.com/wolfman30/studio-leads/internal/leads"
)

// Channel delivers a lead to staff over one transport.
type Channel interface {
	Name() string
	// IsConfigured reports whether the channel has everything it needs.
	// Unconfigured channels are skipped without a send attempt.
	IsConfigured() bool
	Send(ctx context.Context, sub leads.Submission) Result
}

// Result is what a sender reports for one attempt.
type Result struct {
	Success bool
	Error   error
}

// Failed builds a failed Result.
func Failed(err error) Result {
	return Result{Error: err}
}

// Status is the final outcome of one channel for one lead.
type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome is the per-channel entry of a Report.
type Outcome struct {
	Status   Status
	Error    error
	Duration time.Duration
}

// Report maps channel name to its outcome.
type Report map[string]Outcome

// Sent lists the channels that delivered.
func (r Report) Sent() []string { return r.with(StatusSent) }

// Failed lists the channels that tried and failed.
func (r Report) Failed() []string { return r.with(StatusFailed) }

// Skipped lists the channels that were not configured.
func (r Report) Skipped() []string { return r.with(StatusSkipped) }

func (r Report) with(status Status) []string {
	var names []string
	for name, out := range r {
		if out.Status == status {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
