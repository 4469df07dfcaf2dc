// Package model defines the shared types of the address resolution pipeline.
package model

// Status is the disposition of a row in the batch pipeline. Pending is the
// initial state; every other status is terminal for a processing pass.
type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusUpdated     Status = "updated"
	StatusNeedsReview Status = "needs_review"
	StatusNotFound    Status = "not_found"
	StatusSkipped     Status = "skipped"
)

// Terminal reports whether the status ends processing for the row.
func (s Status) Terminal() bool {
	return s != StatusPending && s != ""
}
