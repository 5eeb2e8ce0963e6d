package models

import "time"

// AssignmentStatus tracks the author's confirmation decision.
type AssignmentStatus int

const (
	StatusPending             AssignmentStatus = 0
	StatusConfirmed           AssignmentStatus = 1
	StatusDenied              AssignmentStatus = 2
	StatusRescheduleRequested AssignmentStatus = 3
)

// String returns the user-facing label for the status.
func (s AssignmentStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusConfirmed:
		return "Confirmed"
	case StatusDenied:
		return "Denied"
	case StatusRescheduleRequested:
		return "Reschedule Requested"
	default:
		return "Unknown"
	}
}

// Assignment binds a paper to a (date, session, time slot) and carries the
// confirmation state. At most one assignment exists per paper.
type Assignment struct {
	ID                  string           `db:"id" json:"id"`
	PaperID             int64            `db:"paper_id" json:"paper_id"`
	Session             string           `db:"session" json:"session"`
	Date                string           `db:"date" json:"date"`
	TimeSlot            string           `db:"time_slot" json:"time_slot"`
	Venue               string           `db:"venue" json:"venue"`
	Track               string           `db:"track" json:"track"`
	Mode                string           `db:"mode" json:"mode"`
	Status              AssignmentStatus `db:"status" json:"status"`
	ConfirmationToken   *string          `db:"confirmation_token" json:"-"`
	ConfirmationExpires *time.Time       `db:"confirmation_expires" json:"confirmation_expires,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

// SlotConflict describes the existing assignment that blocks a proposal.
type SlotConflict struct {
	PaperID  int64  `json:"paper_id"`
	Session  string `json:"session"`
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
}

// SlotConflictError is returned when a proposal collides with a committed
// assignment or with an earlier proposal in the same batch.
type SlotConflictError struct {
	Message  string       `json:"message"`
	Conflict SlotConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *SlotConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
