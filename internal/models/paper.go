package models

import "time"

// Presentation modes accepted for a paper.
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// Paper is a submitted conference paper. Papers are created by submission
// intake and are read-only for the scheduler.
type Paper struct {
	ID        string    `db:"id" json:"id"`
	PaperID   int64     `db:"paper_id" json:"paper_id"`
	Email     string    `db:"email" json:"email"`
	Contact   string    `db:"contact" json:"contact"`
	Title     string    `db:"title" json:"title"`
	Mode      string    `db:"mode" json:"mode"`
	Track     string    `db:"track" json:"track"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PaperFilter describes query params for listing papers.
type PaperFilter struct {
	Track       string
	Unscheduled bool
	Page        int
	PageSize    int
}
