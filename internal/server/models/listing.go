// Package models holds the board's persisted entities.
package models

// Status is the lifecycle state of a listing. It only ever moves from
// StatusOpen to StatusCompleted.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
)

// Label is the human-readable form shown on the board.
func (s Status) Label() string {
	switch s {
	case StatusOpen:
		return "Seeking"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// ListingFields are the caller-supplied text fields of a listing. None are
// required; empty strings are stored as given.
type ListingFields struct {
	Category    string `db:"category"`
	Brand       string `db:"brand"`
	CurrentSide string `db:"current_side"`
	CurrentSize string `db:"current_size"`
	WantedSide  string `db:"wanted_side"`
	WantedSize  string `db:"wanted_size"`
	Condition   string `db:"condition"`
	Description string `db:"description"`
}

// Listing is one row of the posts table.
type Listing struct {
	ID int64 `db:"id"`
	ListingFields
	// Image is the stored file name, nil when the listing has no picture.
	Image  *string `db:"image"`
	Status Status  `db:"status"`
}

func (l *Listing) Completed() bool {
	return l.Status == StatusCompleted
}
