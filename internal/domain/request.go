package domain

// RequestSummary is the slice of a donation request the ledger snapshots at
// settlement time: who owns it and what it is called.
type RequestSummary struct {
	ID         string  `json:"id" db:"id"`
	Title      string  `json:"title" db:"title"`
	OwnerID    string  `json:"owner_id" db:"owner_id"`
	OwnerName  string  `json:"owner_name" db:"owner_name"`
	OwnerEmail *string `json:"owner_email,omitempty" db:"owner_email"`
}
