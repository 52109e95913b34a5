package model

import "time"

// Rebook is a single loan record. A row with ReturnedAt == nil is an open
// loan; Return closes it exactly once and the row is kept as history.
type Rebook struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (r Rebook) Open() bool { return r.ReturnedAt == nil }
