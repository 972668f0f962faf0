package domain

import "time"

// Category is a catalog entry tickets are filed under. The catalog is
// owned by the admin screens; the lifecycle engine reads active
// entries as matcher candidates.
type Category struct {
	ID          string
	Code        string
	Name        string
	Description string
	SlaHours    int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
