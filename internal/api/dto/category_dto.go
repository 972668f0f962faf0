package dto

import "time"

// CategoryRequest payload for create/update.
type CategoryRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SlaHours    int    `json:"sla_hours"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// CategoryResponse catalog entry.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SlaHours    int       `json:"sla_hours"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
