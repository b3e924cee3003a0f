package models

import "time"

// Notification is a read-only alert from the result service.
type Notification struct {
	ID        int64      `json:"id"`
	Message   string     `json:"message"`
	Title     string     `json:"title,omitempty"`
	IsRead    bool       `json:"is_read"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
