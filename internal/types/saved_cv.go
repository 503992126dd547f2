package types

import "time"

// SavedCV is the summary row of a résumé in the saved list.
type SavedCV struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Template     string    `json:"template"`
	LastModified time.Time `json:"lastModified"`
	CreatedAt    time.Time `json:"createdAt"`
	IsComplete   bool      `json:"isComplete"`
}
