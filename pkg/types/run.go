package types

import "time"

// Run records one generation invocation.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Mode      string    `json:"mode"`
	Status    string    `json:"status"`
	Targets   int       `json:"targets"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft stores one target's latest generated document.
type Draft struct {
	RunID       string    `json:"run_id"`
	Target      string    `json:"target"`
	Attempts    int       `json:"attempts"`
	Status      string    `json:"status"`
	Content     string    `json:"content"`
	Diagnostics string    `json:"diagnostics"`
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"created_at"`
}
