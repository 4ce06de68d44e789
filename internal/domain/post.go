package domain

import "time"

// Post is a journal entry. ID and Date derive from the post file path.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Date        string     `json:"date"` // e.g. "December 8, 2025"
	Time        string     `json:"time"` // e.g. "9:23 AM"
	Location    string     `json:"location"`
	Content     string     `json:"content"`
	Sources     []string   `json:"sources,omitempty"`
	FollowUps   []FollowUp `json:"followups,omitempty"`
	PublishedOn time.Time  `json:"-"`
}

// FollowUp is a later thought appended to a post; only shown on the post page.
type FollowUp struct {
	Date    string   `json:"date" yaml:"date"`
	Time    string   `json:"time,omitempty" yaml:"time"`
	Content string   `json:"content" yaml:"content"`
	Sources []string `json:"sources,omitempty" yaml:"sources"`
}
