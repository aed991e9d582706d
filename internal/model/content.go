package model

import "time"

// Poll is an opinion poll shown on the public site.
type Poll struct {
	ID         int64        `json:"id"`
	Question   string       `json:"question"`
	Options    []PollOption `json:"options"`
	IsActive   bool         `json:"is_active"`
	EndsAt     *time.Time   `json:"ends_at,omitempty"`
	TotalVotes int          `json:"total_votes"`
}

// PollOption is one answer of a Poll.
type PollOption struct {
	ID    int64  `json:"id"`
	Text  string `json:"option_text"`
	Votes int    `json:"votes_count"`
}

// News is an article managed from the admin back-office.
type News struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Content     string     `json:"content"`
	Image       string     `json:"image,omitempty"`
	Category    string     `json:"category,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
