package model

// Envelope is the response wrapper used by every backend endpoint.
type Envelope[T any] struct {
	Success    bool                `json:"success"`
	Data       T                   `json:"data"`
	Message    string              `json:"message,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

// Pagination is returned by paginated endpoints.  It is authoritative: the
// client never computes page counts itself.
type Pagination struct {
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	From        int `json:"from"`
	To          int `json:"to"`
}

// Page is a list plus the server's pagination block.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}
