package dto

// Page is one window of a READ result.
type Page[T any] struct {
	Items      []T    `json:"items"`
	Total      int    `json:"total"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
	NextOffset *int   `json:"next_offset,omitempty"`
	NextToken  string `json:"next_token,omitempty"`
}
