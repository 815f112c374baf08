package domain

// Page is one window of a paginated reservation listing. A fetch replaces
// the whole window; the client never merges partial updates into it.
type Page struct {
	Items []Reservation `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Pages int           `json:"pages"`
}

// TotalPages returns the page count, deriving it from Total and Size when
// the server omits the pages field.
func (p Page) TotalPages() int {
	if p.Pages > 0 {
		return p.Pages
	}
	if p.Size <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}
