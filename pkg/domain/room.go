package domain

// Room is a bookable meeting room. It belongs to exactly one Location,
// referenced by LocationID; the embedded Location is a read-only projection
// the API attaches on list responses.
type Room struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	LocationID  int64     `json:"location_id"`
	Capacity    int       `json:"capacity,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	Location    *Location `json:"location,omitempty"`
}
