package domain

import "time"

// Coffee is the optional catering add-on for a reservation.
// Quantity and Description carry meaning only while Requested is true;
// the client nulls them out before submitting otherwise.
type Coffee struct {
	Requested   bool    `json:"requested"`
	Quantity    *int    `json:"quantity,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Reservation is a time-boxed booking of a room.
type Reservation struct {
	ID          int64      `json:"id"`
	RoomID      int64      `json:"room_id"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Coffee      Coffee     `json:"coffee"`
	Responsible *User      `json:"responsible,omitempty"`
	Room        *Room      `json:"room,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}
