package models

// RoomInfo is the catalog entry for a room, in the shape clients render
// the room picker from.
type RoomInfo struct {
	// ID is the unique room identifier used in switch requests
	ID string `json:"id"`

	// Name is the display name of the room
	Name string `json:"name"`
}

// UserInfo describes one connected user for presence lists.
type UserInfo struct {
	// ID is the connection id for this session
	ID string `json:"id"`

	// Username is the display name chosen at join time
	Username string `json:"username"`

	// CurrentRoom is the room the session is currently a member of
	CurrentRoom string `json:"currentRoom"`
}
