package domain

import "time"

// User mirrors a profile issued by the external identity provider.
// Rows are created lazily on the first message involving the identifier
// and are never deleted by this subsystem.
type User struct {
	ID        string
	Name      string
	Email     string
	ImageURL  string
	CreatedAt time.Time
}

// PlaceholderName is used for receivers created before their first login.
// Their real profile fields arrive once they authenticate and send.
const PlaceholderName = "User"
