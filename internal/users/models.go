package users

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Levels are the roles a registering user can pick from.
const (
	LevelAdmin = "1"
	LevelUser  = "2"
)

// Levels maps each level key to its display label.
var Levels = map[string]string{
	LevelAdmin: "Admin",
	LevelUser:  "User",
}

type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Level           string     `json:"level"`
	IsAdmin         bool       `json:"is_admin"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (u *User) Verified() bool { return u.EmailVerifiedAt != nil }

// Props is the user as shared with every page.
func (u *User) Props() map[string]any {
	return map[string]any{
		"id":       u.ID,
		"name":     u.Name,
		"email":    u.Email,
		"is_admin": u.IsAdmin,
		"verified": u.Verified(),
	}
}
