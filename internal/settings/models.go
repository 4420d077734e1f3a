package settings

import "time"

const (
	KeyPasswordResetEnabled = "password_reset_enabled"
	KeyRegistrationEnabled  = "registration_enabled"
)

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
