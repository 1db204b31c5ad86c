package domain

import "time"

// AuthEventType names the outcome recorded for a credential operation.
type AuthEventType string

const (
	AuthEventRegister       AuthEventType = "register"
	AuthEventLogin          AuthEventType = "login"
	AuthEventLoginFailed    AuthEventType = "login_failed"
	AuthEventLoginThrottled AuthEventType = "login_throttled"
)

// AuthEvent is a single audit record for a register or login attempt.
type AuthEvent struct {
	Type     AuthEventType `json:"type" bson:"type"`
	UserID   string        `json:"userId,omitempty" bson:"user_id,omitempty"`
	Email    string        `json:"email" bson:"email"`
	RemoteIP string        `json:"remoteIp,omitempty" bson:"remote_ip,omitempty"`
	Success  bool          `json:"success" bson:"success"`
	At       time.Time     `json:"at" bson:"at"`
}
