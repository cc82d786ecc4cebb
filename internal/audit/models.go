package audit

import "time"

// Event is an append-only record of an authentication-relevant action.
// Events are never updated or deleted.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// Username is the subject of the event. For failed logins it is the
	// username that was attempted, which may not exist.
	Username string `json:"username,omitempty" db:"username"`

	// Actor is the authenticated user causing the event when it differs
	// from Username (e.g. a superuser creating an account).
	Actor string `json:"actor,omitempty" db:"actor"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`
	Message   string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventLoginSucceeded  EventType = "login_succeeded"
	EventLoginFailed     EventType = "login_failed"
	EventLoginThrottled  EventType = "login_throttled"
	EventTokenRefreshed  EventType = "token_refreshed"
	EventPasswordChanged EventType = "password_changed"
	EventUserCreated     EventType = "user_created"
)
