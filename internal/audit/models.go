package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block critical flows on audit failures.
type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorSubject is the token subject of the caller causing the event.
	ActorSubject string `json:"actor_subject,omitempty" db:"actor_subject"`

	// IPAddress is the client IP as resolved by gin.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	DrinkID string `json:"drink_id,omitempty" db:"drink_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeDrinkCreated EventType = "drink_created"
	EventTypeDrinkUpdated EventType = "drink_updated"
	EventTypeDrinkDeleted EventType = "drink_deleted"
)

func (t EventType) message() string {
	switch t {
	case EventTypeDrinkCreated:
		return "drink created"
	case EventTypeDrinkUpdated:
		return "drink updated"
	case EventTypeDrinkDeleted:
		return "drink deleted"
	default:
		return string(t)
	}
}
