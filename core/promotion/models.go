package promotion

import "time"

// Actions
const (
	ActionPromote = "promote"
	ActionDemote  = "demote"
)

// Record is one entry of the privilege-change audit log. Records are
// append-only: never updated, never deleted.
type Record struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ActorID    string    `json:"actor_id"`
	ActorEmail string    `json:"actor_email"`
	Action     string    `json:"action"` // promote | demote
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}
