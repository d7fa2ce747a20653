package invite

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kazimoto/shule/core"
)

// Statuses. Only pending and accepted are ever stored; expiry is computed
// from ExpiresAt, never written back.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusExpired  = "expired"
)

var (
	inviteRoleTag  = "inviterole"
	inviteRoleText = "this role is not open for invitation"

	expiryBoundText = "expiry exceeds the allowed maximum"
)

// Invite is a single-use, time-bound grant of a role to an email address.
// Token is the opaque value handed to the invitee; it is distinct from ID so
// the identifier shown to the invitee cannot enumerate other invites.
type Invite struct {
	ID         string    `json:"id"`
	Token      string    `json:"token,omitempty"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	InvitedBy  string    `json:"invited_by"`
	AcceptedBy string    `json:"accepted_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	ExpiresAt  time.Time `json:"expires_at"` // UTC
	AcceptedAt time.Time `json:"accepted_at,omitempty"`
}

func (inv *Invite) Expired(now time.Time) bool {
	return now.After(inv.ExpiresAt)
}

// Usable reports whether the invite can still be redeemed.
func (inv *Invite) Usable(now time.Time) bool {
	return inv.Status == StatusPending && !inv.Expired(now)
}

// EffectiveStatus folds computed expiry into the stored status.
func (inv *Invite) EffectiveStatus(now time.Time) string {
	if inv.Status == StatusPending && inv.Expired(now) {
		return StatusExpired
	}
	return inv.Status
}

// NewInvite contains information needed to issue an Invite.
type NewInvite struct {
	Email          string `json:"email" validate:"required,email"`
	Role           string `json:"role" validate:"required,inviterole"`
	ExpiresInHours int    `json:"expires_in_hours" validate:"omitempty,min=1"`
}

func (ni *NewInvite) Validate(validate *validator.Validate) error {
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	ni.Role = core.CleanString(ni.Role, true /* lower */)

	if ni.ExpiresInHours == 0 {
		ni.ExpiresInHours = core.Conf.Invite.DefaultExpiryHours
	}
	if ni.ExpiresInHours > core.Conf.Invite.MaxExpiryHours {
		return core.NewValidationError(nil, core.FieldError{Field: "expires_in_hours", Error: expiryBoundText})
	}
	return validate.Struct(ni)
}

// RegisterValidators registers invite-specific validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(inviteRoleTag, inviteRoleValidation)
	core.RegisterCustomTranslation(validate, translator, inviteRoleTag, inviteRoleText)
}

// inviteRoleValidation enforces the closed allow-list of invitable roles.
func inviteRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, allowed := range core.Conf.Invite.AllowedRoles {
		if role == allowed {
			return true
		}
	}
	return false
}
