package profile

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kazimoto/shule/core"
)

// Roles
const (
	RoleParent  = "parent"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
	// RoleSuperAdmin is a distinct tier: it satisfies any admin-level check but
	// is never granted or revoked through the ordinary promotion path.
	RoleSuperAdmin = "super_admin"
)

// Statuses
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusPending   = "pending"
)

var (
	AllRoles = []string{RoleParent, RoleTeacher, RoleAdmin, RoleSuperAdmin}

	rolePriorities = map[string]int{
		RoleSuperAdmin: 40,
		RoleAdmin:      30,
		RoleTeacher:    20,
		RoleParent:     10,
	}

	allRolesTag  = "allroles"
	allRolesText = "invalid roles"
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

// Profile is the persisted record of a principal. Credentials live with the
// external identity provider; only authorization state is kept here.
type Profile struct {
	ID          string    `json:"uid"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Roles       []string  `json:"roles"`
	Status      string    `json:"status"`
	WriteAccess bool      `json:"write_access"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (p *Profile) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Profile) IsAdmin() bool {
	return p.HasRole(RoleAdmin) || p.HasRole(RoleSuperAdmin)
}

func (p *Profile) IsSuperAdmin() bool {
	return p.HasRole(RoleSuperAdmin)
}

func (p *Profile) IsActive() bool {
	return p.Status == StatusActive
}

// NewProfile contains information needed to provision a Profile.
type NewProfile struct {
	ID    string   `json:"uid" validate:"required"`
	Email string   `json:"email" validate:"required,email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles" validate:"required,min=1,allroles"`
}

func (np *NewProfile) Validate(validate *validator.Validate) error {
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Name = core.CleanString(np.Name)
	if np.Name == "" {
		// provisional display name: the email's local part
		np.Name = strings.SplitN(np.Email, "@", 2)[0]
	}
	return validate.Struct(np)
}

// RegisterValidators registers profile-specific validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, translator, allRolesTag, allRolesText)
}

// allRolesValidation checks that all roles provided are valid known roles.
func allRolesValidation(fl validator.FieldLevel) bool {
	if roles, ok := fl.Field().Interface().([]string); ok {
		for _, role := range roles {
			if RolePriority(role) == 0 {
				return false
			}
		}
		return true
	}
	return false
}
