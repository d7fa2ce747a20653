package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kazimoto/shule/core"
)

// Collection is the document-store collection name students live in; the
// recovery store uses it to route restores back here.
const Collection = "students"

type Student struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	ClassName     string    `json:"class_name,omitempty"`
	GuardianEmail string    `json:"guardian_email,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to enroll a Student.
type NewStudent struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"omitempty,email"`
	ClassName     string `json:"class_name"`
	GuardianEmail string `json:"guardian_email" validate:"omitempty,email"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.ClassName = core.CleanString(ns.ClassName)
	ns.GuardianEmail = core.CleanString(ns.GuardianEmail, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify a Student.
// Empty fields keep their current value.
type UpdateStudent struct {
	Name          string `json:"name"`
	Email         string `json:"email" validate:"omitempty,email"`
	ClassName     string `json:"class_name"`
	GuardianEmail string `json:"guardian_email" validate:"omitempty,email"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if email := core.CleanString(us.Email, true); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}
	if class := core.CleanString(us.ClassName); class != "" {
		us.ClassName = class
	} else {
		us.ClassName = orig.ClassName
	}
	if guardian := core.CleanString(us.GuardianEmail, true); guardian != "" {
		us.GuardianEmail = guardian
	} else {
		us.GuardianEmail = orig.GuardianEmail
	}
	return validate.Struct(us)
}

type QueryFilter struct {
	Search    string `query:"search"`
	ClassName string `query:"class_name"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassName = core.CleanString(qf.ClassName)
}
