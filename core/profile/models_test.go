package profile

import (
	"testing"

	"github.com/kazimoto/shule/core"
)

func TestProfile_roles(t *testing.T) {
	p := Profile{Roles: []string{RoleTeacher, RoleAdmin}, Status: StatusActive}
	if !p.HasRole(RoleTeacher) || p.HasRole(RoleParent) {
		t.Errorf("HasRole() misread roles %v", p.Roles)
	}
	if !p.IsAdmin() || p.IsSuperAdmin() {
		t.Errorf("IsAdmin()/IsSuperAdmin() misread roles %v", p.Roles)
	}
	if !p.IsActive() {
		t.Error("IsActive() = false for active status")
	}

	super := Profile{Roles: []string{RoleSuperAdmin}, Status: StatusSuspended}
	if !super.IsAdmin() || !super.IsSuperAdmin() {
		t.Error("super admin not recognized as admin tier")
	}
	if super.IsActive() {
		t.Error("IsActive() = true for suspended status")
	}
}

func TestMaxRolePriority(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{name: "empty", roles: nil, want: 0},
		{name: "unknown role", roles: []string{"janitor"}, want: 0},
		{name: "single", roles: []string{RoleParent}, want: RolePriority(RoleParent)},
		{name: "highest wins", roles: []string{RoleParent, RoleSuperAdmin, RoleTeacher}, want: RolePriority(RoleSuperAdmin)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxRolePriority(tt.roles); got != tt.want {
				t.Errorf("MaxRolePriority(%v) = %d, want %d", tt.roles, got, tt.want)
			}
		})
	}
}

func TestNewProfile_Validate(t *testing.T) {
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)

	tests := []struct {
		name    string
		np      NewProfile
		wantErr bool
	}{
		{name: "valid", np: NewProfile{ID: "uid-1", Email: "a@test.cd", Roles: []string{RoleParent}}},
		{name: "no id", np: NewProfile{Email: "a@test.cd", Roles: []string{RoleParent}}, wantErr: true},
		{name: "bad email", np: NewProfile{ID: "uid-1", Email: "nope", Roles: []string{RoleParent}}, wantErr: true},
		{name: "no roles", np: NewProfile{ID: "uid-1", Email: "a@test.cd"}, wantErr: true},
		{name: "unknown role", np: NewProfile{ID: "uid-1", Email: "a@test.cd", Roles: []string{"janitor"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.np.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// defaults: email lowered, name falls back to the local part
	np := NewProfile{ID: "uid-1", Email: "Musa.K@Test.CD", Roles: []string{RoleParent}}
	if err := np.Validate(validate); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if np.Email != "musa.k@test.cd" {
		t.Errorf("Validate() Email = %q, want lowered", np.Email)
	}
	if np.Name != "musa.k" {
		t.Errorf("Validate() Name = %q, want email local part", np.Name)
	}
}
