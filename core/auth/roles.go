package auth

import "github.com/kazimoto/shule/core/profile"

// RoleSatisfies reports whether a held role set satisfies a required one.
// The role hierarchy has exactly one rule: super_admin satisfies any check
// that requires admin. No other role implies another, and admin never
// satisfies a super_admin requirement.
func RoleSatisfies(held, required []string) bool {
	if len(required) == 0 {
		return true
	}
	heldSet := make(map[string]struct{}, len(held))
	for _, r := range held {
		heldSet[r] = struct{}{}
	}
	for _, r := range required {
		if _, ok := heldSet[r]; ok {
			return true
		}
		if r == profile.RoleAdmin {
			if _, ok := heldSet[profile.RoleSuperAdmin]; ok {
				return true
			}
		}
	}
	return false
}
