package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/profile"
)

// InitConf installs a self-contained test configuration, bypassing the
// environment so tests are hermetic.
func InitConf() {
	core.Conf = &core.Config{
		AppName:         "Shule",
		Env:             "TEST",
		Build:           "test",
		TestMode:        true,
		SecretKey:       "test-secret-key",
		FrontendBaseURL: "http://localhost:3000",
		DefaultFrom:     "noreply@localhost",
		Invite: core.InviteConfig{
			DefaultExpiryHours: 72,
			MaxExpiryHours:     720,
			AllowedRoles:       []string{profile.RoleTeacher},
		},
		RateLimit: core.RateLimitConfig{MaxBuckets: 4096},
	}
}

func CreateProfile(
	t *testing.T,
	repo profile.Repository,
	id, email, name string,
	roles []string,
	status string,
	writeAccess bool,
) profile.Profile {
	t.Helper()

	tstamp := time.Now().UTC()
	prof := profile.Profile{
		ID:          id,
		Email:       email,
		Name:        name,
		Roles:       roles,
		Status:      status,
		WriteAccess: writeAccess,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	prof, err := repo.CreateProfile(context.Background(), prof)
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return prof
}
