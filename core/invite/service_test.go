package invite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/auth"
	"github.com/kazimoto/shule/core/invite"
	"github.com/kazimoto/shule/core/profile"
	emailsvc "github.com/kazimoto/shule/services/email"
	inmemdb "github.com/kazimoto/shule/storage/database/inmem"
	testutil "github.com/kazimoto/shule/tests"
)

func setup(t *testing.T) (*invite.Service, invite.Repository, profile.Repository) {
	t.Helper()
	testutil.InitConf()

	db := inmemdb.Open()
	profileRepo := inmemdb.NewProfileRepository(db)
	inviteRepo := inmemdb.NewInviteRepository(db)
	svc := invite.NewService(inviteRepo, profile.NewService(profileRepo), emailsvc.NewConsoleServiceMock())
	return svc, inviteRepo, profileRepo
}

func verifiedCaller(uid, email string) auth.Auth {
	return auth.Auth{Claims: auth.Claims{UID: uid, Email: email, EmailVerified: true}}
}

func TestService_Issue(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	validate, translator := core.NewValidator()
	invite.RegisterValidators(validate, translator)

	data := invite.NewInvite{Email: "Musa@Test.CD", Role: profile.RoleTeacher}
	if err := data.Validate(validate); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if data.ExpiresInHours != core.Conf.Invite.DefaultExpiryHours {
		t.Errorf("Validate() ExpiresInHours = %d, want default %d", data.ExpiresInHours, core.Conf.Invite.DefaultExpiryHours)
	}

	inv, err := svc.Issue(ctx, data, "admin-1")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if inv.Token == "" {
		t.Error("Issue() returned no token")
	}
	if inv.ID == inv.Token {
		t.Error("Issue() token must differ from the invite id")
	}
	if inv.Status != invite.StatusPending {
		t.Errorf("Issue() Status = %q, want %q", inv.Status, invite.StatusPending)
	}
	if inv.Email != "musa@test.cd" {
		t.Errorf("Issue() Email = %q, want lowered", inv.Email)
	}
	wantExpiry := inv.CreatedAt.Add(time.Duration(data.ExpiresInHours) * time.Hour)
	if !inv.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("Issue() ExpiresAt = %v, want %v", inv.ExpiresAt, wantExpiry)
	}

	// the invite notification went out
	var sent bool
	for _, msg := range emailsvc.SentMessages {
		for _, to := range msg.To {
			if to.Address == inv.Email {
				sent = true
			}
		}
	}
	if !sent {
		t.Error("Issue() did not email the invitee")
	}

	// disallowed role is rejected up-front
	bad := invite.NewInvite{Email: "musa@test.cd", Role: profile.RoleSuperAdmin}
	if err = bad.Validate(validate); err == nil {
		t.Error("Validate() accepted a role outside the allow-list")
	}

	// over-long expiry is rejected
	long := invite.NewInvite{Email: "musa@test.cd", Role: profile.RoleTeacher, ExpiresInHours: core.Conf.Invite.MaxExpiryHours + 1}
	if err = long.Validate(validate); err == nil {
		t.Error("Validate() accepted an expiry beyond the maximum")
	}
}

func TestService_Verify(t *testing.T) {
	svc, inviteRepo, _ := setup(t)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, invite.NewInvite{Email: "musa@test.cd", Role: profile.RoleTeacher, ExpiresInHours: 1}, "admin-1")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	got, err := svc.Verify(ctx, inv.Token)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.Token != "" {
		t.Error("Verify() leaked the raw token")
	}
	if got.Email != inv.Email || got.Role != inv.Role {
		t.Errorf("Verify() = %+v, want email/role of the issued invite", got)
	}

	if _, err = svc.Verify(ctx, "no-such-token"); errors.Cause(err) != invite.ErrNotFound {
		t.Errorf("Verify(unknown) error = %v, want ErrNotFound", err)
	}

	// an expired invite is indistinguishable from a missing one
	expired := invite.Invite{
		ID:        uuid.New().String(),
		Token:     "expired-token",
		Email:     "late@test.cd",
		Role:      profile.RoleTeacher,
		Status:    invite.StatusPending,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	if _, err = inviteRepo.CreateInvite(ctx, expired); err != nil {
		t.Fatalf("CreateInvite() failed: %v", err)
	}
	if _, err = svc.Verify(ctx, expired.Token); errors.Cause(err) != invite.ErrNotFound {
		t.Errorf("Verify(expired) error = %v, want ErrNotFound", err)
	}
}

func TestService_Accept(t *testing.T) {
	svc, _, profileRepo := setup(t)
	ctx := context.Background()

	issue := func(t *testing.T, email string) invite.Invite {
		t.Helper()
		inv, err := svc.Issue(ctx, invite.NewInvite{Email: email, Role: profile.RoleTeacher, ExpiresInHours: 1}, "admin-1")
		if err != nil {
			t.Fatalf("Issue() failed: %v", err)
		}
		return inv
	}

	t.Run("provisions a brand new profile", func(t *testing.T) {
		inv := issue(t, "neema@test.cd")

		prof, err := svc.Accept(ctx, inv.Token, verifiedCaller("uid-neema", "Neema@Test.CD"))
		if err != nil {
			t.Fatalf("Accept() failed: %v", err)
		}
		if prof.ID != "uid-neema" || prof.Email != "neema@test.cd" {
			t.Errorf("Accept() profile = %+v, want provisioned for the caller", prof)
		}
		if prof.Name != "neema" {
			t.Errorf("Accept() Name = %q, want email local part", prof.Name)
		}
		if !prof.HasRole(profile.RoleTeacher) {
			t.Error("Accept() did not grant the invited role")
		}
		if prof.Status != profile.StatusActive || !prof.WriteAccess {
			t.Errorf("Accept() Status/WriteAccess = %q/%v, want active with write access", prof.Status, prof.WriteAccess)
		}

		// second redemption observes no pending invite
		if _, err = svc.Accept(ctx, inv.Token, verifiedCaller("uid-neema", "neema@test.cd")); errors.Cause(err) != invite.ErrNotFound {
			t.Errorf("Accept(again) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("appends role to an existing profile", func(t *testing.T) {
		prof := testutil.CreateProfile(t, profileRepo, "uid-asha", "asha@test.cd", "Asha",
			[]string{profile.RoleParent}, profile.StatusActive, true)
		inv := issue(t, prof.Email)

		caller := verifiedCaller(prof.ID, prof.Email)
		caller.Profile = &prof

		got, err := svc.Accept(ctx, inv.Token, caller)
		if err != nil {
			t.Fatalf("Accept() failed: %v", err)
		}
		if !got.HasRole(profile.RoleParent) || !got.HasRole(profile.RoleTeacher) {
			t.Errorf("Accept() Roles = %v, want parent+teacher", got.Roles)
		}
	})

	t.Run("email binding is enforced, case-insensitively", func(t *testing.T) {
		inv := issue(t, "omar@test.cd")

		if _, err := svc.Accept(ctx, inv.Token, verifiedCaller("uid-x", "someone.else@test.cd")); errors.Cause(err) != invite.ErrEmailMismatch {
			t.Errorf("Accept(wrong email) error = %v, want ErrEmailMismatch", err)
		}

		// matching but differently-cased email is fine
		if _, err := svc.Accept(ctx, inv.Token, verifiedCaller("uid-omar", "OMAR@test.cd")); err != nil {
			t.Errorf("Accept(cased email) failed: %v", err)
		}
	})

	t.Run("unverified email is rejected", func(t *testing.T) {
		inv := issue(t, "zawadi@test.cd")

		caller := verifiedCaller("uid-zawadi", "zawadi@test.cd")
		caller.Claims.EmailVerified = false
		if _, err := svc.Accept(ctx, inv.Token, caller); errors.Cause(err) != invite.ErrEmailUnverified {
			t.Errorf("Accept(unverified) error = %v, want ErrEmailUnverified", err)
		}
	})

	t.Run("non-active account cannot redeem", func(t *testing.T) {
		prof := testutil.CreateProfile(t, profileRepo, "uid-held", "held@test.cd", "Held",
			[]string{profile.RoleParent}, profile.StatusSuspended, true)
		inv := issue(t, prof.Email)

		caller := verifiedCaller(prof.ID, prof.Email)
		caller.Profile = &prof
		if _, err := svc.Accept(ctx, inv.Token, caller); errors.Cause(err) != invite.ErrAccountBlocked {
			t.Errorf("Accept(suspended) error = %v, want ErrAccountBlocked", err)
		}
	})
}

func TestService_Query(t *testing.T) {
	svc, inviteRepo, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, invite.NewInvite{Email: "a@test.cd", Role: profile.RoleTeacher, ExpiresInHours: 1}, "admin-1"); err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	stale := invite.Invite{
		ID:        uuid.New().String(),
		Token:     "stale-token",
		Email:     "b@test.cd",
		Role:      profile.RoleTeacher,
		Status:    invite.StatusPending,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	if _, err := inviteRepo.CreateInvite(ctx, stale); err != nil {
		t.Fatalf("CreateInvite() failed: %v", err)
	}

	invites, err := svc.Query(ctx)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(invites) != 2 {
		t.Fatalf("Query() returned %d invites, want 2", len(invites))
	}
	for _, inv := range invites {
		if inv.Token != "" {
			t.Error("Query() leaked a raw token")
		}
		switch inv.Email {
		case "a@test.cd":
			if inv.Status != invite.StatusPending {
				t.Errorf("Query() live invite Status = %q, want pending", inv.Status)
			}
		case "b@test.cd":
			if inv.Status != invite.StatusExpired {
				t.Errorf("Query() stale invite Status = %q, want computed expired", inv.Status)
			}
		}
	}
}
