package invite

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/auth"
	"github.com/kazimoto/shule/core/profile"
)

var (
	// errors.
	// ErrNotFound is reported uniformly for unknown, accepted and expired
	// tokens so an anonymous caller cannot probe invite state.
	ErrNotFound        = core.NewError(core.KindNotFound, "invite/not-found", "invite not found")
	ErrEmailMismatch   = core.NewError(core.KindConflict, "invite/email-mismatch", "invite was issued for a different email address")
	ErrEmailUnverified = core.NewError(core.KindConflict, "invite/email-unverified", "a verified email address is required to accept an invite")
	ErrAccountBlocked  = core.NewError(core.KindForbidden, "invite/account-blocked", "this account is not eligible to accept invites")
)

type (
	Repository interface {
		CreateInvite(ctx context.Context, inv Invite) (Invite, error)
		GetInviteByToken(ctx context.Context, token string) (Invite, error)
		// AcceptInvite performs the pending→accepted transition as a
		// conditional update: it fails with ErrNotFound unless the invite is
		// still pending, so concurrent redeemers cannot both succeed.
		AcceptInvite(ctx context.Context, id, acceptedBy string, at time.Time) (Invite, error)
		QueryAllInvites(ctx context.Context) ([]Invite, error)
	}

	Service struct {
		repo     Repository
		profiles *profile.Service
		mailSvc  core.EmailService
	}
)

func NewService(repo Repository, profiles *profile.Service, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, profiles: profiles, mailSvc: mailSvc}
}

// Issue creates a pending invite and emails the invitee. The returned Invite
// carries the raw token; this is the only time it is ever exposed.
func (svc *Service) Issue(ctx context.Context, ni NewInvite, issuerID string) (Invite, error) {
	token, err := makeToken()
	if err != nil {
		return Invite{}, errors.Wrap(err, "generating invite token")
	}

	now := nowFunc().UTC()
	inv := Invite{
		ID:        uuid.New().String(),
		Token:     token,
		Email:     ni.Email,
		Role:      ni.Role,
		Status:    StatusPending,
		InvitedBy: issuerID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(ni.ExpiresInHours) * time.Hour),
	}
	inv, err = svc.repo.CreateInvite(ctx, inv)
	if err != nil {
		return Invite{}, errors.Wrap(err, "creating invite")
	}

	svc.sendInviteEmail(inv)
	return inv, nil
}

// Verify is the public, unauthenticated lookup by token.
func (svc *Service) Verify(ctx context.Context, token string) (Invite, error) {
	inv, err := svc.repo.GetInviteByToken(ctx, core.CleanString(token))
	if err != nil {
		return Invite{}, err
	}
	if !inv.Usable(nowFunc()) {
		return Invite{}, ErrNotFound
	}
	inv.Token = "" // the raw token never leaves issuance
	return inv, nil
}

// Accept redeems an invite on behalf of an authenticated caller. The email
// binding, not token secrecy alone, is the authorization boundary: the
// caller's verified email must match the invite's target email.
func (svc *Service) Accept(ctx context.Context, token string, caller auth.Auth) (profile.Profile, error) {
	inv, err := svc.repo.GetInviteByToken(ctx, core.CleanString(token))
	if err != nil {
		return profile.Profile{}, err
	}
	if !inv.Usable(nowFunc()) {
		return profile.Profile{}, ErrNotFound
	}

	if !caller.Claims.EmailVerified {
		return profile.Profile{}, ErrEmailUnverified
	}
	if !strings.EqualFold(caller.Claims.Email, inv.Email) {
		return profile.Profile{}, ErrEmailMismatch
	}
	// an invite must not reactivate a deliberately disabled account
	if caller.Profile != nil && !caller.Profile.IsActive() {
		return profile.Profile{}, ErrAccountBlocked
	}

	// claim the invite before granting anything; the loser of a race observes
	// ErrNotFound here
	inv, err = svc.repo.AcceptInvite(ctx, inv.ID, caller.Claims.UID, nowFunc().UTC())
	if err != nil {
		return profile.Profile{}, err
	}

	if caller.Profile == nil {
		email := core.CleanString(caller.Claims.Email, true /* lower */)
		np := profile.NewProfile{
			ID:    caller.Claims.UID,
			Email: email,
			Name:  strings.SplitN(email, "@", 2)[0],
			Roles: []string{inv.Role},
		}
		prof, err := svc.profiles.Create(ctx, np)
		if err != nil {
			return profile.Profile{}, errors.Wrap(err, "provisioning profile")
		}
		return prof, nil
	}

	if caller.Profile.HasRole(inv.Role) {
		return *caller.Profile, nil
	}
	prof, err := svc.profiles.UpdateRoles(ctx, caller.Profile.ID, append(caller.Profile.Roles, inv.Role))
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "granting role")
	}
	return prof, nil
}

// Query lists all invites for the admin inbox, with computed expiry folded in.
func (svc *Service) Query(ctx context.Context) ([]Invite, error) {
	invites, err := svc.repo.QueryAllInvites(ctx)
	if err != nil {
		return nil, err
	}
	now := nowFunc()
	for i := range invites {
		invites[i].Status = invites[i].EffectiveStatus(now)
		invites[i].Token = ""
	}
	return invites, nil
}

type inviteEmailData struct {
	Role      string
	Token     string
	ExpiresAt string
}

func (svc *Service) sendInviteEmail(inv Invite) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: inv.Email}},
		Subject:      "You have been invited",
		TemplateName: "invite",
		TemplateData: inviteEmailData{
			Role:      inv.Role,
			Token:     inv.Token,
			ExpiresAt: inv.ExpiresAt.Format(time.RFC1123),
		},
	})
}
