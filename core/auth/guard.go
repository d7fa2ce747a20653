package auth

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/profile"
)

var (
	// errors
	ErrMissingToken    = core.NewError(core.KindUnauthorized, "auth/missing-token", "missing or malformed authorization header")
	ErrInvalidToken    = core.NewError(core.KindUnauthorized, "auth/invalid-token", "invalid or expired token")
	ErrForbidden       = core.NewError(core.KindForbidden, "auth/forbidden", "permission denied")
	ErrAccountInactive = core.NewError(core.KindForbidden, "auth/account-inactive", "account is not active")
	ErrReadOnly        = core.NewError(core.KindForbidden, "auth/read-only", "write access required")
)

type (
	// Claims are the decoded assertions of the external identity provider.
	// Signature verification is the provider's job; the guard only consumes
	// the result.
	Claims struct {
		UID           string
		Email         string
		EmailVerified bool
	}

	TokenVerifier interface {
		Verify(ctx context.Context, token string) (Claims, error)
	}

	// Options selects the checks Authenticate performs beyond credential
	// verification.
	Options struct {
		// RequireRoles passes when the profile's role set satisfies any of
		// these roles (per RoleSatisfies).
		RequireRoles []string
		// AllowMissingProfile lets callers that only need a verified identity
		// proceed without a stored Profile (e.g. invite redemption by a brand
		// new user). Role, status and write-access checks are skipped when the
		// profile is absent.
		AllowMissingProfile bool
		// RequireWriteAccess additionally gates on the profile's effective
		// write permission, distinct from role membership.
		RequireWriteAccess bool
	}

	// Auth is the outcome of a successful Authenticate call. Profile is nil
	// only when Options.AllowMissingProfile was set and none exists.
	Auth struct {
		Claims  Claims
		Profile *profile.Profile
	}

	Guard struct {
		verifier TokenVerifier
		profiles profile.Repository
	}
)

func NewGuard(verifier TokenVerifier, profiles profile.Repository) *Guard {
	return &Guard{verifier: verifier, profiles: profiles}
}

// ExtractBearer pulls the raw token out of an "Authorization: Bearer <token>"
// header value.
func ExtractBearer(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Authenticate verifies the bearer credential, loads the caller's Profile and
// enforces the requested checks. It is stateless: every call re-verifies, so
// revocation at the identity provider takes effect immediately.
func (g *Guard) Authenticate(ctx context.Context, authorizationHeader string, opts Options) (Auth, error) {
	raw, err := ExtractBearer(authorizationHeader)
	if err != nil {
		return Auth{}, err
	}

	claims, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return Auth{}, errors.Wrap(ErrInvalidToken, err.Error())
	}

	prof, err := g.profiles.GetProfileByID(ctx, claims.UID)
	if err != nil {
		if errors.Cause(err) == profile.ErrNotFound {
			if opts.AllowMissingProfile {
				return Auth{Claims: claims}, nil
			}
			return Auth{}, profile.ErrNotFound
		}
		return Auth{}, errors.Wrap(err, "loading profile")
	}

	if !prof.IsActive() {
		return Auth{}, ErrAccountInactive
	}
	if !RoleSatisfies(prof.Roles, opts.RequireRoles) {
		return Auth{}, ErrForbidden
	}
	if opts.RequireWriteAccess && !prof.WriteAccess {
		return Auth{}, ErrReadOnly
	}
	return Auth{Claims: claims, Profile: &prof}, nil
}
