package promotion

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/profile"
)

var nowFunc = time.Now // mockable

var (
	// errors
	ErrAlreadyAdmin           = core.NewError(core.KindConflict, "promotion/already-admin", "user already holds the admin role")
	ErrNotAdmin               = core.NewError(core.KindConflict, "promotion/not-admin", "user does not hold the admin role")
	ErrCannotDemoteSuperAdmin = core.NewError(core.KindConflict, "promotion/cannot-demote-super-admin", "a super admin cannot be demoted")
)

type (
	Repository interface {
		CreatePromotionRecord(ctx context.Context, rec Record) (Record, error)
		QueryPromotionRecordsByUser(ctx context.Context, userID string) ([]Record, error)
	}

	Service struct {
		repo     Repository
		profiles *profile.Service
	}
)

func NewService(repo Repository, profiles *profile.Service) *Service {
	return &Service{repo: repo, profiles: profiles}
}

// Promote grants the admin role to the subject and appends an audit record.
// No record is written when a precondition fails.
func (svc *Service) Promote(ctx context.Context, subjectID, actorID, actorEmail, reason string) (Record, error) {
	subj, err := svc.profiles.GetByID(ctx, subjectID)
	if err != nil {
		return Record{}, err
	}
	if subj.IsAdmin() {
		return Record{}, ErrAlreadyAdmin
	}

	if _, err = svc.profiles.UpdateRoles(ctx, subj.ID, append(subj.Roles, profile.RoleAdmin)); err != nil {
		return Record{}, errors.Wrap(err, "granting admin role")
	}
	return svc.appendRecord(ctx, subj.ID, actorID, actorEmail, ActionPromote, reason)
}

// Demote removes the admin role from the subject and appends an audit record.
// super_admin accounts can never be demoted through this path; that is done
// out-of-band via the operator CLI.
func (svc *Service) Demote(ctx context.Context, subjectID, actorID, actorEmail, reason string) (Record, error) {
	subj, err := svc.profiles.GetByID(ctx, subjectID)
	if err != nil {
		return Record{}, err
	}
	if subj.IsSuperAdmin() {
		return Record{}, ErrCannotDemoteSuperAdmin
	}
	if !subj.HasRole(profile.RoleAdmin) {
		return Record{}, ErrNotAdmin
	}

	roles := make([]string, 0, len(subj.Roles))
	for _, r := range subj.Roles {
		if r != profile.RoleAdmin {
			roles = append(roles, r)
		}
	}
	// a profile's role set is never empty once created
	if len(roles) == 0 {
		roles = []string{profile.RoleParent}
	}

	if _, err = svc.profiles.UpdateRoles(ctx, subj.ID, roles); err != nil {
		return Record{}, errors.Wrap(err, "revoking admin role")
	}
	return svc.appendRecord(ctx, subj.ID, actorID, actorEmail, ActionDemote, reason)
}

func (svc *Service) appendRecord(ctx context.Context, userID, actorID, actorEmail, action, reason string) (Record, error) {
	rec := Record{
		ID:         uuid.New().String(),
		UserID:     userID,
		ActorID:    actorID,
		ActorEmail: actorEmail,
		Action:     action,
		Reason:     reason,
		CreatedAt:  nowFunc().UTC(),
	}
	rec, err := svc.repo.CreatePromotionRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "appending promotion record")
	}
	return rec, nil
}

// ListAdmins returns all profiles holding admin or super_admin, highest tier
// first.
func (svc *Service) ListAdmins(ctx context.Context) ([]profile.Profile, error) {
	all, err := svc.profiles.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	admins := make([]profile.Profile, 0)
	for _, p := range all {
		if p.IsAdmin() {
			admins = append(admins, p)
		}
	}
	sort.SliceStable(admins, func(i, j int) bool {
		pi, pj := profile.MaxRolePriority(admins[i].Roles), profile.MaxRolePriority(admins[j].Roles)
		if pi != pj {
			return pi > pj
		}
		return admins[i].Name < admins[j].Name
	})
	return admins, nil
}

// ListPromotable returns profiles holding neither admin nor super_admin, for
// UI discovery.
func (svc *Service) ListPromotable(ctx context.Context) ([]profile.Profile, error) {
	all, err := svc.profiles.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	promotable := make([]profile.Profile, 0)
	for _, p := range all {
		if !p.IsAdmin() {
			promotable = append(promotable, p)
		}
	}
	return promotable, nil
}

// History returns the audit trail for one subject.
func (svc *Service) History(ctx context.Context, userID string) ([]Record, error) {
	return svc.repo.QueryPromotionRecordsByUser(ctx, userID)
}
