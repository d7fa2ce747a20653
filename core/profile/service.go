package profile

import (
	"context"
	"time"

	"github.com/kazimoto/shule/core"
)

var (
	// errors
	ErrNotFound    = core.NewError(core.KindNotFound, "profile/not-found", "profile not found")
	ErrEmailExists = core.NewError(core.KindConflict, "profile/email-exists", "a profile with this email already exists")
)

type (
	// Repository is the principal store: it maps an identity to its Profile.
	// Role-set and status mutations are single-document atomic writes.
	Repository interface {
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		GetProfileByEmail(ctx context.Context, email string) (Profile, error)
		QueryAllProfiles(ctx context.Context) ([]Profile, error)
		UpdateProfileRoles(ctx context.Context, id string, roles []string) (Profile, error)
		SetProfileStatus(ctx context.Context, id, status string) (Profile, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, np NewProfile) (Profile, error) {
	now := time.Now().UTC()
	p := Profile{
		ID:          np.ID,
		Email:       np.Email,
		Name:        np.Name,
		Roles:       np.Roles,
		Status:      StatusActive,
		WriteAccess: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateProfile(ctx, p)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfileByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return svc.repo.GetProfileByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryAll(ctx context.Context) ([]Profile, error) {
	return svc.repo.QueryAllProfiles(ctx)
}

func (svc *Service) UpdateRoles(ctx context.Context, id string, roles []string) (Profile, error) {
	return svc.repo.UpdateProfileRoles(ctx, id, roles)
}

func (svc *Service) SetStatus(ctx context.Context, id, status string) (Profile, error) {
	return svc.repo.SetProfileStatus(ctx, id, status)
}

// ListSuspended returns all profiles whose access has been revoked via status.
func (svc *Service) ListSuspended(ctx context.Context) ([]Profile, error) {
	all, err := svc.repo.QueryAllProfiles(ctx)
	if err != nil {
		return nil, err
	}
	suspended := make([]Profile, 0)
	for _, p := range all {
		if p.Status == StatusSuspended {
			suspended = append(suspended, p)
		}
	}
	return suspended, nil
}
