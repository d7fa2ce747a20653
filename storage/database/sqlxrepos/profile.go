package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core/profile"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if err := insertDoc(ctx, repo.db, profilesTable, p.ID, p); err != nil {
		if isUniqueViolation(err) {
			return profile.Profile{}, profile.ErrEmailExists
		}
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return p, nil
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	var p profile.Profile
	if err := getDoc(ctx, repo.db, profilesTable, id, &p, profile.ErrNotFound); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (repo *profileRepository) GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error) {
	var p profile.Profile
	if err := getDocBy(ctx, repo.db, profilesTable, "email", email, &p, profile.ErrNotFound); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (repo *profileRepository) QueryAllProfiles(ctx context.Context) ([]profile.Profile, error) {
	profiles := make([]profile.Profile, 0)
	err := selectDocs(ctx, repo.db,
		"SELECT doc FROM "+profilesTable+" ORDER BY doc ->> 'created_at'",
		func(raw []byte) error {
			var p profile.Profile
			if err := json.Unmarshal(raw, &p); err != nil {
				return errors.Wrap(err, "decoding profile")
			}
			profiles = append(profiles, p)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (repo *profileRepository) UpdateProfileRoles(ctx context.Context, id string, roles []string) (profile.Profile, error) {
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "encoding roles")
	}
	return repo.patchProfile(ctx, id, "roles", string(rolesJSON))
}

func (repo *profileRepository) SetProfileStatus(ctx context.Context, id, status string) (profile.Profile, error) {
	statusJSON, err := json.Marshal(status)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "encoding status")
	}
	return repo.patchProfile(ctx, id, "status", string(statusJSON))
}

// patchProfile writes one field plus the updated_at stamp as a single JSONB
// merge, so concurrent patches to different fields do not clobber each other.
func (repo *profileRepository) patchProfile(ctx context.Context, id, field, valueJSON string) (profile.Profile, error) {
	now := time.Now().UTC()
	res, err := repo.db.ExecContext(ctx,
		"UPDATE "+profilesTable+
			" SET doc = doc || jsonb_build_object('"+field+"', $2::jsonb, 'updated_at', $3::text)"+
			" WHERE id = $1",
		id, valueJSON, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "patching profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return repo.GetProfileByID(ctx, id)
}
