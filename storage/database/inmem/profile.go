package inmemdb

import (
	"context"
	"time"

	"github.com/kazimoto/shule/core/profile"
)

type profileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.profiles {
		if existing.Email == p.Email {
			return profile.Profile{}, profile.ErrEmailExists
		}
	}
	repo.db.profiles[p.ID] = &p
	return p, nil
}

func (repo *profileRepository) GetProfileByID(_ context.Context, id string) (profile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.profiles[id]; ok {
		return *p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) GetProfileByEmail(_ context.Context, email string) (profile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.profiles {
		if p.Email == email {
			return *p, nil
		}
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) QueryAllProfiles(_ context.Context) ([]profile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	profiles := make([]profile.Profile, 0, len(repo.db.profiles))
	for _, p := range repo.db.profiles {
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

func (repo *profileRepository) UpdateProfileRoles(_ context.Context, id string, roles []string) (profile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p, ok := repo.db.profiles[id]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	p.Roles = roles
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

func (repo *profileRepository) SetProfileStatus(_ context.Context, id, status string) (profile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p, ok := repo.db.profiles[id]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}
