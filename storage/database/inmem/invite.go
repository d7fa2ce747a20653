package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/kazimoto/shule/core/invite"
)

type inviteRepository struct {
	db *DB
}

func NewInviteRepository(db *DB) invite.Repository {
	return &inviteRepository{db: db}
}

func (repo *inviteRepository) CreateInvite(_ context.Context, inv invite.Invite) (invite.Invite, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.invites[inv.ID] = &inv
	return inv, nil
}

func (repo *inviteRepository) GetInviteByToken(_ context.Context, token string) (invite.Invite, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, inv := range repo.db.invites {
		if inv.Token == token {
			return *inv, nil
		}
	}
	return invite.Invite{}, invite.ErrNotFound
}

func (repo *inviteRepository) AcceptInvite(_ context.Context, id, acceptedBy string, at time.Time) (invite.Invite, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	inv, ok := repo.db.invites[id]
	if !ok || inv.Status != invite.StatusPending {
		// the conditional transition failed; report it like a vanished invite
		return invite.Invite{}, invite.ErrNotFound
	}
	inv.Status = invite.StatusAccepted
	inv.AcceptedBy = acceptedBy
	inv.AcceptedAt = at
	return *inv, nil
}

func (repo *inviteRepository) QueryAllInvites(_ context.Context) ([]invite.Invite, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	invites := make([]invite.Invite, 0, len(repo.db.invites))
	for _, inv := range repo.db.invites {
		invites = append(invites, *inv)
	}
	sort.Slice(invites, func(i, j int) bool { return invites[i].CreatedAt.After(invites[j].CreatedAt) })
	return invites, nil
}
