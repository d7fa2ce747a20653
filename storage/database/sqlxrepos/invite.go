package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core/invite"
)

type inviteRepository struct {
	db *sqlx.DB
}

func NewInviteRepository(db *sqlx.DB) invite.Repository {
	return &inviteRepository{db: db}
}

func (repo *inviteRepository) CreateInvite(ctx context.Context, inv invite.Invite) (invite.Invite, error) {
	if err := insertDoc(ctx, repo.db, invitesTable, inv.ID, inv); err != nil {
		return invite.Invite{}, errors.Wrap(err, "inserting invite")
	}
	return inv, nil
}

func (repo *inviteRepository) GetInviteByToken(ctx context.Context, token string) (invite.Invite, error) {
	var inv invite.Invite
	if err := getDocBy(ctx, repo.db, invitesTable, "token", token, &inv, invite.ErrNotFound); err != nil {
		return invite.Invite{}, err
	}
	return inv, nil
}

func (repo *inviteRepository) AcceptInvite(ctx context.Context, id, acceptedBy string, at time.Time) (invite.Invite, error) {
	// the status predicate makes the transition atomic; the loser of a
	// concurrent redeem affects zero rows
	res, err := repo.db.ExecContext(ctx,
		"UPDATE "+invitesTable+
			" SET doc = doc || jsonb_build_object('status', $2::text, 'accepted_by', $3::text, 'accepted_at', $4::text)"+
			" WHERE id = $1 AND doc ->> 'status' = $5",
		id, invite.StatusAccepted, acceptedBy, at.Format(time.RFC3339Nano), invite.StatusPending,
	)
	if err != nil {
		return invite.Invite{}, errors.Wrap(err, "accepting invite")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return invite.Invite{}, invite.ErrNotFound
	}

	var inv invite.Invite
	if err = getDoc(ctx, repo.db, invitesTable, id, &inv, invite.ErrNotFound); err != nil {
		return invite.Invite{}, err
	}
	return inv, nil
}

func (repo *inviteRepository) QueryAllInvites(ctx context.Context) ([]invite.Invite, error) {
	invites := make([]invite.Invite, 0)
	err := selectDocs(ctx, repo.db,
		"SELECT doc FROM "+invitesTable+" ORDER BY doc ->> 'created_at' DESC",
		func(raw []byte) error {
			var inv invite.Invite
			if err := json.Unmarshal(raw, &inv); err != nil {
				return errors.Wrap(err, "decoding invite")
			}
			invites = append(invites, inv)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return invites, nil
}
