package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core/promotion"
)

type promotionRepository struct {
	db *sqlx.DB
}

func NewPromotionRepository(db *sqlx.DB) promotion.Repository {
	return &promotionRepository{db: db}
}

func (repo *promotionRepository) CreatePromotionRecord(ctx context.Context, rec promotion.Record) (promotion.Record, error) {
	if err := insertDoc(ctx, repo.db, promotionsTable, rec.ID, rec); err != nil {
		return promotion.Record{}, errors.Wrap(err, "inserting promotion record")
	}
	return rec, nil
}

func (repo *promotionRepository) QueryPromotionRecordsByUser(ctx context.Context, userID string) ([]promotion.Record, error) {
	records := make([]promotion.Record, 0)
	err := selectDocs(ctx, repo.db,
		"SELECT doc FROM "+promotionsTable+" WHERE doc ->> 'user_id' = $1 ORDER BY doc ->> 'created_at' DESC",
		func(raw []byte) error {
			var rec promotion.Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return errors.Wrap(err, "decoding promotion record")
			}
			records = append(records, rec)
			return nil
		},
		userID,
	)
	if err != nil {
		return nil, err
	}
	return records, nil
}
