package inmemdb

import (
	"context"

	"github.com/kazimoto/shule/core/promotion"
)

type promotionRepository struct {
	db *DB
}

func NewPromotionRepository(db *DB) promotion.Repository {
	return &promotionRepository{db: db}
}

func (repo *promotionRepository) CreatePromotionRecord(_ context.Context, rec promotion.Record) (promotion.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.promotions = append(repo.db.promotions, rec)
	return rec, nil
}

func (repo *promotionRepository) QueryPromotionRecordsByUser(_ context.Context, userID string) ([]promotion.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]promotion.Record, 0)
	for _, rec := range repo.db.promotions {
		if rec.UserID == userID {
			records = append(records, rec)
		}
	}
	return records, nil
}
