package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

type ReviewProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, links []*types.ReviewProduct) ([]*types.ReviewProduct, error)
	GetByReviewIDs(ctx context.Context, tx *gorm.DB, reviewIDs []int64) ([]*types.ReviewProduct, error)
}

type reviewProductRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewProductRepo(db *gorm.DB, baseLog *logger.Logger) ReviewProductRepo {
	repoLog := baseLog.With("repo", "ReviewProductRepo")
	return &reviewProductRepo{db: db, log: repoLog}
}

func (rpr *reviewProductRepo) Create(ctx context.Context, tx *gorm.DB, links []*types.ReviewProduct) ([]*types.ReviewProduct, error) {
	transaction := tx
	if transaction == nil {
		transaction = rpr.db
	}

	if len(links) == 0 {
		return []*types.ReviewProduct{}, nil
	}

	// The (review_id, product_id) pair is unique; re-linking is a no-op.
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		CreateInBatches(&links, 500).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (rpr *reviewProductRepo) GetByReviewIDs(ctx context.Context, tx *gorm.DB, reviewIDs []int64) ([]*types.ReviewProduct, error) {
	transaction := tx
	if transaction == nil {
		transaction = rpr.db
	}

	var results []*types.ReviewProduct
	if len(reviewIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("review_id IN ?", reviewIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
