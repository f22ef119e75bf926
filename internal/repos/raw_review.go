package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// BankProductPair is one (bank, product) combination present in staging.
type BankProductPair struct {
	BankSlug    string
	ProductName string
}

type RawReviewRepo interface {
	BulkCreate(ctx context.Context, tx *gorm.DB, rawReviews []*types.RawReview) ([]*types.RawReview, error)
	GetUnprocessedByBank(ctx context.Context, tx *gorm.DB, bankSlug string, limit int) ([]*types.RawReview, error)
	UnprocessedPairs(ctx context.Context, tx *gorm.DB) ([]BankProductPair, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, rawReviewIDs []int64) error
	CountUnprocessed(ctx context.Context, tx *gorm.DB) (int64, error)
}

type rawReviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRawReviewRepo(db *gorm.DB, baseLog *logger.Logger) RawReviewRepo {
	repoLog := baseLog.With("repo", "RawReviewRepo")
	return &rawReviewRepo{db: db, log: repoLog}
}

func (rrr *rawReviewRepo) BulkCreate(ctx context.Context, tx *gorm.DB, rawReviews []*types.RawReview) ([]*types.RawReview, error) {
	transaction := tx
	if transaction == nil {
		transaction = rrr.db
	}

	if len(rawReviews) == 0 {
		return []*types.RawReview{}, nil
	}
	if err := transaction.WithContext(ctx).CreateInBatches(&rawReviews, 500).Error; err != nil {
		return nil, err
	}
	return rawReviews, nil
}

func (rrr *rawReviewRepo) GetUnprocessedByBank(ctx context.Context, tx *gorm.DB, bankSlug string, limit int) ([]*types.RawReview, error) {
	transaction := tx
	if transaction == nil {
		transaction = rrr.db
	}

	var results []*types.RawReview
	q := transaction.WithContext(ctx).
		Where("bank_slug = ?", bankSlug).
		Where("processed = ?", false).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rrr *rawReviewRepo) UnprocessedPairs(ctx context.Context, tx *gorm.DB) ([]BankProductPair, error) {
	transaction := tx
	if transaction == nil {
		transaction = rrr.db
	}

	var results []BankProductPair
	if err := transaction.WithContext(ctx).
		Model(&types.RawReview{}).
		Select("DISTINCT bank_slug, product_name").
		Where("processed = ?", false).
		Order("bank_slug, product_name").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rrr *rawReviewRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, rawReviewIDs []int64) error {
	transaction := tx
	if transaction == nil {
		transaction = rrr.db
	}

	if len(rawReviewIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.RawReview{}).
		Where("id IN ?", rawReviewIDs).
		Update("processed", true).Error
}

func (rrr *rawReviewRepo) CountUnprocessed(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rrr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.RawReview{}).
		Where("processed = ?", false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
