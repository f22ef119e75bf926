package repos

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// SentimentDateRow is one distinct review inside a product subtree, together
// with the per-product sentiment of the link that put it there.
type SentimentDateRow struct {
	ReviewID  int64
	Date      time.Time
	Sentiment *types.Sentiment
}

// RatingDateRow is one distinct rated review inside a product subtree.
type RatingDateRow struct {
	ReviewID int64
	Date     time.Time
	Rating   int
}

// ReviewFilter narrows review listings.
type ReviewFilter struct {
	ProductIDs []int64
	Start      *time.Time
	End        *time.Time
	ClusterID  *int64
	Source     *string
	Sentiment  *types.Sentiment
	SortDesc   bool
	Page       int
	PageSize   int
}

type ReviewRepo interface {
	Create(ctx context.Context, tx *gorm.DB, review *types.Review) (*types.Review, error)
	BulkCreate(ctx context.Context, tx *gorm.DB, reviews []*types.Review) ([]*types.Review, error)
	CountDistinct(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, source *string, sentiment *types.Sentiment) (int64, error)
	SentimentCounts(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, source *string) (types.SentimentCounts, error)
	AvgRating(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end *time.Time, source *string) (float64, error)
	SentimentDateRows(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, source *string) ([]SentimentDateRow, error)
	RatingDateRows(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, source *string) ([]RatingDateRow, error)
	List(ctx context.Context, tx *gorm.DB, filter ReviewFilter) ([]*types.Review, int64, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	repoLog := baseLog.With("repo", "ReviewRepo")
	return &reviewRepo{db: db, log: repoLog}
}

func (rr *reviewRepo) Create(ctx context.Context, tx *gorm.DB, review *types.Review) (*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if err := transaction.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (rr *reviewRepo) BulkCreate(ctx context.Context, tx *gorm.DB, reviews []*types.Review) ([]*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(reviews) == 0 {
		return []*types.Review{}, nil
	}
	if err := transaction.WithContext(ctx).CreateInBatches(&reviews, 500).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// linked scopes reviews to those carrying at least one product link inside
// the subtree, filtered by period and source.
func (rr *reviewRepo) linked(ctx context.Context, transaction *gorm.DB, productIDs []int64, start, end *time.Time, source *string) *gorm.DB {
	q := transaction.WithContext(ctx).
		Model(&types.Review{}).
		Joins("JOIN review_products ON review_products.review_id = reviews.id").
		Where("review_products.product_id IN ?", productIDs)
	if start != nil {
		q = q.Where("reviews.date >= ?", *start)
	}
	if end != nil {
		q = q.Where("reviews.date <= ?", *end)
	}
	if source != nil && *source != "" {
		q = q.Where("reviews.source = ?", *source)
	}
	return q
}

func (rr *reviewRepo) CountDistinct(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, source *string, sentiment *types.Sentiment) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(productIDs) == 0 {
		return 0, nil
	}

	q := rr.linked(ctx, transaction, productIDs, &start, &end, source)
	if sentiment != nil {
		q = q.Where("review_products.sentiment = ?", *sentiment)
	}

	var count int64
	if err := q.Distinct("reviews.id").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (rr *reviewRepo) SentimentCounts(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, source *string) (types.SentimentCounts, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var counts types.SentimentCounts
	if len(productIDs) == 0 {
		return counts, nil
	}

	rows, err := rr.SentimentDateRows(ctx, transaction, productIDs, start, end, source)
	if err != nil {
		return counts, err
	}
	for _, row := range rows {
		if row.Sentiment != nil {
			counts.Add(*row.Sentiment, 1)
		}
	}
	return counts, nil
}

func (rr *reviewRepo) AvgRating(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end *time.Time, source *string) (float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(productIDs) == 0 {
		return 0, nil
	}

	sub := transaction.
		Model(&types.ReviewProduct{}).
		Select("review_id").
		Where("product_id IN ?", productIDs)

	q := transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("id IN (?)", sub).
		Where("rating IS NOT NULL")
	if start != nil {
		q = q.Where("date >= ?", *start)
	}
	if end != nil {
		q = q.Where("date <= ?", *end)
	}
	if source != nil && *source != "" {
		q = q.Where("source = ?", *source)
	}

	var avg sql.NullFloat64
	if err := q.Select("AVG(rating)").Scan(&avg).Error; err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func (rr *reviewRepo) SentimentDateRows(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, source *string) ([]SentimentDateRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []SentimentDateRow
	if len(productIDs) == 0 {
		return results, nil
	}

	q := rr.linked(ctx, transaction, productIDs, &start, &end, source).
		Select("DISTINCT reviews.id AS review_id, reviews.date AS date, review_products.sentiment AS sentiment")
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *reviewRepo) RatingDateRows(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, source *string) ([]RatingDateRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []RatingDateRow
	if len(productIDs) == 0 {
		return results, nil
	}

	q := rr.linked(ctx, transaction, productIDs, &start, &end, source).
		Where("reviews.rating IS NOT NULL").
		Select("DISTINCT reviews.id AS review_id, reviews.date AS date, reviews.rating AS rating")
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *reviewRepo) List(ctx context.Context, tx *gorm.DB, filter ReviewFilter) ([]*types.Review, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Review
	if len(filter.ProductIDs) == 0 {
		return results, 0, nil
	}

	productSub := transaction.
		Model(&types.ReviewProduct{}).
		Select("review_id").
		Where("product_id IN ?", filter.ProductIDs)
	if filter.Sentiment != nil {
		productSub = productSub.Where("sentiment = ?", *filter.Sentiment)
	}

	q := transaction.WithContext(ctx).
		Model(&types.Review{}).
		Where("id IN (?)", productSub)
	if filter.Start != nil {
		q = q.Where("date >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("date <= ?", *filter.End)
	}
	if filter.Source != nil && *filter.Source != "" {
		q = q.Where("source = ?", *filter.Source)
	}
	if filter.ClusterID != nil {
		clusterSub := transaction.
			Model(&types.ReviewCluster{}).
			Select("review_id").
			Where("cluster_id = ?", *filter.ClusterID)
		q = q.Where("id IN (?)", clusterSub)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "date ASC, id ASC"
	if filter.SortDesc {
		order = "date DESC, id DESC"
	}
	q = q.Order(order)

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := q.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
