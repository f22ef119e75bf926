package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// ClusterDateRow is one distinct review-to-cluster assignment inside a
// product subtree.
type ClusterDateRow struct {
	ReviewID  int64
	Date      time.Time
	ClusterID int64
}

// WeightedSentimentRow carries the summed topic weight per effective
// sentiment of one cluster. The effective sentiment is the per-cluster
// contribution when set, the review-level sentiment otherwise.
type WeightedSentimentRow struct {
	Sentiment *types.Sentiment
	Weight    float64
}

type ReviewClusterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, links []*types.ReviewCluster) ([]*types.ReviewCluster, error)
	ClusterDateRows(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, clusterIDs []int64, source *string) ([]ClusterDateRow, error)
	WeightedCount(ctx context.Context, tx *gorm.DB, clusterID int64, productIDs []int64, start, end time.Time, source *string) (float64, error)
	WeightedSentiments(ctx context.Context, tx *gorm.DB, clusterID int64, productIDs []int64, start, end time.Time, source *string) ([]WeightedSentimentRow, error)
}

type reviewClusterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewClusterRepo(db *gorm.DB, baseLog *logger.Logger) ReviewClusterRepo {
	repoLog := baseLog.With("repo", "ReviewClusterRepo")
	return &reviewClusterRepo{db: db, log: repoLog}
}

func (rcr *reviewClusterRepo) Create(ctx context.Context, tx *gorm.DB, links []*types.ReviewCluster) ([]*types.ReviewCluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = rcr.db
	}

	if len(links) == 0 {
		return []*types.ReviewCluster{}, nil
	}
	if err := transaction.WithContext(ctx).CreateInBatches(&links, 500).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// scoped restricts cluster links to reviews inside the subtree. Product
// membership goes through a subquery so a review linked to several
// products in the set still contributes each cluster row once.
func (rcr *reviewClusterRepo) scoped(ctx context.Context, transaction *gorm.DB, productIDs []int64, start, end time.Time, source *string) *gorm.DB {
	sub := transaction.
		Model(&types.ReviewProduct{}).
		Select("review_id").
		Where("product_id IN ?", productIDs)

	q := transaction.WithContext(ctx).
		Model(&types.ReviewCluster{}).
		Joins("JOIN reviews ON reviews.id = review_clusters.review_id").
		Where("reviews.id IN (?)", sub).
		Where("reviews.date >= ? AND reviews.date <= ?", start, end)
	if source != nil && *source != "" {
		q = q.Where("reviews.source = ?", *source)
	}
	return q
}

func (rcr *reviewClusterRepo) ClusterDateRows(ctx context.Context, tx *gorm.DB, productIDs []int64, start, end time.Time, clusterIDs []int64, source *string) ([]ClusterDateRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = rcr.db
	}

	var results []ClusterDateRow
	if len(productIDs) == 0 {
		return results, nil
	}

	q := rcr.scoped(ctx, transaction, productIDs, start, end, source).
		Select("DISTINCT reviews.id AS review_id, reviews.date AS date, review_clusters.cluster_id AS cluster_id")
	if len(clusterIDs) > 0 {
		q = q.Where("review_clusters.cluster_id IN ?", clusterIDs)
	}
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rcr *reviewClusterRepo) WeightedCount(ctx context.Context, tx *gorm.DB, clusterID int64, productIDs []int64, start, end time.Time, source *string) (float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rcr.db
	}

	if len(productIDs) == 0 {
		return 0, nil
	}

	rows, err := rcr.WeightedSentiments(ctx, transaction, clusterID, productIDs, start, end, source)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, row := range rows {
		total += row.Weight
	}
	return total, nil
}

func (rcr *reviewClusterRepo) WeightedSentiments(ctx context.Context, tx *gorm.DB, clusterID int64, productIDs []int64, start, end time.Time, source *string) ([]WeightedSentimentRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = rcr.db
	}

	var results []WeightedSentimentRow
	if len(productIDs) == 0 {
		return results, nil
	}

	q := rcr.scoped(ctx, transaction, productIDs, start, end, source).
		Where("review_clusters.cluster_id = ?", clusterID).
		Select("COALESCE(review_clusters.sentiment_contribution, reviews.sentiment) AS sentiment, SUM(review_clusters.topic_weight) AS weight").
		Group("COALESCE(review_clusters.sentiment_contribution, reviews.sentiment)")
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
