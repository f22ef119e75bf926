package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

type ClusterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cluster *types.Cluster) (*types.Cluster, error)
	GetByID(ctx context.Context, tx *gorm.DB, clusterID int64) (*types.Cluster, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Cluster, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Cluster, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, clusterIDs []int64) ([]*types.Cluster, error)
}

type clusterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClusterRepo(db *gorm.DB, baseLog *logger.Logger) ClusterRepo {
	repoLog := baseLog.With("repo", "ClusterRepo")
	return &clusterRepo{db: db, log: repoLog}
}

func (cr *clusterRepo) Create(ctx context.Context, tx *gorm.DB, cluster *types.Cluster) (*types.Cluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).Create(cluster).Error; err != nil {
		return nil, err
	}
	return cluster, nil
}

func (cr *clusterRepo) GetByID(ctx context.Context, tx *gorm.DB, clusterID int64) (*types.Cluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Cluster
	if err := transaction.WithContext(ctx).
		Where("id = ?", clusterID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (cr *clusterRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Cluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Cluster
	if err := transaction.WithContext(ctx).
		Where("name_fold = ?", types.FoldName(name)).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (cr *clusterRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Cluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Cluster
	if err := transaction.WithContext(ctx).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *clusterRepo) GetByIDs(ctx context.Context, tx *gorm.DB, clusterIDs []int64) ([]*types.Cluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Cluster
	if len(clusterIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", clusterIDs).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
