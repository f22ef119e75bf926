package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

type NotificationConfigRepo interface {
	Create(ctx context.Context, tx *gorm.DB, config *types.NotificationConfig) (*types.NotificationConfig, error)
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, configID, userID int64) (*types.NotificationConfig, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID int64) ([]*types.NotificationConfig, error)
	GetActive(ctx context.Context, tx *gorm.DB) ([]*types.NotificationConfig, error)
	Update(ctx context.Context, tx *gorm.DB, config *types.NotificationConfig) error
	Delete(ctx context.Context, tx *gorm.DB, config *types.NotificationConfig) error
}

type notificationConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationConfigRepo(db *gorm.DB, baseLog *logger.Logger) NotificationConfigRepo {
	repoLog := baseLog.With("repo", "NotificationConfigRepo")
	return &notificationConfigRepo{db: db, log: repoLog}
}

func (ncr *notificationConfigRepo) Create(ctx context.Context, tx *gorm.DB, config *types.NotificationConfig) (*types.NotificationConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = ncr.db
	}

	if err := transaction.WithContext(ctx).Create(config).Error; err != nil {
		return nil, err
	}
	return config, nil
}

func (ncr *notificationConfigRepo) GetByIDAndUser(ctx context.Context, tx *gorm.DB, configID, userID int64) (*types.NotificationConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = ncr.db
	}

	var result types.NotificationConfig
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", configID, userID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (ncr *notificationConfigRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID int64) ([]*types.NotificationConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = ncr.db
	}

	var results []*types.NotificationConfig
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ncr *notificationConfigRepo) GetActive(ctx context.Context, tx *gorm.DB) ([]*types.NotificationConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = ncr.db
	}

	var results []*types.NotificationConfig
	if err := transaction.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ncr *notificationConfigRepo) Update(ctx context.Context, tx *gorm.DB, config *types.NotificationConfig) error {
	transaction := tx
	if transaction == nil {
		transaction = ncr.db
	}
	return transaction.WithContext(ctx).Save(config).Error
}

func (ncr *notificationConfigRepo) Delete(ctx context.Context, tx *gorm.DB, config *types.NotificationConfig) error {
	transaction := tx
	if transaction == nil {
		transaction = ncr.db
	}
	return transaction.WithContext(ctx).Delete(config).Error
}
