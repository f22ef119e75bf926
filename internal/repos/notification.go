package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

type NotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, notification *types.Notification) (*types.Notification, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID int64, isRead *bool) ([]*types.Notification, error)
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, notificationID, userID int64) (*types.Notification, error)
	MarkRead(ctx context.Context, tx *gorm.DB, notification *types.Notification) error
	Delete(ctx context.Context, tx *gorm.DB, notification *types.Notification) error
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	repoLog := baseLog.With("repo", "NotificationRepo")
	return &notificationRepo{db: db, log: repoLog}
}

func (nr *notificationRepo) Create(ctx context.Context, tx *gorm.DB, notification *types.Notification) (*types.Notification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	if err := transaction.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, err
	}
	return notification, nil
}

func (nr *notificationRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID int64, isRead *bool) ([]*types.Notification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	var results []*types.Notification
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if isRead != nil {
		q = q.Where("is_read = ?", *isRead)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (nr *notificationRepo) GetByIDAndUser(ctx context.Context, tx *gorm.DB, notificationID, userID int64) (*types.Notification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	var result types.Notification
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (nr *notificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, notification *types.Notification) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	notification.IsRead = true
	return transaction.WithContext(ctx).
		Model(notification).
		Update("is_read", true).Error
}

func (nr *notificationRepo) Delete(ctx context.Context, tx *gorm.DB, notification *types.Notification) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	return transaction.WithContext(ctx).Delete(notification).Error
}
