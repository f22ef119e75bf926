package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// NotificationService evaluates active rules against the canonical store
// and owns the rule / notification CRUD surface.
type NotificationService interface {
	Sweep(ctx context.Context) (int, error)

	CreateConfig(ctx context.Context, userID int64, config *types.NotificationConfig) (*types.NotificationConfig, error)
	GetConfigs(ctx context.Context, userID int64) ([]*types.NotificationConfig, error)
	UpdateConfig(ctx context.Context, userID, configID int64, update *types.NotificationConfig) (*types.NotificationConfig, error)
	DeleteConfig(ctx context.Context, userID, configID int64) error

	GetNotifications(ctx context.Context, userID int64, isRead *bool) ([]*types.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID int64) (*types.Notification, error)
	DeleteNotification(ctx context.Context, userID, notificationID int64) error
}

type notificationService struct {
	hierarchy      HierarchyService
	reviews        repos.ReviewRepo
	reviewClusters repos.ReviewClusterRepo
	notifications  repos.NotificationRepo
	configs        repos.NotificationConfigRepo
	auditLogs      repos.AuditLogRepo
	log            *logger.Logger
	now            func() time.Time
}

func NewNotificationService(
	hierarchy HierarchyService,
	reviews repos.ReviewRepo,
	reviewClusters repos.ReviewClusterRepo,
	notifications repos.NotificationRepo,
	configs repos.NotificationConfigRepo,
	auditLogs repos.AuditLogRepo,
	baseLog *logger.Logger,
) NotificationService {
	svcLog := baseLog.With("service", "NotificationService")
	return &notificationService{
		hierarchy:      hierarchy,
		reviews:        reviews,
		reviewClusters: reviewClusters,
		notifications:  notifications,
		configs:        configs,
		auditLogs:      auditLogs,
		log:            svcLog,
		now:            time.Now,
	}
}

// PeriodWindows derives the comparison windows for a rule period relative
// to now. Monthly compares the two previous calendar months, weekly the
// two previous Monday-Sunday weeks, daily yesterday against the same
// weekday a week earlier.
func PeriodWindows(period types.NotificationPeriod, now time.Time) (current, previous Window, err error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case types.NotificationPeriodMonthly:
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		current = Window{Start: firstOfThis.AddDate(0, -1, 0), End: firstOfThis.AddDate(0, 0, -1)}
		previous = Window{Start: firstOfThis.AddDate(0, -2, 0), End: firstOfThis.AddDate(0, -1, -1)}
	case types.NotificationPeriodWeekly:
		thisMonday := mondayOf(today)
		current = Window{Start: thisMonday.AddDate(0, 0, -7), End: thisMonday.AddDate(0, 0, -1)}
		previous = Window{Start: thisMonday.AddDate(0, 0, -14), End: thisMonday.AddDate(0, 0, -8)}
	case types.NotificationPeriodDaily:
		yesterday := today.AddDate(0, 0, -1)
		current = Window{Start: yesterday, End: yesterday}
		weekAgo := yesterday.AddDate(0, 0, -7)
		previous = Window{Start: weekAgo, End: weekAgo}
	default:
		err = fmt.Errorf("%w: period %q", apperr.ErrBadRequest, period)
	}
	return current, previous, err
}

// windowFacts is the per-window snapshot a rule predicate looks at.
type windowFacts struct {
	total     int64
	negatives int64
	counts    types.SentimentCounts
	avgRating float64
}

func (ns *notificationService) facts(ctx context.Context, productIDs []int64, w Window) (windowFacts, error) {
	var f windowFacts
	var err error
	if f.total, err = ns.reviews.CountDistinct(ctx, nil, productIDs, w.Start, w.End, nil, nil); err != nil {
		return f, err
	}
	if f.counts, err = ns.reviews.SentimentCounts(ctx, nil, productIDs, w.Start, w.End, nil); err != nil {
		return f, err
	}
	f.negatives = f.counts.Negative
	if f.avgRating, err = ns.reviews.AvgRating(ctx, nil, productIDs, &w.Start, &w.End, nil); err != nil {
		return f, err
	}
	return f, nil
}

func positiveShare(counts types.SentimentCounts) float64 {
	total := counts.Total()
	if total == 0 {
		return 0
	}
	return 100 * float64(counts.Positive) / float64(total)
}

func (ns *notificationService) Sweep(ctx context.Context) (int, error) {
	rules, err := ns.configs.GetActive(ctx, nil)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, rule := range rules {
		message, ok, err := ns.evaluate(ctx, rule)
		if err != nil {
			ns.log.Error("Rule evaluation failed", "config_id", rule.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if _, err := ns.notifications.Create(ctx, nil, &types.Notification{
			UserID:  rule.UserID,
			Message: message,
			Type:    rule.NotificationType,
		}); err != nil {
			ns.log.Error("Failed to write notification", "config_id", rule.ID, "error", err)
			continue
		}
		action := fmt.Sprintf("notification_fired:%s:product=%d", rule.NotificationType, rule.ProductID)
		if _, err := ns.auditLogs.Create(ctx, nil, &types.AuditLog{UserID: &rule.UserID, Action: action}); err != nil {
			ns.log.Warn("Failed to write audit entry", "config_id", rule.ID, "error", err)
		}
		fired++
	}

	ns.log.Info("Notification sweep finished", "rules", len(rules), "fired", fired)
	return fired, nil
}

func (ns *notificationService) evaluate(ctx context.Context, rule *types.NotificationConfig) (string, bool, error) {
	currentWindow, previousWindow, err := PeriodWindows(rule.Period, ns.now())
	if err != nil {
		return "", false, err
	}

	product, err := ns.hierarchy.GetProduct(ctx, nil, rule.ProductID)
	if err != nil {
		return "", false, err
	}
	productIDs, err := ns.hierarchy.Resolve(ctx, nil, rule.ProductID)
	if err != nil {
		return "", false, err
	}

	if rule.NotificationType == types.NotificationTypeClusterAlert {
		if rule.ClusterID == nil {
			return "", false, nil
		}
		cur, err := ns.reviewClusters.WeightedCount(ctx, nil, *rule.ClusterID, productIDs, currentWindow.Start, currentWindow.End, nil)
		if err != nil {
			return "", false, err
		}
		prev, err := ns.reviewClusters.WeightedCount(ctx, nil, *rule.ClusterID, productIDs, previousWindow.Start, previousWindow.End, nil)
		if err != nil {
			return "", false, err
		}
		if PctChange(cur, prev) > rule.Threshold {
			msg := fmt.Sprintf("Всплеск упоминаний кластера по продукту «%s»: %.1f → %.1f", product.Name, prev, cur)
			return msg, true, nil
		}
		return "", false, nil
	}

	current, err := ns.facts(ctx, productIDs, currentWindow)
	if err != nil {
		return "", false, err
	}
	previous, err := ns.facts(ctx, productIDs, previousWindow)
	if err != nil {
		return "", false, err
	}

	switch rule.NotificationType {
	case types.NotificationTypeReviewSpike:
		if PctChange(float64(current.total), float64(previous.total)) > rule.Threshold {
			msg := fmt.Sprintf("Всплеск отзывов по продукту «%s»: %d → %d", product.Name, previous.total, current.total)
			return msg, true, nil
		}
	case types.NotificationTypeNegativeSpike:
		spike := PctChange(float64(current.negatives), float64(previous.negatives)) > rule.Threshold
		fromZero := previous.negatives == 0 && current.negatives > 0
		if spike || fromZero {
			msg := fmt.Sprintf("Рост негативных отзывов по продукту «%s»: %d → %d", product.Name, previous.negatives, current.negatives)
			return msg, true, nil
		}
	case types.NotificationTypeSentimentDecline:
		if current.total > 0 && previous.total > 0 {
			prevShare := positiveShare(previous.counts)
			curShare := positiveShare(current.counts)
			if prevShare-curShare > rule.Threshold {
				msg := fmt.Sprintf("Снижение доли позитивных отзывов по продукту «%s»: %.1f%% → %.1f%%", product.Name, prevShare, curShare)
				return msg, true, nil
			}
		}
	case types.NotificationTypeRatingDrop:
		if current.avgRating > 0 && previous.avgRating > 0 && previous.avgRating-current.avgRating > rule.Threshold {
			msg := fmt.Sprintf("Падение среднего рейтинга по продукту «%s»: %.2f → %.2f", product.Name, previous.avgRating, current.avgRating)
			return msg, true, nil
		}
	}
	return "", false, nil
}

func (ns *notificationService) validateConfig(ctx context.Context, config *types.NotificationConfig) error {
	if !config.NotificationType.Valid() {
		return fmt.Errorf("%w: notification type %q", apperr.ErrBadRequest, config.NotificationType)
	}
	if !config.Period.Valid() {
		return fmt.Errorf("%w: period %q", apperr.ErrBadRequest, config.Period)
	}
	if config.Threshold <= 0 {
		return fmt.Errorf("%w: threshold must be positive", apperr.ErrBadRequest)
	}
	if _, err := ns.hierarchy.GetProduct(ctx, nil, config.ProductID); err != nil {
		return err
	}
	return nil
}

func (ns *notificationService) CreateConfig(ctx context.Context, userID int64, config *types.NotificationConfig) (*types.NotificationConfig, error) {
	config.UserID = userID
	if err := ns.validateConfig(ctx, config); err != nil {
		return nil, err
	}
	return ns.configs.Create(ctx, nil, config)
}

func (ns *notificationService) GetConfigs(ctx context.Context, userID int64) ([]*types.NotificationConfig, error) {
	return ns.configs.GetByUser(ctx, nil, userID)
}

func (ns *notificationService) UpdateConfig(ctx context.Context, userID, configID int64, update *types.NotificationConfig) (*types.NotificationConfig, error) {
	existing, err := ns.configs.GetByIDAndUser(ctx, nil, configID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: notification config %d", apperr.ErrNotFound, configID)
	}

	existing.ProductID = update.ProductID
	existing.NotificationType = update.NotificationType
	existing.Threshold = update.Threshold
	existing.Period = update.Period
	existing.ClusterID = update.ClusterID
	existing.Active = update.Active
	if err := ns.validateConfig(ctx, existing); err != nil {
		return nil, err
	}
	if err := ns.configs.Update(ctx, nil, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (ns *notificationService) DeleteConfig(ctx context.Context, userID, configID int64) error {
	existing, err := ns.configs.GetByIDAndUser(ctx, nil, configID, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: notification config %d", apperr.ErrNotFound, configID)
	}
	return ns.configs.Delete(ctx, nil, existing)
}

func (ns *notificationService) GetNotifications(ctx context.Context, userID int64, isRead *bool) ([]*types.Notification, error) {
	return ns.notifications.GetByUser(ctx, nil, userID, isRead)
}

func (ns *notificationService) MarkNotificationRead(ctx context.Context, userID, notificationID int64) (*types.Notification, error) {
	existing, err := ns.notifications.GetByIDAndUser(ctx, nil, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: notification %d", apperr.ErrNotFound, notificationID)
	}
	if err := ns.notifications.MarkRead(ctx, nil, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (ns *notificationService) DeleteNotification(ctx context.Context, userID, notificationID int64) error {
	existing, err := ns.notifications.GetByIDAndUser(ctx, nil, notificationID, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: notification %d", apperr.ErrNotFound, notificationID)
	}
	return ns.notifications.Delete(ctx, nil, existing)
}
