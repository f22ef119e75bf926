package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

func newNotifications(t *testing.T, gdb *gorm.DB, now time.Time) NotificationService {
	t.Helper()
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	reviewRepo := repos.NewReviewRepo(gdb, log)
	reviewClusterRepo := repos.NewReviewClusterRepo(gdb, log)
	notificationRepo := repos.NewNotificationRepo(gdb, log)
	configRepo := repos.NewNotificationConfigRepo(gdb, log)
	auditRepo := repos.NewAuditLogRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)

	svc := NewNotificationService(hierarchy, reviewRepo, reviewClusterRepo, notificationRepo, configRepo, auditRepo, log)
	svc.(*notificationService).now = func() time.Time { return now }
	return svc
}

func TestPeriodWindows(t *testing.T) {
	// Friday, 2025-05-16.
	now := time.Date(2025, 5, 16, 10, 0, 0, 0, time.UTC)

	current, previous, err := PeriodWindows(types.NotificationPeriodMonthly, now)
	if err != nil {
		t.Fatalf("monthly failed: %v", err)
	}
	if current.Start.Format("2006-01-02") != "2025-04-01" || current.End.Format("2006-01-02") != "2025-04-30" {
		t.Fatalf("monthly current = %v..%v", current.Start, current.End)
	}
	if previous.Start.Format("2006-01-02") != "2025-03-01" || previous.End.Format("2006-01-02") != "2025-03-31" {
		t.Fatalf("monthly previous = %v..%v", previous.Start, previous.End)
	}

	current, previous, err = PeriodWindows(types.NotificationPeriodWeekly, now)
	if err != nil {
		t.Fatalf("weekly failed: %v", err)
	}
	if current.Start.Format("2006-01-02") != "2025-05-05" || current.End.Format("2006-01-02") != "2025-05-11" {
		t.Fatalf("weekly current = %v..%v", current.Start, current.End)
	}
	if previous.Start.Format("2006-01-02") != "2025-04-28" || previous.End.Format("2006-01-02") != "2025-05-04" {
		t.Fatalf("weekly previous = %v..%v", previous.Start, previous.End)
	}

	current, previous, err = PeriodWindows(types.NotificationPeriodDaily, now)
	if err != nil {
		t.Fatalf("daily failed: %v", err)
	}
	if current.Start.Format("2006-01-02") != "2025-05-15" || current.Start != current.End {
		t.Fatalf("daily current = %v..%v", current.Start, current.End)
	}
	if previous.Start.Format("2006-01-02") != "2025-05-08" {
		t.Fatalf("daily previous = %v", previous.Start)
	}

	if _, _, err := PeriodWindows("yearly", now); err == nil {
		t.Fatalf("unknown period must fail")
	}
}

func TestSweepFiresRatingDrop(t *testing.T) {
	gdb := newTestDB(t)
	now := time.Date(2025, 5, 16, 10, 0, 0, 0, time.UTC)
	svc := newNotifications(t, gdb, now)

	product := seedProduct(t, gdb, "Ипотека", nil)

	// Previous month (March): avg 4.8 over 20 rated reviews.
	for i := 0; i < 16; i++ {
		seedReview(t, gdb, product, "2025-03-10", types.SentimentPositive, 5)
	}
	for i := 0; i < 4; i++ {
		seedReview(t, gdb, product, "2025-03-20", types.SentimentPositive, 4)
	}
	// Current month (April): avg 4.4 over 15 rated reviews.
	for i := 0; i < 6; i++ {
		seedReview(t, gdb, product, "2025-04-05", types.SentimentPositive, 5)
	}
	for i := 0; i < 9; i++ {
		seedReview(t, gdb, product, "2025-04-15", types.SentimentNeutral, 4)
	}

	config := &types.NotificationConfig{
		UserID:           7,
		ProductID:        product.ID,
		NotificationType: types.NotificationTypeRatingDrop,
		Threshold:        0.3,
		Period:           types.NotificationPeriodMonthly,
		Active:           true,
	}
	if err := gdb.Create(config).Error; err != nil {
		t.Fatalf("failed to seed config: %v", err)
	}

	fired, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	var notification types.Notification
	if err := gdb.First(&notification).Error; err != nil {
		t.Fatalf("notification missing: %v", err)
	}
	if notification.UserID != 7 || notification.Type != types.NotificationTypeRatingDrop {
		t.Fatalf("notification = %+v", notification)
	}
	if !strings.Contains(notification.Message, "4.80 → 4.40") {
		t.Fatalf("message %q must contain the rating transition", notification.Message)
	}

	var audits int64
	if err := gdb.Model(&types.AuditLog{}).Count(&audits).Error; err != nil {
		t.Fatalf("audit count failed: %v", err)
	}
	if audits != 1 {
		t.Fatalf("audit entries = %d, want 1", audits)
	}

	// Same store and clock: the sweep is deterministic and fires again.
	firedAgain, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if firedAgain != 1 {
		t.Fatalf("second sweep fired = %d, want 1", firedAgain)
	}
}

func TestSweepNegativeSpikeFromZero(t *testing.T) {
	gdb := newTestDB(t)
	now := time.Date(2025, 5, 16, 10, 0, 0, 0, time.UTC)
	svc := newNotifications(t, gdb, now)

	product := seedProduct(t, gdb, "Карты", nil)
	// No negatives in March, two in April.
	seedReview(t, gdb, product, "2025-03-10", types.SentimentPositive, 5)
	seedReview(t, gdb, product, "2025-04-10", types.SentimentNegative, 1)
	seedReview(t, gdb, product, "2025-04-11", types.SentimentNegative, 2)

	config := &types.NotificationConfig{
		UserID:           1,
		ProductID:        product.ID,
		NotificationType: types.NotificationTypeNegativeSpike,
		Threshold:        50,
		Period:           types.NotificationPeriodMonthly,
		Active:           true,
	}
	if err := gdb.Create(config).Error; err != nil {
		t.Fatalf("failed to seed config: %v", err)
	}

	fired, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if fired != 1 {
		t.Fatalf("zero-to-nonzero negatives must fire, fired = %d", fired)
	}
}

func TestSweepSkipsInactiveAndQuietRules(t *testing.T) {
	gdb := newTestDB(t)
	now := time.Date(2025, 5, 16, 10, 0, 0, 0, time.UTC)
	svc := newNotifications(t, gdb, now)

	product := seedProduct(t, gdb, "Вклады", nil)
	seedReview(t, gdb, product, "2025-03-10", types.SentimentPositive, 5)
	seedReview(t, gdb, product, "2025-04-10", types.SentimentPositive, 5)

	inactive := &types.NotificationConfig{
		UserID: 1, ProductID: product.ID,
		NotificationType: types.NotificationTypeReviewSpike,
		Threshold:        1, Period: types.NotificationPeriodMonthly, Active: false,
	}
	quiet := &types.NotificationConfig{
		UserID: 1, ProductID: product.ID,
		NotificationType: types.NotificationTypeReviewSpike,
		Threshold:        500, Period: types.NotificationPeriodMonthly, Active: true,
	}
	if err := gdb.Create(inactive).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := gdb.Create(quiet).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	fired, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if fired != 0 {
		t.Fatalf("fired = %d, want 0", fired)
	}
}

func TestConfigCRUDOwnership(t *testing.T) {
	gdb := newTestDB(t)
	svc := newNotifications(t, gdb, time.Now())
	product := seedProduct(t, gdb, "Карты", nil)

	created, err := svc.CreateConfig(context.Background(), 1, &types.NotificationConfig{
		ProductID:        product.ID,
		NotificationType: types.NotificationTypeReviewSpike,
		Threshold:        10,
		Period:           types.NotificationPeriodWeekly,
		Active:           true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.UpdateConfig(context.Background(), 2, created.ID, created); err == nil {
		t.Fatalf("foreign user must not update the config")
	}
	if err := svc.DeleteConfig(context.Background(), 2, created.ID); err == nil {
		t.Fatalf("foreign user must not delete the config")
	}
	if err := svc.DeleteConfig(context.Background(), 1, created.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	gdb := newTestDB(t)
	svc := newNotifications(t, gdb, time.Now())
	product := seedProduct(t, gdb, "Карты", nil)

	cases := []struct {
		name   string
		config types.NotificationConfig
	}{
		{"bad type", types.NotificationConfig{ProductID: product.ID, NotificationType: "volcano_alert", Threshold: 1, Period: types.NotificationPeriodDaily}},
		{"bad period", types.NotificationConfig{ProductID: product.ID, NotificationType: types.NotificationTypeReviewSpike, Threshold: 1, Period: "hourly"}},
		{"zero threshold", types.NotificationConfig{ProductID: product.ID, NotificationType: types.NotificationTypeReviewSpike, Threshold: 0, Period: types.NotificationPeriodDaily}},
		{"unknown product", types.NotificationConfig{ProductID: 9999, NotificationType: types.NotificationTypeReviewSpike, Threshold: 1, Period: types.NotificationPeriodDaily}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.config
			if _, err := svc.CreateConfig(context.Background(), 1, &cfg); err == nil {
				t.Fatalf("invalid config accepted")
			}
		})
	}
}
