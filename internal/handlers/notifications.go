package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/services"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

type NotificationHandler struct {
	notifications services.NotificationService
}

func NewNotificationHandler(notifications services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (nh *NotificationHandler) List(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	var isRead *bool
	if raw := c.Query("is_read"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			RespondAppError(c, fmt.Errorf("%w: invalid is_read", apperr.ErrBadRequest))
			return
		}
		isRead = &v
	}

	items, err := nh.notifications.GetNotifications(c.Request.Context(), uid, isRead)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if items == nil {
		items = []*types.Notification{}
	}
	RespondOK(c, gin.H{"notifications": items})
}

func (nh *NotificationHandler) MarkRead(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	notificationID, err := pathID(c, "id")
	if err != nil {
		RespondAppError(c, err)
		return
	}

	updated, err := nh.notifications.MarkNotificationRead(c.Request.Context(), uid, notificationID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, updated)
}

func (nh *NotificationHandler) Delete(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	notificationID, err := pathID(c, "id")
	if err != nil {
		RespondAppError(c, err)
		return
	}

	if err := nh.notifications.DeleteNotification(c.Request.Context(), uid, notificationID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": notificationID})
}

func (nh *NotificationHandler) Sweep(c *gin.Context) {
	fired, err := nh.notifications.Sweep(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"fired": fired})
}

type configRequest struct {
	ProductID        int64   `json:"product_id" binding:"required"`
	NotificationType string  `json:"notification_type" binding:"required"`
	Threshold        float64 `json:"threshold" binding:"required"`
	Period           string  `json:"period" binding:"required"`
	ClusterID        *int64  `json:"cluster_id,omitempty"`
	Active           *bool   `json:"active,omitempty"`
}

func (r *configRequest) toConfig() *types.NotificationConfig {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &types.NotificationConfig{
		ProductID:        r.ProductID,
		NotificationType: types.NotificationType(r.NotificationType),
		Threshold:        r.Threshold,
		Period:           types.NotificationPeriod(r.Period),
		ClusterID:        r.ClusterID,
		Active:           active,
	}
}

func (nh *NotificationHandler) CreateConfig(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err))
		return
	}

	created, err := nh.notifications.CreateConfig(c.Request.Context(), uid, req.toConfig())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, created)
}

func (nh *NotificationHandler) ListConfigs(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	configs, err := nh.notifications.GetConfigs(c.Request.Context(), uid)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if configs == nil {
		configs = []*types.NotificationConfig{}
	}
	RespondOK(c, gin.H{"configs": configs})
}

func (nh *NotificationHandler) UpdateConfig(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	configID, err := pathID(c, "id")
	if err != nil {
		RespondAppError(c, err)
		return
	}
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err))
		return
	}

	updated, err := nh.notifications.UpdateConfig(c.Request.Context(), uid, configID, req.toConfig())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, updated)
}

func (nh *NotificationHandler) DeleteConfig(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	configID, err := pathID(c, "id")
	if err != nil {
		RespondAppError(c, err)
		return
	}

	if err := nh.notifications.DeleteConfig(c.Request.Context(), uid, configID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": configID})
}
