package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/services"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

type ReviewHandler struct {
	stats     services.StatsService
	ingestion services.IngestionService
	loader    services.JSONLLoader
}

func NewReviewHandler(stats services.StatsService, ingestion services.IngestionService, loader services.JSONLLoader) *ReviewHandler {
	return &ReviewHandler{stats: stats, ingestion: ingestion, loader: loader}
}

func (rh *ReviewHandler) List(c *gin.Context) {
	productID, err := requiredQueryInt64(c, "product_id")
	if err != nil {
		RespondAppError(c, err)
		return
	}

	filter := repos.ReviewFilter{}
	if rawStart := c.Query("start_date"); rawStart != "" {
		start, err := services.ParseWindowDate(rawStart, services.GranularityDay, false)
		if err != nil {
			RespondAppError(c, err)
			return
		}
		filter.Start = &start
	}
	if rawEnd := c.Query("end_date"); rawEnd != "" {
		end, err := services.ParseWindowDate(rawEnd, services.GranularityDay, true)
		if err != nil {
			RespondAppError(c, err)
			return
		}
		filter.End = &end
	}
	if filter.Start != nil && filter.End != nil && filter.Start.After(*filter.End) {
		RespondAppError(c, fmt.Errorf("%w: start_date after end_date", apperr.ErrBadRequest))
		return
	}

	switch c.DefaultQuery("sort", "desc") {
	case "desc":
		filter.SortDesc = true
	case "asc":
		filter.SortDesc = false
	default:
		RespondAppError(c, fmt.Errorf("%w: sort must be asc or desc", apperr.ErrBadRequest))
		return
	}

	if raw := c.Query("sentiment"); raw != "" {
		s := types.Sentiment(raw)
		filter.Sentiment = &s
	}
	filter.Source = optionalQuery(c, "source")
	if raw := c.Query("cluster_id"); raw != "" {
		clusterID, err := requiredQueryInt64(c, "cluster_id")
		if err != nil {
			RespondAppError(c, err)
			return
		}
		filter.ClusterID = &clusterID
	}

	if filter.Page, err = queryIntDefault(c, "page", 1); err != nil {
		RespondAppError(c, err)
		return
	}
	if filter.PageSize, err = queryIntDefault(c, "page_size", 50); err != nil {
		RespondAppError(c, err)
		return
	}

	page, err := rh.stats.ListReviews(c.Request.Context(), nil, productID, filter)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, page)
}

type bulkCreateRequest struct {
	Reviews []services.BulkReviewItem `json:"reviews"`
}

func (rh *ReviewHandler) BulkCreate(c *gin.Context) {
	var req bulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err))
		return
	}
	inserted, err := rh.stats.BulkCreateReviews(c.Request.Context(), req.Reviews)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"inserted": inserted})
}

type processRequest struct {
	BankSlug      string `json:"bank_slug" binding:"required"`
	Topic         string `json:"topic"`
	Limit         int    `json:"limit"`
	MarkProcessed *bool  `json:"mark_processed,omitempty"`
}

func (rh *ReviewHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err))
		return
	}
	mark := true
	if req.MarkProcessed != nil {
		mark = *req.MarkProcessed
	}
	result, err := rh.ingestion.Process(c.Request.Context(), req.BankSlug, req.Topic, req.Limit, mark)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

func (rh *ReviewHandler) ProcessAll(c *gin.Context) {
	limit, err := queryIntDefault(c, "limit", 0)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	result, err := rh.ingestion.ProcessAll(c.Request.Context(), limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

type loadJSONLRequest struct {
	Path string `json:"path" binding:"required"`
}

func (rh *ReviewHandler) LoadJSONL(c *gin.Context) {
	var req loadJSONLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err))
		return
	}
	result, err := rh.loader.LoadFile(c.Request.Context(), req.Path)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}
