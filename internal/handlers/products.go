package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/services"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

type ProductHandler struct {
	hierarchy services.HierarchyService
	stats     services.StatsService
	products  repos.ProductRepo
}

func NewProductHandler(hierarchy services.HierarchyService, stats services.StatsService, products repos.ProductRepo) *ProductHandler {
	return &ProductHandler{hierarchy: hierarchy, stats: stats, products: products}
}

func (ph *ProductHandler) GetTree(c *gin.Context) {
	var clientType *types.ClientType
	if raw := c.Query("client_type"); raw != "" {
		ct := types.ClientType(raw)
		if !ct.Valid() {
			RespondAppError(c, fmt.Errorf("%w: client_type %q", apperr.ErrBadRequest, raw))
			return
		}
		clientType = &ct
	}

	tree, err := ph.hierarchy.GetTree(c.Request.Context(), nil, clientType)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if tree == nil {
		tree = []*types.ProductTreeNode{}
	}
	RespondOK(c, gin.H{"products": tree})
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", apperr.ErrBadRequest, name)
	}
	return id, nil
}

func (ph *ProductHandler) GetStats(c *gin.Context) {
	productID, err := pathID(c, "id")
	if err != nil {
		RespondAppError(c, err)
		return
	}
	window, err := parseWindow(c, "start_date", "end_date", services.GranularityDay)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	var previous *services.Window
	if c.Query("start_date2") != "" || c.Query("end_date2") != "" {
		w2, err := parseWindow(c, "start_date2", "end_date2", services.GranularityDay)
		if err != nil {
			RespondAppError(c, err)
			return
		}
		previous = &w2
	}

	stats, err := ph.stats.ProductStats(c.Request.Context(), nil, productID, window, previous, optionalQuery(c, "source"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, stats)
}

type createProductRequest struct {
	Name        string         `json:"name" binding:"required"`
	ParentID    *int64         `json:"parent_id,omitempty"`
	Type        string         `json:"type" binding:"required"`
	ClientType  string         `json:"client_type" binding:"required"`
	Description *string        `json:"description,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

func (ph *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err))
		return
	}

	productType := types.ProductType(req.Type)
	clientType := types.ClientType(req.ClientType)
	if !productType.Valid() || !clientType.Valid() {
		RespondAppError(c, fmt.Errorf("%w: invalid type or client_type", apperr.ErrBadRequest))
		return
	}

	ctx := c.Request.Context()
	exists, err := ph.products.NameExists(ctx, nil, req.Name)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if exists {
		RespondAppError(c, fmt.Errorf("%w: product %q already exists", apperr.ErrConflict, req.Name))
		return
	}

	product := &types.Product{
		Name:        req.Name,
		Type:        productType,
		ClientType:  clientType,
		Description: req.Description,
	}
	if req.Attributes != nil {
		encoded, err := json.Marshal(req.Attributes)
		if err != nil {
			RespondAppError(c, fmt.Errorf("%w: bad attributes", apperr.ErrBadRequest))
			return
		}
		product.Attributes = datatypes.JSON(encoded)
	}
	if req.ParentID != nil {
		parent, err := ph.hierarchy.GetProduct(ctx, nil, *req.ParentID)
		if err != nil {
			RespondAppError(c, err)
			return
		}
		product.ParentID = &parent.ID
		product.Level = parent.Level + 1
	}

	created, err := ph.products.Create(ctx, nil, product)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, created)
}
