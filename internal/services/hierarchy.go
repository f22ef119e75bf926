package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// HierarchyService owns the product tree: subtree resolution, tree
// rendering, and topic-driven product creation during ingestion.
type HierarchyService interface {
	Resolve(ctx context.Context, tx *gorm.DB, productID int64) ([]int64, error)
	GetTree(ctx context.Context, tx *gorm.DB, clientType *types.ClientType) ([]*types.ProductTreeNode, error)
	GetOrCreate(ctx context.Context, tx *gorm.DB, name string) (*types.Product, int, error)
	GetProduct(ctx context.Context, tx *gorm.DB, productID int64) (*types.Product, error)
}

type hierarchyService struct {
	products repos.ProductRepo
	log      *logger.Logger
}

func NewHierarchyService(products repos.ProductRepo, baseLog *logger.Logger) HierarchyService {
	svcLog := baseLog.With("service", "HierarchyService")
	return &hierarchyService{products: products, log: svcLog}
}

func (hs *hierarchyService) GetProduct(ctx context.Context, tx *gorm.DB, productID int64) (*types.Product, error) {
	product, err := hs.products.GetByID(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %d", apperr.ErrNotFound, productID)
	}
	return product, nil
}

// Resolve returns the product's own id plus every descendant id.
func (hs *hierarchyService) Resolve(ctx context.Context, tx *gorm.DB, productID int64) ([]int64, error) {
	if _, err := hs.GetProduct(ctx, tx, productID); err != nil {
		return nil, err
	}
	return hs.products.SubtreeIDs(ctx, tx, productID)
}

func (hs *hierarchyService) GetTree(ctx context.Context, tx *gorm.DB, clientType *types.ClientType) ([]*types.ProductTreeNode, error) {
	products, err := hs.products.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]*types.ProductTreeNode, len(products))
	for _, p := range products {
		nodes[p.ID] = &types.ProductTreeNode{
			ID:         p.ID,
			Name:       p.Name,
			Type:       p.Type,
			ClientType: p.ClientType,
			Level:      p.Level,
		}
	}

	var roots []*types.ProductTreeNode
	for _, p := range products {
		node := nodes[p.ID]
		if p.ParentID == nil {
			if clientType != nil && p.ClientType != *clientType && p.ClientType != types.ClientTypeBoth {
				continue
			}
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*p.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}

	sortTree(roots)
	return roots, nil
}

func sortTree(nodes []*types.ProductTreeNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Level != nodes[j].Level {
			return nodes[i].Level < nodes[j].Level
		}
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
	for _, n := range nodes {
		sortTree(n.Children)
	}
}

// GetOrCreate looks a display name up case-insensitively and creates the
// product under its mapped parent category when missing. Unmapped names
// become top-level categories. The int is the number of products newly
// created, parents included.
func (hs *hierarchyService) GetOrCreate(ctx context.Context, tx *gorm.DB, name string) (*types.Product, int, error) {
	existing, err := hs.products.GetByName(ctx, tx, name)
	if err != nil {
		return nil, 0, err
	}
	if existing != nil {
		return existing, 0, nil
	}

	product := &types.Product{
		Name:       name,
		Level:      0,
		Type:       types.ProductTypeCategory,
		ClientType: types.ClientTypeBoth,
	}

	newProducts := 0
	if parentName, ok := ParentFor(name); ok {
		parent, parentCreated, err := hs.GetOrCreate(ctx, tx, parentName)
		if err != nil {
			return nil, 0, err
		}
		newProducts += parentCreated
		product.ParentID = &parent.ID
		product.Level = parent.Level + 1
		product.Type = types.ProductTypeSubcategory
	}

	created, err := hs.products.Create(ctx, tx, product)
	if err != nil {
		return nil, newProducts, err
	}
	hs.log.Info("Created product from topic", "name", name, "id", created.ID)
	return created, newProducts + 1, nil
}
