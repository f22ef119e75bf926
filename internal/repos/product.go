package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, product *types.Product) (*types.Product, error)
	GetByID(ctx context.Context, tx *gorm.DB, productID int64) (*types.Product, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Product, error)
	NameExists(ctx context.Context, tx *gorm.DB, name string) (bool, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Product, error)
	SubtreeIDs(ctx context.Context, tx *gorm.DB, rootID int64) ([]int64, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	repoLog := baseLog.With("repo", "ProductRepo")
	return &productRepo{db: db, log: repoLog}
}

func (pr *productRepo) Create(ctx context.Context, tx *gorm.DB, product *types.Product) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (pr *productRepo) GetByID(ctx context.Context, tx *gorm.DB, productID int64) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Product
	if err := transaction.WithContext(ctx).
		Where("id = ?", productID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (pr *productRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	// Matches on the Go-folded name column: SQL LOWER() only folds ASCII
	// on some drivers, which silently misses Cyrillic names.
	var result types.Product
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

func (pr *productRepo) NameExists(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("name_fold = ?", types.FoldName(name)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (pr *productRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Product
	if err := transaction.WithContext(ctx).
		Order("level ASC").
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SubtreeIDs returns the ids of the product itself plus every descendant,
// walking parent_id links with a recursive CTE.
func (pr *productRepo) SubtreeIDs(ctx context.Context, tx *gorm.DB, rootID int64) ([]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var ids []int64
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id FROM products WHERE id = ?
			UNION ALL
			SELECT p.id FROM products p JOIN subtree s ON p.parent_id = s.id
		)
		SELECT id FROM subtree`
	if err := transaction.WithContext(ctx).Raw(query, rootID).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
