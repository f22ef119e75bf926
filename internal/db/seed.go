package db

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// Base category tree the ingestion transformer hangs new products onto.
var baseCategories = []string{
	"Карты",
	"Вклады",
	"Кредитование",
	"Обслуживание",
	"Приложение",
	"Другой",
}

var baseSubcategories = map[string]string{
	"Кредитные карты":            "Карты",
	"Дебетовые карты":            "Карты",
	"Кредиты":                    "Кредитование",
	"Реструктуризация":           "Кредитование",
	"Ипотека":                    "Кредитование",
	"Дистанционное обслуживание": "Обслуживание",
	"Очное обслуживание":         "Обслуживание",
}

var defaultClusters = []struct {
	Name        string
	Keyword     string
	Description string
}{
	{"Скорость и качество клиентской поддержки", "поддержка", "Работа поддержки"},
	{"Акции, бонусы, кэшбэк", "акция", "Промо"},
	{"Безопасность, надежность", "безопасность", "Защита данных"},
	{"Условия кредитования", "кредит", "Условия кредитов"},
	{"Комиссии", "комиссия", "Плата за услуги"},
	{"Мобильное приложение", "приложение", "Работа приложения"},
	{"Доброжелательность", "френдли", "Доброжелательность работников"},
	{"Отзывчивость", "отзывчивость", "Отзывчивость сотрудников"},
}

// Seed creates the base product categories and the default cluster set.
// Safe to run on every start: existing rows are left alone.
func Seed(db *gorm.DB, log *logger.Logger) error {
	seedLog := log.With("component", "Seed")

	categoryIDs := map[string]int64{}
	for _, name := range baseCategories {
		var existing types.Product
		err := db.Where("name_fold = ?", types.FoldName(name)).First(&existing).Error
		if err == nil {
			categoryIDs[name] = existing.ID
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		product := types.Product{
			Name:       name,
			Level:      0,
			Type:       types.ProductTypeCategory,
			ClientType: types.ClientTypeBoth,
		}
		if err := db.Create(&product).Error; err != nil {
			return err
		}
		categoryIDs[name] = product.ID
		seedLog.Info("Created base category", "name", name, "id", product.ID)
	}

	for name, parentName := range baseSubcategories {
		var existing types.Product
		err := db.Where("name_fold = ?", types.FoldName(name)).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		parentID := categoryIDs[parentName]
		product := types.Product{
			Name:       name,
			ParentID:   &parentID,
			Level:      1,
			Type:       types.ProductTypeSubcategory,
			ClientType: types.ClientTypeBoth,
		}
		if err := db.Create(&product).Error; err != nil {
			return err
		}
		seedLog.Info("Created base subcategory", "name", name, "parent", parentName)
	}

	for _, c := range defaultClusters {
		var existing types.Cluster
		err := db.Where("name_fold = ?", types.FoldName(c.Name)).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		desc := c.Description
		cluster := types.Cluster{
			Name:        c.Name,
			Keywords:    datatypes.JSON([]byte(`["` + c.Keyword + `"]`)),
			Description: &desc,
		}
		if err := db.Create(&cluster).Error; err != nil {
			return err
		}
		seedLog.Info("Created default cluster", "name", c.Name)
	}

	return nil
}
