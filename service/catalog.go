package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"consumables/models"

	"gorm.io/gorm"
)

// CatalogService 大类、小类、物品的维护
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService 创建目录服务
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ItemInput 新建/编辑物品的字段
type ItemInput struct {
	SubCategoryID *uint
	Name          string
	AverageStock  float64
	CurrentStock  float64
	// Score 为 nil 时新建取默认积分，编辑保留原值
	Score *int
}

// CategoryDetail 大类详情：小类（含其物品）与直属物品
type CategoryDetail struct {
	Category      models.Category      `json:"category"`
	SubCategories []models.SubCategory `json:"subcategories"`
	DirectItems   []models.Item        `json:"direct_items"`
}

// SubCategoryDetail 小类详情
type SubCategoryDetail struct {
	SubCategory models.SubCategory `json:"subcategory"`
	Items       []models.Item      `json:"items"`
}

var errEmptyName = fmt.Errorf("name is empty: %w", ErrInvalidInput)

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errEmptyName
	}
	return name, nil
}

// ListCategories 所有大类
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&list).Error
	return list, err
}

// GetCategory 大类详情
func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*CategoryDetail, error) {
	db := s.db.WithContext(ctx)

	var cat models.Category
	if err := db.First(&cat, id).Error; err != nil {
		return nil, notFound(err, "category")
	}

	var subs []models.SubCategory
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order(models.ItemDefaultOrder)
	}).Where("category_id = ?", id).Order("name ASC").Find(&subs).Error; err != nil {
		return nil, err
	}

	var direct []models.Item
	if err := db.Where("category_id = ? AND sub_category_id IS NULL", id).
		Order(models.ItemDefaultOrder).
		Find(&direct).Error; err != nil {
		return nil, err
	}

	return &CategoryDetail{Category: cat, SubCategories: subs, DirectItems: direct}, nil
}

// CreateCategory 新建大类，名称唯一
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := s.ensureCategoryNameFree(db, name, 0); err != nil {
		return nil, err
	}
	cat := models.Category{Name: name}
	if err := db.Create(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// RenameCategory 修改大类名称
func (s *CatalogService) RenameCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var cat models.Category
	if err := db.First(&cat, id).Error; err != nil {
		return nil, notFound(err, "category")
	}
	if err := s.ensureCategoryNameFree(db, name, cat.ID); err != nil {
		return nil, err
	}
	if err := db.Model(&cat).Update("name", name).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *CatalogService) ensureCategoryNameFree(db *gorm.DB, name string, exceptID uint) error {
	var existing models.Category
	err := db.Where("name = ? AND id <> ?", name, exceptID).First(&existing).Error
	if err == nil {
		return fmt.Errorf("category %q already exists: %w", name, ErrConflict)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// DeleteCategory 删除大类，级联删除其小类、物品及物品的领取记录（仅超级管理员）
func (s *CatalogService) DeleteCategory(ctx context.Context, actor *models.User, id uint) error {
	if err := Authorize(actor, ActionDeleteCategory); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, id).Error; err != nil {
			return notFound(err, "category")
		}
		items := tx.Model(&models.Item{}).Select("id").Where("category_id = ?", id)
		if err := tx.Where("item_id IN (?)", items).Delete(&models.ConsumptionRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.SubCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cat).Error
	})
}

// GetSubCategory 小类详情
func (s *CatalogService) GetSubCategory(ctx context.Context, id uint) (*SubCategoryDetail, error) {
	db := s.db.WithContext(ctx)

	var sub models.SubCategory
	if err := db.First(&sub, id).Error; err != nil {
		return nil, notFound(err, "subcategory")
	}
	var items []models.Item
	if err := db.Where("sub_category_id = ?", id).Order(models.ItemDefaultOrder).Find(&items).Error; err != nil {
		return nil, err
	}
	return &SubCategoryDetail{SubCategory: sub, Items: items}, nil
}

// CreateSubCategory 在大类下新建小类
func (s *CatalogService) CreateSubCategory(ctx context.Context, categoryID uint, name string) (*models.SubCategory, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var cat models.Category
	if err := db.First(&cat, categoryID).Error; err != nil {
		return nil, notFound(err, "category")
	}
	sub := models.SubCategory{Name: name, CategoryID: cat.ID}
	if err := db.Create(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// RenameSubCategory 修改小类名称
func (s *CatalogService) RenameSubCategory(ctx context.Context, id uint, name string) (*models.SubCategory, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var sub models.SubCategory
	if err := db.First(&sub, id).Error; err != nil {
		return nil, notFound(err, "subcategory")
	}
	if err := db.Model(&sub).Update("name", name).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubCategory 删除小类（仅超级管理员），其物品转为大类直属
// 若转出的物品与大类直属物品重名则拒绝删除
func (s *CatalogService) DeleteSubCategory(ctx context.Context, actor *models.User, id uint) (*models.SubCategory, error) {
	if err := Authorize(actor, ActionDeleteSubCategory); err != nil {
		return nil, err
	}
	var sub models.SubCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, id).Error; err != nil {
			return notFound(err, "subcategory")
		}

		var clashes int64
		if err := tx.Model(&models.Item{}).
			Where("category_id = ? AND sub_category_id IS NULL", sub.CategoryID).
			Where("name IN (?)", tx.Model(&models.Item{}).Select("name").Where("sub_category_id = ?", id)).
			Count(&clashes).Error; err != nil {
			return err
		}
		if clashes > 0 {
			return fmt.Errorf("%d item name(s) clash with direct items: %w", clashes, ErrConflict)
		}

		if err := tx.Model(&models.Item{}).
			Where("sub_category_id = ?", id).
			Update("sub_category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetItem 物品详情
func (s *CatalogService) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).Preload("Category").Preload("SubCategory").First(&item, id).Error; err != nil {
		return nil, notFound(err, "item")
	}
	return &item, nil
}

// CreateItem 在大类下新建物品
func (s *CatalogService) CreateItem(ctx context.Context, categoryID uint, in ItemInput) (*models.Item, error) {
	item := models.Item{CategoryID: categoryID, Score: models.DefaultItemScore}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, categoryID).Error; err != nil {
			return notFound(err, "category")
		}
		if err := s.applyItemInput(tx, &item, in); err != nil {
			return err
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem 编辑物品；current_stock 为管理员直接覆盖
func (s *CatalogService) UpdateItem(ctx context.Context, id uint, in ItemInput) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&item, id).Error; err != nil {
			return notFound(err, "item")
		}
		if err := s.applyItemInput(tx, &item, in); err != nil {
			return err
		}
		return tx.Model(&item).Select("sub_category_id", "name", "average_stock", "current_stock", "score").Updates(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CatalogService) applyItemInput(tx *gorm.DB, item *models.Item, in ItemInput) error {
	name, err := cleanName(in.Name)
	if err != nil {
		return err
	}
	if in.CurrentStock < 0 {
		return fmt.Errorf("current stock %v is negative: %w", in.CurrentStock, ErrInvalidQuantity)
	}
	if in.SubCategoryID != nil {
		var sub models.SubCategory
		if err := tx.Where("id = ? AND category_id = ?", *in.SubCategoryID, item.CategoryID).First(&sub).Error; err != nil {
			return notFound(err, "subcategory")
		}
	}

	item.Name = name
	item.SubCategoryID = in.SubCategoryID
	item.AverageStock = in.AverageStock
	item.CurrentStock = in.CurrentStock
	if in.Score != nil {
		item.Score = *in.Score
	}
	return s.ensureItemNameFree(tx, item)
}

// ensureItemNameFree 无小类时名称在大类直属物品中唯一，有小类时在小类内唯一
func (s *CatalogService) ensureItemNameFree(tx *gorm.DB, item *models.Item) error {
	q := tx.Model(&models.Item{}).Where("name = ? AND id <> ?", item.Name, item.ID)
	if item.SubCategoryID == nil {
		q = q.Where("category_id = ? AND sub_category_id IS NULL", item.CategoryID)
	} else {
		q = q.Where("sub_category_id = ?", *item.SubCategoryID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("item %q already exists: %w", item.Name, ErrConflict)
	}
	return nil
}

// DeleteItem 删除物品及其领取记录，任何登录用户都可以执行
func (s *CatalogService) DeleteItem(ctx context.Context, actor *models.User, id uint) (*models.Item, error) {
	if err := Authorize(actor, ActionDeleteItem); err != nil {
		return nil, err
	}
	var item models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return notFound(err, "item")
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.ConsumptionRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
