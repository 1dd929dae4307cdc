package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"consumables/config"
	"consumables/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockService 库存引擎：领取、撤销、盘点与低库存查询
// 领取/撤销/盘点均在单个事务内对物品行加 FOR UPDATE 锁，避免并发领取读到旧库存
type StockService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStockService 创建库存服务
func NewStockService(db *gorm.DB) *StockService {
	return &StockService{
		db: db,
		now: func() time.Time {
			return time.Now().In(config.Location())
		},
	}
}

// WithClock 替换时间来源
func (s *StockService) WithClock(now func() time.Time) *StockService {
	s.now = now
	return s
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// TakeItem 领取物品：扣减库存并生成领取记录，两者同属一个事务
func (s *StockService) TakeItem(ctx context.Context, userID, itemID uint, quantity float64) (rec *models.ConsumptionRecord, err error) {
	defer func() { observeMutation(opTake, err) }()

	if quantity <= 0 {
		return nil, fmt.Errorf("quantity %v must be positive: %w", quantity, ErrInsufficientStock)
	}

	var record models.ConsumptionRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := lockForUpdate(tx).First(&item, itemID).Error; err != nil {
			return notFound(err, "item")
		}

		if item.CurrentStock < quantity {
			return fmt.Errorf("requested %v, only %v available: %w", quantity, item.CurrentStock, ErrInsufficientStock)
		}

		item.CurrentStock -= quantity
		item.UsageCount += quantity
		if err := tx.Model(&item).Updates(map[string]interface{}{
			"current_stock": item.CurrentStock,
			"usage_count":   item.UsageCount,
		}).Error; err != nil {
			return err
		}

		now := s.now()
		record = models.ConsumptionRecord{
			UserID:    userID,
			ItemID:    item.ID,
			Quantity:  quantity,
			Date:      models.DateOf(now),
			CreatedAt: now,
		}
		if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
			return err
		}
		record.Item = &item
		return nil
	})
	if err != nil {
		return nil, err
	}

	takenQuantity.Add(quantity)
	return &record, nil
}

// ReverseConsumption 撤销领取：归还库存并删除记录，两者同属一个事务
// 记录行同样加锁，并发撤销同一条记录时只有一个能归还库存
func (s *StockService) ReverseConsumption(ctx context.Context, recordID uint) (item *models.Item, err error) {
	defer func() { observeMutation(opReverse, err) }()

	var restored models.Item
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.ConsumptionRecord
		if err := lockForUpdate(tx).First(&record, recordID).Error; err != nil {
			return notFound(err, "consumption record")
		}

		if err := lockForUpdate(tx).First(&restored, record.ItemID).Error; err != nil {
			return notFound(err, "item")
		}

		restored.CurrentStock += record.Quantity
		restored.UsageCount -= record.Quantity
		if restored.UsageCount < 0 {
			restored.UsageCount = 0
		}
		if err := tx.Model(&restored).Updates(map[string]interface{}{
			"current_stock": restored.CurrentStock,
			"usage_count":   restored.UsageCount,
		}).Error; err != nil {
			return err
		}

		result := tx.Delete(&record)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("consumption record %d already reversed: %w", recordID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &restored, nil
}

// SetStock 管理员盘点：直接覆盖当前库存，不允许负数
func (s *StockService) SetStock(ctx context.Context, itemID uint, value float64) (item *models.Item, err error) {
	defer func() { observeMutation(opSetStock, err) }()

	if value < 0 {
		return nil, fmt.Errorf("stock %v is negative: %w", value, ErrInvalidQuantity)
	}

	var updated models.Item
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&updated, itemID).Error; err != nil {
			return notFound(err, "item")
		}
		updated.CurrentStock = value
		return tx.Model(&updated).Update("current_stock", value).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// LowStock 查询低库存物品，按大类名称、物品名称排序
func (s *StockService) LowStock(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.db.WithContext(ctx).
		Preload("Category").
		Joins("JOIN categories ON categories.id = items.category_id").
		Where("items.average_stock > ?", 0).
		Where("items.current_stock <= ? OR items.current_stock < items.average_stock * ?", 0, models.LowStockRatio).
		Order("categories.name ASC, items.name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FilterLowStock 从给定物品中筛选低库存物品，按大类名称、物品名称排序
// 平均库存未设置（<=0）的物品永远不算低库存
func FilterLowStock(items []models.Item) []models.Item {
	low := make([]models.Item, 0)
	for _, it := range items {
		if it.IsLowStock() {
			low = append(low, it)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		ci, cj := categoryName(&low[i]), categoryName(&low[j])
		if ci != cj {
			return ci < cj
		}
		return low[i].Name < low[j].Name
	})
	return low
}

func categoryName(it *models.Item) string {
	if it.Category == nil {
		return ""
	}
	return it.Category.Name
}

// StockOverview 所有大类及其物品（按默认排序）
func (s *StockService) StockOverview(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order(models.ItemDefaultOrder)
		}).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// UsageHistory 有领取记录的物品，按使用次数降序
func (s *StockService) UsageHistory(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.db.WithContext(ctx).
		Where("usage_count > ?", 0).
		Order("usage_count DESC").
		Find(&items).Error
	return items, err
}
