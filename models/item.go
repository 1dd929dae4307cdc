package models

import (
	"time"
)

// StockColor 库存状态颜色
type StockColor string

const (
	StockRed    StockColor = "#ef4444"
	StockYellow StockColor = "#eab308"
	StockGreen  StockColor = "#22c55e"
)

// 库存百分比分段阈值
const (
	LowStockPercent  = 25.0
	HalfStockPercent = 50.0
	// LowStockRatio 低库存判定：当前库存 < 平均库存 * LowStockRatio
	LowStockRatio = 0.25
)

// DefaultItemScore 新建物品未指定积分时的默认值
const DefaultItemScore = 1

// Item 耗材物品
// 无小类时名称在 (大类) 内唯一；有小类时名称在 (小类) 内唯一，由 service 层校验
type Item struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	CategoryID    uint         `json:"category_id" gorm:"index;not null"`
	SubCategoryID *uint        `json:"subcategory_id" gorm:"index"`
	Name          string       `json:"name" gorm:"size:200;not null"`
	AverageStock  float64      `json:"average_stock" gorm:"default:0;not null"`
	CurrentStock  float64      `json:"current_stock" gorm:"default:0;not null"`
	UsageCount    float64      `json:"usage_count" gorm:"default:0;not null;index"`
	Score         int          `json:"score" gorm:"not null"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Category      *Category    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	SubCategory   *SubCategory `json:"subcategory,omitempty" gorm:"foreignKey:SubCategoryID"`
}

func (Item) TableName() string {
	return "items"
}

// ItemDefaultOrder 列表默认排序：使用次数降序，名称升序
const ItemDefaultOrder = "usage_count DESC, name ASC"

// StockPercentage 当前库存占平均库存的百分比
// 未设置平均库存（<=0）时视为满库存，返回 100
func (i *Item) StockPercentage() float64 {
	if i.AverageStock <= 0 {
		return 100
	}
	return i.CurrentStock * 100 / i.AverageStock
}

// StockStatusColor 根据库存百分比返回状态颜色
// [0,25) 红，[25,50) 黄，[50,∞) 绿
func (i *Item) StockStatusColor() StockColor {
	pct := i.StockPercentage()
	switch {
	case pct < LowStockPercent:
		return StockRed
	case pct < HalfStockPercent:
		return StockYellow
	default:
		return StockGreen
	}
}

// IsLowStock 是否低库存，仅在设置了平均库存时判定
func (i *Item) IsLowStock() bool {
	if i.AverageStock <= 0 {
		return false
	}
	return i.CurrentStock <= 0 || i.CurrentStock < i.AverageStock*LowStockRatio
}
