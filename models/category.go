package models

import (
	"time"
)

// Category 耗材大类
type Category struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	Name          string        `json:"name" gorm:"size:100;not null"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	SubCategories []SubCategory `json:"subcategories,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Items         []Item        `json:"items,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (Category) TableName() string {
	return "categories"
}

// SubCategory 耗材小类，随所属大类级联删除
type SubCategory struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"size:100;not null"`
	CategoryID uint      `json:"category_id" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Items      []Item    `json:"items,omitempty" gorm:"foreignKey:SubCategoryID;constraint:OnDelete:SET NULL"`
}

func (SubCategory) TableName() string {
	return "sub_categories"
}
