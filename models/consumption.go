package models

import (
	"time"
)

// ConsumptionRecord 领取记录
type ConsumptionRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	ItemID    uint      `json:"item_id" gorm:"index;not null"`
	Quantity  float64   `json:"quantity" gorm:"not null"`
	Date      time.Time `json:"date" gorm:"type:date;index;not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"autoCreateTime"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Item      *Item     `json:"item,omitempty" gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (ConsumptionRecord) TableName() string {
	return "consumption_records"
}

// TotalCredits 本条记录获得的积分 = 数量 × 物品当前积分
// 使用物品的实时 score，物品积分修改后历史积分随之变化
func (r *ConsumptionRecord) TotalCredits() float64 {
	if r.Item == nil {
		return 0
	}
	return r.Quantity * float64(r.Item.Score)
}

// DateOf 截取 t 在其所在时区的日历日期，以 UTC 零点表示
// DATE 列按 UTC 写入，不随数据库连接时区偏移
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
