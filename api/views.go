package api

import (
	"consumables/models"
	"consumables/service"
)

// ItemView 物品及其库存状态
type ItemView struct {
	models.Item
	StockPercentage float64           `json:"stock_percentage"`
	StockColor      models.StockColor `json:"stock_color"`
	LowStock        bool              `json:"low_stock"`
}

func newItemView(item models.Item) ItemView {
	return ItemView{
		Item:            item,
		StockPercentage: item.StockPercentage(),
		StockColor:      item.StockStatusColor(),
		LowStock:        item.IsLowStock(),
	}
}

func newItemViews(items []models.Item) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, newItemView(it))
	}
	return views
}

// RecordView 领取记录及其积分
type RecordView struct {
	models.ConsumptionRecord
	Credits float64 `json:"credits"`
}

func newRecordViews(records []models.ConsumptionRecord) []RecordView {
	views := make([]RecordView, 0, len(records))
	for i := range records {
		views = append(views, RecordView{
			ConsumptionRecord: records[i],
			Credits:           service.CreditsForRecord(&records[i]),
		})
	}
	return views
}
