package service

import (
	"context"
	"fmt"
	"time"

	"consumables/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	recordsSheet     = "领取记录"
	leaderboardSheet = "积分榜"
)

// ExportService 领取记录导出
type ExportService struct {
	db *gorm.DB
}

// NewExportService 创建导出服务
func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// Records 日期区间 [start, end] 内的领取记录；超级管理员导出全部，其他人只导出自己的
func (s *ExportService) Records(ctx context.Context, actor *models.User, start, end time.Time) ([]models.ConsumptionRecord, error) {
	if err := RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).
		Preload("Item").
		Preload("User").
		Where("date >= ? AND date <= ?", start.Format("2006-01-02"), end.Format("2006-01-02"))
	if !actor.IsSuperuser() {
		q = q.Where("user_id = ?", actor.ID)
	}
	var records []models.ConsumptionRecord
	err := q.Order("date DESC, created_at DESC").Find(&records).Error
	return records, err
}

// BuildWorkbook 生成 Excel：领取记录明细 + 区间积分榜
func BuildWorkbook(records []models.ConsumptionRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
	})

	headers := []string{"ID", "用户名", "物品", "数量", "单位积分", "积分", "日期", "领取时间"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(recordsSheet, cell, h)
		f.SetCellStyle(recordsSheet, cell, cell, headerStyle)
	}
	f.SetColWidth(recordsSheet, "B", "C", 20)
	f.SetColWidth(recordsSheet, "G", "H", 20)

	var totalQty, totalCredits float64
	users := make(map[uint]models.User)
	for i := range records {
		r := &records[i]
		row := i + 2
		username, itemName, score := "", "", 0
		if r.User != nil {
			username = r.User.Username
			users[r.UserID] = *r.User
		} else {
			users[r.UserID] = models.User{ID: r.UserID}
		}
		if r.Item != nil {
			itemName = r.Item.Name
			score = r.Item.Score
		}
		credits := CreditsForRecord(r)
		values := []interface{}{r.ID, username, itemName, r.Quantity, score, credits,
			r.Date.Format("2006-01-02"), r.CreatedAt.Format("2006-01-02 15:04:05")}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(recordsSheet, cell, v)
		}
		totalQty += r.Quantity
		totalCredits += credits
	}

	summaryRow := len(records) + 2
	f.SetCellValue(recordsSheet, fmt.Sprintf("A%d", summaryRow), "合计")
	f.SetCellValue(recordsSheet, fmt.Sprintf("D%d", summaryRow), totalQty)
	f.SetCellValue(recordsSheet, fmt.Sprintf("F%d", summaryRow), totalCredits)
	f.SetCellValue(recordsSheet, fmt.Sprintf("G%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(records)))
	f.SetCellStyle(recordsSheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("H%d", summaryRow), summaryStyle)

	userList := make([]models.User, 0, len(users))
	for _, u := range users {
		userList = append(userList, u)
	}
	board := LifetimeLeaderboard(userList, records)

	if _, err := f.NewSheet(leaderboardSheet); err != nil {
		f.Close()
		return nil, err
	}
	for i, h := range []string{"名次", "用户名", "积分"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(leaderboardSheet, cell, h)
		f.SetCellStyle(leaderboardSheet, cell, cell, headerStyle)
	}
	for i, e := range board {
		row := i + 2
		f.SetCellValue(leaderboardSheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(leaderboardSheet, fmt.Sprintf("B%d", row), e.User.Username)
		f.SetCellValue(leaderboardSheet, fmt.Sprintf("C%d", row), e.Credits)
	}

	return f, nil
}
