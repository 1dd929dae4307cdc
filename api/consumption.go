package api

import (
	"fmt"
	"net/url"
	"time"

	"consumables/config"
	"consumables/database"
	"consumables/service"

	"github.com/gin-gonic/gin"
)

// ConsumptionHandler 领取记录
type ConsumptionHandler struct {
	now func() time.Time
}

// NewConsumptionHandler 创建领取记录处理器
func NewConsumptionHandler() *ConsumptionHandler {
	return &ConsumptionHandler{now: time.Now}
}

func (h *ConsumptionHandler) scoring() *service.ScoringService {
	return service.NewScoringService(database.DB).WithClock(func() time.Time {
		return h.now().In(config.Location())
	})
}

// Today 今天所有人的领取记录
// @Summary 今日领取
// @Description 日期为今天的领取记录，最新的在前
// @Tags 领取记录
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]RecordView} "获取成功"
// @Router /api/v1/consumptions/today [get]
func (h *ConsumptionHandler) Today(c *gin.Context) {
	records, err := h.scoring().TodayRecords(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, newRecordViews(records))
}

// Reverse 撤销领取，归还库存
// @Summary 撤销领取
// @Tags 领取记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "领取记录ID"
// @Success 200 {object} Response{data=ItemView} "撤销成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/consumptions/{id} [delete]
func (h *ConsumptionHandler) Reverse(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := currentUser(c); !ok {
		return
	}
	item, err := service.NewStockService(database.DB).ReverseConsumption(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "撤销失败")
		return
	}
	SuccessWithMessage(c, "撤销成功", newItemView(*item))
}

// Export 导出领取记录为 Excel
// @Summary 导出领取记录
// @Description 超级管理员导出所有人的记录，其他用户只导出自己的记录
// @Tags 领取记录
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_time query string true "开始日期 (2024-01-01)"
// @Param end_time query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/consumptions/export [get]
func (h *ConsumptionHandler) Export(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	startTimeStr := c.Query("start_time")
	endTimeStr := c.Query("end_time")
	if startTimeStr == "" || endTimeStr == "" {
		BadRequest(c, "请提供开始时间和结束时间")
		return
	}
	startTime, err := time.ParseInLocation("2006-01-02", startTimeStr, config.Location())
	if err != nil {
		BadRequest(c, "开始时间格式错误，应为: 2006-01-02")
		return
	}
	endTime, err := time.ParseInLocation("2006-01-02", endTimeStr, config.Location())
	if err != nil {
		BadRequest(c, "结束时间格式错误，应为: 2006-01-02")
		return
	}
	if endTime.Before(startTime) {
		BadRequest(c, "结束时间不能早于开始时间")
		return
	}

	records, err := service.NewExportService(database.DB).Records(c.Request.Context(), actor, startTime, endTime)
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}

	f, err := service.BuildWorkbook(records)
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
	defer f.Close()

	filename := url.PathEscape(fmt.Sprintf("领取记录_%s_%s.xlsx", startTimeStr, endTimeStr))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
}
