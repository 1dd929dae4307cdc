package api

import (
	"consumables/database"
	"consumables/models"
	"consumables/service"

	"github.com/gin-gonic/gin"
)

// StockHandler 领取与库存
type StockHandler struct{}

// NewStockHandler 创建库存处理器
func NewStockHandler() *StockHandler {
	return &StockHandler{}
}

func (h *StockHandler) svc() *service.StockService {
	return service.NewStockService(database.DB)
}

// TakeRequest 领取请求
type TakeRequest struct {
	Quantity float64 `json:"quantity" example:"1"`
}

// SetStockRequest 盘点请求
type SetStockRequest struct {
	CurrentStock *float64 `json:"current_stock" binding:"required" example:"20"`
}

// TakeResponse 领取结果
type TakeResponse struct {
	Record RecordView `json:"record"`
	Item   ItemView   `json:"item"`
}

// CategoryStockView 库存页面中的一个大类
type CategoryStockView struct {
	ID    uint       `json:"id"`
	Name  string     `json:"name"`
	Items []ItemView `json:"items"`
}

// Take 领取物品
// @Summary 领取物品
// @Description 扣减库存并生成领取记录；数量非正或超过当前库存时返回 400，库存不变
// @Tags 库存
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "物品ID"
// @Param request body TakeRequest true "领取数量"
// @Success 200 {object} Response{data=TakeResponse} "领取成功"
// @Failure 400 {object} Response "库存不足"
// @Failure 404 {object} Response "物品不存在"
// @Router /api/v1/items/{id}/take [post]
func (h *StockHandler) Take(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req TakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rec, err := h.svc().TakeItem(c.Request.Context(), actor.ID, itemID, req.Quantity)
	if err != nil {
		respondError(c, err, "领取失败")
		return
	}
	item := *rec.Item
	rec.User = actor
	SuccessWithMessage(c, "领取成功", TakeResponse{
		Record: newRecordViews([]models.ConsumptionRecord{*rec})[0],
		Item:   newItemView(item),
	})
}

// SetStock 盘点：直接设置当前库存
// @Summary 设置库存
// @Tags 库存
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "物品ID"
// @Param request body SetStockRequest true "当前库存"
// @Success 200 {object} Response{data=ItemView} "设置成功"
// @Failure 400 {object} Response "库存不能为负数"
// @Router /api/v1/items/{id}/stock [put]
func (h *StockHandler) SetStock(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	item, err := h.svc().SetStock(c.Request.Context(), itemID, *req.CurrentStock)
	if err != nil {
		respondError(c, err, "设置库存失败")
		return
	}
	SuccessWithMessage(c, "设置成功", newItemView(*item))
}

// Overview 所有大类及其物品的库存状态
// @Summary 库存总览
// @Tags 库存
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]CategoryStockView} "获取成功"
// @Router /api/v1/stock [get]
func (h *StockHandler) Overview(c *gin.Context) {
	categories, err := h.svc().StockOverview(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	views := make([]CategoryStockView, 0, len(categories))
	for _, cat := range categories {
		views = append(views, CategoryStockView{
			ID:    cat.ID,
			Name:  cat.Name,
			Items: newItemViews(cat.Items),
		})
	}
	Success(c, views)
}

// LowStock 低库存物品
// @Summary 低库存列表
// @Description 设置了平均库存且当前库存不足 25%（或已耗尽）的物品，按大类名称、物品名称排序
// @Tags 库存
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]ItemView} "获取成功"
// @Router /api/v1/stock/low [get]
func (h *StockHandler) LowStock(c *gin.Context) {
	items, err := h.svc().LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, newItemViews(items))
}

// History 物品使用次数排行（仅超级管理员）
// @Summary 库存历史
// @Tags 库存
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]ItemView} "获取成功"
// @Failure 403 {object} Response{data=Redirect} "权限不足"
// @Router /api/v1/stock/history [get]
func (h *StockHandler) History(c *gin.Context) {
	items, err := h.svc().UsageHistory(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, newItemViews(items))
}
