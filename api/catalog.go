package api

import (
	"strconv"

	"consumables/database"
	"consumables/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler 大类、小类、物品的浏览与维护
type CatalogHandler struct{}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

func (h *CatalogHandler) svc() *service.CatalogService {
	return service.NewCatalogService(database.DB)
}

// NameRequest 新建/重命名大类、小类
type NameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100" example:"办公用品"`
}

// ItemRequest 新建/编辑物品
type ItemRequest struct {
	SubCategoryID *uint   `json:"subcategory_id"`
	Name          string  `json:"name" binding:"required,min=1,max=100" example:"A4 纸"`
	AverageStock  float64 `json:"average_stock" binding:"gte=0"`
	CurrentStock  float64 `json:"current_stock"`
	Score         *int    `json:"score"`
}

func (r ItemRequest) input() service.ItemInput {
	return service.ItemInput{
		SubCategoryID: r.SubCategoryID,
		Name:          r.Name,
		AverageStock:  r.AverageStock,
		CurrentStock:  r.CurrentStock,
		Score:         r.Score,
	}
}

// CategoryDetailView 大类详情（物品附带库存状态）
type CategoryDetailView struct {
	ID            uint              `json:"id"`
	Name          string            `json:"name"`
	SubCategories []SubCategoryView `json:"subcategories"`
	DirectItems   []ItemView        `json:"direct_items"`
}

// SubCategoryView 小类及其物品
type SubCategoryView struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	CategoryID uint       `json:"category_id"`
	Items      []ItemView `json:"items"`
}

// ListCategories 大类列表
// @Summary 获取大类列表
// @Tags 物品目录
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	list, err := h.svc().ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, list)
}

// GetCategory 大类详情
// @Summary 获取大类详情
// @Description 返回小类（含物品）和直属物品，物品按使用次数降序、名称升序
// @Tags 物品目录
// @Produce json
// @Security BearerAuth
// @Param id path int true "大类ID"
// @Success 200 {object} Response{data=CategoryDetailView} "获取成功"
// @Failure 404 {object} Response "大类不存在"
// @Router /api/v1/categories/{id} [get]
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc().GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}

	view := CategoryDetailView{
		ID:            detail.Category.ID,
		Name:          detail.Category.Name,
		SubCategories: make([]SubCategoryView, 0, len(detail.SubCategories)),
		DirectItems:   newItemViews(detail.DirectItems),
	}
	for _, sub := range detail.SubCategories {
		view.SubCategories = append(view.SubCategories, SubCategoryView{
			ID:         sub.ID,
			Name:       sub.Name,
			CategoryID: sub.CategoryID,
			Items:      newItemViews(sub.Items),
		})
	}
	Success(c, view)
}

// CreateCategory 新建大类
// @Summary 新建大类
// @Tags 物品目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NameRequest true "大类名称"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 409 {object} Response "名称已存在"
// @Router /api/v1/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	cat, err := h.svc().CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err, "创建失败")
		return
	}
	SuccessWithMessage(c, "创建成功", cat)
}

// RenameCategory 重命名大类
// @Summary 重命名大类
// @Tags 物品目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "大类ID"
// @Param request body NameRequest true "新名称"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Router /api/v1/categories/{id} [put]
func (h *CatalogHandler) RenameCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	cat, err := h.svc().RenameCategory(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err, "更新失败")
		return
	}
	SuccessWithMessage(c, "更新成功", cat)
}

// DeleteCategory 删除大类（仅超级管理员）
// @Summary 删除大类
// @Description 级联删除小类、物品及相关领取记录。非超级管理员返回 403 并提示跳转回大类页面
// @Tags 物品目录
// @Produce json
// @Security BearerAuth
// @Param id path int true "大类ID"
// @Success 200 {object} Response "删除成功"
// @Failure 403 {object} Response{data=Redirect} "权限不足"
// @Router /api/v1/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.svc().DeleteCategory(c.Request.Context(), actor, id); err != nil {
		respondErrorRedirect(c, err, "删除失败", "/categories/"+c.Param("id"))
		return
	}
	SuccessWithMessage(c, "删除成功", Redirect{Redirect: "/"})
}

// GetSubCategory 小类详情
// @Summary 获取小类详情
// @Tags 物品目录
// @Produce json
// @Security BearerAuth
// @Param id path int true "小类ID"
// @Success 200 {object} Response{data=SubCategoryView} "获取成功"
// @Failure 404 {object} Response "小类不存在"
// @Router /api/v1/subcategories/{id} [get]
func (h *CatalogHandler) GetSubCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc().GetSubCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, SubCategoryView{
		ID:         detail.SubCategory.ID,
		Name:       detail.SubCategory.Name,
		CategoryID: detail.SubCategory.CategoryID,
		Items:      newItemViews(detail.Items),
	})
}

// CreateSubCategory 在大类下新建小类
// @Summary 新建小类
// @Tags 物品目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "大类ID"
// @Param request body NameRequest true "小类名称"
// @Success 200 {object} Response{data=models.SubCategory} "创建成功"
// @Router /api/v1/categories/{id}/subcategories [post]
func (h *CatalogHandler) CreateSubCategory(c *gin.Context) {
	categoryID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	sub, err := h.svc().CreateSubCategory(c.Request.Context(), categoryID, req.Name)
	if err != nil {
		respondError(c, err, "创建失败")
		return
	}
	SuccessWithMessage(c, "创建成功", sub)
}

// RenameSubCategory 重命名小类
// @Summary 重命名小类
// @Tags 物品目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "小类ID"
// @Param request body NameRequest true "新名称"
// @Success 200 {object} Response{data=models.SubCategory} "更新成功"
// @Router /api/v1/subcategories/{id} [put]
func (h *CatalogHandler) RenameSubCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	sub, err := h.svc().RenameSubCategory(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err, "更新失败")
		return
	}
	SuccessWithMessage(c, "更新成功", sub)
}

// DeleteSubCategory 删除小类（仅超级管理员）
// @Summary 删除小类
// @Description 小类下的物品转为大类直属；与直属物品重名时返回 409
// @Tags 物品目录
// @Produce json
// @Security BearerAuth
// @Param id path int true "小类ID"
// @Success 200 {object} Response{data=Redirect} "删除成功"
// @Failure 403 {object} Response{data=Redirect} "权限不足"
// @Failure 409 {object} Response "物品重名"
// @Router /api/v1/subcategories/{id} [delete]
func (h *CatalogHandler) DeleteSubCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	sub, err := h.svc().DeleteSubCategory(c.Request.Context(), actor, id)
	if err != nil {
		respondErrorRedirect(c, err, "删除失败", "/subcategories/"+c.Param("id"))
		return
	}
	SuccessWithMessage(c, "删除成功", Redirect{Redirect: categoryPath(sub.CategoryID)})
}

// GetItem 物品详情
// @Summary 获取物品详情
// @Tags 物品目录
// @Produce json
// @Security BearerAuth
// @Param id path int true "物品ID"
// @Success 200 {object} Response{data=ItemView} "获取成功"
// @Failure 404 {object} Response "物品不存在"
// @Router /api/v1/items/{id} [get]
func (h *CatalogHandler) GetItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.svc().GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, newItemView(*item))
}

// CreateItem 在大类下新建物品
// @Summary 新建物品
// @Tags 物品目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "大类ID"
// @Param request body ItemRequest true "物品信息"
// @Success 200 {object} Response{data=ItemView} "创建成功"
// @Failure 409 {object} Response "名称已存在"
// @Router /api/v1/categories/{id}/items [post]
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	categoryID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	item, err := h.svc().CreateItem(c.Request.Context(), categoryID, req.input())
	if err != nil {
		respondError(c, err, "创建失败")
		return
	}
	SuccessWithMessage(c, "创建成功", newItemView(*item))
}

// UpdateItem 编辑物品
// @Summary 编辑物品
// @Tags 物品目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "物品ID"
// @Param request body ItemRequest true "物品信息"
// @Success 200 {object} Response{data=ItemView} "更新成功"
// @Router /api/v1/items/{id} [put]
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	item, err := h.svc().UpdateItem(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err, "更新失败")
		return
	}
	SuccessWithMessage(c, "更新成功", newItemView(*item))
}

// DeleteItem 删除物品，任何登录用户都可以操作
// @Summary 删除物品
// @Tags 物品目录
// @Produce json
// @Security BearerAuth
// @Param id path int true "物品ID"
// @Success 200 {object} Response{data=Redirect} "删除成功"
// @Router /api/v1/items/{id} [delete]
func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	item, err := h.svc().DeleteItem(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err, "删除失败")
		return
	}
	SuccessWithMessage(c, "删除成功", Redirect{Redirect: categoryPath(item.CategoryID)})
}

func categoryPath(id uint) string {
	return "/categories/" + strconv.FormatUint(uint64(id), 10)
}
