package api

import (
	"consumables/database"
	"consumables/models"
	"consumables/service"

	"github.com/gin-gonic/gin"
)

// StaffHandler 员工管理（仅超级管理员）
type StaffHandler struct{}

// NewStaffHandler 创建员工管理处理器
func NewStaffHandler() *StaffHandler {
	return &StaffHandler{}
}

func (h *StaffHandler) svc() *service.StaffService {
	return service.NewStaffService(database.DB)
}

// StaffCreateRequest 新建员工
type StaffCreateRequest struct {
	Username string      `json:"username" binding:"required,min=1,max=50" example:"bob"`
	Password string      `json:"password" binding:"required,min=6,max=50" example:"password123"`
	Email    *string     `json:"email" binding:"omitempty,email"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=staff superuser"`
}

// StaffUpdateRequest 编辑员工，留空的字段不修改
type StaffUpdateRequest struct {
	Username string      `json:"username" binding:"omitempty,min=1,max=50"`
	Password string      `json:"password" binding:"omitempty,min=6,max=50"`
	Email    *string     `json:"email"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=staff superuser"`
}

// List 员工列表
// @Summary 员工列表
// @Description 按用户名排序
// @Tags 员工管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.User} "获取成功"
// @Failure 403 {object} Response{data=Redirect} "权限不足"
// @Router /api/v1/staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	users, err := h.svc().List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, users)
}

// Create 新建员工
// @Summary 新建员工
// @Tags 员工管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StaffCreateRequest true "员工信息"
// @Success 200 {object} Response{data=models.User} "创建成功"
// @Failure 409 {object} Response "用户名已存在"
// @Router /api/v1/staff [post]
func (h *StaffHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req StaffCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	user, err := h.svc().Create(c.Request.Context(), actor, service.StaffInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err, "创建失败")
		return
	}
	SuccessWithMessage(c, "创建成功", user)
}

// Update 编辑员工
// @Summary 编辑员工
// @Tags 员工管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param request body StaffUpdateRequest true "员工信息"
// @Success 200 {object} Response{data=models.User} "更新成功"
// @Router /api/v1/staff/{id} [put]
func (h *StaffHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req StaffUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	user, err := h.svc().Update(c.Request.Context(), actor, id, service.StaffInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err, "更新失败")
		return
	}
	SuccessWithMessage(c, "更新成功", user)
}

// Delete 删除员工，不能删除自己
// @Summary 删除员工
// @Description 同时删除其领取记录（不归还库存）
// @Tags 员工管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} Response "删除成功"
// @Failure 403 {object} Response{data=Redirect} "不能删除自己"
// @Router /api/v1/staff/{id} [delete]
func (h *StaffHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	if _, err := h.svc().Delete(c.Request.Context(), actor, id); err != nil {
		respondErrorRedirect(c, err, "删除失败", "/staff")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
