package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"consumables/middleware"
	"consumables/models"
	"consumables/service"

	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Redirect 软拒绝时返回给前端的跳转提示
type Redirect struct {
	Redirect string `json:"redirect"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden 403 错误响应，附带跳转页面
func Forbidden(c *gin.Context, message, redirect string) {
	c.JSON(http.StatusForbidden, Response{
		Code:    http.StatusForbidden,
		Message: message,
		Data:    Redirect{Redirect: redirect},
	})
}

// Conflict 409 错误响应
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// respondError 将 service 层错误翻译为 HTTP 状态码和提示信息
func respondError(c *gin.Context, err error, fallback string) {
	respondErrorRedirect(c, err, fallback, "/")
}

func respondErrorRedirect(c *gin.Context, err error, fallback, redirect string) {
	switch {
	case errors.Is(err, service.ErrInsufficientStock):
		BadRequest(c, "库存不足或领取数量无效")
	case errors.Is(err, service.ErrInvalidQuantity):
		BadRequest(c, "库存数量不能为负数")
	case errors.Is(err, service.ErrInvalidInput):
		BadRequest(c, "参数错误: "+err.Error())
	case errors.Is(err, service.ErrNotAnnouncementDay):
		BadRequest(c, "只有周五才能公布本周领取之星")
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.Is(err, service.ErrUnauthorized):
		Unauthorized(c, "请先登录")
	case errors.Is(err, service.ErrSelfDelete):
		Forbidden(c, "不能删除自己的账号", redirect)
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "权限不足", redirect)
	case errors.Is(err, service.ErrConflict):
		Conflict(c, "名称已存在")
	default:
		log.Printf("%s: %v", fallback, err)
		InternalError(c, SafeErrorMessage(err, fallback))
	}
}

// parseID 解析路径参数中的 ID
func parseID(c *gin.Context, name string) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id64 == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id64), true
}

// currentUser 当前登录用户；未登录时直接返回 401
func currentUser(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if err := service.RequireAuthenticated(user); err != nil {
		Unauthorized(c, "请先登录")
		return nil, false
	}
	return user, true
}
