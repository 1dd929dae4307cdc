package middleware

import (
	"errors"
	"net/http"

	"consumables/database"
	"consumables/models"
	"consumables/service"

	"github.com/gin-gonic/gin"
)

// ContextCurrentUser 上下文中保存当前用户的 key
const ContextCurrentUser = "currentUser"

// LoadCurrentUser 根据 JWTAuth 写入的用户 ID 加载用户，需在 JWTAuth 之后使用
// 账号已被删除的 token 视为未登录
func LoadCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetCurrentUserID(c)
		if userID == 0 {
			abortUnauthorized(c, "请先登录")
			return
		}
		var user models.User
		if err := database.DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			abortUnauthorized(c, "用户不存在")
			return
		}
		c.Set(ContextCurrentUser, &user)
		c.Next()
	}
}

// CurrentUser 当前登录用户，未加载时返回 nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextCurrentUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// RequireAction 权限不足时返回 403，并在 data.redirect 中给出前端应跳转的页面
func RequireAction(action service.Action, redirect string) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := service.Authorize(CurrentUser(c), action)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, service.ErrUnauthorized):
			abortUnauthorized(c, "请先登录")
		default:
			c.JSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "权限不足",
				"data":    gin.H{"redirect": redirect},
			})
			c.Abort()
		}
	}
}

// SuperuserOnly 仅超级管理员可访问的路由组
func SuperuserOnly(redirect string) gin.HandlerFunc {
	return RequireAction(service.ActionManageStaff, redirect)
}
