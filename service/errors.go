package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 引擎对外暴露的错误类型，由接口层翻译为提示信息
var (
	// ErrInsufficientStock 领取数量非正数或超过当前库存
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity 库存值非法（例如负数）
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidInput 名称为空等输入错误
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized 未登录
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden 已登录但权限不足
	ErrForbidden = errors.New("forbidden")
	// ErrSelfDelete 超级管理员删除自己的账号
	ErrSelfDelete = fmt.Errorf("cannot delete own account: %w", ErrForbidden)
	// ErrConflict 名称唯一性冲突
	ErrConflict = errors.New("conflict")
	// ErrNotAnnouncementDay 非周五不能公布周冠军
	ErrNotAnnouncementDay = errors.New("not announcement day")
)

// notFound 将 gorm.ErrRecordNotFound 转换为 ErrNotFound，其余错误原样返回
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
