package models

import (
	"time"
)

// Role 用户角色
type Role string

const (
	// RoleStaff 普通员工：可领取、撤销、维护物品
	RoleStaff Role = "staff"
	// RoleSuperuser 超级管理员：可删除分类、管理员工、查看他人主页
	RoleSuperuser Role = "superuser"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleSuperuser
}

// User 用户模型
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"size:100"`
	Role      Role      `json:"role" gorm:"size:20;default:staff;index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// IsSuperuser 是否超级管理员
func (u *User) IsSuperuser() bool {
	return u != nil && u.Role == RoleSuperuser
}
