package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"consumables/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// StaffService 员工账号管理与登录校验
type StaffService struct {
	db *gorm.DB
}

// NewStaffService 创建员工服务
func NewStaffService(db *gorm.DB) *StaffService {
	return &StaffService{db: db}
}

// StaffInput 新建/编辑员工字段，编辑时空字符串表示不修改
type StaffInput struct {
	Username string
	Password string
	Email    *string
	Role     models.Role
}

// HashPassword bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Authenticate 校验用户名密码
func (s *StaffService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

// ChangePassword 用户修改自己的密码
func (s *StaffService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return notFound(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrUnauthorized
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return db.Model(&user).Update("password", hashed).Error
}

// List 所有员工，按用户名排序（仅超级管理员）
func (s *StaffService) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := Authorize(actor, ActionManageStaff); err != nil {
		return nil, err
	}
	var users []models.User
	err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error
	return users, err
}

// Create 新建员工（仅超级管理员），用户名重复返回 ErrConflict
func (s *StaffService) Create(ctx context.Context, actor *models.User, in StaffInput) (*models.User, error) {
	if err := Authorize(actor, ActionManageStaff); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	password := strings.TrimSpace(in.Password)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrInvalidInput)
	}
	role := in.Role
	if role == "" {
		role = models.RoleStaff
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureUsernameFree(db, username, 0); err != nil {
		return nil, err
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{Username: username, Password: hashed, Role: role}
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 编辑员工用户名/密码/邮箱/角色（仅超级管理员）
func (s *StaffService) Update(ctx context.Context, actor *models.User, id uint, in StaffInput) (*models.User, error) {
	if err := Authorize(actor, ActionManageStaff); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}

	updates := map[string]interface{}{}
	if username := strings.TrimSpace(in.Username); username != "" && username != user.Username {
		if err := s.ensureUsernameFree(db, username, user.ID); err != nil {
			return nil, err
		}
		updates["username"] = username
		user.Username = username
	}
	if password := strings.TrimSpace(in.Password); password != "" {
		hashed, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
		updates["email"] = user.Email
	}
	if in.Role != "" && in.Role != user.Role {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("unknown role %q: %w", in.Role, ErrInvalidInput)
		}
		if user.ID == actor.ID {
			return nil, fmt.Errorf("cannot change own role: %w", ErrForbidden)
		}
		updates["role"] = in.Role
		user.Role = in.Role
	}
	if len(updates) == 0 {
		return &user, nil
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete 删除员工及其领取记录（仅超级管理员，不能删除自己）
// 删除记录不归还库存
func (s *StaffService) Delete(ctx context.Context, actor *models.User, id uint) (*models.User, error) {
	if err := AuthorizeStaffDeletion(actor, id); err != nil {
		return nil, err
	}
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, "user")
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ConsumptionRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *StaffService) ensureUsernameFree(db *gorm.DB, username string, exceptID uint) error {
	var n int64
	if err := db.Model(&models.User{}).Where("username = ? AND id <> ?", username, exceptID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("username %q is taken: %w", username, ErrConflict)
	}
	return nil
}

// EnsureSuperuser 没有任何超级管理员时创建一个，返回是否新建
func (s *StaffService) EnsureSuperuser(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, nil
	}
	db := s.db.WithContext(ctx)

	var n int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleSuperuser).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := s.ensureUsernameFree(db, username, 0); err != nil {
		return false, err
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	user := models.User{Username: username, Password: hashed, Role: models.RoleSuperuser}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}
