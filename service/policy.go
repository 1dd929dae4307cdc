package service

import (
	"fmt"

	"consumables/models"
)

// Action 需要权限校验的操作
type Action string

const (
	ActionTakeItem          Action = "take_item"
	ActionReverse           Action = "reverse_consumption"
	ActionSetStock          Action = "set_stock"
	ActionManageCatalog     Action = "manage_catalog"
	ActionDeleteItem        Action = "delete_item"
	ActionViewLeaderboard   Action = "view_leaderboard"
	ActionDeleteCategory    Action = "delete_category"
	ActionDeleteSubCategory Action = "delete_subcategory"
	ActionManageStaff       Action = "manage_staff"
	ActionViewOtherProfile  Action = "view_other_profile"
	ActionViewStockHistory  Action = "view_stock_history"
	ActionAnnounceWinner    Action = "announce_winner"
)

// superuserActions 仅超级管理员可执行的操作
// 删除物品不在其中：任何登录用户都可以删除物品
var superuserActions = map[Action]bool{
	ActionDeleteCategory:    true,
	ActionDeleteSubCategory: true,
	ActionManageStaff:       true,
	ActionViewOtherProfile:  true,
	ActionViewStockHistory:  true,
	ActionAnnounceWinner:    true,
}

// RequiresSuperuser 操作是否需要超级管理员
func RequiresSuperuser(action Action) bool {
	return superuserActions[action]
}

// RequireAuthenticated 未登录返回 ErrUnauthorized
func RequireAuthenticated(actor *models.User) error {
	if actor == nil || actor.ID == 0 {
		return ErrUnauthorized
	}
	return nil
}

// Authorize 校验 actor 是否可以执行 action
func Authorize(actor *models.User, action Action) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if RequiresSuperuser(action) && !actor.IsSuperuser() {
		return fmt.Errorf("%s requires superuser: %w", action, ErrForbidden)
	}
	return nil
}

// Can 布尔形式的权限检查，供接口层决定是否软拒绝（跳转）
func Can(actor *models.User, action Action) bool {
	return Authorize(actor, action) == nil
}

// AuthorizeStaffDeletion 超级管理员可删除员工，但不能删除自己
func AuthorizeStaffDeletion(actor *models.User, targetID uint) error {
	if err := Authorize(actor, ActionManageStaff); err != nil {
		return err
	}
	if actor.ID == targetID {
		return ErrSelfDelete
	}
	return nil
}

// ProfileTarget 决定要查看的主页：超级管理员可查看指定用户，其余情况回落到本人
func ProfileTarget(actor *models.User, requestedID uint) (uint, error) {
	if err := RequireAuthenticated(actor); err != nil {
		return 0, err
	}
	if requestedID != 0 && requestedID != actor.ID && Can(actor, ActionViewOtherProfile) {
		return requestedID, nil
	}
	return actor.ID, nil
}
