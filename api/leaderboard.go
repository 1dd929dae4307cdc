package api

import (
	"log"
	"time"

	"consumables/config"
	"consumables/database"
	"consumables/middleware"
	"consumables/models"
	"consumables/service"

	"github.com/gin-gonic/gin"
)

// LeaderboardHandler 积分榜、个人主页与周冠军公布
type LeaderboardHandler struct {
	cfg *config.Config
	now func() time.Time
}

// NewLeaderboardHandler 创建积分榜处理器
func NewLeaderboardHandler(cfg *config.Config) *LeaderboardHandler {
	return &LeaderboardHandler{cfg: cfg, now: time.Now}
}

func (h *LeaderboardHandler) scoring() *service.ScoringService {
	return service.NewScoringService(database.DB).WithClock(func() time.Time {
		return h.now().In(config.Location())
	})
}

// ProfileResponse 个人主页
type ProfileResponse struct {
	User         models.User  `json:"user"`
	Records      []RecordView `json:"records"`
	TotalCredits float64      `json:"total_credits"`
	IsOwn        bool         `json:"is_own"`
}

// AnnounceResponse 周冠军公布结果
type AnnounceResponse struct {
	Winner *service.LeaderboardEntry `json:"winner"`
	Sent   int                       `json:"sent"`
	Failed []string                  `json:"failed,omitempty"`
}

// Leaderboard 累计积分榜与本周领取之星
// @Summary 积分榜
// @Description 累计积分榜（积分降序，同分按用户 ID），本周（自最近的周五起）积分最高者，以及今天是否为周五
// @Tags 积分
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.LeaderboardView} "获取成功"
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) Leaderboard(c *gin.Context) {
	view, err := h.scoring().Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, view)
}

// Profile 个人主页
// @Summary 个人主页
// @Description 不带 id 或 id 为本人时返回自己的主页；只有超级管理员可以查看他人主页，其他用户会得到自己的主页
// @Tags 积分
// @Produce json
// @Security BearerAuth
// @Param id path int false "用户ID"
// @Success 200 {object} Response{data=ProfileResponse} "获取成功"
// @Failure 404 {object} Response "用户不存在"
// @Router /api/v1/profile/{id} [get]
func (h *LeaderboardHandler) Profile(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var requested uint
	if c.Param("id") != "" {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		requested = id
	}

	target, err := service.ProfileTarget(actor, requested)
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	view, err := h.scoring().Profile(c.Request.Context(), target)
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, ProfileResponse{
		User:         view.User,
		Records:      newRecordViews(view.Records),
		TotalCredits: view.TotalCredits,
		IsOwn:        target == actor.ID,
	})
}

type skipNotifier struct{}

func (skipNotifier) SendWeeklyWinnerEmail(string, service.LeaderboardEntry, time.Time) error {
	return nil
}

// Announce 周五公布本周领取之星（仅超级管理员）
// @Summary 公布周冠军
// @Description 向所有留有邮箱的用户发送本周领取之星通知；邮件服务未启用时不发送
// @Tags 积分
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=AnnounceResponse} "公布成功"
// @Failure 400 {object} Response "今天不是周五"
// @Failure 403 {object} Response{data=Redirect} "权限不足"
// @Router /api/v1/leaderboard/announce [post]
func (h *LeaderboardHandler) Announce(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	emailService := service.NewEmailService(&h.cfg.Email)
	var notifier service.WinnerNotifier = emailService
	if !emailService.Enabled() {
		notifier = skipNotifier{}
	}

	result, err := h.scoring().AnnounceWeeklyWinner(c.Request.Context(), actor, notifier)
	if err != nil {
		respondErrorRedirect(c, err, "发送通知失败", "/leaderboard")
		return
	}

	resp := AnnounceResponse{Winner: result.Winner, Sent: result.Sent, Failed: result.Failed}
	switch {
	case result.Winner == nil:
		SuccessWithMessage(c, "本周暂无领取记录", AnnounceResponse{})
	case !emailService.Enabled():
		SuccessWithMessage(c, "邮件服务未启用，未发送通知", AnnounceResponse{Winner: result.Winner})
	case len(result.Failed) > 0:
		log.Printf("周冠军通知发送失败: %v", result.Failed)
		SuccessWithMessage(c, "部分邮件发送失败", resp)
	default:
		SuccessWithMessage(c, "公布成功", resp)
	}
}
