package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"consumables/config"
	"consumables/models"

	"gorm.io/gorm"
)

// AnnouncementDay 每周公布周冠军的日子
const AnnouncementDay = time.Friday

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	User    models.User `json:"user"`
	Credits float64     `json:"credits"`
}

// CreditsForRecord 单条领取记录的积分，按物品当前积分计算
func CreditsForRecord(r *models.ConsumptionRecord) float64 {
	return r.TotalCredits()
}

// LifetimeLeaderboard 累计积分榜
// 积分 <= 0 的用户不上榜；按积分降序，同分时用户 ID 小者在前
func LifetimeLeaderboard(users []models.User, records []models.ConsumptionRecord) []LeaderboardEntry {
	totals := make(map[uint]float64, len(users))
	for i := range records {
		totals[records[i].UserID] += CreditsForRecord(&records[i])
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		if total := totals[u.ID]; total > 0 {
			entries = append(entries, LeaderboardEntry{User: u, Credits: total})
		}
	}
	sortEntries(entries)
	return entries
}

func sortEntries(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Credits != entries[j].Credits {
			return entries[i].Credits > entries[j].Credits
		}
		return entries[i].User.ID < entries[j].User.ID
	})
}

// WeeklyWindowStart 本周统计窗口起点：today 当天或之前最近的周五
func WeeklyWindowStart(today time.Time) time.Time {
	daysSinceFriday := (int(today.Weekday()) - int(AnnouncementDay) + 7) % 7
	return models.DateOf(today).AddDate(0, 0, -daysSinceFriday)
}

// IsAnnouncementDay today 是否为周五
func IsAnnouncementDay(today time.Time) bool {
	return today.Weekday() == AnnouncementDay
}

// civilDate 日期比较只看年月日，忽略时区零点差异
func civilDate(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// onOrAfter date 是否不早于 start（按日历日期）
func onOrAfter(date, start time.Time) bool {
	return civilDate(date) >= civilDate(start)
}

// WeeklyWinner 窗口内积分最高的用户；窗口内无记录时返回 nil
// 同分时用户 ID 小者胜出
func WeeklyWinner(records []models.ConsumptionRecord, windowStart time.Time) *LeaderboardEntry {
	totals := make(map[uint]*LeaderboardEntry)
	for i := range records {
		r := &records[i]
		if !onOrAfter(r.Date, windowStart) {
			continue
		}
		e, ok := totals[r.UserID]
		if !ok {
			e = &LeaderboardEntry{User: models.User{ID: r.UserID}}
			if r.User != nil {
				e.User = *r.User
			}
			totals[r.UserID] = e
		}
		e.Credits += CreditsForRecord(r)
	}
	if len(totals) == 0 {
		return nil
	}

	var winner *LeaderboardEntry
	for _, e := range totals {
		if winner == nil ||
			e.Credits > winner.Credits ||
			(e.Credits == winner.Credits && e.User.ID < winner.User.ID) {
			winner = e
		}
	}
	return winner
}

// LeaderboardView 排行榜页面数据
type LeaderboardView struct {
	Lifetime     []LeaderboardEntry `json:"lifetime"`
	WeeklyWinner *LeaderboardEntry  `json:"weekly_winner"`
	WindowStart  string             `json:"window_start"`
	IsFriday     bool               `json:"is_friday"`
}

// ProfileView 个人主页数据
type ProfileView struct {
	User         models.User                `json:"user"`
	Records      []models.ConsumptionRecord `json:"records"`
	TotalCredits float64                    `json:"total_credits"`
}

// ScoringService 积分引擎：从数据库加载记录并计算排行榜
type ScoringService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewScoringService 创建积分服务
func NewScoringService(db *gorm.DB) *ScoringService {
	return &ScoringService{
		db: db,
		now: func() time.Time {
			return time.Now().In(config.Location())
		},
	}
}

// WithClock 替换时间来源
func (s *ScoringService) WithClock(now func() time.Time) *ScoringService {
	s.now = now
	return s
}

// Today 今天的日期
func (s *ScoringService) Today() time.Time {
	return models.DateOf(s.now())
}

// Leaderboard 累计积分榜 + 本周冠军
func (s *ScoringService) Leaderboard(ctx context.Context) (*LeaderboardView, error) {
	db := s.db.WithContext(ctx)

	var users []models.User
	if err := db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	var records []models.ConsumptionRecord
	if err := db.Preload("Item").Find(&records).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for i := range records {
		records[i].User = byID[records[i].UserID]
	}

	today := s.Today()
	start := WeeklyWindowStart(today)
	return &LeaderboardView{
		Lifetime:     LifetimeLeaderboard(users, records),
		WeeklyWinner: WeeklyWinner(records, start),
		WindowStart:  start.Format("2006-01-02"),
		IsFriday:     IsAnnouncementDay(today),
	}, nil
}

// Profile 用户的领取记录（日期倒序）与累计积分
func (s *ScoringService) Profile(ctx context.Context, userID uint) (*ProfileView, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}

	var records []models.ConsumptionRecord
	if err := db.Preload("Item").
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	var total float64
	for i := range records {
		total += CreditsForRecord(&records[i])
	}
	return &ProfileView{User: user, Records: records, TotalCredits: total}, nil
}

// TodayRecords 今天所有人的领取记录，最新的在前
func (s *ScoringService) TodayRecords(ctx context.Context) ([]models.ConsumptionRecord, error) {
	var records []models.ConsumptionRecord
	err := s.db.WithContext(ctx).
		Preload("Item").
		Preload("User").
		Where("date = ?", s.Today().Format("2006-01-02")).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// WinnerNotifier 周冠军通知发送方
type WinnerNotifier interface {
	SendWeeklyWinnerEmail(to string, winner LeaderboardEntry, windowStart time.Time) error
}

// AnnounceResult 周冠军公布结果
type AnnounceResult struct {
	Winner *LeaderboardEntry
	Sent   int
	// Failed 发送失败的收件地址，单个地址失败不影响其他收件人
	Failed []string
}

// AnnounceWeeklyWinner 周五向所有留有邮箱的用户发送周冠军通知
// 本周无记录时 Winner 为 nil 且不发送
func (s *ScoringService) AnnounceWeeklyWinner(ctx context.Context, actor *models.User, notifier WinnerNotifier) (*AnnounceResult, error) {
	if err := Authorize(actor, ActionAnnounceWinner); err != nil {
		return nil, err
	}
	today := s.Today()
	if !IsAnnouncementDay(today) {
		return nil, fmt.Errorf("%s is %s: %w", today.Format("2006-01-02"), today.Weekday(), ErrNotAnnouncementDay)
	}

	view, err := s.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	result := &AnnounceResult{Winner: view.WeeklyWinner}
	if view.WeeklyWinner == nil {
		return result, nil
	}

	var recipients []models.User
	if err := s.db.WithContext(ctx).Where("email <> ?", "").Order("id ASC").Find(&recipients).Error; err != nil {
		return nil, err
	}

	start := WeeklyWindowStart(today)
	for _, u := range recipients {
		if err := notifier.SendWeeklyWinnerEmail(u.Email, *view.WeeklyWinner, start); err != nil {
			result.Failed = append(result.Failed, u.Email)
			continue
		}
		result.Sent++
	}
	return result, nil
}
