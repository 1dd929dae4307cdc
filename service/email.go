package service

import (
	"fmt"
	"html"
	"strconv"
	"time"

	"consumables/config"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 是否启用邮件
func (s *EmailService) Enabled() bool {
	return s.cfg != nil && s.cfg.Enabled
}

// SendWeeklyWinnerEmail 发送周冠军通知
func (s *EmailService) SendWeeklyWinnerEmail(to string, winner LeaderboardEntry, windowStart time.Time) error {
	if !s.Enabled() {
		return fmt.Errorf("邮件服务未启用，请配置 CONSUMABLES_EMAIL_ENABLED=true")
	}

	subject := fmt.Sprintf("【耗材管理】本周领取之星：%s", winner.User.Username)
	body := s.generateWinnerEmailBody(winner, windowStart)

	return s.sendEmail(to, subject, body)
}

// generateWinnerEmailBody 生成周冠军邮件内容
func (s *EmailService) generateWinnerEmailBody(winner LeaderboardEntry, windowStart time.Time) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: linear-gradient(135deg, #f59e0b, #d97706); color: white; padding: 30px; text-align: center; }
        .content { padding: 40px 30px; text-align: center; }
        .winner { font-size: 32px; font-weight: bold; color: #b45309; margin: 20px 0; }
        .credits { font-size: 18px; color: #333; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🏆 本周领取之星</h1>
        </div>
        <div class="content">
            <p>统计周期：%s 起</p>
            <div class="winner">%s</div>
            <p class="credits">本周积分 <strong>%s</strong></p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
        </div>
    </div>
</body>
</html>
`, windowStart.Format("2006-01-02"), html.EscapeString(winner.User.Username), strconv.FormatFloat(winner.Credits, 'f', -1, 64))
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}
