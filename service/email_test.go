package service

import (
	"testing"
	"time"

	"consumables/config"
	"consumables/models"

	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestGenerateWinnerEmailBody(t *testing.T) {
	s := newTestEmailService()
	start := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	body := s.generateWinnerEmailBody(LeaderboardEntry{User: models.User{Username: "<alice>"}, Credits: 12.5}, start)

	assert.Contains(t, body, "2024-03-08")
	assert.Contains(t, body, "&lt;alice&gt;")
	assert.NotContains(t, body, "<alice>")
	assert.Contains(t, body, "12.5")
	assert.Contains(t, body, "本周领取之星")
}

func TestSendWeeklyWinnerEmail_Disabled(t *testing.T) {
	s := newTestEmailService()
	assert.False(t, s.Enabled())

	err := s.SendWeeklyWinnerEmail("a@example.com", LeaderboardEntry{}, time.Now())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "未启用")
}
