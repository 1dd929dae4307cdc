package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

var itemColumns = []string{"id", "category_id", "sub_category_id", "name", "average_stock", "current_stock", "usage_count", "score", "created_at", "updated_at"}

func itemRow(id uint, avg, cur, usage float64, score int) *sqlmock.Rows {
	return sqlmock.NewRows(itemColumns).
		AddRow(id, 1, nil, "A4 纸", avg, cur, usage, score, time.Now(), time.Now())
}

var recordColumns = []string{"id", "user_id", "item_id", "quantity", "date", "created_at"}

var userColumns = []string{"id", "username", "password", "email", "role", "created_at", "updated_at"}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
