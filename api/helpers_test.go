package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"consumables/database"
	"consumables/middleware"
	"consumables/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

var (
	testAdmin = &models.User{ID: 1, Username: "admin", Role: models.RoleSuperuser}
	testStaff = &models.User{ID: 2, Username: "bob", Role: models.RoleStaff}
)

func setCurrentUserMiddleware(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, user.ID)
		c.Set(middleware.ContextCurrentUser, user)
		c.Next()
	}
}

func newTestRouter(user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if user != nil {
		router.Use(setCurrentUserMiddleware(user))
	}
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var (
	itemColumns   = []string{"id", "category_id", "sub_category_id", "name", "average_stock", "current_stock", "usage_count", "score", "created_at", "updated_at"}
	recordColumns = []string{"id", "user_id", "item_id", "quantity", "date", "created_at"}
	userColumns   = []string{"id", "username", "password", "email", "role", "created_at", "updated_at"}
)

func itemRows(id uint, avg, cur float64) *sqlmock.Rows {
	return sqlmock.NewRows(itemColumns).AddRow(id, 1, nil, "A4 纸", avg, cur, 0, 1, time.Now(), time.Now())
}
