package api

import (
	"net/http"
	"testing"
	"time"

	"consumables/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockHandler_Take(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `items` .*FOR UPDATE").WillReturnRows(itemRows(1, 100, 100))
	mock.ExpectExec("UPDATE `items` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `consumption_records`").WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	router := newTestRouter(testStaff)
	router.POST("/items/:id/take", NewStockHandler().Take)

	w := doJSON(router, "POST", "/items/1/take", `{"quantity":80}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	item := data["item"].(map[string]interface{})
	assert.Equal(t, 20.0, item["current_stock"])
	assert.Equal(t, string(models.StockRed), item["stock_color"])
	assert.Equal(t, true, item["low_stock"])
	record := data["record"].(map[string]interface{})
	assert.Equal(t, 80.0, record["credits"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStockHandler_Take_Insufficient(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `items` .*FOR UPDATE").WillReturnRows(itemRows(1, 100, 3))
	mock.ExpectRollback()

	router := newTestRouter(testStaff)
	router.POST("/items/:id/take", NewStockHandler().Take)

	w := doJSON(router, "POST", "/items/1/take", `{"quantity":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStockHandler_Take_ZeroQuantity(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	router := newTestRouter(testStaff)
	router.POST("/items/:id/take", NewStockHandler().Take)

	w := doJSON(router, "POST", "/items/1/take", `{"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStockHandler_Take_Unauthenticated(t *testing.T) {
	router := newTestRouter(nil)
	router.POST("/items/:id/take", NewStockHandler().Take)

	w := doJSON(router, "POST", "/items/1/take", `{"quantity":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStockHandler_SetStock(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	router := newTestRouter(testStaff)
	router.PUT("/items/:id/stock", NewStockHandler().SetStock)

	w := doJSON(router, "PUT", "/items/1/stock", `{"current_stock":-4}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "PUT", "/items/1/stock", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `items` .*FOR UPDATE").WillReturnRows(itemRows(1, 10, 1))
	mock.ExpectExec("UPDATE `items` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w = doJSON(router, "PUT", "/items/1/stock", `{"current_stock":0}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	item := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 0.0, item["current_stock"])
	assert.Equal(t, string(models.StockRed), item["stock_color"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStockHandler_LowStock(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `items` JOIN categories").
		WillReturnRows(itemRows(3, 40, 4))
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(1, "办公用品", time.Now(), time.Now()))

	router := newTestRouter(testStaff)
	router.GET("/stock/low", NewStockHandler().LowStock)

	w := doJSON(router, "GET", "/stock/low", "")
	require.Equal(t, 200, w.Code)
	list := decode(t, w)["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, 10.0, list[0].(map[string]interface{})["stock_percentage"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStockHandler_Overview(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `categories` ORDER BY name ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(1, "办公用品", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT .* FROM `items` WHERE `items`.`category_id` = .* ORDER BY usage_count DESC, name ASC").
		WillReturnRows(itemRows(3, 0, 5))

	router := newTestRouter(testStaff)
	router.GET("/stock", NewStockHandler().Overview)

	w := doJSON(router, "GET", "/stock", "")
	require.Equal(t, 200, w.Code)
	cats := decode(t, w)["data"].([]interface{})
	require.Len(t, cats, 1)
	items := cats[0].(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
	// 未设置平均库存视为满库存
	assert.Equal(t, 100.0, items[0].(map[string]interface{})["stock_percentage"])
	assert.Equal(t, string(models.StockGreen), items[0].(map[string]interface{})["stock_color"])
	require.NoError(t, mock.ExpectationsWereMet())
}
