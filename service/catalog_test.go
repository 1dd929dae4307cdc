package service

import (
	"context"
	"testing"
	"time"

	"consumables/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	categoryColumns    = []string{"id", "name", "created_at", "updated_at"}
	subCategoryColumns = []string{"id", "name", "category_id", "created_at", "updated_at"}
	superuser          = &models.User{ID: 1, Username: "admin", Role: models.RoleSuperuser}
	staffUser          = &models.User{ID: 2, Username: "bob", Role: models.RoleStaff}
)

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestDeleteCategory_RequiresSuperuser(t *testing.T) {
	db, mock := setupMockDB(t)

	err := NewCatalogService(db).DeleteCategory(context.Background(), staffUser, 1)
	assert.ErrorIs(t, err, ErrForbidden)
	// 权限不足时不访问数据库
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategory_Cascades(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(1, "办公用品", time.Now(), time.Now()))
	mock.ExpectExec("DELETE FROM `consumption_records` WHERE item_id IN .*FROM `items`").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM `items`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `sub_categories`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `categories`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewCatalogService(db).DeleteCategory(context.Background(), superuser, 1)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategory_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `categories`").WillReturnRows(sqlmock.NewRows(categoryColumns))
	mock.ExpectRollback()

	err := NewCatalogService(db).DeleteCategory(context.Background(), superuser, 9)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategory(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT .* FROM `categories` WHERE name = ").
		WillReturnRows(sqlmock.NewRows(categoryColumns))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	cat, err := NewCatalogService(db).CreateCategory(context.Background(), "  清洁用品 ")
	require.NoError(t, err)
	assert.Equal(t, uint(3), cat.ID)
	assert.Equal(t, "清洁用品", cat.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategory_Validation(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewCatalogService(db)

	_, err := svc.CreateCategory(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	mock.ExpectQuery("SELECT .* FROM `categories` WHERE name = ").
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(1, "清洁用品", time.Now(), time.Now()))
	_, err = svc.CreateCategory(context.Background(), "清洁用品")
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItem(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(1, "办公用品", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `items`").WillReturnRows(countRows(0))
	mock.ExpectExec("INSERT INTO `items`").WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectCommit()

	item, err := NewCatalogService(db).CreateItem(context.Background(), 1, ItemInput{
		Name: "订书钉", AverageStock: 20, CurrentStock: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(12), item.ID)
	assert.Equal(t, models.DefaultItemScore, item.Score)
	assert.Equal(t, uint(1), item.CategoryID)
	assert.Nil(t, item.SubCategoryID)
	assert.Equal(t, models.StockGreen, item.StockStatusColor())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItem_ExplicitZeroScore(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(1, "办公用品", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `items`").WillReturnRows(countRows(0))
	mock.ExpectExec("INSERT INTO `items`").WillReturnResult(sqlmock.NewResult(13, 1))
	mock.ExpectCommit()

	zero := 0
	item, err := NewCatalogService(db).CreateItem(context.Background(), 1, ItemInput{Name: "回形针", Score: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, item.Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItem_KeepsScoreWhenOmitted(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `items` .*FOR UPDATE").
		WillReturnRows(itemRow(5, 10, 4, 0, 3))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `items`").WillReturnRows(countRows(0))
	mock.ExpectExec("UPDATE `items` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item, err := NewCatalogService(db).UpdateItem(context.Background(), 5, ItemInput{
		Name: "A4 纸", AverageStock: 10, CurrentStock: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, item.Score)
	assert.Equal(t, 8.0, item.CurrentStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItem_DuplicateName(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(1, "办公用品", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `items`").WillReturnRows(countRows(1))
	mock.ExpectRollback()

	_, err := NewCatalogService(db).CreateItem(context.Background(), 1, ItemInput{Name: "订书钉"})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItem_SubCategoryOfOtherCategory(t *testing.T) {
	db, mock := setupMockDB(t)
	sub := uint(8)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(1, "办公用品", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT .* FROM `sub_categories`").
		WillReturnRows(sqlmock.NewRows(subCategoryColumns))
	mock.ExpectRollback()

	_, err := NewCatalogService(db).CreateItem(context.Background(), 1, ItemInput{Name: "订书钉", SubCategoryID: &sub})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItem_NegativeStock(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow(1, "办公用品", time.Now(), time.Now()))
	mock.ExpectRollback()

	_, err := NewCatalogService(db).CreateItem(context.Background(), 1, ItemInput{Name: "订书钉", CurrentStock: -1})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubCategory_RequiresSuperuser(t *testing.T) {
	db, mock := setupMockDB(t)

	_, err := NewCatalogService(db).DeleteSubCategory(context.Background(), staffUser, 1)
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubCategory_DetachesItems(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `sub_categories`").
		WillReturnRows(sqlmock.NewRows(subCategoryColumns).AddRow(4, "签字笔", 1, time.Now(), time.Now()))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `items`").WillReturnRows(countRows(0))
	mock.ExpectExec("UPDATE `items` SET `sub_category_id`=").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM `sub_categories`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sub, err := NewCatalogService(db).DeleteSubCategory(context.Background(), superuser, 4)
	require.NoError(t, err)
	assert.Equal(t, uint(1), sub.CategoryID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubCategory_NameClash(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `sub_categories`").
		WillReturnRows(sqlmock.NewRows(subCategoryColumns).AddRow(4, "签字笔", 1, time.Now(), time.Now()))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `items`").WillReturnRows(countRows(2))
	mock.ExpectRollback()

	_, err := NewCatalogService(db).DeleteSubCategory(context.Background(), superuser, 4)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItem_AnyAuthenticatedUser(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `items`").WillReturnRows(itemRow(5, 10, 3, 2, 1))
	mock.ExpectExec("DELETE FROM `consumption_records` WHERE item_id = ").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `items`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item, err := NewCatalogService(db).DeleteItem(context.Background(), staffUser, 5)
	require.NoError(t, err)
	assert.Equal(t, uint(5), item.ID)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = NewCatalogService(db).DeleteItem(context.Background(), nil, 5)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
