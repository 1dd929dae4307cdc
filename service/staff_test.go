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

func TestStaffDelete_Self(t *testing.T) {
	db, mock := setupMockDB(t)

	_, err := NewStaffService(db).Delete(context.Background(), superuser, superuser.ID)
	assert.ErrorIs(t, err, ErrSelfDelete)
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffDelete_RemovesRecords(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(2, "bob", "x", "", "staff", now, now))
	mock.ExpectExec("DELETE FROM `consumption_records` WHERE user_id = ").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := NewStaffService(db).Delete(context.Background(), superuser, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffCreate(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectCommit()

	email := "carol@example.com"
	user, err := NewStaffService(db).Create(context.Background(), superuser, StaffInput{
		Username: "carol", Password: "secret", Email: &email,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(6), user.ID)
	assert.Equal(t, models.RoleStaff, user.Role)
	assert.NotEqual(t, "secret", user.Password)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffCreate_Errors(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewStaffService(db)

	_, err := svc.Create(context.Background(), staffUser, StaffInput{Username: "x", Password: "y"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(context.Background(), superuser, StaffInput{Username: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), superuser, StaffInput{Username: "x", Password: "y", Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(1))
	_, err = svc.Create(context.Background(), superuser, StaffInput{Username: "bob", Password: "y"})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffUpdate_CannotChangeOwnRole(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "admin", "x", "", "superuser", now, now))

	_, err := NewStaffService(db).Update(context.Background(), superuser, 1, StaffInput{Role: models.RoleStaff})
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticate(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewStaffService(db)
	hashed, err := HashPassword("s3cret")
	require.NoError(t, err)
	now := time.Now()

	mock.ExpectQuery("SELECT .* FROM `users` WHERE username = ").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(2, "bob", hashed, "", "staff", now, now))
	user, err := svc.Authenticate(context.Background(), " bob ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(2), user.ID)

	mock.ExpectQuery("SELECT .* FROM `users` WHERE username = ").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(2, "bob", hashed, "", "staff", now, now))
	_, err = svc.Authenticate(context.Background(), "bob", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	mock.ExpectQuery("SELECT .* FROM `users` WHERE username = ").
		WillReturnRows(sqlmock.NewRows(userColumns))
	_, err = svc.Authenticate(context.Background(), "ghost", "s3cret")
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSuperuser(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewStaffService(db)

	created, err := svc.EnsureSuperuser(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, created)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE role = ").WillReturnRows(countRows(1))
	created, err = svc.EnsureSuperuser(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE role = ").WillReturnRows(countRows(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE username = ").WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	created, err = svc.EnsureSuperuser(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}
