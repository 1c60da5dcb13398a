package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"orgdirectory/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/gorm"
)

func adminRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "org_id", "email", "created_at"}).
		AddRow(3, "u-1", 7, "admin@uni.edu", time.Now())
}

func TestAdminRepository_FindByEmail_CaseInsensitive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAdminRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `admins` WHERE LOWER\\(email\\) = \\?").
		WithArgs("admin@uni.edu", 1).
		WillReturnRows(adminRows())

	admin, err := repo.FindByEmail(context.Background(), "Admin@Uni.edu")
	if err != nil {
		t.Fatalf("FindByEmail() error: %v", err)
	}
	if admin.OrgID != 7 || admin.UserID != "u-1" {
		t.Fatalf("unexpected admin: %+v", admin)
	}
	assertExpectations(t, mock)
}

func TestAdminRepository_FindByOrgID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAdminRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `admins` WHERE org_id = \\?").
		WithArgs(9, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.FindByOrgID(context.Background(), 9); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("期望 gorm.ErrRecordNotFound, 实际 %v", err)
	}
	assertExpectations(t, mock)
}

func TestAdminRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAdminRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `admins`").WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	admin := &model.Admin{UserID: "u-2", OrgID: 8, Email: "b@uni.edu"}
	if err := repo.Create(context.Background(), admin); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if admin.ID != 4 {
		t.Fatalf("期望回填 ID=4, 实际 %d", admin.ID)
	}
	assertExpectations(t, mock)
}

func TestAdminRepository_Delete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAdminRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `admins` WHERE `admins`.`id` = \\?").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), 5); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("期望 gorm.ErrRecordNotFound, 实际 %v", err)
	}
	assertExpectations(t, mock)
}
