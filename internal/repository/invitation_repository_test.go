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

func TestInvitationRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvitationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `admin_invitations` .* ON DUPLICATE KEY UPDATE .*`created_at`").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	inv := &model.AdminInvitation{Email: " Lead@Uni.edu ", OrgID: 7}
	if err := repo.Create(context.Background(), inv); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if inv.Email != "lead@uni.edu" {
		t.Errorf("邮箱应规范化为小写, got %q", inv.Email)
	}
	assertExpectations(t, mock)

	if err := repo.Create(context.Background(), &model.AdminInvitation{Email: "x@uni.edu"}); err == nil {
		t.Fatal("缺少组织时应返回错误")
	}
}

func TestInvitationRepository_FindPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvitationRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `admin_invitations` WHERE email = \\? AND org_id = \\?").
		WithArgs("lead@uni.edu", 7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "org_id", "created_at"}).
			AddRow(3, "lead@uni.edu", 7, time.Now()))

	inv, err := repo.FindPending(context.Background(), "Lead@uni.edu", 7)
	if err != nil || inv.ID != 3 {
		t.Fatalf("FindPending() = %+v, %v", inv, err)
	}
	assertExpectations(t, mock)

	if _, err := repo.FindPending(context.Background(), "", 7); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("空邮箱期望 gorm.ErrRecordNotFound, 实际 %v", err)
	}
}
