package repository

import (
	"context"
	"testing"
	"time"

	"orgdirectory/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestFeaturedPhotoRepository_FindByOrg(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeaturedPhotoRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `featured_photos` WHERE org_id = \\? ORDER BY position ASC, id ASC").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "photo_url", "storage_path", "position", "created_at"}).
			AddRow(1, 7, "u1", "ms/featured-1.jpg", 1, now).
			AddRow(2, 7, "u2", "ms/featured-2.png", 2, now))

	photos, err := repo.FindByOrg(context.Background(), 7)
	if err != nil {
		t.Fatalf("FindByOrg() error: %v", err)
	}
	if len(photos) != 2 || photos[1].StoragePath != "ms/featured-2.png" {
		t.Fatalf("unexpected photos: %+v", photos)
	}
	assertExpectations(t, mock)
}

func TestFeaturedPhotoRepository_CreateAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeaturedPhotoRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `featured_photos`").WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `featured_photos` WHERE `featured_photos`.`id` = \\?").
		WithArgs(12).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	photo := &model.FeaturedPhoto{OrgID: 7, PhotoURL: "u", StoragePath: "ms/featured-3.jpg", Position: 3}
	if err := repo.Create(ctx, photo); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := repo.Delete(ctx, photo.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	assertExpectations(t, mock)
}
