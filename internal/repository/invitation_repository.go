package repository

import (
	"context"
	"fmt"
	"orgdirectory/internal/model"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvitationRepository 待接受的管理员邀请。邮箱在写入和查询时统一小写。
type InvitationRepository interface {
	// Create 同一邮箱与组织重复邀请时只刷新邀请时间
	Create(ctx context.Context, inv *model.AdminInvitation) error
	FindPending(ctx context.Context, email string, orgID uint) (*model.AdminInvitation, error)
	Delete(ctx context.Context, id uint) error
}

type invitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *model.AdminInvitation) error {
	if inv == nil || inv.OrgID == 0 {
		return fmt.Errorf("invitation org id is required")
	}
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	if inv.Email == "" {
		return fmt.Errorf("invitation email is required")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}, {Name: "org_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"created_at"}),
		}).
		Create(inv).Error
}

func (r *invitationRepository) FindPending(ctx context.Context, email string, orgID uint) (*model.AdminInvitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var inv model.AdminInvitation
	if err := r.db.WithContext(ctx).Where("email = ? AND org_id = ?", email, orgID).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.AdminInvitation{}).Error
}
