package model

import "time"

// 活动日志动作
const (
	ActionOrganizationCreated = "organization.created"
	ActionOrganizationUpdated = "organization.updated"
	ActionOrganizationDeleted = "organization.deleted"
	ActionAdminAssigned       = "admin.assigned"
	ActionAdminRemoved        = "admin.removed"
)

// ActivityLog 超级管理员控制台中的操作记录。
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID    string    `gorm:"type:varchar(64);index" json:"actorId"`
	ActorEmail string    `gorm:"type:varchar(255)" json:"actorEmail"`
	Action     string    `gorm:"type:varchar(64);not null;index" json:"action"`
	OrgID      *uint     `gorm:"column:org_id;index" json:"orgId"`
	Detail     string    `gorm:"type:text" json:"detail"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
