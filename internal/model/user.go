package model

import "time"

// 角色取值。guest 不落库，只表示未登录的调用方。
const (
	RoleGuest      = "guest"
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// User 是托管身份服务中用户在本库的资料镜像，ID 为身份服务的 UUID。
// email 只建普通索引：手机号等登录方式没有邮箱，身份删除重建后同一邮箱会换新 id。
type User struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;index" json:"email"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}

// UserRole 角色登记表，每个身份一条记录，生命周期独立于组织。
type UserRole struct {
	UserID    string    `gorm:"type:varchar(64);primaryKey" json:"userId"`
	Role      string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// Admin 管理员与组织的绑定。
// org_id 唯一：一个组织只有一个管理员；user_id 唯一：一个管理员同一时间只绑定一个组织。
type Admin struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"userId"`
	OrgID     uint      `gorm:"column:org_id;not null;uniqueIndex" json:"orgId"`
	Email     string    `gorm:"type:varchar(255);not null;index" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Organization *Organization `gorm:"foreignKey:OrgID;references:OrgID" json:"organization,omitempty"`
}

func (Admin) TableName() string {
	return "admins"
}

// AdminInvitation 由 invite-admin 写入的待接受邀请。
// 受邀者登录时只有邮箱与组织都匹配一条邀请才会完成绑定，绑定后邀请即被消费。
type AdminInvitation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_invitation_email_org" json:"email"`
	OrgID     uint      `gorm:"column:org_id;not null;uniqueIndex:idx_invitation_email_org" json:"orgId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (AdminInvitation) TableName() string {
	return "admin_invitations"
}
