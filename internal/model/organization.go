package model

import "time"

// Category 组织分类，每个组织必须引用一个已存在的分类。
type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
}

func (Category) TableName() string {
	return "categories"
}

// Organization 对应 organizations 表，是目录中的学生组织。
// Slug 由 Acronym 派生，全局唯一且为小写，用于公开 URL 和对象存储路径。
type Organization struct {
	OrgID                uint      `gorm:"column:org_id;primaryKey;autoIncrement" json:"orgId"`
	Name                 string    `gorm:"type:varchar(255);not null" json:"name"`
	Acronym              string    `gorm:"type:varchar(50)" json:"acronym"`
	Slug                 string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	President            string    `gorm:"type:varchar(255);not null" json:"president"`
	Email                string    `gorm:"type:varchar(255)" json:"email"`
	About                string    `gorm:"type:text" json:"about"`
	CategoryID           uint      `gorm:"not null;index" json:"categoryId"`
	LogoURL              *string   `gorm:"type:varchar(512)" json:"logoUrl"`
	Facebook             string    `gorm:"type:varchar(512)" json:"-"`
	Twitter              string    `gorm:"type:varchar(512)" json:"-"`
	Instagram            string    `gorm:"type:varchar(512)" json:"-"`
	LinkedIn             string    `gorm:"column:linkedin;type:varchar(512)" json:"-"`
	Website              string    `gorm:"type:varchar(512)" json:"-"`
	ApplicationForm      string    `gorm:"type:varchar(512)" json:"applicationForm"`
	ApplicationDateRange string    `gorm:"type:varchar(100)" json:"applicationDateRange"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Organization) TableName() string {
	return "organizations"
}

// 社交平台键名，对外以 socialLinks 映射表示。
const (
	SocialFacebook  = "facebook"
	SocialTwitter   = "twitter"
	SocialInstagram = "instagram"
	SocialLinkedIn  = "linkedin"
	SocialWebsite   = "website"
)

// SocialLinks 把分散的列收拢成 平台名 -> URL 的映射，空值不输出。
func (o *Organization) SocialLinks() map[string]string {
	links := make(map[string]string, 5)
	for k, v := range map[string]string{
		SocialFacebook:  o.Facebook,
		SocialTwitter:   o.Twitter,
		SocialInstagram: o.Instagram,
		SocialLinkedIn:  o.LinkedIn,
		SocialWebsite:   o.Website,
	} {
		if v != "" {
			links[k] = v
		}
	}
	return links
}

// SetSocialLinks 按映射覆盖全部社交链接列，未出现的平台被清空。未知平台被忽略。
func (o *Organization) SetSocialLinks(links map[string]string) {
	o.Facebook = links[SocialFacebook]
	o.Twitter = links[SocialTwitter]
	o.Instagram = links[SocialInstagram]
	o.LinkedIn = links[SocialLinkedIn]
	o.Website = links[SocialWebsite]
}

// FeaturedPhoto 组织的精选照片，每个组织最多 3 张。
// StoragePath 记录对象存储中的路径，删除照片时先删对象再删记录。
type FeaturedPhoto struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrgID       uint      `gorm:"column:org_id;not null;index" json:"orgId"`
	PhotoURL    string    `gorm:"type:varchar(512);not null" json:"photoUrl"`
	StoragePath string    `gorm:"type:varchar(255);not null" json:"-"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (FeaturedPhoto) TableName() string {
	return "featured_photos"
}
