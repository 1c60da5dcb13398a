package model

// Tag 全局标签，名称统一存为小写，因此唯一索引即大小写不敏感的唯一性。
// 标签从不被全局删除，编辑组织时只增删它与组织的关联。
type Tag struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
}

func (Tag) TableName() string {
	return "tags"
}

// OrganizationTag 是 organizations 与 tags 的多对多关联表。
// (org_id, tag_id) 为联合主键，对同一对的 upsert 是幂等的。
type OrganizationTag struct {
	OrgID uint `gorm:"column:org_id;primaryKey" json:"orgId"`
	TagID uint `gorm:"column:tag_id;primaryKey" json:"tagId"`
}

// TableName 指定 GORM 使用的表名
func (OrganizationTag) TableName() string {
	return "organization_tags"
}
