package service

import (
	"context"
	"orgdirectory/internal/model"
	"orgdirectory/internal/repository"
	"orgdirectory/pkg/log"
	"orgdirectory/pkg/search"
)

// ActivityPublisher 把新的操作记录推送给在线的控制台，*realtime.Hub 实现了该接口。
type ActivityPublisher interface {
	Publish(v interface{})
}

// activityRecorder 写操作日志并广播。日志属于附带效果，失败只记录告警，不影响主流程。
type activityRecorder struct {
	repo      repository.ActivityRepository
	publisher ActivityPublisher
}

func (r activityRecorder) record(ctx context.Context, actor *Session, action string, orgID *uint, detail string) {
	if r.repo == nil {
		return
	}
	entry := &model.ActivityLog{
		Action: action,
		OrgID:  orgID,
		Detail: detail,
	}
	if actor != nil {
		entry.ActorID = actor.UserID
		entry.ActorEmail = actor.Email
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		log.Warnf("activity: failed to record %s: %v", action, err)
		return
	}
	if r.publisher != nil {
		r.publisher.Publish(entry)
	}
}

// orgIndexer 同步搜索索引，index 为 nil 表示未启用搜索。
type orgIndexer struct {
	index search.Index
}

func (i orgIndexer) upsert(ctx context.Context, org *model.Organization, tags []string) {
	if i.index == nil || org == nil {
		return
	}
	doc := search.Document{
		OrgID:      org.OrgID,
		Name:       org.Name,
		Acronym:    org.Acronym,
		Slug:       org.Slug,
		About:      org.About,
		CategoryID: org.CategoryID,
		Tags:       tags,
	}
	if err := i.index.Upsert(ctx, doc); err != nil {
		log.Warnf("search: failed to index organization %d: %v", org.OrgID, err)
	}
}

func (i orgIndexer) remove(ctx context.Context, orgID uint) {
	if i.index == nil {
		return
	}
	if err := i.index.Delete(ctx, orgID); err != nil {
		log.Warnf("search: failed to remove organization %d: %v", orgID, err)
	}
}

func uintPtr(v uint) *uint {
	return &v
}
