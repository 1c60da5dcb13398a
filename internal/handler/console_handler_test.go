package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"orgdirectory/internal/model"
	"orgdirectory/internal/service"

	"github.com/gin-gonic/gin"
)

type fakeConsole struct {
	query        string
	limit        int
	deletedOrg   uint
	removedAdmin uint
	err          error
}

func (f *fakeConsole) ListOrganizations(_ context.Context, _ *service.Session, query string) ([]service.OrganizationView, error) {
	f.query = query
	return []service.OrganizationView{}, f.err
}

func (f *fakeConsole) ListAdmins(_ context.Context, _ *service.Session, query string) ([]model.Admin, error) {
	f.query = query
	return []model.Admin{{ID: 1, Email: "a@uni.edu", OrgID: 3}}, f.err
}

func (f *fakeConsole) ListActivity(_ context.Context, _ *service.Session, query string, limit int) ([]model.ActivityLog, error) {
	f.query, f.limit = query, limit
	return []model.ActivityLog{}, f.err
}

func (f *fakeConsole) DeleteOrganization(_ context.Context, _ *service.Session, orgID uint) error {
	f.deletedOrg = orgID
	return f.err
}

func (f *fakeConsole) RemoveAdmin(_ context.Context, _ *service.Session, adminID uint) error {
	f.removedAdmin = adminID
	return f.err
}

func newConsoleRouter(console service.ConsoleService, edits service.OrgEditService) *gin.Engine {
	h := NewConsoleHandler(console, edits)
	r := gin.New()
	g := r.Group("/console", withSession(superadmin()))
	g.GET("/organizations", h.ListOrganizations)
	g.POST("/organizations", h.CreateOrganization)
	g.DELETE("/organizations/:id", h.DeleteOrganization)
	g.GET("/admins", h.ListAdmins)
	g.DELETE("/admins/:id", h.RemoveAdmin)
	g.GET("/activity", h.ListActivity)
	return r
}

func TestConsoleHandler_Lists(t *testing.T) {
	console := &fakeConsole{}
	r := newConsoleRouter(console, &fakeEdits{})

	w := doReq(r, http.MethodGet, "/console/admins?q=uni", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "a@uni.edu") {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}
	if console.query != "uni" {
		t.Errorf("q 未传递: %q", console.query)
	}

	if w := doReq(r, http.MethodGet, "/console/activity?q=deleted&limit=20", ""); w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d", w.Code)
	}
	if console.query != "deleted" || console.limit != 20 {
		t.Errorf("activity 参数未传递: %q %d", console.query, console.limit)
	}
}

func TestConsoleHandler_Delete(t *testing.T) {
	console := &fakeConsole{}
	r := newConsoleRouter(console, &fakeEdits{})

	if w := doReq(r, http.MethodDelete, "/console/organizations/9", ""); w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d", w.Code)
	}
	if console.deletedOrg != 9 {
		t.Errorf("删除的组织期望 9, 实际 %d", console.deletedOrg)
	}
	if w := doReq(r, http.MethodDelete, "/console/admins/4", ""); w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d", w.Code)
	}
	if console.removedAdmin != 4 {
		t.Errorf("移除的管理员期望 4, 实际 %d", console.removedAdmin)
	}
	if w := doReq(r, http.MethodDelete, "/console/admins/0", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("id 为 0 期望 400, got %d", w.Code)
	}

	console.err = service.ErrOrganizationNotFound
	if w := doReq(r, http.MethodDelete, "/console/organizations/10", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expect 404, got %d", w.Code)
	}
}

func TestConsoleHandler_CreateOrganization(t *testing.T) {
	var got service.OrganizationDraft
	edits := &fakeEdits{createFn: func(_ *service.Session, draft service.OrganizationDraft) (*model.Organization, error) {
		got = draft
		if draft.Acronym == "TAKEN" {
			return nil, service.ErrSlugTaken
		}
		return &model.Organization{OrgID: 11, Name: draft.Name, Slug: "ms"}, nil
	}}
	r := newConsoleRouter(&fakeConsole{}, edits)

	w := doReq(r, http.MethodPost, "/console/organizations", `{"name":"Music Society","acronym":"MS","president":"Ada","categoryId":2}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expect 201, got %d, body=%s", w.Code, w.Body.String())
	}
	if got.Name != "Music Society" || got.CategoryID != 2 {
		t.Errorf("draft 解析错误: %+v", got)
	}

	if w := doReq(r, http.MethodPost, "/console/organizations", `{"name":"x"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("缺少必填字段期望 400, got %d", w.Code)
	}
	w = doReq(r, http.MethodPost, "/console/organizations", `{"name":"x","acronym":"TAKEN","president":"p","categoryId":1}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("slug 冲突期望 409, got %d", w.Code)
	}
}
