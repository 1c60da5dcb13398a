package handler

import (
	"mime/multipart"
	"net/http"
	"orgdirectory/internal/service"
	"orgdirectory/pkg/log"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// 编辑表单中的日期字段格式（HTML date input）
const formDateLayout = "2006-01-02"

// 表单中逐个读取的社交链接字段
var socialLinkFields = []string{"facebook", "twitter", "instagram", "linkedin", "website"}

// OrgEditHandler 组织资料编辑接口。
type OrgEditHandler struct {
	edits service.OrgEditService
	// maxMemory multipart 表单在内存中缓存的上限，超出部分落盘
	maxMemory int64
}

func NewOrgEditHandler(edits service.OrgEditService) *OrgEditHandler {
	return &OrgEditHandler{edits: edits, maxMemory: 32 << 20}
}

// Update PUT /organizations/:id，multipart 表单一次提交整个编辑页。
func (h *OrgEditHandler) Update(c *gin.Context) {
	session, ok := getSessionFromContext(c)
	if !ok {
		return
	}
	orgID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	form, err := parseEditForm(c, h.maxMemory)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": err.Error(),
		})
		return
	}
	defer form.close()

	result, err := h.edits.Save(c.Request.Context(), session, orgID, form.edit)
	if err != nil {
		log.Errorf("OrgEditHandler.Update: org %d: %v", orgID, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Organization updated successfully",
		"data": gin.H{
			"organization":   result.Organization,
			"featuredPhotos": result.FeaturedPhotos,
			"warnings":       result.Warnings,
			"redirectAfter":  result.RedirectAfter.Milliseconds(),
		},
	})
}

type editForm struct {
	edit  service.OrganizationEdit
	files []multipart.File
}

func (f *editForm) close() {
	for _, file := range f.files {
		_ = file.Close()
	}
}

type formError string

func (e formError) Error() string { return string(e) }

// parseEditForm 把 multipart 表单转换为 OrganizationEdit，文件句柄由调用方关闭。
func parseEditForm(c *gin.Context, maxMemory int64) (*editForm, error) {
	if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
		return nil, formError("Invalid multipart form")
	}
	mf := c.Request.MultipartForm

	f := &editForm{}
	e := &f.edit
	e.Name = c.PostForm("name")
	e.Acronym = strings.TrimSpace(c.PostForm("acronym"))
	e.President = c.PostForm("president")
	e.Email = strings.TrimSpace(c.PostForm("email"))
	e.About = c.PostForm("about")
	e.ApplicationForm = strings.TrimSpace(c.PostForm("application_form"))
	e.TagInput = c.PostForm("tags")
	e.NewAdminEmail = c.PostForm("new_admin_email")
	e.Stay, _ = strconv.ParseBool(c.DefaultPostForm("stay", "false"))

	if raw := strings.TrimSpace(c.PostForm("category_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, formError("Invalid category_id")
		}
		e.CategoryID = uint(id)
	}

	e.SocialLinks = make(map[string]string, len(socialLinkFields))
	for _, key := range socialLinkFields {
		e.SocialLinks[key] = c.PostForm(key)
	}

	var err error
	if e.ApplicationStart, err = parseFormDate(c.PostForm("application_start")); err != nil {
		return nil, formError("Invalid application_start")
	}
	if e.ApplicationEnd, err = parseFormDate(c.PostForm("application_end")); err != nil {
		return nil, formError("Invalid application_end")
	}

	// deleted_photo_ids 既可重复提交也可逗号分隔
	for _, raw := range c.PostFormArray("deleted_photo_ids") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil || id == 0 {
				return nil, formError("Invalid deleted_photo_ids")
			}
			e.DeletedPhotoIDs = append(e.DeletedPhotoIDs, uint(id))
		}
	}

	if mf != nil {
		if logos := mf.File["logo"]; len(logos) > 0 {
			upload, err := f.open(logos[0])
			if err != nil {
				f.close()
				return nil, err
			}
			e.Logo = &upload
		}
		for _, fh := range mf.File["photos"] {
			upload, err := f.open(fh)
			if err != nil {
				f.close()
				return nil, err
			}
			e.NewPhotos = append(e.NewPhotos, upload)
		}
	}
	return f, nil
}

func (f *editForm) open(fh *multipart.FileHeader) (service.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return service.Upload{}, formError("Failed to read uploaded file " + fh.Filename)
	}
	f.files = append(f.files, file)
	return service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Reader:      file,
	}, nil
}

func parseFormDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(formDateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
