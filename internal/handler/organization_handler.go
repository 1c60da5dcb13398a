package handler

import (
	"net/http"
	"orgdirectory/internal/service"
	"orgdirectory/pkg/log"
	"strconv"

	"github.com/gin-gonic/gin"
)

// OrganizationHandler 目录的公开只读接口。
type OrganizationHandler struct {
	directory service.DirectoryService
}

func NewOrganizationHandler(directory service.DirectoryService) *OrganizationHandler {
	return &OrganizationHandler{directory: directory}
}

// List 支持 q（名称/简称）、tag、category 三个筛选参数。
func (h *OrganizationHandler) List(c *gin.Context) {
	q := service.DirectoryQuery{
		Query: c.Query("q"),
		Tag:   c.Query("tag"),
	}
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "Invalid category",
			})
			return
		}
		q.CategoryID = uint(id)
	}

	orgs, err := h.directory.List(c.Request.Context(), q)
	if err != nil {
		log.Errorf("OrganizationHandler.List: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Organizations retrieved successfully",
		"data":    orgs,
	})
}

func (h *OrganizationHandler) Get(c *gin.Context) {
	profile, err := h.directory.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Organization retrieved successfully",
		"data":    profile,
	})
}

func (h *OrganizationHandler) Categories(c *gin.Context) {
	categories, err := h.directory.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Categories retrieved successfully",
		"data":    categories,
	})
}

func (h *OrganizationHandler) Tags(c *gin.Context) {
	tags, err := h.directory.Tags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Tags retrieved successfully",
		"data":    tags,
	})
}
