package handler

import (
	"net/http"
	"orgdirectory/internal/service"
	"orgdirectory/pkg/log"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ConsoleHandler 超级管理员控制台接口，路由组上已挂载 RequireSuperadmin。
type ConsoleHandler struct {
	console service.ConsoleService
	edits   service.OrgEditService
}

func NewConsoleHandler(console service.ConsoleService, edits service.OrgEditService) *ConsoleHandler {
	return &ConsoleHandler{console: console, edits: edits}
}

type createOrganizationRequest struct {
	Name       string `json:"name" binding:"required"`
	Acronym    string `json:"acronym"`
	President  string `json:"president" binding:"required"`
	Email      string `json:"email"`
	About      string `json:"about"`
	CategoryID uint   `json:"categoryId" binding:"required"`
}

func (h *ConsoleHandler) ListOrganizations(c *gin.Context) {
	session, ok := getSessionFromContext(c)
	if !ok {
		return
	}
	orgs, err := h.console.ListOrganizations(c.Request.Context(), session, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Organizations retrieved successfully",
		"data":    orgs,
	})
}

func (h *ConsoleHandler) ListAdmins(c *gin.Context) {
	session, ok := getSessionFromContext(c)
	if !ok {
		return
	}
	admins, err := h.console.ListAdmins(c.Request.Context(), session, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Admins retrieved successfully",
		"data":    admins,
	})
}

// ListActivity limit 非法或缺省时交给仓储使用默认值。
func (h *ConsoleHandler) ListActivity(c *gin.Context) {
	session, ok := getSessionFromContext(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.console.ListActivity(c.Request.Context(), session, c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Activity retrieved successfully",
		"data":    entries,
	})
}

func (h *ConsoleHandler) CreateOrganization(c *gin.Context) {
	session, ok := getSessionFromContext(c)
	if !ok {
		return
	}
	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Invalid request parameters",
		})
		return
	}

	org, err := h.edits.Create(c.Request.Context(), session, service.OrganizationDraft{
		Name:       req.Name,
		Acronym:    req.Acronym,
		President:  req.President,
		Email:      req.Email,
		About:      req.About,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		log.Errorf("ConsoleHandler.CreateOrganization: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Organization created successfully",
		"data":    org,
	})
}

func (h *ConsoleHandler) DeleteOrganization(c *gin.Context) {
	session, ok := getSessionFromContext(c)
	if !ok {
		return
	}
	orgID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.console.DeleteOrganization(c.Request.Context(), session, orgID); err != nil {
		log.Errorf("ConsoleHandler.DeleteOrganization: org %d: %v", orgID, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Organization deleted successfully",
	})
}

func (h *ConsoleHandler) RemoveAdmin(c *gin.Context) {
	session, ok := getSessionFromContext(c)
	if !ok {
		return
	}
	adminID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.console.RemoveAdmin(c.Request.Context(), session, adminID); err != nil {
		log.Errorf("ConsoleHandler.RemoveAdmin: admin %d: %v", adminID, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Admin removed successfully",
	})
}
