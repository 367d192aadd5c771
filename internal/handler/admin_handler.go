package handler

import (
	"net/http"
	"strconv"

	"finbridge/internal/middleware"
	"finbridge/internal/repository"
	"finbridge/internal/service"
	"finbridge/pkg/pagination"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes user administration, the audit trail and reporting.
type AdminHandler struct {
	adminService service.AdminService
	auditService service.AuditService
}

func NewAdminHandler(adminService service.AdminService, auditService service.AuditService) *AdminHandler {
	return &AdminHandler{adminService: adminService, auditService: auditService}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin", middleware.RequireAdmin())
	{
		admin.GET("/users", h.ListUsers)
		admin.POST("/users/:id/role", h.ChangeRole)
		admin.GET("/audit", h.ListAudit)
		admin.POST("/risk/override", h.RiskOverride)
		admin.GET("/reports/overview", h.Overview)
	}
}

// ListUsers returns platform accounts with an optional role filter
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        role   query  string  false  "Filter by role"
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Items per page"
// @Success      200  {object}  response.Response
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := pagination.Parse(c)
	users, total, err := h.adminService.ListUsers(c.Request.Context(), c.Query("role"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, users, params.Page, params.Limit, total))
}

// ChangeRole updates a user's role and records the change
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "User ID"
// @Param        payload  body  service.ChangeRoleRequest  true  "Role payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/users/{id}/role [post]
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	var req service.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	user, err := h.adminService.ChangeRole(c.Request.Context(), c.GetString("userID"), c.Param("id"), req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ListAudit returns filtered audit events
// @Summary      List audit events
// @Tags         admin
// @Produce      json
// @Param        q       query  string  false  "Free-text filter"
// @Param        action  query  string  false  "Filter by action"
// @Param        actor   query  string  false  "Filter by actor user id"
// @Param        limit   query  int     false  "Max rows (default 50)"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  response.Response
// @Router       /api/admin/audit [get]
func (h *AdminHandler) ListAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, total, err := h.auditService.List(c.Request.Context(), repository.AuditFilter{
		Query:       c.Query("q"),
		Action:      c.Query("action"),
		ActorUserID: c.Query("actor"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"events": events, "total": total}))
}

// RiskOverride records a manual risk decision
// @Summary      Record a risk override
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        payload  body  service.RiskOverrideRequest  true  "Override payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/admin/risk/override [post]
func (h *AdminHandler) RiskOverride(c *gin.Context) {
	var req service.RiskOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	event, err := h.auditService.RiskOverride(c.Request.Context(), c.GetString("userID"), req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, event))
}

// Overview returns aggregate platform counts
// @Summary      Platform overview report
// @Tags         admin
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/admin/reports/overview [get]
func (h *AdminHandler) Overview(c *gin.Context) {
	report, err := h.adminService.Overview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
