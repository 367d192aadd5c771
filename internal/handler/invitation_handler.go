package handler

import (
	"net/http"

	"finbridge/internal/middleware"
	"finbridge/internal/model"
	"finbridge/internal/service"
	"finbridge/pkg/pagination"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvitationHandler struct {
	invitationService service.InvitationService
}

func NewInvitationHandler(invitationService service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

func (h *InvitationHandler) RegisterRoutes(router *gin.RouterGroup) {
	invitations := router.Group("/api/invitations")
	{
		invitations.POST("/send", middleware.RequireRole(model.RoleBuyer), h.Send)
		invitations.GET("", middleware.RequireRole(model.RoleBuyer), h.List)
		invitations.DELETE("/:id", middleware.RequireRole(model.RoleBuyer), h.Cancel)
		// Validation happens pre-registration, so it is deliberately public.
		invitations.GET("/validate", h.Validate)
	}
}

// Send creates and emails a supplier invitation
// @Summary      Send a supplier invitation
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        payload  body  service.SendInvitationRequest  true  "Invitation payload"
// @Success      201  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/invitations/send [post]
func (h *InvitationHandler) Send(c *gin.Context) {
	var req service.SendInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	inv, err := h.invitationService.Send(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, inv))
}

// List returns the buyer's invitations with computed expiry
// @Summary      List invitations
// @Tags         invitations
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/invitations [get]
func (h *InvitationHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	invs, total, err := h.invitationService.ListForBuyer(c.Request.Context(), c.GetString("userID"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, invs, params.Page, params.Limit, total))
}

// Cancel marks an invitation cancelled
// @Summary      Cancel an invitation
// @Tags         invitations
// @Produce      json
// @Param        id  path  string  true  "Invitation ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invitations/{id} [delete]
func (h *InvitationHandler) Cancel(c *gin.Context) {
	if err := h.invitationService.Cancel(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Invitation cancelled"}))
}

// Validate resolves an invitation token for the public landing page
// @Summary      Validate an invitation token
// @Tags         invitations
// @Produce      json
// @Param        token  query  string  true  "Invitation token"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invitations/validate [get]
func (h *InvitationHandler) Validate(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A token is required"))
		return
	}

	result, err := h.invitationService.Validate(c.Request.Context(), token)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
