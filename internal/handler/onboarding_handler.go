package handler

import (
	"net/http"

	"finbridge/internal/middleware"
	"finbridge/internal/service"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

type OnboardingHandler struct {
	accessService service.AccessService
}

func NewOnboardingHandler(accessService service.AccessService) *OnboardingHandler {
	return &OnboardingHandler{accessService: accessService}
}

func (h *OnboardingHandler) RegisterRoutes(router *gin.RouterGroup) {
	onboarding := router.Group("/api/onboarding")
	{
		onboarding.GET("/checklist", middleware.RequireAuth(), h.Checklist)
	}
	dashboard := router.Group("/api/dashboard")
	{
		dashboard.GET("/status", middleware.RequireAuth(), h.Status)
	}
}

// Checklist returns the three-step onboarding checklist
// @Summary      Onboarding checklist
// @Tags         onboarding
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /api/onboarding/checklist [get]
func (h *OnboardingHandler) Checklist(c *gin.Context) {
	steps, err := h.accessService.Checklist(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, steps))
}

// Status returns the persisted dashboard access record
// @Summary      Dashboard access status
// @Tags         onboarding
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/dashboard/status [get]
func (h *OnboardingHandler) Status(c *gin.Context) {
	access, err := h.accessService.DashboardStatus(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, access))
}
