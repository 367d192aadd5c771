package handler

import (
	"net/http"

	"finbridge/internal/middleware"
	"finbridge/internal/service"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

type AgreementHandler struct {
	agreementService service.AgreementService
}

func NewAgreementHandler(agreementService service.AgreementService) *AgreementHandler {
	return &AgreementHandler{agreementService: agreementService}
}

func (h *AgreementHandler) RegisterRoutes(router *gin.RouterGroup) {
	agreements := router.Group("/api/agreements", middleware.RequireAuth())
	{
		agreements.GET("", h.List)
		agreements.POST("", h.Present)
		agreements.POST("/:id/sign", h.Sign)
		agreements.GET("/templates", middleware.RequireAdmin(), h.ListTemplates)
		agreements.POST("/templates", middleware.RequireAdmin(), h.CreateTemplate)
		agreements.POST("/templates/:id/activate", middleware.RequireAdmin(), h.ActivateTemplate)
		agreements.POST("/templates/:id/deactivate", middleware.RequireAdmin(), h.DeactivateTemplate)
	}
}

// List returns the caller's agreements
// @Summary      List agreements
// @Tags         agreements
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/agreements [get]
func (h *AgreementHandler) List(c *gin.Context) {
	agreements, err := h.agreementService.ListForUser(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agreements))
}

// Present creates an agreement instance from the newest active template
// @Summary      Present an agreement
// @Tags         agreements
// @Accept       json
// @Produce      json
// @Param        payload  body  service.PresentAgreementRequest  true  "Present payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/agreements [post]
func (h *AgreementHandler) Present(c *gin.Context) {
	var req service.PresentAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	agreement, err := h.agreementService.Present(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, agreement))
}

// Sign records an e-signature on a presented agreement
// @Summary      Sign an agreement
// @Tags         agreements
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Agreement ID"
// @Param        payload  body  service.SignAgreementRequest  true  "Signature payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/agreements/{id}/sign [post]
func (h *AgreementHandler) Sign(c *gin.Context) {
	var req service.SignAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	agreement, err := h.agreementService.Sign(c.Request.Context(), c.GetString("userID"), c.Param("id"), c.ClientIP(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agreement))
}

// ListTemplates returns agreement templates
// @Summary      List agreement templates
// @Tags         admin
// @Produce      json
// @Param        type  query  string  false  "Filter by template type"
// @Success      200  {object}  response.Response
// @Router       /api/agreements/templates [get]
func (h *AgreementHandler) ListTemplates(c *gin.Context) {
	templates, err := h.agreementService.ListTemplates(c.Request.Context(), c.Query("type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, templates))
}

// CreateTemplate adds a new template version
// @Summary      Create agreement template
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        payload  body  service.TemplateRequest  true  "Template payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/agreements/templates [post]
func (h *AgreementHandler) CreateTemplate(c *gin.Context) {
	var req service.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	tpl, err := h.agreementService.CreateTemplate(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tpl))
}

// ActivateTemplate marks a template version active
// @Summary      Activate agreement template
// @Tags         admin
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Success      200  {object}  response.Response
// @Router       /api/agreements/templates/{id}/activate [post]
func (h *AgreementHandler) ActivateTemplate(c *gin.Context) {
	tpl, err := h.agreementService.SetTemplateActive(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tpl))
}

// DeactivateTemplate retires a template version
// @Summary      Deactivate agreement template
// @Tags         admin
// @Produce      json
// @Param        id  path  string  true  "Template ID"
// @Success      200  {object}  response.Response
// @Router       /api/agreements/templates/{id}/deactivate [post]
func (h *AgreementHandler) DeactivateTemplate(c *gin.Context) {
	tpl, err := h.agreementService.SetTemplateActive(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tpl))
}
