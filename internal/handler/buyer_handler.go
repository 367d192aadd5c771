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

// BuyerHandler exposes the buyer portal's vendor consent and AP upload surface.
type BuyerHandler struct {
	apService service.APService
}

func NewBuyerHandler(apService service.APService) *BuyerHandler {
	return &BuyerHandler{apService: apService}
}

func (h *BuyerHandler) RegisterRoutes(router *gin.RouterGroup) {
	buyer := router.Group("/api/buyer", middleware.RequireRole(model.RoleBuyer))
	{
		buyer.GET("/vendors", h.ListVendors)
		buyer.POST("/vendors", h.UpsertConsent)
		buyer.GET("/vendors/unassigned", h.ListUnassigned)
		buyer.POST("/consents", h.UpsertConsent)
		buyer.POST("/invoices/upload", h.UploadInvoices)
		buyer.GET("/invoices", h.ListInvoices)
		buyer.POST("/invoices/match", h.MatchInvoices)
	}
}

// ListVendors returns the buyer's vendor consent table
// @Summary      List vendor consents
// @Tags         buyer
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/buyer/vendors [get]
func (h *BuyerHandler) ListVendors(c *gin.Context) {
	consents, err := h.apService.ListConsents(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, consents))
}

// UpsertConsent links an ERP vendor number to a supplier account
// @Summary      Upsert a vendor consent
// @Tags         buyer
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ConsentRequest  true  "Consent payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/buyer/consents [post]
func (h *BuyerHandler) UpsertConsent(c *gin.Context) {
	var req service.ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	consent, err := h.apService.UpsertConsent(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, consent))
}

// ListUnassigned returns consents lacking a supplier link
// @Summary      List unassigned vendors
// @Tags         buyer
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/buyer/vendors/unassigned [get]
func (h *BuyerHandler) ListUnassigned(c *gin.Context) {
	consents, err := h.apService.ListUnassigned(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, consents))
}

// UploadInvoices ingests an AP batch
// @Summary      Upload an AP batch
// @Tags         buyer
// @Accept       json
// @Produce      json
// @Param        payload  body  service.InvoiceUploadRequest  true  "Invoice rows"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/buyer/invoices/upload [post]
func (h *BuyerHandler) UploadInvoices(c *gin.Context) {
	var req service.InvoiceUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	summary, err := h.apService.UploadInvoices(c.Request.Context(), c.GetString("userID"), req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, summary))
}

// ListInvoices returns the buyer's invoice rows
// @Summary      List invoice rows
// @Tags         buyer
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/buyer/invoices [get]
func (h *BuyerHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)
	rows, total, err := h.apService.ListInvoices(c.Request.Context(), c.GetString("userID"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, rows, params.Page, params.Limit, total))
}

// MatchInvoices backfills supplier links from the consent table
// @Summary      Match invoices to suppliers
// @Tags         buyer
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/buyer/invoices/match [post]
func (h *BuyerHandler) MatchInvoices(c *gin.Context) {
	result, err := h.apService.MatchInvoices(c.Request.Context(), c.GetString("userID"), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
