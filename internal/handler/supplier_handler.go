package handler

import (
	"net/http"

	"finbridge/internal/middleware"
	"finbridge/internal/model"
	"finbridge/internal/service"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

// SupplierHandler exposes the early-payment offer surface for suppliers.
type SupplierHandler struct {
	offerService service.OfferService
}

func NewSupplierHandler(offerService service.OfferService) *SupplierHandler {
	return &SupplierHandler{offerService: offerService}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	supplier := router.Group("/api/supplier", middleware.RequireRole(model.RoleSupplier))
	{
		supplier.GET("/offers", h.ListEligible)
		supplier.GET("/offers/history", h.ListMine)
		supplier.POST("/offers/accept", h.Accept)
		supplier.POST("/offers/decline", h.Decline)
	}
}

// ListEligible returns eligible invoices with fee previews
// @Summary      List eligible early-payment offers
// @Tags         supplier
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/supplier/offers [get]
func (h *SupplierHandler) ListEligible(c *gin.Context) {
	quotes, err := h.offerService.ListEligible(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotes))
}

// ListMine returns the supplier's past offer decisions
// @Summary      List offer history
// @Tags         supplier
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/supplier/offers/history [get]
func (h *SupplierHandler) ListMine(c *gin.Context) {
	offers, err := h.offerService.ListMine(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, offers))
}

// Accept takes the early-payment offer on an invoice row
// @Summary      Accept an offer
// @Tags         supplier
// @Accept       json
// @Produce      json
// @Param        payload  body  service.OfferDecisionRequest  true  "Decision payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/supplier/offers/accept [post]
func (h *SupplierHandler) Accept(c *gin.Context) {
	var req service.OfferDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	offer, err := h.offerService.Accept(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, offer))
}

// Decline refuses the early-payment offer on an invoice row
// @Summary      Decline an offer
// @Tags         supplier
// @Accept       json
// @Produce      json
// @Param        payload  body  service.OfferDecisionRequest  true  "Decision payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/supplier/offers/decline [post]
func (h *SupplierHandler) Decline(c *gin.Context) {
	var req service.OfferDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	offer, err := h.offerService.Decline(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, offer))
}
