package handler

import (
	"net/http"

	"finbridge/internal/middleware"
	"finbridge/internal/service"
	"finbridge/pkg/pagination"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments", middleware.RequireAdmin())
	{
		payments.GET("/queue", h.Queue)
		payments.GET("/queue/demo", h.DemoQueue)
		payments.POST("/:id/approve", h.Approve)
		payments.POST("/:id/execute", h.Execute)
	}
}

// Queue returns accepted offers with the payee's banking state
// @Summary      Payment queue
// @Tags         payments
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/payments/queue [get]
func (h *PaymentHandler) Queue(c *gin.Context) {
	params := pagination.Parse(c)
	entries, total, err := h.paymentService.Queue(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, entries, params.Page, params.Limit, total))
}

// DemoQueue returns a static sample queue for frontend development
// @Summary      Demo payment queue
// @Tags         payments
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/payments/queue/demo [get]
func (h *PaymentHandler) DemoQueue(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.paymentService.DemoQueue(c.Request.Context())))
}

// Approve moves an accepted offer into the approved state
// @Summary      Approve a payment
// @Tags         payments
// @Produce      json
// @Param        id  path  string  true  "Offer ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/payments/{id}/approve [post]
func (h *PaymentHandler) Approve(c *gin.Context) {
	offer, err := h.paymentService.Approve(c.Request.Context(), c.GetString("userID"), c.Param("id"), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, offer))
}

// Execute marks an approved offer as paid out
// @Summary      Execute a payment
// @Tags         payments
// @Produce      json
// @Param        id  path  string  true  "Offer ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/payments/{id}/execute [post]
func (h *PaymentHandler) Execute(c *gin.Context) {
	offer, err := h.paymentService.Execute(c.Request.Context(), c.GetString("userID"), c.Param("id"), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, offer))
}
