package handler

import (
	"net/http"

	"finbridge/internal/middleware"
	"finbridge/internal/service"
	"finbridge/pkg/pagination"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

type BankingHandler struct {
	bankingService service.BankingService
}

func NewBankingHandler(bankingService service.BankingService) *BankingHandler {
	return &BankingHandler{bankingService: bankingService}
}

func (h *BankingHandler) RegisterRoutes(router *gin.RouterGroup) {
	banking := router.Group("/api/banking", middleware.RequireAuth())
	{
		banking.POST("/submit", h.Submit)
		banking.GET("/details", h.Details)
	}
	admin := router.Group("/api/admin/banking", middleware.RequireAdmin())
	{
		admin.GET("", h.AdminList)
		admin.GET("/:id", h.AdminDetail)
		admin.POST("/:id/verify", h.Verify)
	}
}

// Submit stores encrypted banking details for the caller
// @Summary      Submit banking details
// @Tags         banking
// @Accept       json
// @Produce      json
// @Param        payload  body  service.BankingSubmitRequest  true  "Banking payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/banking/submit [post]
func (h *BankingHandler) Submit(c *gin.Context) {
	var req service.BankingSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	details, err := h.bankingService.Submit(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, details))
}

// Details returns the caller's decrypted banking record
// @Summary      Get own banking details
// @Tags         banking
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/banking/details [get]
func (h *BankingHandler) Details(c *gin.Context) {
	details, err := h.bankingService.Details(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, details))
}

// AdminList returns banking records with masked account numbers
// @Summary      List banking submissions
// @Tags         admin
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/admin/banking [get]
func (h *BankingHandler) AdminList(c *gin.Context) {
	params := pagination.Parse(c)
	rows, total, err := h.bankingService.AdminList(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, rows, params.Page, params.Limit, total))
}

// AdminDetail returns one banking record with decrypted numbers
// @Summary      Get a banking submission
// @Tags         admin
// @Produce      json
// @Param        id  path  string  true  "Banking record ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/banking/{id} [get]
func (h *BankingHandler) AdminDetail(c *gin.Context) {
	details, err := h.bankingService.AdminDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, details))
}

// Verify applies the admin verification decision
// @Summary      Verify banking details
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Banking record ID"
// @Param        payload  body  service.BankingVerifyRequest  true  "Decision payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/admin/banking/{id}/verify [post]
func (h *BankingHandler) Verify(c *gin.Context) {
	var req service.BankingVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	details, err := h.bankingService.Verify(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, details))
}
