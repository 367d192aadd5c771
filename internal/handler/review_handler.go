package handler

import (
	"net/http"

	"finbridge/internal/middleware"
	"finbridge/internal/service"
	"finbridge/pkg/pagination"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReviewHandler exposes the admin document review and KYC decision surface.
type ReviewHandler struct {
	kycService service.KYCService
}

func NewReviewHandler(kycService service.KYCService) *ReviewHandler {
	return &ReviewHandler{kycService: kycService}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin", middleware.RequireAdmin())
	{
		admin.GET("/applications", h.ListApplications)
		admin.GET("/documents", h.ListDocuments)
		admin.GET("/documents/:id/preview", h.PreviewDocument)
		admin.POST("/documents/:id/review", h.ReviewDocument)
		admin.POST("/kyc/:id/decision", h.Decide)
	}
}

// ListApplications returns KYC applications with an optional status filter
// @Summary      List verification applications
// @Tags         admin
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Success      200  {object}  response.Response
// @Router       /api/admin/applications [get]
func (h *ReviewHandler) ListApplications(c *gin.Context) {
	params := pagination.Parse(c)
	records, total, err := h.kycService.ListApplications(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, records, params.Page, params.Limit, total))
}

// ListDocuments returns live documents with status/type filters
// @Summary      List documents for review
// @Tags         admin
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Param        type    query  string  false  "Filter by document type"
// @Success      200  {object}  response.Response
// @Router       /api/admin/documents [get]
func (h *ReviewHandler) ListDocuments(c *gin.Context) {
	params := pagination.Parse(c)
	docs, total, err := h.kycService.ListAllDocuments(c.Request.Context(), c.Query("status"), c.Query("type"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, docs, params.Page, params.Limit, total))
}

// PreviewDocument streams the stored file
// @Summary      Preview a document
// @Tags         admin
// @Produce      octet-stream
// @Param        id  path  string  true  "Document ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/admin/documents/{id}/preview [get]
func (h *ReviewHandler) PreviewDocument(c *gin.Context) {
	doc, data, err := h.kycService.DocumentFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.MimeType, data)
}

// ReviewDocument applies a review action to one document
// @Summary      Review a document
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Document ID"
// @Param        payload  body  service.DocumentReviewRequest  true  "Review action"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/admin/documents/{id}/review [post]
func (h *ReviewHandler) ReviewDocument(c *gin.Context) {
	var req service.DocumentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	doc, err := h.kycService.ReviewDocument(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Decide approves or rejects an application that is ready for decision
// @Summary      Decide a verification application
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "KYC record ID"
// @Param        payload  body  service.KYCDecisionRequest true  "Decision payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/admin/kyc/{id}/decision [post]
func (h *ReviewHandler) Decide(c *gin.Context) {
	var req service.KYCDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	record, err := h.kycService.Decide(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}
