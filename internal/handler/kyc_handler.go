package handler

import (
	"io"
	"net/http"

	"finbridge/internal/middleware"
	"finbridge/internal/service"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

type KYCHandler struct {
	kycService service.KYCService
}

func NewKYCHandler(kycService service.KYCService) *KYCHandler {
	return &KYCHandler{kycService: kycService}
}

func (h *KYCHandler) RegisterRoutes(router *gin.RouterGroup) {
	kyc := router.Group("/api/kyc", middleware.RequireAuth())
	{
		kyc.POST("/application", h.SubmitApplication)
		kyc.GET("/application", h.GetApplication)
		kyc.POST("/documents", h.UploadDocument)
		kyc.GET("/documents", h.ListDocuments)
		kyc.POST("/submit", h.Submit)
	}
}

// SubmitApplication creates or updates the company profile and KYC record
// @Summary      Submit company application
// @Tags         kyc
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ApplicationRequest  true  "Company payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/kyc/application [post]
func (h *KYCHandler) SubmitApplication(c *gin.Context) {
	var req service.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	record, err := h.kycService.SubmitApplication(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// GetApplication returns the caller's application and live documents
// @Summary      Get company application
// @Tags         kyc
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/kyc/application [get]
func (h *KYCHandler) GetApplication(c *gin.Context) {
	app, err := h.kycService.GetApplication(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// UploadDocument stores one verification document
// @Summary      Upload a verification document
// @Tags         kyc
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_type  formData  string  true  "Document type"
// @Param        file           formData  file    true  "Document file (pdf/jpg/png, max 10MB)"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/kyc/documents [post]
func (h *KYCHandler) UploadDocument(c *gin.Context) {
	docType := c.PostForm("document_type")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unable to read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, 10<<20+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unable to read uploaded file"))
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	doc, err := h.kycService.UploadDocument(c.Request.Context(), c.GetString("userID"), docType, fileHeader.Filename, mimeType, data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// ListDocuments returns the caller's live documents
// @Summary      List verification documents
// @Tags         kyc
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/kyc/documents [get]
func (h *KYCHandler) ListDocuments(c *gin.Context) {
	docs, err := h.kycService.ListDocuments(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, docs))
}

// Submit sends the application for admin review
// @Summary      Submit application for review
// @Tags         kyc
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/kyc/submit [post]
func (h *KYCHandler) Submit(c *gin.Context) {
	record, err := h.kycService.Submit(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}
