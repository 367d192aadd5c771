package handler

import (
	"net/http"

	"finbridge/internal/middleware"
	"finbridge/internal/service"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService   service.AuthService
	accessService service.AccessService
}

func NewAuthHandler(authService service.AuthService, accessService service.AccessService) *AuthHandler {
	return &AuthHandler{authService: authService, accessService: accessService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/verify-otp", h.VerifyOTP)
		auth.POST("/resend-otp", h.ResendOTP)
		auth.POST("/reset-password", h.ResetPassword)
		auth.POST("/logout", h.Logout)
		auth.GET("/session", middleware.RequireAuth(), h.Session)
		auth.GET("/check-access", middleware.RequireAuth(), h.CheckAccess)
		auth.POST("/check-access", middleware.RequireAuth(), h.CheckAccess)
	}
}

// Register creates an account and emails a verification code
// @Summary      Register an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.RegisterRequest  true  "Registration payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	middleware.SetAuthCookie(c, result.Token)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// Login authenticates with email and password
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.LoginRequest  true  "Credentials"
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      423  {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	if result.RequiresVerification {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Email verification required"))
		return
	}

	middleware.SetAuthCookie(c, result.Token)

	access, err := h.accessService.ResolveAccess(c.Request.Context(), result.User.ID.String())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, access))
}

// VerifyOTP redeems a one-time verification code
// @Summary      Verify a one-time code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.VerifyOTPRequest  true  "Verification payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /api/auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req service.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	result, err := h.authService.VerifyOTP(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	middleware.SetAuthCookie(c, result.Token)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ResendOTP issues a fresh verification code
// @Summary      Resend a one-time code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ResendOTPRequest  true  "Resend payload"
// @Success      200  {object}  response.Response
// @Router       /api/auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req service.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	if err := h.authService.ResendOTP(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "If the account exists, a new code has been sent"}))
}

// ResetPassword sets a new password after code verification
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ResetPasswordRequest  true  "Reset payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Password updated"}))
}

// Logout clears the session cookie
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearAuthCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out"}))
}

// Session returns the authenticated identity
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /api/auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CheckAccess resolves the onboarding gate for the caller
// @Summary      Resolve dashboard access
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /api/auth/check-access [get]
func (h *AuthHandler) CheckAccess(c *gin.Context) {
	access, err := h.accessService.ResolveAccess(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, access))
}
