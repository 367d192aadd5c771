package middleware

import (
	"net/http"
	"os"
	"strings"
	"time"

	"finbridge/internal/model"
	"finbridge/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// AuthCookieName is the httpOnly session cookie issued at login.
	AuthCookieName = "auth-token"

	cookieMaxAge = 3600 * 24 * 7
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// IssueToken signs a 7-day HS256 session token.
func IssueToken(userID, email, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(7 * 24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(GetJWTSecret())
}

// requestIsSecure checks the proxy headers the platform terminates TLS behind.
func requestIsSecure(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("x-forwarded-proto"), "https") {
		return true
	}
	host := c.Request.Host
	return host != "" && !strings.HasPrefix(host, "localhost") && !strings.HasPrefix(host, "127.0.0.1")
}

// SetAuthCookie sets auth-token as an HttpOnly cookie.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, token, cookieMaxAge, "/", "", requestIsSecure(c), true)
}

// ClearAuthCookie removes the session cookie.
func ClearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, "", -1, "/", "", requestIsSecure(c), true)
}

func parseToken(tokenString string) (jwt.MapClaims, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

// Identity resolves the caller from x-user-id/x-user-role headers (set by the
// trusted frontend proxy) with a fallback to the auth-token JWT cookie. It
// never aborts; route gates decide whether anonymous access is allowed.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("x-user-id")
		userRole := c.GetHeader("x-user-role")

		if userID == "" {
			if tokenString, err := c.Cookie(AuthCookieName); err == nil && tokenString != "" {
				if claims, ok := parseToken(tokenString); ok {
					userID, _ = claims["sub"].(string)
					if userRole == "" {
						userRole, _ = claims["role"].(string)
					}
					if email, ok := claims["email"].(string); ok {
						c.Set("userEmail", email)
					}
				}
			}
		}

		if userID != "" {
			c.Set("userID", userID)
			c.Set("userRole", userRole)
		}
		c.Next()
	}
}

// RequireAuth aborts with 401 when Identity resolved no caller.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userID") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
			return
		}
		c.Next()
	}
}

// RequireRole aborts unless the resolved role is in allowedRoles.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userID") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
			return
		}

		userRole := c.GetString("userRole")
		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// RequireAdmin allows any of the three admin roles.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userID") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
			return
		}
		if !model.IsAdminRole(c.GetString("userRole")) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}
		c.Next()
	}
}
