package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Josselin-menguy/ldap-user-manager/internal/transport/http/middleware"
	"github.com/Josselin-menguy/ldap-user-manager/internal/usecase"
)

// AuthHandler exposes session endpoints backed by directory credentials.
type AuthHandler struct {
	auth         *usecase.AuthService
	cookieName   string
	cookieSecure bool
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
	}
}

// Login verifies directory credentials and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrCredentialsRequired, Status: http.StatusBadRequest, Message: "username and password are required"},
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			{Err: usecase.ErrNotAuthorized, Status: http.StatusForbidden, Message: "you are not authorized to access this application"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, h.auth.TokenTTLSeconds(), "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, MessageResponse{Message: "Login successful"})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// CheckAuth confirms the session cookie is still valid. It runs behind the
// session middleware, so reaching it means the token parsed.
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	operator, _ := middleware.GetOperator(c)
	c.JSON(http.StatusOK, CheckAuthResponse{
		Authenticated: true,
		User:          operator,
	})
}
