package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/qnaforum/domain"
	httpx "github.com/you/qnaforum/internal/http/httpx"
	"github.com/you/qnaforum/internal/http/middleware"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc  domain.AuthService
	tokenSvc domain.TokenService
	codeSvc  domain.CodeService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, tokenSvc domain.TokenService, codeSvc domain.CodeService) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc, tokenSvc: tokenSvc, codeSvc: codeSvc}
}

// TokenRequest represents a token exchange request
type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required,min=2,max=100"`
	Phone       string `json:"phone" binding:"omitempty,e164"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CodeRequest asks for a verification code to be (re)issued
type CodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ConfirmEmailRequest represents email confirmation request
type ConfirmEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// ConfirmResetRequest represents password reset confirmation
type ConfirmResetRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// Exchange resolves a federated or local token to a session token.
func (h *AuthHandlers) Exchange(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.tokenSvc.Authenticate(c.Request.Context(), req.Token)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": authPayload(result)})
}

// Register handles local account registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.authSvc.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName, req.Phone)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"message":    "Account registered. Please verify your email address.",
			"account_id": account.ID,
		},
	})
}

// Login handles local credential login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": authPayload(result)})
}

// RequestEmailVerification issues a fresh email verification code.
func (h *AuthHandlers) RequestEmailVerification(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.RequestEmailVerification(c.Request.Context(), req.Email); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Verification code sent"}})
}

// ConfirmEmail consumes an email verification code.
func (h *AuthHandlers) ConfirmEmail(c *gin.Context) {
	var req ConfirmEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.ConfirmEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Email verified"}})
}

// EmailCodeStatus reports when the active verification code expires so
// clients can show a resend countdown.
func (h *AuthHandlers) EmailCodeStatus(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter required"})
		return
	}

	active, err := h.codeSvc.PeekActive(c.Request.Context(), email, domain.PurposeEmailVerification)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if active == nil {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"active": false}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"active":     true,
		"expires_in": int64(time.Until(active.ExpiresAt).Seconds()),
	}})
}

// RequestPasswordReset issues a password reset code. Responds identically
// whether or not the email maps to an account.
func (h *AuthHandlers) RequestPasswordReset(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "If the account exists, a reset code was sent"}})
}

// ConfirmPasswordReset consumes a reset code and sets the new password.
func (h *AuthHandlers) ConfirmPasswordReset(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.ConfirmPasswordReset(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Password updated"}})
}

// Me returns the authenticated account's profile.
func (h *AuthHandlers) Me(c *gin.Context) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": accountPayload(account)})
}

func authPayload(result *domain.AuthResult) gin.H {
	return gin.H{
		"access_token": result.Token,
		"token_type":   "Bearer",
		"expires_in":   result.ExpiresIn,
		"account":      accountPayload(result.Account),
	}
}

func accountPayload(account *domain.Account) gin.H {
	return gin.H{
		"id":             account.ID,
		"email":          account.Email,
		"display_name":   account.DisplayName,
		"avatar_url":     account.AvatarURL,
		"provider":       account.Provider,
		"role":           account.Role,
		"rating":         account.Rating,
		"email_verified": account.IsEmailVerified,
		"created_at":     account.CreatedAt,
	}
}
