package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/qnaforum/domain"
	httpx "github.com/you/qnaforum/internal/http/httpx"
)

// AdminHandlers handles administrative account operations
type AdminHandlers struct {
	accounts domain.AccountRepository
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(accounts domain.AccountRepository) *AdminHandlers {
	return &AdminHandlers{accounts: accounts}
}

// BanRequest represents an account ban request. A zero duration bans
// permanently.
type BanRequest struct {
	Reason       string `json:"reason" binding:"required"`
	DurationDays int    `json:"duration_days,omitempty"`
}

// SetRoleRequest represents a role change request
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user expert admin"`
}

// Ban bans an account, optionally until a future date.
func (h *AdminHandlers) Ban(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	var req BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var until *time.Time
	if req.DurationDays > 0 {
		t := time.Now().AddDate(0, 0, req.DurationDays)
		until = &t
	}

	if err := h.accounts.SetBan(c.Request.Context(), id, true, until, req.Reason); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Account banned"}})
}

// Unban lifts an account ban.
func (h *AdminHandlers) Unban(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	if err := h.accounts.SetBan(c.Request.Context(), id, false, nil, ""); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Account unbanned"}})
}

// SetRole changes an account's role.
func (h *AdminHandlers) SetRole(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accounts.SetRole(c.Request.Context(), id, domain.Role(req.Role)); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Role updated"}})
}
