package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/qnaforum/domain"
)

// ContextAccount is the gin context key holding the resolved account.
const ContextAccount = "account"

// AuthMW authenticates requests with a locally issued session token and
// applies the account security gate.
type AuthMW struct {
	tokenSvc domain.TokenService
	accounts domain.AccountRepository
	guard    domain.GuardService
}

// NewAuthMW creates new authentication middleware
func NewAuthMW(tokenSvc domain.TokenService, accounts domain.AccountRepository, guard domain.GuardService) *AuthMW {
	return &AuthMW{tokenSvc: tokenSvc, accounts: accounts, guard: guard}
}

// WithAuth returns the authentication middleware
func (mw *AuthMW) WithAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrMissingToken.Message, "code": domain.ErrMissingToken.Code})
			c.Abort()
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format", "code": domain.ErrInvalidToken.Code})
			c.Abort()
			return
		}

		claims, err := mw.tokenSvc.Verify(tokenParts[1])
		if err != nil {
			e, _ := err.(*domain.Error)
			if e == nil {
				e = domain.ErrInvalidToken
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": e.Message, "code": e.Code})
			c.Abort()
			return
		}

		account, err := mw.accounts.FindByID(c.Request.Context(), claims.AccountID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found", "code": domain.ErrAccountNotFound.Code})
			c.Abort()
			return
		}

		if err := mw.guard.Gate(account); err != nil {
			e, _ := err.(*domain.Error)
			status := http.StatusForbidden
			if e != nil && e.Kind == domain.KindRateLimited {
				status = http.StatusTooManyRequests
			}
			msg := "access denied"
			code := "FORBIDDEN"
			if e != nil {
				msg, code = e.Message, e.Code
			}
			c.JSON(status, gin.H{"error": msg, "code": code})
			c.Abort()
			return
		}

		c.Set(ContextAccount, account)
		// String form for the casbin layer.
		c.Set("user_id", fmt.Sprintf("%d", account.ID))
		c.Set("user_role", string(account.Role))

		c.Next()
	}
}

// RequireVerifiedEmail blocks accounts that have not confirmed their
// email address.
func (mw *AuthMW) RequireVerifiedEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		account := CurrentAccount(c)
		if account == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrMissingToken.Message, "code": domain.ErrMissingToken.Code})
			c.Abort()
			return
		}
		if !account.IsEmailVerified {
			c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrEmailNotVerified.Message, "code": domain.ErrEmailNotVerified.Code})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentAccount returns the authenticated account set by WithAuth, or
// nil.
func CurrentAccount(c *gin.Context) *domain.Account {
	v, ok := c.Get(ContextAccount)
	if !ok {
		return nil
	}
	account, _ := v.(*domain.Account)
	return account
}
