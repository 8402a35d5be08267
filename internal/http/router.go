package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/you/qnaforum/internal/http/handlers"
	"github.com/you/qnaforum/internal/http/middleware"
)

// BuildRouter wires all routes. Reads are public; writes require a
// session token, and moderation and admin routes additionally go through
// the casbin enforcer.
func BuildRouter(
	ah *handlers.AuthHandlers,
	qh *handlers.QuestionHandlers,
	anh *handlers.AnswerHandlers,
	adh *handlers.AdminHandlers,
	ph *handlers.PolicyHandlers,
	authmw *middleware.AuthMW,
	cb *middleware.CasbinMW,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	auth := r.Group("/auth")
	auth.POST("/token", ah.Exchange)
	auth.POST("/register", ah.Register)
	auth.POST("/login", ah.Login)
	auth.POST("/email/request", ah.RequestEmailVerification)
	auth.POST("/email/confirm", ah.ConfirmEmail)
	auth.GET("/email/status", ah.EmailCodeStatus)
	auth.POST("/password/request", ah.RequestPasswordReset)
	auth.POST("/password/confirm", ah.ConfirmPasswordReset)

	// Public reads.
	r.GET("/questions", qh.List)
	r.GET("/questions/:id", qh.Get)
	r.POST("/answers/:id/like", anh.Like)

	v := r.Group("/").Use(authmw.WithAuth())
	v.GET("/auth/me", ah.Me)
	v.POST("/questions/:id/answers", anh.Submit)
	v.POST("/answers/:id/accept", anh.Accept)
	v.PUT("/answers/:id", anh.Edit)
	v.DELETE("/answers/:id", anh.Delete)

	verified := r.Group("/").Use(authmw.WithAuth(), authmw.RequireVerifiedEmail())
	verified.POST("/questions", qh.Create)

	mod := r.Group("/").Use(authmw.WithAuth(), cb.Enforce())
	mod.POST("/answers/:id/approve", anh.Approve)
	mod.POST("/answers/:id/reject", anh.Reject)

	adm := r.Group("/admin").Use(authmw.WithAuth(), cb.Enforce())
	adm.POST("/accounts/:id/ban", adh.Ban)
	adm.POST("/accounts/:id/unban", adh.Unban)
	adm.PUT("/accounts/:id/role", adh.SetRole)
	adm.GET("/policies", ph.List)
	adm.POST("/policies", ph.Add)
	adm.DELETE("/policies", ph.Remove)

	return r
}
