package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/qnaforum/internal/config"
	httpx "github.com/you/qnaforum/internal/http"
	"github.com/you/qnaforum/internal/http/handlers"
	"github.com/you/qnaforum/internal/http/middleware"
	"github.com/you/qnaforum/internal/infrastructure/auth"
	"github.com/you/qnaforum/internal/infrastructure/database"
	"github.com/you/qnaforum/internal/infrastructure/notifications"
	"github.com/you/qnaforum/internal/infrastructure/repositories"
	"github.com/you/qnaforum/internal/logging"
	"github.com/you/qnaforum/internal/services"
)

func Run(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	log, err := logging.New(cfg.GinMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	gdb, err := database.Open(cfg.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(gdb); err != nil {
		return err
	}
	cas, err := auth.NewCasbinService(gdb, cfg.CasbinModelPath)
	if err != nil {
		return err
	}
	rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB).Client
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return err
	}

	// Infrastructure
	passwordSvc := auth.NewPasswordService()
	signer := auth.NewJWTService(cfg.TokenSecret, cfg.TokenIssuer, cfg.SessionTTL)
	verifier := auth.NewGoogleVerifier(cfg.GoogleAudience, cfg.TrustedIssuers, nil)
	notificationSvc := notifications.NewNotificationService(notifications.SMTPConfig{
		Host: cfg.MailHost,
		Port: cfg.MailPort,
		User: cfg.MailUser,
		Pass: cfg.MailPass,
		From: cfg.MailFrom,
	}, cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
	publisher := notifications.NewSocialPublisher(cfg.SocialEndpoint, cfg.SocialAPIKey, cfg.SocialChannel)

	// Repositories
	accountRepo := repositories.NewAccountRepository(gdb)
	questionRepo := repositories.NewQuestionRepository(gdb)
	answerRepo := repositories.NewAnswerRepository(gdb)
	codeRepo := repositories.NewCodeRepository(rdb)

	// Services
	guardSvc := services.NewGuardService(accountRepo, notificationSvc, cfg.LockoutThreshold, cfg.LockoutDuration, log)
	codeSvc := services.NewCodeService(codeRepo, services.CodeConfig{
		Length: cfg.CodeLength,
		TTL:    cfg.CodeTTL,
		Grace:  cfg.CodeGrace,
	}, log)
	go services.SweepExpiredCodes(context.Background(), codeRepo, time.Hour, log)
	tokenSvc := services.NewTokenService(accountRepo, verifier, signer, guardSvc, log)
	authSvc := services.NewAuthService(accountRepo, passwordSvc, codeSvc, guardSvc, tokenSvc, notificationSvc, cfg.GatewayTimeout, log)
	moderationSvc := services.NewModerationService(answerRepo, questionRepo, accountRepo, publisher, notificationSvc, services.ModerationConfig{
		AcceptRatingBonus: cfg.AcceptRatingBonus,
		GatewayTimeout:    cfg.GatewayTimeout,
		Channel:           cfg.SocialChannel,
	}, log)
	enforcer := services.NewCasbinEnforcerWrapper(cas.E)
	policySvc := services.NewPolicyService(enforcer)

	// Handlers and middleware
	authH := handlers.NewAuthHandlers(authSvc, tokenSvc, codeSvc)
	questionH := handlers.NewQuestionHandlers(questionRepo, answerRepo)
	answerH := handlers.NewAnswerHandlers(moderationSvc)
	adminH := handlers.NewAdminHandlers(accountRepo)
	policyH := handlers.NewPolicyHandlers(policySvc)
	authMW := middleware.NewAuthMW(tokenSvc, accountRepo, guardSvc)
	casbinMW := middleware.NewCasbinMW(enforcer)

	r := httpx.BuildRouter(authH, questionH, answerH, adminH, policyH, authMW, casbinMW)

	policies, _ := cas.E.GetPolicy()
	if len(policies) == 0 {
		cas.E.AddPolicy("role_admin", "/admin/*", "(GET|POST|PUT|DELETE)")
		cas.E.AddPolicy("role_admin", "/answers/:id/approve", "POST")
		cas.E.AddPolicy("role_admin", "/answers/:id/reject", "POST")
		_ = cas.E.SavePolicy()
		log.Info("casbin: seeded default policies")
	}

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, r)
}
