package router

import (
	"time"

	"wifipesa/config"
	"wifipesa/internal/handler"
	"wifipesa/internal/middleware"
	"wifipesa/internal/repository"
	"wifipesa/internal/service"
	"wifipesa/pkg/daraja"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, mpesa daraja.API) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// Repositories
	paymentRepo := repository.NewPaymentRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	callbackRepo := repository.NewCallbackRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Services
	voucherSvc := service.NewVoucherService(db)
	paymentSvc := service.NewPaymentService(mpesa, paymentRepo, voucherSvc)

	// Handlers
	paymentHandler := handler.NewPaymentHandler(cfg, paymentSvc)
	verifyHandler := handler.NewVerifyHandler(voucherSvc)
	deviceHandler := handler.NewDeviceHandler(deviceRepo)
	callbackHandler := handler.NewCallbackHandler(cfg, callbackRepo, paymentSvc)
	adminHandler := handler.NewAdminHandler(cfg, adminRepo, paymentRepo, voucherRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	// /pay triggers a phone prompt, keep its budget tight; status polling
	// every 2s for 90s needs more headroom.
	payLimit := middleware.RateLimit(middleware.NewInMemoryRateLimiter(10, time.Minute))
	pollLimit := middleware.RateLimit(middleware.NewInMemoryRateLimiter(120, time.Minute))

	r.POST("/pay", payLimit, paymentHandler.Pay)
	r.GET("/status/:checkout_id", pollLimit, paymentHandler.Status)
	r.GET("/ws/status/:checkout_id", paymentHandler.StreamStatus)
	r.POST("/verify-code", payLimit, verifyHandler.Verify)
	r.POST("/register_device", pollLimit, deviceHandler.Register)
	r.POST("/callback", callbackHandler.Handle)

	api := r.Group("/api/v1")
	{
		admin := api.Group("/admin")
		{
			admin.POST("/login", payLimit, adminHandler.Login)
			admin.GET("/payments", authMw, adminHandler.ListPayments)
			admin.GET("/vouchers", authMw, adminHandler.ListVouchers)
		}
	}
	return r
}
