package handler

import (
	"errors"
	"net/http"
	"strconv"

	"wifipesa/config"
	"wifipesa/internal/auth"
	"wifipesa/internal/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminHandler struct {
	cfg         *config.Config
	adminRepo   *repository.AdminRepository
	paymentRepo *repository.PaymentRepository
	voucherRepo *repository.VoucherRepository
}

func NewAdminHandler(cfg *config.Config, adminRepo *repository.AdminRepository, paymentRepo *repository.PaymentRepository, voucherRepo *repository.VoucherRepository) *AdminHandler {
	return &AdminHandler{cfg: cfg, adminRepo: adminRepo, paymentRepo: paymentRepo, voucherRepo: voucherRepo}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.adminRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	token, err := auth.GenerateToken(&h.cfg.JWT, u.ID, u.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func pagination(c *gin.Context) (offset, limit int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return (page - 1) * limit, limit
}

func (h *AdminHandler) ListPayments(c *gin.Context) {
	offset, limit := pagination(c)
	sessions, total, err := h.paymentRepo.List(offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "payments": sessions})
}

func (h *AdminHandler) ListVouchers(c *gin.Context) {
	offset, limit := pagination(c)
	names, err := h.voucherRepo.ListUsernames(offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": names})
}
