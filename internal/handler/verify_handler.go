package handler

import (
	"errors"
	"net/http"
	"strings"

	"wifipesa/internal/service"

	"github.com/gin-gonic/gin"
)

// VerifyHandler is the manual fallback: the subscriber types the receipt
// code from their M-Pesa confirmation SMS when automatic polling failed.
type VerifyHandler struct {
	vouchers *service.VoucherService
}

func NewVerifyHandler(vouchers *service.VoucherService) *VerifyHandler {
	return &VerifyHandler{vouchers: vouchers}
}

func validCodeFormat(code string) bool {
	if len(code) < 8 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func (h *VerifyHandler) Verify(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !validCodeFormat(code) {
		c.JSON(http.StatusOK, gin.H{"status": "INVALID", "message": "code format is invalid"})
		return
	}
	issued, err := h.vouchers.Redeem(code)
	if err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": "INVALID", "message": "code not found or already used"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "SUCCESS", "voucher": issued.Voucher, "password": issued.Password})
}
