package handler

import (
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wifipesa/config"
	"wifipesa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	cfg      *config.Config
	payments *service.PaymentService

	streamInterval time.Duration
	streamDeadline time.Duration
}

func NewPaymentHandler(cfg *config.Config, payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		cfg:            cfg,
		payments:       payments,
		streamInterval: 2 * time.Second,
		streamDeadline: 90 * time.Second,
	}
}

var phonePattern = regexp.MustCompile(`^254(7|1)\d{8}$`)

// NormalizePhone accepts 07XX/01XX, +254 and bare 254 forms and returns the
// canonical 254XXXXXXXXX form Daraja expects.
func NormalizePhone(raw string) (string, bool) {
	p := strings.TrimSpace(raw)
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") && len(p) == 10 {
		p = "254" + p[1:]
	}
	if !phonePattern.MatchString(p) {
		return "", false
	}
	return p, true
}

// Pay initiates the STK push for WiFi access.
func (h *PaymentHandler) Pay(c *gin.Context) {
	var req struct {
		Phone  string `json:"phone" binding:"required"`
		Amount int64  `json:"amount" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	phone, ok := NormalizePhone(req.Phone)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
		return
	}
	accountRef := uuid.New().String()[:8]
	resp, err := h.payments.Initiate(c.Request.Context(), phone, req.Amount, accountRef, "WiFi access")
	if err != nil {
		log.Printf("[PAY] initiate phone=%s amount=%d: %v", phone, req.Amount, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment initiation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"CheckoutRequestID": orNull(resp.CheckoutRequestID),
		"MerchantRequestID": orNull(resp.MerchantRequestID),
		"CustomerMessage":   resp.CustomerMessage,
	})
}

// orNull keeps absent provider identifiers as JSON null rather than "".
func orNull(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Status polls the provider once for a checkout identifier and provisions
// the voucher on settlement. ?seconds= sets the voucher session timeout.
func (h *PaymentHandler) Status(c *gin.Context) {
	checkoutID := c.Param("checkout_id")
	res, err := h.payments.CheckStatus(c.Request.Context(), checkoutID, h.sessionSeconds(c))
	if err != nil {
		log.Printf("[PAY] status checkout_request_id=%s: %v", checkoutID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "status check failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PaymentHandler) sessionSeconds(c *gin.Context) int {
	v := h.cfg.Voucher
	seconds := v.DefaultSessionSecs
	if raw := c.Query("seconds"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			seconds = n
		}
	}
	if seconds < v.MinSessionSecs {
		seconds = v.MinSessionSecs
	}
	if seconds > v.MaxSessionSecs {
		seconds = v.MaxSessionSecs
	}
	return seconds
}
