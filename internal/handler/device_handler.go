package handler

import (
	"net/http"
	"regexp"

	"wifipesa/internal/models"
	"wifipesa/internal/repository"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	deviceRepo *repository.DeviceRepository
}

func NewDeviceHandler(deviceRepo *repository.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{deviceRepo: deviceRepo}
}

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)

// Register records the client hardware behind a voucher. The mapping is
// append-only and does not require the voucher to exist; the enforcement
// layer owns voucher validity.
func (h *DeviceHandler) Register(c *gin.Context) {
	var req struct {
		MAC     string `json:"mac" binding:"required"`
		IP      string `json:"ip" binding:"required"`
		Voucher string `json:"voucher" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !macPattern.MatchString(req.MAC) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mac address"})
		return
	}
	d := &models.DeviceMapping{Voucher: req.Voucher, MAC: req.MAC, IP: req.IP}
	if err := h.deviceRepo.Create(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "device registration failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
