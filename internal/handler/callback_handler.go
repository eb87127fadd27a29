package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"wifipesa/config"
	"wifipesa/internal/models"
	"wifipesa/internal/repository"
	"wifipesa/internal/service"

	"github.com/gin-gonic/gin"
)

// DarajaCallback is the Body.stkCallback payload Safaricom pushes after the
// payer responds to the prompt. ResultCode arrives as a number here but as
// a string on the query API.
type DarajaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string      `json:"MerchantRequestID"`
			CheckoutRequestID string      `json:"CheckoutRequestID"`
			ResultCode        json.Number `json:"ResultCode"`
			ResultDesc        string      `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type CallbackHandler struct {
	cfg          *config.Config
	callbackRepo *repository.CallbackRepository
	payments     *service.PaymentService
}

func NewCallbackHandler(cfg *config.Config, callbackRepo *repository.CallbackRepository, payments *service.PaymentService) *CallbackHandler {
	return &CallbackHandler{cfg: cfg, callbackRepo: callbackRepo, payments: payments}
}

// Handle persists every notification for auditing, then feeds the result
// through the same state machine as the poll path. Safaricom retries on
// non-200, so the provider always gets 200 once the body was readable.
func (h *CallbackHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var payload DarajaCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[CALLBACK] unmarshal: %v body=%s", err, string(body))
		c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
		return
	}
	cb := payload.Body.StkCallback
	event := &models.CallbackEvent{
		CheckoutID:        cb.CheckoutRequestID,
		MerchantRequestID: cb.MerchantRequestID,
		ResultCode:        cb.ResultCode.String(),
		ResultDesc:        cb.ResultDesc,
		Raw:               string(body),
	}
	var receipt string
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			if s, ok := item.Value.(string); ok {
				receipt = s
				event.MpesaReceipt = s
			}
		case "Amount":
			if f, ok := item.Value.(float64); ok {
				event.Amount = int64(f)
			}
		case "PhoneNumber":
			switch v := item.Value.(type) {
			case float64:
				event.Phone = strconv.FormatInt(int64(v), 10)
			case string:
				event.Phone = v
			}
		}
	}
	if err := h.callbackRepo.Create(event); err != nil {
		log.Printf("[CALLBACK] persist checkout_request_id=%s: %v", cb.CheckoutRequestID, err)
	}
	if cb.CheckoutRequestID != "" {
		res, err := h.payments.ApplyCallback(cb.CheckoutRequestID, cb.ResultCode.String(), cb.ResultDesc, receipt, h.cfg.Voucher.DefaultSessionSecs)
		if err != nil {
			log.Printf("[CALLBACK] apply checkout_request_id=%s result_code=%s: %v", cb.CheckoutRequestID, cb.ResultCode.String(), err)
		} else {
			log.Printf("[CALLBACK] checkout_request_id=%s status=%s receipt=%s", cb.CheckoutRequestID, res.Status, receipt)
		}
	}
	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}
