package models

import "time"

// CallbackEvent is one raw settlement notification from Safaricom, kept for
// auditing regardless of whether it matched a known session.
type CallbackEvent struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CheckoutID        string    `gorm:"column:checkout_id;size:100;index" json:"checkout_id"`
	MerchantRequestID string    `gorm:"size:100" json:"merchant_request_id"`
	ResultCode        string    `gorm:"size:16" json:"result_code"`
	ResultDesc        string    `gorm:"size:255" json:"result_desc"`
	MpesaReceipt      string    `gorm:"size:32" json:"mpesa_receipt"`
	Amount            int64     `json:"amount"`
	Phone             string    `gorm:"size:20" json:"phone"`
	Raw               string    `gorm:"type:text" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}

func (CallbackEvent) TableName() string {
	return "callback_events"
}
