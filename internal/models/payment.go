package models

import (
	"time"
)

// PaymentSession is one STK push attempt, keyed by the provider's
// CheckoutRequestID. It doubles as the audit record for the manual
// verify-code fallback: once settled it carries the issued voucher and
// the M-Pesa receipt number from the callback.
type PaymentSession struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	CheckoutID        string     `gorm:"column:checkout_id;size:100;not null;uniqueIndex" json:"checkout_id"`
	MerchantRequestID string     `gorm:"size:100" json:"merchant_request_id"`
	Phone             string     `gorm:"size:20;not null" json:"phone"`
	Amount            int64      `gorm:"not null" json:"amount"`
	AccountReference  string     `gorm:"size:32" json:"account_reference"`
	Status            string     `gorm:"size:20;not null;index" json:"status"` // PENDING, SUCCESS, CANCELLED, FAILED
	ResultDesc        string     `gorm:"size:255" json:"result_desc"`
	MpesaReceipt      string     `gorm:"size:32;index" json:"mpesa_receipt"`
	Voucher           string     `gorm:"size:16" json:"voucher"`
	VoucherPassword   string     `gorm:"size:16" json:"-"`
	SessionSeconds    int        `json:"session_seconds"`
	ConsumedAt        *time.Time `json:"consumed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (PaymentSession) TableName() string {
	return "mpesa_payments"
}
