package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"wifipesa/internal/domain"
	"wifipesa/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoucherService issues network-access vouchers against the FreeRADIUS
// radcheck table. Provisioning is idempotent per checkout identifier: the
// session row's voucher column is claimed with a guarded update inside one
// transaction, so concurrent settlement signals (poll + callback) cannot
// double-issue.
type VoucherService struct {
	db *gorm.DB
}

func NewVoucherService(db *gorm.DB) *VoucherService {
	return &VoucherService{db: db}
}

// Issued is the credential pair returned to the portal.
type Issued struct {
	Voucher  string
	Password string
}

func newVoucherCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

func newVoucherPassword() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
}

// Provision returns the voucher for checkoutID, creating it on first call.
// sessionSeconds and receipt are only applied on first issue; subsequent
// calls return the stored credentials unchanged.
func (s *VoucherService) Provision(checkoutID string, sessionSeconds int, receipt string) (*Issued, error) {
	var issued Issued
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sess models.PaymentSession
		err := tx.Where("checkout_id = ?", checkoutID).First(&sess).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Status can be polled for a push this process never initiated
			// (e.g. after a restart); record the session on the fly.
			sess = models.PaymentSession{CheckoutID: checkoutID, Status: domain.PaymentPending}
			if err := tx.Create(&sess).Error; err != nil {
				return fmt.Errorf("create session: %w", err)
			}
		} else if err != nil {
			return err
		}
		if sess.Voucher != "" {
			issued = Issued{Voucher: sess.Voucher, Password: sess.VoucherPassword}
			return nil
		}

		voucher := newVoucherCode()
		password := newVoucherPassword()

		// Claim the session first; a concurrent provisioner blocks on the
		// row lock and then sees zero rows affected.
		res := tx.Model(&models.PaymentSession{}).
			Where("checkout_id = ? AND (voucher = '' OR voucher IS NULL)", checkoutID).
			Updates(map[string]interface{}{
				"voucher":          voucher,
				"voucher_password": password,
				"session_seconds":  sessionSeconds,
				"mpesa_receipt":    firstNonEmpty(receipt, sess.MpesaReceipt),
				"status":           domain.PaymentSuccess,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Where("checkout_id = ?", checkoutID).First(&sess).Error; err != nil {
				return err
			}
			issued = Issued{Voucher: sess.Voucher, Password: sess.VoucherPassword}
			return nil
		}

		rows := []models.RadCheck{
			{UserName: voucher, Attribute: "Cleartext-Password", Op: ":=", Value: password},
			{UserName: voucher, Attribute: "Session-Timeout", Op: ":=", Value: strconv.Itoa(sessionSeconds)},
			{UserName: voucher, Attribute: "Simultaneous-Use", Op: ":=", Value: "1"},
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("radcheck insert: %w", err)
		}
		issued = Issued{Voucher: voucher, Password: password}
		log.Printf("[VOUCHER] issued voucher=%s checkout_request_id=%s session_seconds=%d", voucher, checkoutID, sessionSeconds)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &issued, nil
}

var ErrCodeNotFound = errors.New("code not found or already used")

// Redeem looks up a settled session by its M-Pesa receipt code and consumes
// it. A code verifies exactly once; later attempts fail the same way as an
// unknown code so callers cannot probe which codes exist.
func (s *VoucherService) Redeem(code string) (*Issued, error) {
	var issued Issued
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sess models.PaymentSession
		err := tx.Where("mpesa_receipt = ? AND voucher <> ''", code).First(&sess).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeNotFound
		}
		if err != nil {
			return err
		}
		if sess.ConsumedAt != nil {
			return ErrCodeNotFound
		}
		res := tx.Model(&models.PaymentSession{}).
			Where("id = ? AND consumed_at IS NULL", sess.ID).
			Update("consumed_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCodeNotFound
		}
		issued = Issued{Voucher: sess.Voucher, Password: sess.VoucherPassword}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &issued, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
