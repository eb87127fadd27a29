package service

import (
	"context"
	"errors"
	"log"

	"wifipesa/internal/domain"
	"wifipesa/internal/models"
	"wifipesa/internal/repository"
	"wifipesa/pkg/daraja"

	"gorm.io/gorm"
)

// PaymentService drives the session state machine. Both the HTTP poll path
// and the provider callback path converge here, so voucher issuance stays
// idempotent no matter which settlement signal arrives first.
type PaymentService struct {
	mpesa       daraja.API
	paymentRepo *repository.PaymentRepository
	vouchers    *VoucherService
}

func NewPaymentService(mpesa daraja.API, paymentRepo *repository.PaymentRepository, vouchers *VoucherService) *PaymentService {
	return &PaymentService{mpesa: mpesa, paymentRepo: paymentRepo, vouchers: vouchers}
}

// StatusResult is the outcome of one point-in-time status check.
type StatusResult struct {
	Status   string `json:"status"`
	Voucher  string `json:"voucher,omitempty"`
	Password string `json:"password,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Initiate pushes the STK prompt and records the pending session. The
// provider is called first; if persisting fails afterwards the caller gets
// an error and the client must treat the attempt as failed. Should the push
// settle anyway, provisioning recreates the session row from the settlement
// signal, so the payment is still honoured via verify-code.
func (s *PaymentService) Initiate(ctx context.Context, phone string, amount int64, accountRef, description string) (*daraja.PushResponse, error) {
	resp, err := s.mpesa.STKPush(ctx, daraja.PushRequest{
		Phone:            phone,
		Amount:           amount,
		AccountReference: accountRef,
		Description:      description,
	})
	if err != nil {
		return nil, err
	}
	if resp.CheckoutRequestID == "" {
		// Provider accepted the call but returned no identifiers; pass the
		// empty fields through rather than erroring.
		log.Printf("[PAY] push accepted without checkout_request_id response_code=%s", resp.ResponseCode)
		return resp, nil
	}
	sess := &models.PaymentSession{
		CheckoutID:        resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		Phone:             phone,
		Amount:            amount,
		AccountReference:  accountRef,
		Status:            domain.PaymentPending,
	}
	if err := s.paymentRepo.Create(sess); err != nil {
		return nil, err
	}
	return resp, nil
}

// CheckStatus queries the provider once and, on settlement, provisions the
// voucher. Terminal states already recorded locally are answered without a
// provider round trip.
func (s *PaymentService) CheckStatus(ctx context.Context, checkoutID string, sessionSeconds int) (*StatusResult, error) {
	if sess, err := s.paymentRepo.GetByCheckoutID(checkoutID); err == nil && domain.Terminal(sess.Status) {
		res := &StatusResult{Status: sess.Status, Reason: sess.ResultDesc}
		if sess.Status == domain.PaymentSuccess {
			res.Voucher, res.Password, res.Reason = sess.Voucher, sess.VoucherPassword, ""
		}
		return res, nil
	}

	q, err := s.mpesa.STKQuery(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if q.Processing {
		return &StatusResult{Status: domain.PaymentPending}, nil
	}
	return s.applyResult(checkoutID, q.ResultCode, q.ResultDesc, "", sessionSeconds)
}

// applyResult transitions the session per the classified result code.
func (s *PaymentService) applyResult(checkoutID, resultCode, resultDesc, receipt string, sessionSeconds int) (*StatusResult, error) {
	switch daraja.Classify(resultCode) {
	case daraja.OutcomeSuccess:
		issued, err := s.vouchers.Provision(checkoutID, sessionSeconds, receipt)
		if err != nil {
			return nil, err
		}
		return &StatusResult{Status: domain.PaymentSuccess, Voucher: issued.Voucher, Password: issued.Password}, nil
	case daraja.OutcomeCancelled:
		s.markTerminal(checkoutID, domain.PaymentCancelled, resultDesc)
		return &StatusResult{Status: domain.PaymentCancelled}, nil
	case daraja.OutcomeFailed:
		reason := daraja.FailureReason(resultCode)
		s.markTerminal(checkoutID, domain.PaymentFailed, resultDesc)
		return &StatusResult{Status: domain.PaymentFailed, Reason: reason}, nil
	default:
		return &StatusResult{Status: domain.PaymentPending}, nil
	}
}

// markTerminal records a terminal state on the session if one exists.
// Terminal states never regress.
func (s *PaymentService) markTerminal(checkoutID, status, desc string) {
	sess, err := s.paymentRepo.GetByCheckoutID(checkoutID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[PAY] session lookup checkout_request_id=%s: %v", checkoutID, err)
		}
		return
	}
	if domain.Terminal(sess.Status) {
		return
	}
	sess.Status = status
	sess.ResultDesc = desc
	if err := s.paymentRepo.Update(sess); err != nil {
		log.Printf("[PAY] session update checkout_request_id=%s: %v", checkoutID, err)
	}
}

// ApplyCallback processes an asynchronous settlement notification. The
// receipt code from the callback metadata is what subscribers later type
// into the manual verify form.
func (s *PaymentService) ApplyCallback(checkoutID, resultCode, resultDesc, receipt string, defaultSeconds int) (*StatusResult, error) {
	seconds := defaultSeconds
	if sess, err := s.paymentRepo.GetByCheckoutID(checkoutID); err == nil {
		if domain.Terminal(sess.Status) {
			res := &StatusResult{Status: sess.Status}
			if sess.Status == domain.PaymentSuccess {
				res.Voucher, res.Password = sess.Voucher, sess.VoucherPassword
				// late receipt: the poll path may have provisioned before
				// the callback delivered the code
				if sess.MpesaReceipt == "" && receipt != "" {
					sess.MpesaReceipt = receipt
					_ = s.paymentRepo.Update(sess)
				}
			}
			return res, nil
		}
		if sess.SessionSeconds > 0 {
			seconds = sess.SessionSeconds
		}
	}
	return s.applyResult(checkoutID, resultCode, resultDesc, receipt, seconds)
}
