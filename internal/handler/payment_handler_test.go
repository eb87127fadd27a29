package handler

import (
	"net/http"
	"testing"

	"wifipesa/internal/domain"
	"wifipesa/internal/models"
	"wifipesa/pkg/daraja"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"254712345678", "254712345678", true},
		{"0712345678", "254712345678", true},
		{"0112345678", "254112345678", true},
		{"+254712345678", "254712345678", true},
		{" 0712345678 ", "254712345678", true},
		{"712345678", "", false},
		{"25571234567", "", false},
		{"254812345678", "", false},
		{"07123", "", false},
		{"notaphone", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizePhone(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPayReturnsIdentifiers(t *testing.T) {
	f := newFixture(t)
	f.api.pushResp = &daraja.PushResponse{
		CheckoutRequestID: "ws_CO_100",
		MerchantRequestID: "m-100",
		CustomerMessage:   "Success. Request accepted for processing",
	}

	w := f.do(t, http.MethodPost, "/pay", map[string]interface{}{"phone": "0712345678", "amount": 50})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	out := decode(t, w)
	if out["CheckoutRequestID"] != "ws_CO_100" || out["MerchantRequestID"] != "m-100" {
		t.Errorf("response = %v", out)
	}

	var sess models.PaymentSession
	if err := f.db.Where("checkout_id = ?", "ws_CO_100").First(&sess).Error; err != nil {
		t.Fatalf("pending session not recorded: %v", err)
	}
	if sess.Phone != "254712345678" {
		t.Errorf("stored phone = %s, want normalized form", sess.Phone)
	}
}

func TestPayNullIdentifiersWhenProviderOmitsThem(t *testing.T) {
	f := newFixture(t)
	f.api.pushResp = &daraja.PushResponse{CustomerMessage: "accepted"}

	w := f.do(t, http.MethodPost, "/pay", map[string]interface{}{"phone": "0712345678", "amount": 50})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	out := decode(t, w)
	if out["CheckoutRequestID"] != nil || out["MerchantRequestID"] != nil {
		t.Errorf("want null identifiers, got %v", out)
	}
}

func TestPayRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		body interface{}
	}{
		{"missing phone", map[string]interface{}{"amount": 50}},
		{"missing amount", map[string]interface{}{"phone": "0712345678"}},
		{"zero amount", map[string]interface{}{"phone": "0712345678", "amount": 0}},
		{"bad phone", map[string]interface{}{"phone": "12345", "amount": 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := f.do(t, http.MethodPost, "/pay", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestStatusSuccessIssuesVoucher(t *testing.T) {
	f := newFixture(t)
	f.api.queryResp = &daraja.QueryResponse{ResultCode: "0", ResultDesc: "processed"}

	w := f.do(t, http.MethodGet, "/status/ws_CO_101?seconds=7200", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	out := decode(t, w)
	if out["status"] != domain.PaymentSuccess {
		t.Fatalf("status = %v", out["status"])
	}
	voucher, _ := out["voucher"].(string)
	if len(voucher) != 8 {
		t.Errorf("voucher = %q", voucher)
	}

	// radcheck carries the requested session timeout
	var row models.RadCheck
	if err := f.db.Where("username = ? AND attribute = ?", voucher, "Session-Timeout").First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if row.Value != "7200" {
		t.Errorf("Session-Timeout = %s, want 7200", row.Value)
	}
}

func TestStatusSecondsClampedToBounds(t *testing.T) {
	tests := []struct {
		name    string
		seconds string
		want    string
	}{
		{"above maximum", "999999999", "86400"},
		{"below minimum", "5", "60"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.api.queryResp = &daraja.QueryResponse{ResultCode: "0"}

			w := f.do(t, http.MethodGet, "/status/ws_CO_102?seconds="+tt.seconds, nil)
			out := decode(t, w)
			voucher, _ := out["voucher"].(string)

			var row models.RadCheck
			if err := f.db.Where("username = ? AND attribute = ?", voucher, "Session-Timeout").First(&row).Error; err != nil {
				t.Fatal(err)
			}
			if row.Value != tt.want {
				t.Errorf("Session-Timeout = %s, want clamped %s", row.Value, tt.want)
			}
		})
	}
}

func TestStatusCancelledAndPending(t *testing.T) {
	tests := []struct {
		name       string
		resultCode string
		want       string
	}{
		{"user cancelled", "1032", domain.PaymentCancelled},
		{"timeout", "1037", domain.PaymentFailed},
		{"unknown code still pending", "4999", domain.PaymentPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.api.queryResp = &daraja.QueryResponse{ResultCode: tt.resultCode}
			w := f.do(t, http.MethodGet, "/status/ws_CO_x", nil)
			if out := decode(t, w); out["status"] != tt.want {
				t.Errorf("status = %v, want %s", out["status"], tt.want)
			}
		})
	}
}

func TestStatusProviderDown(t *testing.T) {
	f := newFixture(t)
	f.api.queryErr = errTest
	if w := f.do(t, http.MethodGet, "/status/ws_CO_103", nil); w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
