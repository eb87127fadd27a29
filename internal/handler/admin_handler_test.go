package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"wifipesa/internal/database"
	"wifipesa/internal/domain"
	"wifipesa/internal/middleware"
	"wifipesa/internal/models"
	"wifipesa/internal/repository"

	"gorm.io/gorm"
)

func newAdminFixture(t *testing.T) (*fixture, *gorm.DB) {
	t.Helper()
	f := newFixture(t)
	f.cfg.Admin.Email = "ops@wifipesa.local"
	f.cfg.Admin.Password = "hunter22"
	database.SeedAdmin(f.db, &f.cfg.Admin)

	admin := NewAdminHandler(f.cfg,
		repository.NewAdminRepository(f.db),
		repository.NewPaymentRepository(f.db),
		repository.NewVoucherRepository(f.db))
	authMw := middleware.AuthRequired(&f.cfg.JWT)
	f.router.POST("/api/v1/admin/login", admin.Login)
	f.router.GET("/api/v1/admin/payments", authMw, admin.ListPayments)
	f.router.GET("/api/v1/admin/vouchers", authMw, admin.ListVouchers)
	return f, f.db
}

func login(t *testing.T, f *fixture, email, password string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/admin/login", map[string]string{"email": email, "password": password})
	if w.Code != http.StatusOK {
		return w, ""
	}
	token, _ := decode(t, w)["token"].(string)
	return w, token
}

func TestAdminLogin(t *testing.T) {
	f, _ := newAdminFixture(t)

	if w, token := login(t, f, "ops@wifipesa.local", "hunter22"); token == "" {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	if w, _ := login(t, f, "ops@wifipesa.local", "wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d", w.Code)
	}
	if w, _ := login(t, f, "nobody@wifipesa.local", "hunter22"); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: status = %d", w.Code)
	}
}

func TestAdminListingsRequireToken(t *testing.T) {
	f, db := newAdminFixture(t)
	db.Create(&models.PaymentSession{CheckoutID: "ws_CO_400", Status: domain.PaymentSuccess, Voucher: "AB12CD34"})

	if w := f.do(t, http.MethodGet, "/api/v1/admin/payments", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated listing: status = %d", w.Code)
	}

	_, token := login(t, f, "ops@wifipesa.local", "hunter22")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/payments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("listing: status = %d body=%s", w.Code, w.Body.String())
	}
	out := decode(t, w)
	if out["total"] != float64(1) {
		t.Errorf("total = %v", out["total"])
	}
}

func TestAdminVoucherListing(t *testing.T) {
	f, db := newAdminFixture(t)
	db.Create(&models.RadCheck{UserName: "AB12CD34", Attribute: "Cleartext-Password", Op: ":=", Value: "a1b2c3"})
	db.Create(&models.RadCheck{UserName: "AB12CD34", Attribute: "Session-Timeout", Op: ":=", Value: "3600"})
	db.Create(&models.RadCheck{UserName: "ZZ99YY88", Attribute: "Cleartext-Password", Op: ":=", Value: "d4e5f6"})

	_, token := login(t, f, "ops@wifipesa.local", "hunter22")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/vouchers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	out := decode(t, w)
	vouchers, _ := out["vouchers"].([]interface{})
	if len(vouchers) != 2 {
		t.Errorf("vouchers = %v, want the 2 distinct identities", vouchers)
	}
}
