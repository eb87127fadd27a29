package service

import (
	"errors"
	"testing"

	"wifipesa/internal/database"
	"wifipesa/internal/domain"
	"wifipesa/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestProvisionIssuesRadcheckRows(t *testing.T) {
	db := testDB(t)
	svc := NewVoucherService(db)
	if err := db.Create(&models.PaymentSession{CheckoutID: "ws_CO_1", Status: domain.PaymentPending}).Error; err != nil {
		t.Fatal(err)
	}

	issued, err := svc.Provision("ws_CO_1", 3600, "NLJ7RT61SV")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if len(issued.Voucher) != 8 {
		t.Errorf("voucher length = %d, want 8", len(issued.Voucher))
	}
	if len(issued.Password) != 6 {
		t.Errorf("password length = %d, want 6", len(issued.Password))
	}

	var rows []models.RadCheck
	if err := db.Where("username = ?", issued.Voucher).Order("id").Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("radcheck rows = %d, want 3", len(rows))
	}
	want := map[string]string{
		"Cleartext-Password": issued.Password,
		"Session-Timeout":    "3600",
		"Simultaneous-Use":   "1",
	}
	for _, row := range rows {
		if row.Op != ":=" {
			t.Errorf("op for %s = %q, want :=", row.Attribute, row.Op)
		}
		if want[row.Attribute] != row.Value {
			t.Errorf("%s = %q, want %q", row.Attribute, row.Value, want[row.Attribute])
		}
		delete(want, row.Attribute)
	}
	if len(want) != 0 {
		t.Errorf("missing attributes: %v", want)
	}

	var sess models.PaymentSession
	if err := db.Where("checkout_id = ?", "ws_CO_1").First(&sess).Error; err != nil {
		t.Fatal(err)
	}
	if sess.Status != domain.PaymentSuccess {
		t.Errorf("session status = %s, want SUCCESS", sess.Status)
	}
	if sess.MpesaReceipt != "NLJ7RT61SV" {
		t.Errorf("receipt = %s", sess.MpesaReceipt)
	}
}

func TestProvisionIdempotent(t *testing.T) {
	db := testDB(t)
	svc := NewVoucherService(db)
	if err := db.Create(&models.PaymentSession{CheckoutID: "ws_CO_2", Status: domain.PaymentPending}).Error; err != nil {
		t.Fatal(err)
	}

	first, err := svc.Provision("ws_CO_2", 3600, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Provision("ws_CO_2", 7200, "ABCDEFGH")
	if err != nil {
		t.Fatal(err)
	}
	if first.Voucher != second.Voucher || first.Password != second.Password {
		t.Errorf("second provision produced new credentials: %+v vs %+v", first, second)
	}

	var count int64
	db.Model(&models.RadCheck{}).Count(&count)
	if count != 3 {
		t.Errorf("radcheck rows = %d, want 3 after double provision", count)
	}
}

func TestProvisionUnknownCheckoutCreatesSession(t *testing.T) {
	db := testDB(t)
	svc := NewVoucherService(db)

	issued, err := svc.Provision("ws_CO_never_seen", 600, "")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	var sess models.PaymentSession
	if err := db.Where("checkout_id = ?", "ws_CO_never_seen").First(&sess).Error; err != nil {
		t.Fatalf("session not created: %v", err)
	}
	if sess.Voucher != issued.Voucher {
		t.Errorf("session voucher = %s, want %s", sess.Voucher, issued.Voucher)
	}
}

func TestRedeemConsumesOnFirstUse(t *testing.T) {
	db := testDB(t)
	svc := NewVoucherService(db)
	if err := db.Create(&models.PaymentSession{
		CheckoutID:      "ws_CO_3",
		Status:          domain.PaymentSuccess,
		MpesaReceipt:    "QLJ7RT61SV",
		Voucher:         "AB12CD34",
		VoucherPassword: "a1b2c3",
	}).Error; err != nil {
		t.Fatal(err)
	}

	issued, err := svc.Redeem("QLJ7RT61SV")
	if err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if issued.Voucher != "AB12CD34" || issued.Password != "a1b2c3" {
		t.Errorf("redeem returned %+v", issued)
	}

	if _, err := svc.Redeem("QLJ7RT61SV"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("second redeem err = %v, want ErrCodeNotFound", err)
	}
}

func TestRedeemUnknownCode(t *testing.T) {
	svc := NewVoucherService(testDB(t))
	if _, err := svc.Redeem("NOPE1234"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("err = %v, want ErrCodeNotFound", err)
	}
}

func TestRedeemUnsettledSession(t *testing.T) {
	db := testDB(t)
	svc := NewVoucherService(db)
	// receipt recorded by a callback, but voucher never issued
	if err := db.Create(&models.PaymentSession{
		CheckoutID:   "ws_CO_4",
		Status:       domain.PaymentPending,
		MpesaReceipt: "RLJ7RT61SV",
	}).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Redeem("RLJ7RT61SV"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("err = %v, want ErrCodeNotFound", err)
	}
}
