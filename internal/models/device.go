package models

import "time"

// DeviceMapping records which client hardware used a voucher. Append-only;
// the portal calls register_device after a successful login.
type DeviceMapping struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Voucher   string    `gorm:"size:16;not null;index" json:"voucher"`
	MAC       string    `gorm:"column:mac;size:17;not null" json:"mac"`
	IP        string    `gorm:"column:ip;size:45;not null" json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

func (DeviceMapping) TableName() string {
	return "device_map"
}
