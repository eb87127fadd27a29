package models

// RadCheck mirrors the FreeRADIUS radcheck schema. Rows are written here and
// consumed by the RADIUS server at login time; this service never reads them.
type RadCheck struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserName  string `gorm:"column:username;size:64;not null;index" json:"username"`
	Attribute string `gorm:"size:64;not null" json:"attribute"`
	Op        string `gorm:"column:op;size:2;not null;default:'=='" json:"op"`
	Value     string `gorm:"size:253;not null" json:"value"`
}

func (RadCheck) TableName() string {
	return "radcheck"
}
