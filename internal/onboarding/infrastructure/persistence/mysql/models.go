package mysql

import (
	"time"

	"gorm.io/gorm"
)

// ApplicationModel 开户申请表
type ApplicationModel struct {
	gorm.Model
	ApplicationID string     `gorm:"column:application_id;type:varchar(32);uniqueIndex:uk_onboarding_application_id;not null"`
	ClientID      string     `gorm:"column:client_id;type:varchar(64);index:idx_onboarding_client;not null"`
	FirstName     string     `gorm:"column:first_name;type:varchar(50);not null"`
	LastName      string     `gorm:"column:last_name;type:varchar(50);not null"`
	Email         string     `gorm:"column:email;type:varchar(100);index:idx_onboarding_email;not null"`
	IDNumber      string     `gorm:"column:id_number;type:varchar(50);not null"`
	Address       string     `gorm:"column:address;type:varchar(255)"`
	Status        string     `gorm:"column:status;type:varchar(20);index:idx_onboarding_status;not null"`
	KYCStatus     string     `gorm:"column:kyc_status;type:varchar(20);not null"`
	Provider      string     `gorm:"column:provider;type:varchar(32)"`
	SessionID     string     `gorm:"column:session_id;type:varchar(64);index:idx_onboarding_session"`
	Reason        string     `gorm:"column:reason;type:varchar(255)"`
	VerifiedAt    *time.Time `gorm:"column:verified_at;type:datetime(3)"`
}

// TableName 表名
func (ApplicationModel) TableName() string {
	return "onboarding_applications"
}
