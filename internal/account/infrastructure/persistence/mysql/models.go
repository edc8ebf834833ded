package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountModel 账户数据库模型
type AccountModel struct {
	gorm.Model
	ClientID  string          `gorm:"column:client_id;type:varchar(32);uniqueIndex:uk_account_client_currency;not null"`
	Currency  string          `gorm:"column:currency;type:varchar(10);uniqueIndex:uk_account_client_currency;not null"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(32,18);not null;default:0"`
	Available decimal.Decimal `gorm:"column:available;type:decimal(32,18);not null;default:0"`
	Frozen    decimal.Decimal `gorm:"column:frozen;type:decimal(32,18);not null;default:0"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

// DepositModel 充值订单数据库模型
type DepositModel struct {
	gorm.Model
	DepositID       string              `gorm:"column:deposit_id;type:varchar(32);uniqueIndex;not null"`
	ClientID        string              `gorm:"column:client_id;type:varchar(32);index;not null"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:decimal(32,18);not null"`
	Currency        string              `gorm:"column:currency;type:varchar(10);not null"`
	Channel         string              `gorm:"column:channel;type:varchar(20);not null"`
	Status          string              `gorm:"column:status;type:varchar(20);not null;index"`
	ProviderRef     string              `gorm:"column:provider_ref;type:varchar(128)"`
	PaymentURL      string              `gorm:"column:payment_url;type:varchar(512)"`
	ConfirmedAmount decimal.NullDecimal `gorm:"column:confirmed_amount;type:decimal(32,18)"`
	FailReason      string              `gorm:"column:fail_reason;type:varchar(255)"`
	ConfirmedAt     *time.Time          `gorm:"column:confirmed_at;type:datetime(3)"`
	CompletedAt     *time.Time          `gorm:"column:completed_at;type:datetime(3)"`
}

func (DepositModel) TableName() string {
	return "deposit_orders"
}

// WithdrawalModel 提现订单数据库模型
type WithdrawalModel struct {
	gorm.Model
	WithdrawalID  string          `gorm:"column:withdrawal_id;type:varchar(32);uniqueIndex;not null"`
	ClientID      string          `gorm:"column:client_id;type:varchar(32);index;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(32,18);not null"`
	Currency      string          `gorm:"column:currency;type:varchar(10);not null"`
	BankName      string          `gorm:"column:bank_name;type:varchar(64)"`
	BankAccount   string          `gorm:"column:bank_account;type:varchar(64)"`
	AccountHolder string          `gorm:"column:account_holder;type:varchar(64)"`
	Status        string          `gorm:"column:status;type:varchar(20);not null;index"`
	ProviderRef   string          `gorm:"column:provider_ref;type:varchar(128)"`
	ReviewedBy    string          `gorm:"column:reviewed_by;type:varchar(32)"`
	RejectReason  string          `gorm:"column:reject_reason;type:varchar(255)"`
	ReviewedAt    *time.Time      `gorm:"column:reviewed_at;type:datetime(3)"`
	CompletedAt   *time.Time      `gorm:"column:completed_at;type:datetime(3)"`
}

func (WithdrawalModel) TableName() string {
	return "withdrawal_orders"
}
