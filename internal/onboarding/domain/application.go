// Package domain 开户上下文的领域模型：开户申请与 KYC 身份核验端口。
// 申请状态与 KYC 状态联动：核验通过即批准开户，核验失败即拒绝。
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ApplicationStatus 开户申请状态
type ApplicationStatus string

const (
	StatusPending    ApplicationStatus = "PENDING"
	StatusProcessing ApplicationStatus = "PROCESSING"
	StatusApproved   ApplicationStatus = "APPROVED"
	StatusRejected   ApplicationStatus = "REJECTED"
)

// KYCStatus 身份核验状态
type KYCStatus string

const (
	KYCNone      KYCStatus = "NONE"
	KYCPending   KYCStatus = "PENDING"
	KYCVerifying KYCStatus = "VERIFYING"
	KYCPassed    KYCStatus = "PASSED"
	KYCFailed    KYCStatus = "FAILED"
)

var (
	// ErrMissingField 必填申请人信息缺失
	ErrMissingField = errors.New("missing required applicant field")
	// ErrInvalidTransition 当前状态下不允许该操作
	ErrInvalidTransition = errors.New("operation not allowed in current status")
)

// OnboardingApplication 开户申请实体
type OnboardingApplication struct {
	ID            uint
	ApplicationID string
	ClientID      string
	FirstName     string
	LastName      string
	Email         string
	IDNumber      string
	Address       string
	Status        ApplicationStatus
	KYCStatus     KYCStatus
	Provider      string
	SessionID     string
	Reason        string
	VerifiedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOnboardingApplication 创建开户申请，此时尚未发起任何身份核验
func NewOnboardingApplication(clientID, firstName, lastName, email, idNumber, address string) (*OnboardingApplication, error) {
	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email", ErrMissingField)
	}
	if idNumber == "" {
		return nil, fmt.Errorf("%w: id number", ErrMissingField)
	}

	return &OnboardingApplication{
		ApplicationID: fmt.Sprintf("app_%d", time.Now().UnixNano()),
		ClientID:      clientID,
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		IDNumber:      idNumber,
		Address:       address,
		Status:        StatusPending,
		KYCStatus:     KYCNone,
	}, nil
}

// StartKYC 记录核验会话，申请进入等待核验阶段
func (a *OnboardingApplication) StartKYC(provider, sessionID string) error {
	if a.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrInvalidTransition, a.Status)
	}
	a.Provider = provider
	a.SessionID = sessionID
	a.KYCStatus = KYCPending
	return nil
}

// BeginVerification 材料已提交或核验方已受理，申请进入处理中
func (a *OnboardingApplication) BeginVerification() error {
	if a.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrInvalidTransition, a.Status)
	}
	a.KYCStatus = KYCVerifying
	a.Status = StatusProcessing
	return nil
}

// PassKYC 核验通过，开户申请批准
func (a *OnboardingApplication) PassKYC() error {
	if a.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrInvalidTransition, a.Status)
	}
	now := time.Now()
	a.KYCStatus = KYCPassed
	a.Status = StatusApproved
	a.VerifiedAt = &now
	a.Reason = ""
	return nil
}

// FailKYC 核验失败，开户申请拒绝
func (a *OnboardingApplication) FailKYC(reason string) error {
	if a.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrInvalidTransition, a.Status)
	}
	a.KYCStatus = KYCFailed
	a.Status = StatusRejected
	a.Reason = reason
	return nil
}

// IsTerminal 申请是否已到终态
func (a *OnboardingApplication) IsTerminal() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}

// Clone 深拷贝
func (a *OnboardingApplication) Clone() *OnboardingApplication {
	clone := *a
	if a.VerifiedAt != nil {
		t := *a.VerifiedAt
		clone.VerifiedAt = &t
	}
	return &clone
}
