package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/wyfcoding/ordermanagement/internal/onboarding/domain"
	"github.com/wyfcoding/ordermanagement/internal/onboarding/infrastructure/kyc"
	"github.com/wyfcoding/ordermanagement/internal/onboarding/infrastructure/persistence/memory"
)

func newFixture(t *testing.T) *OnboardingService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOnboardingService(memory.NewStore(), kyc.NewMockProvider(), logger, nil)
}

func submitApplication(t *testing.T, svc *OnboardingService, clientID string) *ApplicationResponse {
	t.Helper()
	app, err := svc.SubmitApplication(context.Background(), SubmitApplicationRequest{
		ClientID:  clientID,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     clientID + "@example.com",
		IDNumber:  "ID-001",
		Address:   "10 Downing St",
	})
	if err != nil {
		t.Fatalf("submit application: %v", err)
	}
	return app
}

func TestOnboardingLifecycle(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	app := submitApplication(t, svc, "c1")
	if !strings.HasPrefix(app.ID, "app_") {
		t.Fatalf("application id mismatch! should have prefix app_ but got %s", app.ID)
	}
	if app.Status != "PENDING" || app.KYCStatus != "NONE" {
		t.Fatalf("state mismatch! should be PENDING/NONE but got %s/%s", app.Status, app.KYCStatus)
	}

	session, err := svc.StartKYC(ctx, app.ID)
	if err != nil {
		t.Fatalf("start kyc: %v", err)
	}
	if session.Provider != "mock" {
		t.Fatalf("provider mismatch! should be mock but got %s", session.Provider)
	}
	if !strings.HasPrefix(session.SessionID, "mock_") {
		t.Fatalf("session id mismatch! should have prefix mock_ but got %s", session.SessionID)
	}
	if session.AccessToken == nil {
		t.Fatal("fresh session should carry an access token")
	}

	got, err := svc.UploadDocument(ctx, app.ID, UploadDocumentRequest{DocType: "passport", FileURL: "s3://kyc/c1.pdf"})
	if err != nil {
		t.Fatalf("upload document: %v", err)
	}
	if got.Status != "PROCESSING" || got.KYCStatus != "VERIFYING" {
		t.Fatalf("state mismatch! should be PROCESSING/VERIFYING but got %s/%s", got.Status, got.KYCStatus)
	}

	ack, err := svc.ProcessWebhook(ctx, []byte(fmt.Sprintf(`{"applicantId":%q,"reviewStatus":"completed"}`, session.SessionID)))
	if err != nil {
		t.Fatalf("process webhook: %v", err)
	}
	if ack.Status != "processed" {
		t.Fatalf("ack mismatch! should be processed but got %s", ack.Status)
	}

	got, err = svc.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if got.Status != "APPROVED" || got.KYCStatus != "PASSED" {
		t.Fatalf("state mismatch! should be APPROVED/PASSED but got %s/%s", got.Status, got.KYCStatus)
	}
	if got.VerifiedAt == nil {
		t.Fatal("verified at should be set after approval")
	}

	status, err := svc.KYCStatus(ctx, "c1")
	if err != nil {
		t.Fatalf("kyc status: %v", err)
	}
	if status.Status != "PASSED" {
		t.Fatalf("kyc status mismatch! should be PASSED but got %s", status.Status)
	}
	if status.ApplicationID == nil || *status.ApplicationID != app.ID {
		t.Fatalf("application id mismatch! should be %s but got %v", app.ID, status.ApplicationID)
	}
}

func TestStartKYCReusesPendingSession(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()
	app := submitApplication(t, svc, "c1")

	first, err := svc.StartKYC(ctx, app.ID)
	if err != nil {
		t.Fatalf("start kyc: %v", err)
	}
	second, err := svc.StartKYC(ctx, app.ID)
	if err != nil {
		t.Fatalf("repeated start kyc: %v", err)
	}

	if second.SessionID != first.SessionID {
		t.Fatalf("session mismatch! should reuse %s but got %s", first.SessionID, second.SessionID)
	}
	if second.AccessToken != nil {
		t.Fatal("reused session should not issue a new access token")
	}
}

func TestWebhookRejection(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()
	app := submitApplication(t, svc, "c1")

	session, err := svc.StartKYC(ctx, app.ID)
	if err != nil {
		t.Fatalf("start kyc: %v", err)
	}

	ack, err := svc.ProcessWebhook(ctx, []byte(fmt.Sprintf(
		`{"applicantId":%q,"reviewStatus":"rejected","reason":"blurry document"}`, session.SessionID)))
	if err != nil {
		t.Fatalf("process webhook: %v", err)
	}
	if ack.Status != "processed" {
		t.Fatalf("ack mismatch! should be processed but got %s", ack.Status)
	}

	got, err := svc.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if got.Status != "REJECTED" || got.KYCStatus != "FAILED" {
		t.Fatalf("state mismatch! should be REJECTED/FAILED but got %s/%s", got.Status, got.KYCStatus)
	}
	if got.Reason == nil || *got.Reason != "blurry document" {
		t.Fatalf("reason mismatch! should be %q but got %v", "blurry document", got.Reason)
	}

	// 终态后的迟到回调只被忽略，不改状态
	ack, err = svc.ProcessWebhook(ctx, []byte(fmt.Sprintf(
		`{"applicantId":%q,"reviewStatus":"completed"}`, session.SessionID)))
	if err != nil {
		t.Fatalf("late webhook: %v", err)
	}
	if ack.Status != "ignored" {
		t.Fatalf("ack mismatch! should be ignored but got %s", ack.Status)
	}
	got, _ = svc.GetApplication(ctx, app.ID)
	if got.Status != "REJECTED" {
		t.Fatalf("status mismatch! late webhook should not change %s", got.Status)
	}

	if _, err := svc.StartKYC(ctx, app.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("error mismatch! should be ErrInvalidTransition but got %v", err)
	}
}

func TestWebhookIntermediateStatusKeepsVerifying(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()
	app := submitApplication(t, svc, "c1")

	session, err := svc.StartKYC(ctx, app.ID)
	if err != nil {
		t.Fatalf("start kyc: %v", err)
	}
	if _, err := svc.ProcessWebhook(ctx, []byte(fmt.Sprintf(
		`{"applicantId":%q,"reviewStatus":"onHold"}`, session.SessionID))); err != nil {
		t.Fatalf("process webhook: %v", err)
	}

	got, err := svc.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if got.Status != "PROCESSING" || got.KYCStatus != "VERIFYING" {
		t.Fatalf("state mismatch! should be PROCESSING/VERIFYING but got %s/%s", got.Status, got.KYCStatus)
	}
}

func TestWebhookUnmatchedPayloads(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	ack, err := svc.ProcessWebhook(ctx, []byte(`{"applicantId":"ghost","reviewStatus":"completed"}`))
	if err != nil {
		t.Fatalf("unknown session webhook: %v", err)
	}
	if ack.Status != "ignored" {
		t.Fatalf("ack mismatch! should be ignored but got %s", ack.Status)
	}

	ack, err = svc.ProcessWebhook(ctx, []byte(`{"reviewStatus":"completed"}`))
	if err != nil {
		t.Fatalf("missing session webhook: %v", err)
	}
	if ack.Status != "ignored" {
		t.Fatalf("ack mismatch! should be ignored but got %s", ack.Status)
	}

	if _, err := svc.ProcessWebhook(ctx, []byte(`not json`)); !errors.Is(err, domain.ErrInvalidWebhook) {
		t.Fatalf("error mismatch! should be ErrInvalidWebhook but got %v", err)
	}
}

func TestApplicationNotFound(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	if _, err := svc.GetApplication(ctx, "app_missing"); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Fatalf("error mismatch! should be ErrApplicationNotFound but got %v", err)
	}
	if _, err := svc.StartKYC(ctx, "app_missing"); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Fatalf("error mismatch! should be ErrApplicationNotFound but got %v", err)
	}
	if _, err := svc.UploadDocument(ctx, "app_missing", UploadDocumentRequest{DocType: "passport"}); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Fatalf("error mismatch! should be ErrApplicationNotFound but got %v", err)
	}
}

func TestKYCStatusWithoutApplication(t *testing.T) {
	svc := newFixture(t)

	status, err := svc.KYCStatus(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("kyc status: %v", err)
	}
	if status.Status != "NONE" {
		t.Fatalf("kyc status mismatch! should be NONE but got %s", status.Status)
	}
	if status.ApplicationID != nil {
		t.Fatalf("application id mismatch! should be nil but got %v", *status.ApplicationID)
	}
}

func TestListByEmail(t *testing.T) {
	svc := newFixture(t)
	ctx := context.Background()

	first := submitApplication(t, svc, "c1")
	second := submitApplication(t, svc, "c1")
	submitApplication(t, svc, "c2")

	apps, err := svc.ListByEmail(ctx, "c1@example.com")
	if err != nil {
		t.Fatalf("list by email: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("count mismatch! should be 2 but got %d", len(apps))
	}
	if apps[0].ID != first.ID || apps[1].ID != second.ID {
		t.Fatalf("order mismatch! should be %s,%s but got %s,%s", first.ID, second.ID, apps[0].ID, apps[1].ID)
	}
}
