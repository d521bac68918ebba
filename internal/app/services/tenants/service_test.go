package tenants

import (
	"context"
	"strings"
	"testing"

	"github.com/localpulse/platform/internal/app/domain/tenant"
	"github.com/localpulse/platform/internal/app/storage/memory"
)

func TestService_CreateValidatesInput(t *testing.T) {
	svc := New(memory.New(), nil)

	if _, err := svc.Create(context.Background(), "", "owner@shop.test", ""); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := svc.Create(context.Background(), "Corner Cafe", "not-an-email", ""); err == nil {
		t.Fatalf("expected error for invalid email")
	}

	created, err := svc.Create(context.Background(), "  Corner Cafe  ", "owner@shop.test", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Corner Cafe" {
		t.Fatalf("name not trimmed: %q", created.Name)
	}
	if created.Plan != "starter" {
		t.Fatalf("expected default plan, got %q", created.Plan)
	}
	if created.OnboardingStep != tenant.StepBusiness {
		t.Fatalf("expected first onboarding step, got %q", created.OnboardingStep)
	}

	if _, err := svc.Create(context.Background(), "Other", "OWNER@shop.test", ""); err == nil {
		t.Fatalf("expected duplicate owner error")
	}
}

func TestService_OnboardingAdvancesForwardOnly(t *testing.T) {
	svc := New(memory.New(), nil)
	created, err := svc.Create(context.Background(), "Corner Cafe", "owner@shop.test", "pro")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.AdvanceOnboarding(context.Background(), created.ID, tenant.StepIntegrations)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if updated.OnboardingStep != tenant.StepIntegrations {
		t.Fatalf("step = %q", updated.OnboardingStep)
	}

	if _, err := svc.AdvanceOnboarding(context.Background(), created.ID, tenant.StepBusiness); err == nil {
		t.Fatalf("expected error moving backwards")
	}
	if _, err := svc.AdvanceOnboarding(context.Background(), created.ID, "bogus"); err == nil {
		t.Fatalf("expected error for unknown step")
	}

	done, err := svc.AdvanceOnboarding(context.Background(), created.ID, tenant.StepDone)
	if err != nil {
		t.Fatalf("advance to done: %v", err)
	}
	if !done.OnboardingDone {
		t.Fatalf("onboarding should be marked complete")
	}
}

func TestService_APIKeyRoundTrip(t *testing.T) {
	svc := New(memory.New(), nil)
	created, err := svc.Create(context.Background(), "Corner Cafe", "owner@shop.test", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.VerifyAPIKey(context.Background(), created.ID, "anything"); err == nil {
		t.Fatalf("expected error before a key is issued")
	}

	key, updated, err := svc.IssueAPIKey(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("issue key: %v", err)
	}
	if !strings.HasPrefix(key, "lp_") {
		t.Fatalf("unexpected key format %q", key)
	}
	if updated.APIKeyHash == "" || updated.APIKeyHash == key {
		t.Fatalf("hash must be stored, not plaintext")
	}

	if err := svc.VerifyAPIKey(context.Background(), created.ID, key); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := svc.VerifyAPIKey(context.Background(), created.ID, key+"x"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestService_UpdateSettingsMergesAndDeletes(t *testing.T) {
	svc := New(memory.New(), nil)
	created, _ := svc.Create(context.Background(), "Corner Cafe", "owner@shop.test", "")

	updated, err := svc.UpdateSettings(context.Background(), created.ID, map[string]string{"brand_voice": "friendly", "tz": "Europe/Madrid"})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.Settings["brand_voice"] != "friendly" {
		t.Fatalf("settings not merged: %#v", updated.Settings)
	}

	updated, err = svc.UpdateSettings(context.Background(), created.ID, map[string]string{"tz": ""})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if _, ok := updated.Settings["tz"]; ok {
		t.Fatalf("empty value should delete the key")
	}
}
