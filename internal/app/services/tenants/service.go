package tenants

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/localpulse/platform/internal/app/domain/tenant"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/pkg/logger"
)

// Service manages tenant accounts and the onboarding flow.
type Service struct {
	store storage.TenantStore
	log   *logger.Logger
}

// New constructs a tenant service.
func New(store storage.TenantStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tenants")
	}
	return &Service{store: store, log: log}
}

// Create registers a new tenant at the first onboarding step.
func (s *Service) Create(ctx context.Context, name, ownerEmail, plan string) (tenant.Tenant, error) {
	name = strings.TrimSpace(name)
	ownerEmail = strings.TrimSpace(ownerEmail)
	plan = strings.TrimSpace(plan)

	if name == "" {
		return tenant.Tenant{}, fmt.Errorf("name is required")
	}
	if ownerEmail == "" || !strings.Contains(ownerEmail, "@") {
		return tenant.Tenant{}, fmt.Errorf("owner_email must be a valid email address")
	}
	if plan == "" {
		plan = "starter"
	}

	existing, err := s.store.ListTenants(ctx)
	if err != nil {
		return tenant.Tenant{}, err
	}
	for _, t := range existing {
		if strings.EqualFold(t.OwnerEmail, ownerEmail) {
			return tenant.Tenant{}, fmt.Errorf("tenant for %s already exists", ownerEmail)
		}
	}

	t := tenant.Tenant{
		Name:           name,
		OwnerEmail:     ownerEmail,
		Plan:           plan,
		OnboardingStep: tenant.StepBusiness,
	}
	t, err = s.store.CreateTenant(ctx, t)
	if err != nil {
		return tenant.Tenant{}, err
	}
	s.log.WithField("tenant_id", t.ID).
		WithField("plan", t.Plan).
		Info("tenant created")
	return t, nil
}

// AdvanceOnboarding moves a tenant to the given step. Steps advance strictly
// forward; reaching the final step marks onboarding complete.
func (s *Service) AdvanceOnboarding(ctx context.Context, tenantID, step string) (tenant.Tenant, error) {
	step = strings.ToLower(strings.TrimSpace(step))

	target := tenant.StepIndex(step)
	if target < 0 {
		return tenant.Tenant{}, fmt.Errorf("unknown onboarding step %q", step)
	}

	t, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return tenant.Tenant{}, err
	}

	current := tenant.StepIndex(t.OnboardingStep)
	if target <= current {
		return tenant.Tenant{}, fmt.Errorf("onboarding cannot move back from %s to %s", t.OnboardingStep, step)
	}

	t.OnboardingStep = step
	if step == tenant.StepDone {
		t.OnboardingDone = true
	}

	t, err = s.store.UpdateTenant(ctx, t)
	if err != nil {
		return tenant.Tenant{}, err
	}
	s.log.WithField("tenant_id", t.ID).
		WithField("step", step).
		Info("onboarding advanced")
	return t, nil
}

// UpdateSettings merges the provided keys into the tenant settings. An empty
// value removes the key.
func (s *Service) UpdateSettings(ctx context.Context, tenantID string, settings map[string]string) (tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return tenant.Tenant{}, err
	}

	if t.Settings == nil {
		t.Settings = make(map[string]string)
	}
	for k, v := range settings {
		if strings.TrimSpace(v) == "" {
			delete(t.Settings, k)
		} else {
			t.Settings[k] = v
		}
	}

	return s.store.UpdateTenant(ctx, t)
}

// IssueAPIKey generates a new API key for the tenant, storing only its hash.
// The plaintext key is returned once and cannot be recovered later.
func (s *Service) IssueAPIKey(ctx context.Context, tenantID string) (string, tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return "", tenant.Tenant{}, err
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", tenant.Tenant{}, fmt.Errorf("generate api key: %w", err)
	}
	key := "lp_" + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", tenant.Tenant{}, fmt.Errorf("hash api key: %w", err)
	}

	t.APIKeyHash = string(hash)
	t, err = s.store.UpdateTenant(ctx, t)
	if err != nil {
		return "", tenant.Tenant{}, err
	}

	s.log.WithField("tenant_id", t.ID).Info("api key rotated")
	return key, t, nil
}

// VerifyAPIKey checks a presented key against the stored hash.
func (s *Service) VerifyAPIKey(ctx context.Context, tenantID, key string) error {
	t, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if t.APIKeyHash == "" {
		return fmt.Errorf("tenant %s has no api key", tenantID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(t.APIKeyHash), []byte(key)); err != nil {
		return fmt.Errorf("api key mismatch")
	}
	return nil
}

// Get retrieves a tenant by identifier.
func (s *Service) Get(ctx context.Context, tenantID string) (tenant.Tenant, error) {
	return s.store.GetTenant(ctx, tenantID)
}

// List returns all tenants.
func (s *Service) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Delete removes a tenant and, through the database, its child resources.
func (s *Service) Delete(ctx context.Context, tenantID string) error {
	if err := s.store.DeleteTenant(ctx, tenantID); err != nil {
		return err
	}
	s.log.WithField("tenant_id", tenantID).Info("tenant deleted")
	return nil
}
