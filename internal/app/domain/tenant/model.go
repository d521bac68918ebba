package tenant

import "time"

// Onboarding steps in the order a new tenant walks through them.
const (
	StepBusiness     = "business"
	StepLocation     = "location"
	StepIntegrations = "integrations"
	StepBranding     = "branding"
	StepDone         = "done"
)

// Steps lists the onboarding sequence. Advancement is strictly forward.
var Steps = []string{StepBusiness, StepLocation, StepIntegrations, StepBranding, StepDone}

// Tenant represents a customer account owning locations, integrations and
// social content. All child resources are scoped by TenantID.
type Tenant struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	OwnerEmail     string            `json:"owner_email"`
	Plan           string            `json:"plan"`
	APIKeyHash     string            `json:"-"`
	OnboardingStep string            `json:"onboarding_step"`
	OnboardingDone bool              `json:"onboarding_done"`
	Settings       map[string]string `json:"settings,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// StepIndex returns the position of a step in the onboarding sequence, or -1.
func StepIndex(step string) int {
	for i, s := range Steps {
		if s == step {
			return i
		}
	}
	return -1
}
