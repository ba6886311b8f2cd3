package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MilestoneDefinition is one installment of the configured schedule.
type MilestoneDefinition struct {
	Name          string `yaml:"name"`
	PercentageBps int    `yaml:"percentage_bps"`
}

// PricingPolicy holds the platform's commercial terms: the commission taken
// on each installment and the milestone schedule applied to new contracts.
type PricingPolicy struct {
	CommissionBps int                   `yaml:"commission_bps"`
	Milestones    []MilestoneDefinition `yaml:"milestones"`
}

// DefaultPricingPolicy returns the built-in terms used when no policy file
// is configured: 5% commission and a 30/40/30 installment schedule.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		CommissionBps: 500,
		Milestones: []MilestoneDefinition{
			{Name: "Acepta oferta", PercentageBps: 3000},
			{Name: "Inicio instalación", PercentageBps: 4000},
			{Name: "Entrega final", PercentageBps: 3000},
		},
	}
}

// LoadPricingPolicy reads a policy file, falling back to the default policy
// when path is empty.
func LoadPricingPolicy(path string) (PricingPolicy, error) {
	if path == "" {
		return DefaultPricingPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PricingPolicy{}, fmt.Errorf("failed to read pricing policy: %w", err)
	}

	var policy PricingPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return PricingPolicy{}, fmt.Errorf("failed to parse pricing policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return PricingPolicy{}, err
	}
	return policy, nil
}

// Validate checks the policy is internally consistent.
func (p PricingPolicy) Validate() error {
	if p.CommissionBps < 0 || p.CommissionBps >= 10000 {
		return fmt.Errorf("commission_bps %d out of range [0, 10000)", p.CommissionBps)
	}
	if len(p.Milestones) == 0 {
		return fmt.Errorf("pricing policy has no milestones")
	}
	var sum int
	for i, m := range p.Milestones {
		if m.Name == "" {
			return fmt.Errorf("milestone %d has no name", i)
		}
		if m.PercentageBps <= 0 {
			return fmt.Errorf("milestone %q has non-positive percentage", m.Name)
		}
		sum += m.PercentageBps
	}
	if sum != 10000 {
		return fmt.Errorf("milestone percentages sum to %d bps, want 10000", sum)
	}
	return nil
}
