package service

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPricingPolicy_EmptyPathUsesDefault(t *testing.T) {
	policy, err := LoadPricingPolicy("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.CommissionBps != 500 {
		t.Fatalf("expected default commission 500 bps, got %d", policy.CommissionBps)
	}
	if len(policy.Milestones) != 3 {
		t.Fatalf("expected 3 default milestones, got %d", len(policy.Milestones))
	}
}

func TestLoadPricingPolicy_FromFile(t *testing.T) {
	content := `commission_bps: 750
milestones:
  - name: "Firma"
    percentage_bps: 5000
  - name: "Entrega"
    percentage_bps: 5000
`
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	policy, err := LoadPricingPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.CommissionBps != 750 {
		t.Fatalf("expected commission 750 bps, got %d", policy.CommissionBps)
	}
	if len(policy.Milestones) != 2 || policy.Milestones[0].Name != "Firma" {
		t.Fatalf("unexpected milestones: %+v", policy.Milestones)
	}
}

func TestLoadPricingPolicy_RejectsBadSchedule(t *testing.T) {
	content := `commission_bps: 500
milestones:
  - name: "Solo"
    percentage_bps: 9000
`
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	if _, err := LoadPricingPolicy(path); err == nil {
		t.Fatal("expected error for schedule not summing to 10000 bps")
	}
}

func TestPricingPolicyValidate(t *testing.T) {
	valid := DefaultPricingPolicy()
	if err := valid.Validate(); err != nil {
		t.Fatalf("default policy should validate: %v", err)
	}

	noName := DefaultPricingPolicy()
	noName.Milestones[0].Name = ""
	if err := noName.Validate(); err == nil {
		t.Fatal("expected error for unnamed milestone")
	}

	badCommission := DefaultPricingPolicy()
	badCommission.CommissionBps = 10000
	if err := badCommission.Validate(); err == nil {
		t.Fatal("expected error for commission at 100%")
	}
}
