package service

import (
	"testing"

	"solarmarket_backend/internal/contracts/transport"
)

func TestComputePaymentPlan_MilestoneSplit(t *testing.T) {
	// 95,000 euros at 30/40/30 with a 5% commission per installment.
	plan, err := ComputePaymentPlan(9_500_000, transport.PaymentTypeMilestone, DefaultPricingPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Milestones) != 3 {
		t.Fatalf("expected 3 milestones, got %d", len(plan.Milestones))
	}

	wantAmounts := []int64{2_850_000, 3_800_000, 2_850_000}
	wantCommissions := []int64{142_500, 190_000, 142_500}
	wantNames := []string{"Acepta oferta", "Inicio instalación", "Entrega final"}

	for i, m := range plan.Milestones {
		if m.Sequence != i+1 {
			t.Fatalf("milestone %d: expected sequence %d, got %d", i, i+1, m.Sequence)
		}
		if m.Name != wantNames[i] {
			t.Fatalf("milestone %d: expected name %q, got %q", i, wantNames[i], m.Name)
		}
		if m.AmountCents != wantAmounts[i] {
			t.Fatalf("milestone %d: expected amount %d, got %d", i, wantAmounts[i], m.AmountCents)
		}
		if m.CommissionCents != wantCommissions[i] {
			t.Fatalf("milestone %d: expected commission %d, got %d", i, wantCommissions[i], m.CommissionCents)
		}
	}
}

func TestComputePaymentPlan_MilestoneAmountsSumToTotal(t *testing.T) {
	policy := DefaultPricingPolicy()

	// Totals chosen so a naive per-installment rounding would drop or
	// invent cents.
	totals := []int64{1, 2, 3, 99, 101, 3333, 10001, 9_999_999, 12_345_671}
	for _, total := range totals {
		plan, err := ComputePaymentPlan(total, transport.PaymentTypeMilestone, policy)
		if err != nil {
			t.Fatalf("total %d: unexpected error: %v", total, err)
		}

		var sum int64
		for _, m := range plan.Milestones {
			if m.AmountCents < 0 {
				t.Fatalf("total %d: negative installment %d", total, m.AmountCents)
			}
			sum += m.AmountCents
		}
		if sum != total {
			t.Fatalf("total %d: installments sum to %d", total, sum)
		}
	}
}

func TestComputePaymentPlan_LargestRemainderPrefersEarlierSteps(t *testing.T) {
	policy := PricingPolicy{
		CommissionBps: 500,
		Milestones: []MilestoneDefinition{
			{Name: "a", PercentageBps: 3334},
			{Name: "b", PercentageBps: 3333},
			{Name: "c", PercentageBps: 3333},
		},
	}

	// 100 cents: exact shares are 33.34 / 33.33 / 33.33. The leftover cent
	// goes to the first installment, which has the largest remainder.
	plan, err := ComputePaymentPlan(100, transport.PaymentTypeMilestone, policy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	amounts := []int64{plan.Milestones[0].AmountCents, plan.Milestones[1].AmountCents, plan.Milestones[2].AmountCents}
	if amounts[0] != 34 || amounts[1] != 33 || amounts[2] != 33 {
		t.Fatalf("expected split 34/33/33, got %d/%d/%d", amounts[0], amounts[1], amounts[2])
	}
}

func TestComputePaymentPlan_Upfront(t *testing.T) {
	plan, err := ComputePaymentPlan(5_000_000, transport.PaymentTypeUpfront, DefaultPricingPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.LumpSumCents != 5_000_000 {
		t.Fatalf("expected lump sum 5000000, got %d", plan.LumpSumCents)
	}
	if len(plan.Milestones) != 0 {
		t.Fatalf("expected no milestones, got %d", len(plan.Milestones))
	}
	if plan.PendingProviderSetup {
		t.Fatal("upfront plan should not flag provider setup")
	}
}

func TestComputePaymentPlan_Financing(t *testing.T) {
	plan, err := ComputePaymentPlan(5_000_000, transport.PaymentTypeFinancing, DefaultPricingPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.PendingProviderSetup {
		t.Fatal("financing plan should flag provider setup")
	}
	if plan.LumpSumCents != 5_000_000 {
		t.Fatalf("financing lump sum = %d, want 5000000", plan.LumpSumCents)
	}
	if len(plan.Milestones) != 0 {
		t.Fatalf("financing plan should have no milestones, got %d", len(plan.Milestones))
	}
}

func TestComputePaymentPlan_Invalid(t *testing.T) {
	if _, err := ComputePaymentPlan(0, transport.PaymentTypeMilestone, DefaultPricingPolicy()); err == nil {
		t.Fatal("expected error for zero total")
	}
	if _, err := ComputePaymentPlan(100, "installments", DefaultPricingPolicy()); err == nil {
		t.Fatal("expected error for unknown payment type")
	}
}

func TestCommissionFor_RoundsHalfUp(t *testing.T) {
	// 5% of 30 cents is 1.5 cents; rounds to 2.
	if got := commissionFor(30, 500); got != 2 {
		t.Fatalf("expected commission 2, got %d", got)
	}
	if got := commissionFor(29, 500); got != 1 {
		t.Fatalf("expected commission 1, got %d", got)
	}
}
