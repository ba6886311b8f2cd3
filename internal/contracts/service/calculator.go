package service

import (
	"sort"

	"solarmarket_backend/internal/contracts/transport"
	"solarmarket_backend/platform/apperr"
)

// PlannedMilestone is a computed installment before persistence.
type PlannedMilestone struct {
	Sequence        int
	Name            string
	PercentageBps   int
	AmountCents     int64
	CommissionCents int64
}

// ComputedPlan is the calculator's output for a chosen payment type.
type ComputedPlan struct {
	Type                 string
	LumpSumCents         int64
	PendingProviderSetup bool
	Milestones           []PlannedMilestone
}

// ComputePaymentPlan derives the payment plan for a contract total.
// Milestone plans split the total per the policy schedule; upfront and
// financing plans are a single lump sum, with financing additionally flagged
// as awaiting external provider setup.
func ComputePaymentPlan(totalCents int64, paymentType string, policy PricingPolicy) (ComputedPlan, error) {
	if totalCents <= 0 {
		return ComputedPlan{}, apperr.BadRequest("contract total must be positive")
	}

	switch paymentType {
	case transport.PaymentTypeUpfront:
		return ComputedPlan{Type: paymentType, LumpSumCents: totalCents}, nil
	case transport.PaymentTypeFinancing:
		return ComputedPlan{Type: paymentType, LumpSumCents: totalCents, PendingProviderSetup: true}, nil
	case transport.PaymentTypeMilestone:
		return ComputedPlan{
			Type:       paymentType,
			Milestones: splitMilestones(totalCents, policy),
		}, nil
	default:
		return ComputedPlan{}, apperr.BadRequest("unknown payment type: " + paymentType)
	}
}

// splitMilestones allocates the total across the schedule using largest
// remainder apportionment, so the installment amounts always re-sum to the
// exact total regardless of rounding.
func splitMilestones(totalCents int64, policy PricingPolicy) []PlannedMilestone {
	n := len(policy.Milestones)
	planned := make([]PlannedMilestone, n)
	remainders := make([]int64, n)

	var allocated int64
	for i, def := range policy.Milestones {
		exact := totalCents * int64(def.PercentageBps)
		amount := exact / 10000
		remainders[i] = exact % 10000
		allocated += amount
		planned[i] = PlannedMilestone{
			Sequence:      i + 1,
			Name:          def.Name,
			PercentageBps: def.PercentageBps,
			AmountCents:   amount,
		}
	}

	// Hand the leftover cents to the largest remainders, earliest
	// installment first on ties.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := int64(0); k < totalCents-allocated; k++ {
		planned[order[k%int64(n)]].AmountCents++
	}

	for i := range planned {
		planned[i].CommissionCents = commissionFor(planned[i].AmountCents, policy.CommissionBps)
	}
	return planned
}

// commissionFor computes the platform commission on an installment,
// rounding half up.
func commissionFor(amountCents int64, commissionBps int) int64 {
	return (amountCents*int64(commissionBps) + 5000) / 10000
}
