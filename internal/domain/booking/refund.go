package booking

import (
	"time"

	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

// RefundPolicy is a cancellation policy tier. Each tier maps days-until-
// check-in thresholds to refund percentages.
type RefundPolicy string

const (
	PolicyFlexible    RefundPolicy = "flexible"
	PolicyModerate    RefundPolicy = "moderate"
	PolicyStrict      RefundPolicy = "strict"
	PolicySuperStrict RefundPolicy = "super_strict"
)

const DefaultRefundPolicy = PolicyModerate

type refundTier struct {
	MinDays int
	Percent int
}

// First matching threshold wins, descending. Anything below the last
// threshold (including past check-ins) refunds nothing.
var refundTiers = map[RefundPolicy][]refundTier{
	PolicyFlexible:    {{MinDays: 1, Percent: 100}},
	PolicyModerate:    {{MinDays: 5, Percent: 100}, {MinDays: 1, Percent: 50}},
	PolicyStrict:      {{MinDays: 7, Percent: 100}, {MinDays: 1, Percent: 50}},
	PolicySuperStrict: {{MinDays: 14, Percent: 100}, {MinDays: 7, Percent: 50}},
}

func (p RefundPolicy) Valid() bool {
	_, ok := refundTiers[p]
	return ok
}

// RefundPercent resolves the refund percentage for the given lead time.
// Unknown policies match no tier and refund nothing.
func (p RefundPolicy) RefundPercent(daysUntilCheckIn int) int {
	for _, tier := range refundTiers[p] {
		if daysUntilCheckIn >= tier.MinDays {
			return tier.Percent
		}
	}
	return 0
}

// CalculateRefund computes the amount returned to the guest when cancelling
// at the given moment. Pure function: identical inputs yield identical
// output.
func CalculateRefund(total money.Money, dr daterange.DateRange, policy RefundPolicy, now time.Time) money.Money {
	percent := policy.RefundPercent(dr.DaysUntil(now))
	return total.Percent(percent)
}
