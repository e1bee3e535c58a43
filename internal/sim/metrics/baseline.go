package metrics

// StoreSize selects a starting baseline.
type StoreSize string

const (
	SizeSmall  StoreSize = "small"
	SizeMedium StoreSize = "medium"
	SizeLarge  StoreSize = "large"
)

// ValidSize reports whether s is a known store size.
func ValidSize(s StoreSize) bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

var baselines = map[StoreSize]Metrics{
	SizeSmall: {
		Revenue:              85000,
		GrossMarginPct:       28.5,
		LabourCostPct:        18.0,
		WastePct:             3.2,
		ShrinkPct:            1.8,
		NetProfit:            6800,
		AvailabilityPct:      93.0,
		QueueTimeMins:        3.5,
		ComplianceScore:      72,
		EngagementScore:      65,
		AbsenceRatePct:       4.5,
		AttritionRisk:        35,
		CustomerSatisfaction: 70,
		ComplaintsCount:      8,
		LoyaltyIndex:         60,
		Footfall:             4500,
		Conversion:           0.68,
		BasketSize:           27.8,
	},
	SizeMedium: {
		Revenue:              145000,
		GrossMarginPct:       29.0,
		LabourCostPct:        17.5,
		WastePct:             2.8,
		ShrinkPct:            1.5,
		NetProfit:            13500,
		AvailabilityPct:      94.5,
		QueueTimeMins:        4.0,
		ComplianceScore:      75,
		EngagementScore:      68,
		AbsenceRatePct:       4.0,
		AttritionRisk:        30,
		CustomerSatisfaction: 72,
		ComplaintsCount:      12,
		LoyaltyIndex:         65,
		Footfall:             7200,
		Conversion:           0.70,
		BasketSize:           28.8,
	},
	SizeLarge: {
		Revenue:              220000,
		GrossMarginPct:       29.5,
		LabourCostPct:        17.0,
		WastePct:             2.5,
		ShrinkPct:            1.3,
		NetProfit:            22000,
		AvailabilityPct:      95.0,
		QueueTimeMins:        4.5,
		ComplianceScore:      78,
		EngagementScore:      70,
		AbsenceRatePct:       3.8,
		AttritionRisk:        28,
		CustomerSatisfaction: 74,
		ComplaintsCount:      15,
		LoyaltyIndex:         68,
		Footfall:             11000,
		Conversion:           0.72,
		BasketSize:           27.5,
	},
}

// Baseline returns the fixed starting metrics for a store size. Unknown sizes
// fall back to the medium baseline.
func Baseline(size StoreSize) Metrics {
	if m, ok := baselines[size]; ok {
		return m
	}
	return baselines[SizeMedium]
}
