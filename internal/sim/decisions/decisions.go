// Package decisions maps each weekly decision option to its partial metric
// impact. The tables are editorial content: every option trades something
// away, and the numbers are fixed at authoring time.
package decisions

import "github.com/chrisf-bit/store-manager/internal/sim/metrics"

// Decision categories.
const (
	CategoryCommercial = "commercial"
	CategoryLabour     = "labour"
	CategoryOperations = "operations"
	CategoryInvestment = "investment"
)

// Categories lists every decision category in submission order.
var Categories = []string{
	CategoryCommercial,
	CategoryLabour,
	CategoryOperations,
	CategoryInvestment,
}

// Set holds the selected option key per category for one round.
type Set struct {
	Commercial string `json:"commercial"`
	Labour     string `json:"labour"`
	Operations string `json:"operations"`
	Investment string `json:"investment"`
}

// Option returns the selected key for a category, or "" for unknown categories.
func (s Set) Option(category string) string {
	switch category {
	case CategoryCommercial:
		return s.Commercial
	case CategoryLabour:
		return s.Labour
	case CategoryOperations:
		return s.Operations
	case CategoryInvestment:
		return s.Investment
	}
	return ""
}

// Commercial resolves the pricing/promotions option. Footfall effects scale
// with the store's current footfall, so the same option hits a large store
// harder in absolute terms. Unknown keys resolve to an empty delta; callers
// wanting rejection must validate against the catalog first.
func Commercial(option string, m metrics.Metrics) metrics.Delta {
	switch option {
	case "protect_margin":
		return metrics.Delta{
			"grossMarginPct":       1.5,
			"footfall":             -m.Footfall * 0.04,
			"basketSize":           0.8,
			"customerSatisfaction": -1,
		}
	case "balanced":
		return metrics.Delta{
			"grossMarginPct": 0.3,
			"footfall":       m.Footfall * 0.01,
			"basketSize":     0.3,
		}
	case "drive_volume":
		return metrics.Delta{
			"grossMarginPct": -1.2,
			"footfall":       m.Footfall * 0.08,
			"basketSize":     -0.5,
			"queueTimeMins":  0.8,
			"labourCostPct":  0.2,
		}
	case "aggressive_competitor":
		return metrics.Delta{
			"grossMarginPct":       -2.5,
			"footfall":             m.Footfall * 0.15,
			"basketSize":           -1.0,
			"queueTimeMins":        1.5,
			"labourCostPct":        0.4,
			"customerSatisfaction": -2,
			"wastePct":             0.2,
		}
	}
	return metrics.Delta{}
}

// Labour resolves the staffing option.
func Labour(option string, m metrics.Metrics) metrics.Delta {
	switch option {
	case "cut_hours":
		return metrics.Delta{
			"labourCostPct":        -1.8,
			"engagementScore":      -6,
			"availabilityPct":      -4,
			"queueTimeMins":        1.5,
			"complianceScore":      -3,
			"absenceRatePct":       0.5,
			"attritionRisk":        5,
			"customerSatisfaction": -3,
		}
	case "hold_hours":
		return metrics.Delta{
			"engagementScore": -1,
			"attritionRisk":   1,
		}
	case "add_hours":
		return metrics.Delta{
			"labourCostPct":        1.2,
			"engagementScore":      3,
			"availabilityPct":      3,
			"queueTimeMins":        -1.0,
			"complianceScore":      2,
			"absenceRatePct":       -0.3,
			"attritionRisk":        -3,
			"customerSatisfaction": 2,
		}
	case "add_overtime":
		return metrics.Delta{
			"labourCostPct":   1.8,
			"engagementScore": -2,
			"availabilityPct": 2,
			"queueTimeMins":   -0.8,
			"absenceRatePct":  0.3,
			"attritionRisk":   2,
		}
	}
	return metrics.Delta{}
}

// Operations resolves the weekly operational focus.
func Operations(option string) metrics.Delta {
	switch option {
	case "availability":
		return metrics.Delta{
			"availabilityPct":      4,
			"customerSatisfaction": 2,
			"revenue":              2000,
			"wastePct":             -0.2,
		}
	case "queue_management":
		return metrics.Delta{
			"queueTimeMins":        -1.5,
			"customerSatisfaction": 3,
			"conversion":           0.02,
		}
	case "waste_control":
		return metrics.Delta{
			"wastePct":        -0.8,
			"grossMarginPct":  0.4,
			"netProfit":       1500,
			"availabilityPct": -1,
		}
	case "compliance":
		return metrics.Delta{
			"complianceScore": 6,
			"shrinkPct":       -0.2,
			"engagementScore": -1,
			"availabilityPct": -1,
		}
	}
	return metrics.Delta{}
}

// Investment resolves where the week's discretionary budget goes.
func Investment(option string) metrics.Delta {
	switch option {
	case "equipment":
		return metrics.Delta{
			"wastePct":        -0.4,
			"availabilityPct": 2,
			"complianceScore": 2,
			"netProfit":       800,
		}
	case "wellbeing":
		return metrics.Delta{
			"engagementScore":      5,
			"absenceRatePct":       -0.5,
			"attritionRisk":        -4,
			"customerSatisfaction": 1,
		}
	case "marketing":
		return metrics.Delta{
			"footfall":             300,
			"revenue":              3000,
			"loyaltyIndex":         3,
			"customerSatisfaction": 1,
		}
	case "training":
		return metrics.Delta{
			"complianceScore":      4,
			"engagementScore":      3,
			"customerSatisfaction": 2,
			"shrinkPct":            -0.1,
			"conversion":           0.01,
		}
	}
	return metrics.Delta{}
}

// Impacts resolves all four categories against the current metrics.
func Impacts(s Set, m metrics.Metrics) []metrics.Delta {
	return []metrics.Delta{
		Commercial(s.Commercial, m),
		Labour(s.Labour, m),
		Operations(s.Operations),
		Investment(s.Investment),
	}
}
