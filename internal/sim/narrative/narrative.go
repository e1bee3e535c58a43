// Package narrative renders the weekly story text shown alongside the
// numbers. Output is markdown; thresholds pick from a fixed set of editorial
// lines so the same metrics always read the same way.
package narrative

import (
	"fmt"
	"strings"

	"github.com/chrisf-bit/store-manager/internal/sim/decisions"
	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
)

// Event carries the title and description of the incident a round landed on.
type Event struct {
	Title       string
	Description string
}

// Derive builds the round narrative. prev is nil for the opening round, in
// which case the text describes the chosen strategy instead of trends.
func Derive(m metrics.Metrics, prev *metrics.Metrics, event *Event, set decisions.Set, round int) string {
	parts := []string{
		fmt.Sprintf("**Week %d at your FreshWay Markets store.**", round),
	}

	if prev != nil {
		revDiff := m.Revenue - prev.Revenue
		switch {
		case revDiff > 3000:
			parts = append(parts, "Revenue is up strongly — your trading decisions are paying off.")
		case revDiff > 0:
			parts = append(parts, "Revenue has edged up slightly this week.")
		case revDiff < -3000:
			parts = append(parts, "Revenue has taken a noticeable hit this week. Time to review your approach.")
		case revDiff < 0:
			parts = append(parts, "Revenue dipped slightly — keep an eye on the trend.")
		}

		if m.EngagementScore < 55 {
			parts = append(parts, "Team morale is low. Colleagues are disengaged and the atmosphere on the shop floor feels flat.")
		} else if m.EngagementScore > 80 {
			parts = append(parts, "The team is energised and engaged — you can feel the positive atmosphere in store.")
		}

		if m.CustomerSatisfaction < 60 {
			parts = append(parts, "Customer satisfaction is concerning. Complaints are rising and loyalty is at risk.")
		} else if m.CustomerSatisfaction > 82 {
			parts = append(parts, "Customers are happy — satisfaction scores are strong.")
		}

		if m.ComplianceScore < 60 {
			parts = append(parts, "Compliance is slipping — the store is exposed to risk if an audit happens.")
		}

		if m.QueueTimeMins > 6 {
			parts = append(parts, "Checkout queues are long. Customers are waiting too long to pay.")
		}
	} else {
		parts = append(parts,
			fmt.Sprintf("Your %s commercial strategy is set for the week.", commercialLabel(set.Commercial)),
			fmt.Sprintf("You've chosen to %s.", labourLabel(set.Labour)),
		)
	}

	if event != nil {
		parts = append(parts, fmt.Sprintf("\n**Event: %s** — %s", event.Title, event.Description))
	}

	return strings.Join(parts, " ")
}

func commercialLabel(option string) string {
	switch option {
	case "protect_margin":
		return "margin-focused"
	case "drive_volume":
		return "volume-driven"
	case "aggressive_competitor":
		return "aggressive"
	}
	return "balanced"
}

func labourLabel(option string) string {
	switch option {
	case "cut_hours":
		return "cut hours — risky but cost-saving"
	case "add_hours":
		return "add hours — investing in the team"
	case "add_overtime":
		return "use overtime — a short-term fix"
	}
	return "hold hours steady"
}
