package insights

import (
	"fmt"

	"github.com/google/uuid"
)

// Severity ranks a risk alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// RiskAlert is one threshold crossing detected between two months.
type RiskAlert struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Metric   string   `json:"metric"`
	Message  string   `json:"message"`
	Change   float64  `json:"change"`
}

// MonthSnapshot holds the handful of aggregates the risk rules compare.
type MonthSnapshot struct {
	AnalyzedCount         int
	TotalLikes            int64
	TotalReach            int64
	TotalComments         int64
	TotalFollowerIncrease int64
}

// EngagementRate is (likes+comments)/reach*100, or 0 when reach is zero.
func (m MonthSnapshot) EngagementRate() float64 {
	if m.TotalReach <= 0 {
		return 0
	}
	return float64(m.TotalLikes+m.TotalComments) / float64(m.TotalReach) * 100
}

// Thresholds for the detection rules.
const (
	followerDropWarnPct     = 10.0
	followerDropCriticalPct = 30.0
	reachDropWarnPct        = -30.0
	reachDropCriticalPct    = -50.0
	engagementDropWarnPts   = 2.0
	engagementDropCritPts   = 5.0
	postingDropWarnPct      = 50.0
)

// DetectRisks compares current vs previous month aggregates and emits
// severity-tagged alerts for every rule whose threshold is crossed.
// Multiple rules may fire together; nothing is deduplicated. Each rule
// requires its previous value to be positive, so a month with no prior
// history produces a single informational baseline alert instead.
func DetectRisks(current, previous MonthSnapshot) []RiskAlert {
	var alerts []RiskAlert

	if previous.AnalyzedCount == 0 {
		if current.AnalyzedCount > 0 {
			alerts = append(alerts, newAlert(SeverityInfo, "baseline",
				fmt.Sprintf("First analyzed month: %d posts recorded as the comparison baseline.", current.AnalyzedCount), 0))
		}
		return alerts
	}

	// Follower decrease: previous increase positive, current negative.
	if previous.TotalFollowerIncrease > 0 && current.TotalFollowerIncrease < 0 {
		rate := float64(-current.TotalFollowerIncrease) / float64(previous.TotalFollowerIncrease) * 100
		if rate >= followerDropWarnPct {
			sev := SeverityWarning
			if rate >= followerDropCriticalPct {
				sev = SeverityCritical
			}
			alerts = append(alerts, newAlert(sev, "follower_increase",
				fmt.Sprintf("Followers are shrinking: this month's net loss equals %.0f%% of last month's growth.", rate), -rate))
		}
	}

	// Reach decrease.
	if previous.TotalReach > 0 {
		if change := percentChange(current.TotalReach, previous.TotalReach); change != nil && *change <= reachDropWarnPct {
			sev := SeverityWarning
			if *change <= reachDropCriticalPct {
				sev = SeverityCritical
			}
			alerts = append(alerts, newAlert(sev, "reach",
				fmt.Sprintf("Reach dropped %.0f%% month over month.", -*change), *change))
		}
	}

	// Engagement-rate decrease, in percentage points.
	if prevRate := previous.EngagementRate(); prevRate > 0 {
		drop := prevRate - current.EngagementRate()
		if drop >= engagementDropWarnPts {
			sev := SeverityWarning
			if drop >= engagementDropCritPts {
				sev = SeverityCritical
			}
			alerts = append(alerts, newAlert(sev, "engagement_rate",
				fmt.Sprintf("Engagement rate fell %.1f points (from %.1f%% to %.1f%%).", drop, prevRate, current.EngagementRate()), -drop))
		}
	}

	// Posting-frequency decrease. Warning only; at a full stop it fires
	// alongside the zero-posts critical below.
	if previous.AnalyzedCount > 0 {
		drop := float64(previous.AnalyzedCount-current.AnalyzedCount) / float64(previous.AnalyzedCount) * 100
		if drop >= postingDropWarnPct {
			alerts = append(alerts, newAlert(SeverityWarning, "posting_frequency",
				fmt.Sprintf("Posting slowed down: %d posts vs %d last month.", current.AnalyzedCount, previous.AnalyzedCount), -drop))
		}
	}

	// Zero posts this month with posts last month. Fires independently.
	if current.AnalyzedCount == 0 {
		alerts = append(alerts, newAlert(SeverityCritical, "posting_frequency",
			"No posts were published this month.", -100))
	}

	return alerts
}

func newAlert(sev Severity, metric, message string, change float64) RiskAlert {
	return RiskAlert{
		ID:       uuid.New().String(),
		Severity: sev,
		Metric:   metric,
		Message:  message,
		Change:   change,
	}
}
