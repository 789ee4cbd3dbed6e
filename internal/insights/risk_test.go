package insights

import "testing"

func findAlert(alerts []RiskAlert, metric string) *RiskAlert {
	for i := range alerts {
		if alerts[i].Metric == metric {
			return &alerts[i]
		}
	}
	return nil
}

func TestDetectRisksBaselineMonth(t *testing.T) {
	alerts := DetectRisks(
		MonthSnapshot{AnalyzedCount: 8, TotalReach: 1000},
		MonthSnapshot{},
	)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1 baseline info", len(alerts))
	}
	if alerts[0].Severity != SeverityInfo || alerts[0].Metric != "baseline" {
		t.Errorf("alert = %+v", alerts[0])
	}
}

func TestDetectRisksNoHistoryNoPosts(t *testing.T) {
	if alerts := DetectRisks(MonthSnapshot{}, MonthSnapshot{}); len(alerts) != 0 {
		t.Errorf("alerts = %v, want none", alerts)
	}
}

func TestDetectRisksFollowerDecrease(t *testing.T) {
	// Net loss of 15 against last month's +100 growth: 15%, warning.
	alerts := DetectRisks(
		MonthSnapshot{AnalyzedCount: 10, TotalFollowerIncrease: -15},
		MonthSnapshot{AnalyzedCount: 10, TotalFollowerIncrease: 100},
	)
	a := findAlert(alerts, "follower_increase")
	if a == nil || a.Severity != SeverityWarning {
		t.Fatalf("alert = %+v, want warning", a)
	}

	// 40% of last month's growth lost: critical.
	alerts = DetectRisks(
		MonthSnapshot{AnalyzedCount: 10, TotalFollowerIncrease: -40},
		MonthSnapshot{AnalyzedCount: 10, TotalFollowerIncrease: 100},
	)
	a = findAlert(alerts, "follower_increase")
	if a == nil || a.Severity != SeverityCritical {
		t.Fatalf("alert = %+v, want critical", a)
	}

	// Below the 10% threshold: silent.
	alerts = DetectRisks(
		MonthSnapshot{AnalyzedCount: 10, TotalFollowerIncrease: -5},
		MonthSnapshot{AnalyzedCount: 10, TotalFollowerIncrease: 100},
	)
	if findAlert(alerts, "follower_increase") != nil {
		t.Error("5% loss should not alert")
	}
}

func TestDetectRisksReachDrop(t *testing.T) {
	alerts := DetectRisks(
		MonthSnapshot{AnalyzedCount: 10, TotalReach: 600},
		MonthSnapshot{AnalyzedCount: 10, TotalReach: 1000},
	)
	a := findAlert(alerts, "reach")
	if a == nil || a.Severity != SeverityWarning {
		t.Fatalf("40%% drop alert = %+v, want warning", a)
	}
	if a.Change != -40 {
		t.Errorf("change = %.1f, want -40", a.Change)
	}

	alerts = DetectRisks(
		MonthSnapshot{AnalyzedCount: 10, TotalReach: 400},
		MonthSnapshot{AnalyzedCount: 10, TotalReach: 1000},
	)
	if a := findAlert(alerts, "reach"); a == nil || a.Severity != SeverityCritical {
		t.Fatalf("60%% drop alert = %+v, want critical", a)
	}

	alerts = DetectRisks(
		MonthSnapshot{AnalyzedCount: 10, TotalReach: 800},
		MonthSnapshot{AnalyzedCount: 10, TotalReach: 1000},
	)
	if findAlert(alerts, "reach") != nil {
		t.Error("20% drop should not alert")
	}
}

func TestDetectRisksEngagementRateDrop(t *testing.T) {
	// Previous rate 5%, current 2%: 3-point drop, warning.
	alerts := DetectRisks(
		MonthSnapshot{AnalyzedCount: 10, TotalLikes: 20, TotalReach: 1000},
		MonthSnapshot{AnalyzedCount: 10, TotalLikes: 50, TotalReach: 1000},
	)
	a := findAlert(alerts, "engagement_rate")
	if a == nil || a.Severity != SeverityWarning {
		t.Fatalf("alert = %+v, want warning", a)
	}

	// Previous rate 8%, current 1%: 7-point drop, critical.
	alerts = DetectRisks(
		MonthSnapshot{AnalyzedCount: 10, TotalLikes: 10, TotalReach: 1000},
		MonthSnapshot{AnalyzedCount: 10, TotalLikes: 80, TotalReach: 1000},
	)
	if a := findAlert(alerts, "engagement_rate"); a == nil || a.Severity != SeverityCritical {
		t.Fatalf("alert = %+v, want critical", a)
	}
}

func TestDetectRisksPostingFrequency(t *testing.T) {
	alerts := DetectRisks(
		MonthSnapshot{AnalyzedCount: 4},
		MonthSnapshot{AnalyzedCount: 10},
	)
	if a := findAlert(alerts, "posting_frequency"); a == nil || a.Severity != SeverityWarning {
		t.Fatalf("60%% slowdown alert = %+v, want warning", a)
	}

	// Zero posts with prior history: the 100% slowdown warning and the
	// zero-posts critical both fire, nothing is collapsed.
	alerts = DetectRisks(
		MonthSnapshot{AnalyzedCount: 0},
		MonthSnapshot{AnalyzedCount: 10},
	)
	var warnings, criticals int
	for _, a := range alerts {
		if a.Metric != "posting_frequency" {
			continue
		}
		switch a.Severity {
		case SeverityWarning:
			warnings++
		case SeverityCritical:
			criticals++
		}
	}
	if warnings != 1 || criticals != 1 {
		t.Fatalf("posting_frequency alerts = %d warning, %d critical, want 1 of each", warnings, criticals)
	}
}

func TestDetectRisksMultipleRulesFireTogether(t *testing.T) {
	alerts := DetectRisks(
		MonthSnapshot{AnalyzedCount: 3, TotalLikes: 5, TotalReach: 300, TotalFollowerIncrease: -50},
		MonthSnapshot{AnalyzedCount: 10, TotalLikes: 80, TotalReach: 1000, TotalFollowerIncrease: 100},
	)
	for _, metric := range []string{"follower_increase", "reach", "engagement_rate", "posting_frequency"} {
		if findAlert(alerts, metric) == nil {
			t.Errorf("missing %s alert", metric)
		}
	}
}
