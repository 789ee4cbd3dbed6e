package insights

import (
	"sort"
	"strings"
	"time"

	"github.com/lumera/insight-engine/internal/domain"
)

// Input carries everything the aggregator needs for one (user, month):
// the raw entries for the month and the prior month, the account-level
// monthly snapshots, and the initial follower baseline used when no
// snapshot exists yet.
type Input struct {
	Month    domain.Month
	Location *time.Location

	Current  []domain.AnalyticsEntry
	Previous []domain.AnalyticsEntry

	CurrentFollowers  *domain.FollowerCountEntry
	PreviousFollowers *domain.FollowerCountEntry

	InitialFollowers int64
}

// Aggregate turns raw per-post analytics rows into the monthly aggregate.
// Pure synchronous transformation: no I/O, no stored state. Ratios with a
// zero denominator yield nil, never NaN/Inf or an error.
func Aggregate(in Input) *MonthlyAggregate {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	curStart, curEnd := in.Month.Window(loc)
	prevStart, prevEnd := in.Month.Prev().Window(loc)

	current := filterWindow(in.Current, curStart, curEnd)
	previous := filterWindow(in.Previous, prevStart, prevEnd)

	agg := &MonthlyAggregate{
		Month:                 in.Month,
		AnalyzedCount:         len(current),
		PreviousAnalyzedCount: len(previous),
	}

	agg.Totals = sumMonth(current, in.CurrentFollowers)
	agg.FirstMonth = len(previous) == 0 && in.PreviousFollowers == nil

	if !agg.FirstMonth {
		prevTotals := sumMonth(previous, in.PreviousFollowers)
		agg.PreviousTotals = &prevTotals
		agg.Changes = buildChanges(agg.Totals, prevTotals)
	}

	agg.CurrentFollowers = followerGauge(in.CurrentFollowers, in.InitialFollowers, agg.Totals.FollowerIncrease)
	if in.PreviousFollowers != nil {
		f := in.PreviousFollowers.Followers
		agg.PreviousFollowers = &f
	}

	agg.Sources = buildSources(current)
	agg.Feed = buildTypeStats(current, domain.PostFeed)
	agg.Reel = buildTypeStats(current, domain.PostReel)
	agg.Story = buildTypeStats(current, domain.PostStory)
	agg.TimeSlots = buildTimeSlots(current, loc)
	agg.Hashtags = buildHashtags(current)
	agg.Daily = buildDaily(current, loc)

	return agg
}

func filterWindow(entries []domain.AnalyticsEntry, start, end time.Time) []domain.AnalyticsEntry {
	out := make([]domain.AnalyticsEntry, 0, len(entries))
	for _, e := range entries {
		if !e.PublishedAt.Before(start) && e.PublishedAt.Before(end) {
			out = append(out, e)
		}
	}
	return out
}

// sumMonth adds per-post counters plus the account-level "other" bucket of
// profile visits and link taps that no single post accounts for.
func sumMonth(entries []domain.AnalyticsEntry, fc *domain.FollowerCountEntry) KpiTotals {
	var t KpiTotals
	for _, e := range entries {
		t.Add(e)
	}
	if fc != nil {
		t.ProfileVisits += fc.ProfileVisits
		t.ExternalLinkTaps += fc.ExternalLinkTaps
	}
	return t
}

func buildChanges(cur, prev KpiTotals) *KpiChanges {
	return &KpiChanges{
		Likes:            percentChange(cur.Likes, prev.Likes),
		Comments:         percentChange(cur.Comments, prev.Comments),
		Shares:           percentChange(cur.Shares, prev.Shares),
		Saves:            percentChange(cur.Saves, prev.Saves),
		Reach:            percentChange(cur.Reach, prev.Reach),
		FollowerIncrease: percentChange(cur.FollowerIncrease, prev.FollowerIncrease),
		ProfileVisits:    percentChange(cur.ProfileVisits, prev.ProfileVisits),
		ExternalLinkTaps: percentChange(cur.ExternalLinkTaps, prev.ExternalLinkTaps),
	}
}

func followerGauge(fc *domain.FollowerCountEntry, baseline, increase int64) int64 {
	if fc != nil {
		return fc.Followers
	}
	// No snapshot for the month yet: project from the initial baseline.
	return baseline + increase
}

// buildSources computes the reach origin split over entries reporting at
// least one source field. Entries without source data are excluded from the
// denominator so partial platform coverage doesn't skew the split.
func buildSources(entries []domain.AnalyticsEntry) *ReachSourceAnalysis {
	var profile, feed, search, other int64
	samples := 0
	for _, e := range entries {
		if !e.Sources.Reported() {
			continue
		}
		samples++
		profile += deref(e.Sources.Profile)
		feed += deref(e.Sources.Feed)
		search += deref(e.Sources.Search)
		other += deref(e.Sources.Other)
	}
	total := profile + feed + search + other
	if samples == 0 || total == 0 {
		return nil
	}
	pct := func(v int64) float64 { return float64(v) / float64(total) * 100 }
	return &ReachSourceAnalysis{
		Profile:    pct(profile),
		Feed:       pct(feed),
		Search:     pct(search),
		Other:      pct(other),
		SampleSize: samples,
	}
}

func buildTypeStats(entries []domain.AnalyticsEntry, pt domain.PostType) *PostTypeStats {
	stats := &PostTypeStats{}
	var typed []domain.AnalyticsEntry
	for _, e := range entries {
		if e.PostType == pt {
			typed = append(typed, e)
		}
	}
	stats.PostCount = len(typed)
	for _, e := range typed {
		stats.Totals.Add(e)
	}
	stats.Sources = buildSources(typed)
	stats.AvgReachFollowerRate = avgFollowerRate(typed, func(e domain.AnalyticsEntry) int64 { return e.Reach })
	stats.AvgInteractionFollowerRate = avgFollowerRate(typed, domain.AnalyticsEntry.Engagement)
	stats.Audience = buildAudience(typed)

	if pt == domain.PostReel {
		stats.AvgPlayTimeSeconds = avgOptional(typed, func(e domain.AnalyticsEntry) *float64 { return e.AvgPlayTimeSeconds })
		stats.AvgSkipRate = avgOptional(typed, func(e domain.AnalyticsEntry) *float64 { return e.SkipRate })
	}
	return stats
}

// avgFollowerRate averages metric/followers*100 over posts with a known
// positive follower count.
func avgFollowerRate(entries []domain.AnalyticsEntry, metric func(domain.AnalyticsEntry) int64) *float64 {
	var sum float64
	n := 0
	for _, e := range entries {
		if e.FollowerCount == nil || *e.FollowerCount <= 0 {
			continue
		}
		sum += float64(metric(e)) / float64(*e.FollowerCount) * 100
		n++
	}
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

func avgOptional(entries []domain.AnalyticsEntry, field func(domain.AnalyticsEntry) *float64) *float64 {
	var sum float64
	n := 0
	for _, e := range entries {
		if v := field(e); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

// buildAudience averages the per-post audience splits weighted by reach
// (population-weighted). When every reporting post has zero reach, posts
// weigh equally instead.
func buildAudience(entries []domain.AnalyticsEntry) *domain.AudienceSplit {
	var reporting []domain.AnalyticsEntry
	var totalWeight float64
	for _, e := range entries {
		if e.Audience != nil {
			reporting = append(reporting, e)
			totalWeight += float64(e.Reach)
		}
	}
	if len(reporting) == 0 {
		return nil
	}

	weightOf := func(e domain.AnalyticsEntry) float64 {
		if totalWeight <= 0 {
			return 1 / float64(len(reporting))
		}
		return float64(e.Reach) / totalWeight
	}

	out := &domain.AudienceSplit{
		Gender: map[string]float64{},
		Age:    map[string]float64{},
	}
	for _, e := range reporting {
		w := weightOf(e)
		for k, v := range e.Audience.Gender {
			out.Gender[k] += v * w
		}
		for k, v := range e.Audience.Age {
			out.Age[k] += v * w
		}
	}
	return out
}

func buildHashtags(entries []domain.AnalyticsEntry) []HashtagCount {
	counts := map[string]int{}
	for _, e := range entries {
		for _, tag := range e.Hashtags {
			tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
			if tag == "" {
				continue
			}
			counts[tag]++
		}
	}
	out := make([]HashtagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, HashtagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

func buildDaily(entries []domain.AnalyticsEntry, loc *time.Location) []DailyPoint {
	byDay := map[string]*DailyPoint{}
	for _, e := range entries {
		day := e.PublishedAt.In(loc).Format("2006-01-02")
		p, ok := byDay[day]
		if !ok {
			p = &DailyPoint{Date: day}
			byDay[day] = p
		}
		p.PostCount++
		p.Likes += e.Likes
		p.Comments += e.Comments
		p.Shares += e.Shares
		p.Saves += e.Saves
		p.Reach += e.Reach
		p.FollowerIncrease += e.FollowerIncrease
	}
	out := make([]DailyPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
