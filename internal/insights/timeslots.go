package insights

import (
	"fmt"
	"time"

	"github.com/lumera/insight-engine/internal/domain"
)

// slotDefs are the six fixed 3-hour posting-time buckets. They span the
// active posting day 06:00-24:00 in the user's timezone; posts published
// between midnight and 06:00 carry no slot recommendation value and are
// left out of the slot breakdown.
var slotDefs = [...]struct{ start, end int }{
	{6, 9}, {9, 12}, {12, 15}, {15, 18}, {18, 21}, {21, 24},
}

func slotIndex(hour int) int {
	for i, s := range slotDefs {
		if hour >= s.start && hour < s.end {
			return i
		}
	}
	return -1
}

// buildTimeSlots buckets entries by publish hour and computes post counts
// and average engagement per bucket, split further by feed vs reel.
func buildTimeSlots(entries []domain.AnalyticsEntry, loc *time.Location) []TimeSlotStat {
	slots := make([]TimeSlotStat, len(slotDefs))
	feedEng := make([]int64, len(slotDefs))
	reelEng := make([]int64, len(slotDefs))

	for i, def := range slotDefs {
		slots[i] = TimeSlotStat{
			Slot:      fmt.Sprintf("%d-%d", def.start, def.end),
			StartHour: def.start,
			EndHour:   def.end,
		}
	}

	for _, e := range entries {
		idx := slotIndex(e.PublishedAt.In(loc).Hour())
		if idx < 0 {
			continue
		}
		s := &slots[idx]
		s.PostCount++
		s.Engagement += e.Engagement()
		s.Reach += e.Reach
		switch e.PostType {
		case domain.PostFeed:
			s.Feed.PostCount++
			feedEng[idx] += e.Engagement()
		case domain.PostReel:
			s.Reel.PostCount++
			reelEng[idx] += e.Engagement()
		}
	}

	for i := range slots {
		s := &slots[i]
		s.AvgEngagement = avgOver(s.Engagement, s.PostCount)
		s.Feed.AvgEngagement = avgOver(feedEng[i], s.Feed.PostCount)
		s.Reel.AvgEngagement = avgOver(reelEng[i], s.Reel.PostCount)
	}
	return slots
}

func avgOver(total int64, count int) *float64 {
	if count == 0 {
		return nil
	}
	v := float64(total) / float64(count)
	return &v
}

// BestPostingSlot returns the slot with the highest average engagement rate
// ((likes+comments+shares+saves)/reach*100) among slots with at least one
// qualifying post, or nil when none qualify.
func BestPostingSlot(slots []TimeSlotStat) *TimeSlotStat {
	var best *TimeSlotStat
	var bestRate float64
	for i := range slots {
		s := &slots[i]
		if s.PostCount == 0 {
			continue
		}
		rate := s.EngagementRate()
		if rate == nil {
			continue
		}
		if best == nil || *rate > bestRate {
			best = s
			bestRate = *rate
		}
	}
	return best
}
