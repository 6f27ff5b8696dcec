package chatmem

import "time"

// RecencyGroups partitions a listing into four disjoint buckets by how
// recently each conversation was active. Each bucket preserves the
// descending-recency order established by the listing.
type RecencyGroups struct {
	// Today holds conversations updated since the start of the current
	// calendar day.
	Today []ConversationSummary `json:"today"`

	// Yesterday holds conversations updated during the previous
	// calendar day.
	Yesterday []ConversationSummary `json:"yesterday"`

	// LastWeek holds conversations updated within the seven days before
	// yesterday's start.
	LastWeek []ConversationSummary `json:"lastWeek"`

	// Older holds everything else.
	Older []ConversationSummary `json:"older"`
}

// GroupByRecency buckets summaries by their UpdatedAt relative to now.
// Pure function: "now" moves, so callers must recompute on every listing
// request rather than cache the result.
func GroupByRecency(summaries []ConversationSummary, now time.Time) RecencyGroups {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	var groups RecencyGroups
	for _, s := range summaries {
		switch {
		case !s.UpdatedAt.Before(todayStart):
			groups.Today = append(groups.Today, s)
		case !s.UpdatedAt.Before(yesterdayStart):
			groups.Yesterday = append(groups.Yesterday, s)
		case !s.UpdatedAt.Before(weekStart):
			groups.LastWeek = append(groups.LastWeek, s)
		default:
			groups.Older = append(groups.Older, s)
		}
	}
	return groups
}
