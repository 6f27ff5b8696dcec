package chatmem

import (
	"testing"
	"time"
)

func summaryUpdatedAt(id string, updatedAt time.Time) ConversationSummary {
	return ConversationSummary{ID: id, Title: id, UpdatedAt: updatedAt}
}

func TestGroupByRecency(t *testing.T) {
	// Mid-afternoon so offsets below stay within the intended days.
	now := time.Date(2025, 5, 20, 15, 0, 0, 0, time.UTC)

	t.Run("buckets by calendar day", func(t *testing.T) {
		groups := GroupByRecency([]ConversationSummary{
			summaryUpdatedAt("a", now),
			summaryUpdatedAt("b", now.Add(-2*time.Hour)),
			summaryUpdatedAt("c", now.Add(-30*time.Hour)),
			summaryUpdatedAt("d", now.Add(-10*24*time.Hour)),
		}, now)

		if got := ids(groups.Today); !equal(got, []string{"a", "b"}) {
			t.Errorf("today = %v", got)
		}
		if got := ids(groups.Yesterday); !equal(got, []string{"c"}) {
			t.Errorf("yesterday = %v", got)
		}
		if len(groups.LastWeek) != 0 {
			t.Errorf("lastWeek = %v", ids(groups.LastWeek))
		}
		if got := ids(groups.Older); !equal(got, []string{"d"}) {
			t.Errorf("older = %v", got)
		}
	})

	t.Run("boundaries are start of day", func(t *testing.T) {
		todayStart := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

		groups := GroupByRecency([]ConversationSummary{
			summaryUpdatedAt("today-edge", todayStart),
			summaryUpdatedAt("yesterday-edge", todayStart.Add(-time.Nanosecond)),
			summaryUpdatedAt("week-edge", todayStart.AddDate(0, 0, -7)),
			summaryUpdatedAt("older-edge", todayStart.AddDate(0, 0, -7).Add(-time.Nanosecond)),
		}, now)

		if got := ids(groups.Today); !equal(got, []string{"today-edge"}) {
			t.Errorf("today = %v", got)
		}
		if got := ids(groups.Yesterday); !equal(got, []string{"yesterday-edge"}) {
			t.Errorf("yesterday = %v", got)
		}
		if got := ids(groups.LastWeek); !equal(got, []string{"week-edge"}) {
			t.Errorf("lastWeek = %v", got)
		}
		if got := ids(groups.Older); !equal(got, []string{"older-edge"}) {
			t.Errorf("older = %v", got)
		}
	})

	t.Run("preserves listing order within buckets", func(t *testing.T) {
		groups := GroupByRecency([]ConversationSummary{
			summaryUpdatedAt("newest", now),
			summaryUpdatedAt("newer", now.Add(-time.Hour)),
			summaryUpdatedAt("new", now.Add(-2*time.Hour)),
		}, now)

		if got := ids(groups.Today); !equal(got, []string{"newest", "newer", "new"}) {
			t.Errorf("order not preserved: %v", got)
		}
	})

	t.Run("empty input yields empty groups", func(t *testing.T) {
		groups := GroupByRecency(nil, now)
		if len(groups.Today)+len(groups.Yesterday)+len(groups.LastWeek)+len(groups.Older) != 0 {
			t.Errorf("expected empty groups, got %+v", groups)
		}
	})
}

func ids(summaries []ConversationSummary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
