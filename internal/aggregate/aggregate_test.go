package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mira-platform/miractl/internal/model"
)

func logAt(name string, t time.Time) model.FeatureLog {
	return model.FeatureLog{FeatureName: name, CreatedAt: t}
}

func TestSummarizeFeatureUsage(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	logs := []model.FeatureLog{
		logAt("chat", base),
		logAt("chat", base.Add(2*time.Hour)),
		logAt("notes", base.Add(time.Hour)),
	}

	got := SummarizeFeatureUsage(logs)
	require.Len(t, got, 2)
	assert.Equal(t, "chat", got[0].FeatureName)
	assert.Equal(t, 2, got[0].UsageCount)
	assert.Equal(t, base.Add(2*time.Hour), got[0].LastUsedAt)
	assert.Equal(t, "notes", got[1].FeatureName)
	assert.Equal(t, 1, got[1].UsageCount)

	assert.Equal(t, len(logs), TotalHits(got), "counts must sum to the raw log count")
}

func TestSummarizeFeatureUsageIdempotent(t *testing.T) {
	base := time.Now().UTC()
	logs := []model.FeatureLog{
		logAt("second_brain", base),
		logAt("chat", base.Add(time.Minute)),
		logAt("second_brain", base.Add(2*time.Minute)),
	}
	first := SummarizeFeatureUsage(logs)
	second := SummarizeFeatureUsage(logs)
	assert.Equal(t, first, second)
}

func TestSummarizeFeatureUsageTieBreak(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	logs := []model.FeatureLog{
		logAt("alpha", base),
		logAt("beta", base.Add(time.Hour)),
	}

	// Equal counts: the more recently used feature ranks first.
	got := SummarizeFeatureUsage(logs)
	require.Len(t, got, 2)
	assert.Equal(t, "beta", got[0].FeatureName)

	// Equal counts and timestamps: name ascending, regardless of input order.
	logs = []model.FeatureLog{logAt("zeta", base), logAt("alpha", base)}
	got = SummarizeFeatureUsage(logs)
	assert.Equal(t, "alpha", got[0].FeatureName)
}

func TestSummarizeFeatureUsageSkipsUnnamed(t *testing.T) {
	got := SummarizeFeatureUsage([]model.FeatureLog{{FeatureName: ""}, logAt("chat", time.Now())})
	require.Len(t, got, 1)
	assert.Equal(t, "chat", got[0].FeatureName)
}

func TestTopFeature(t *testing.T) {
	_, ok := TopFeature(nil)
	assert.False(t, ok)

	top, ok := TopFeature([]model.FeatureSummary{{FeatureName: "chat", UsageCount: 5}})
	assert.True(t, ok)
	assert.Equal(t, "chat", top.FeatureName)
}

func TestAverageHits(t *testing.T) {
	assert.Equal(t, 0, AverageHits(nil))
	summaries := []model.FeatureSummary{{UsageCount: 3}, {UsageCount: 2}}
	assert.Equal(t, 3, AverageHits(summaries)) // round(5/2)
}

func TestUsageShare(t *testing.T) {
	summaries := []model.FeatureSummary{{UsageCount: 4}, {UsageCount: 1}}
	assert.InDelta(t, 25.0, UsageShare(summaries, 1), 0.001)
	assert.InDelta(t, 0.0, UsageShare(nil, 1), 0.001)
}

func TestFormatFeatureName(t *testing.T) {
	cases := map[string]string{
		"second_brain":  "Second Brain",
		"chat":          "Chat",
		"deep work log": "Deep Work Log",
		"a_b c":         "A B C",
		"":              "Unknown Feature",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatFeatureName(in), "input %q", in)
	}
}

func strptr(s string) *string { return &s }

func samplePosts(base time.Time) []model.Post {
	return []model.Post{
		{
			ID:        "p1",
			Content:   "first post",
			ImageURL:  strptr("https://cdn.example/1.png"),
			CreatedAt: base,
			Author:    model.Author{FullName: "Ana"},
			Comments: []model.Comment{
				{ID: "c1", Content: "nice", CreatedAt: base.Add(2 * time.Hour), Author: model.Author{FullName: "Ben"}},
				{ID: "c2", Content: "agreed", CreatedAt: base.Add(time.Hour), Author: model.Author{FullName: "Cia"}},
			},
		},
		{
			ID:        "p2",
			Content:   "second post",
			CreatedAt: base.Add(3 * time.Hour),
			Author:    model.Author{FullName: "Dan"},
		},
	}
}

func TestFlattenFeed(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	posts := samplePosts(base)

	items := FlattenFeed(posts)
	require.Len(t, items, 4, "one item per post plus one per comment")

	// Sorted by created_at descending across the merged set.
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt),
			"items[%d] newer than items[%d]", i, i-1)
	}

	keys := make(map[string]bool)
	for _, it := range items {
		assert.False(t, keys[it.UniqueKey], "duplicate key %s", it.UniqueKey)
		keys[it.UniqueKey] = true

		if it.Type == model.FeedComment {
			assert.Equal(t, "first post", it.ParentPostContent)
		}
	}

	// Post items carry their comment counts.
	assert.True(t, keys["post-p1"])
	for _, it := range items {
		if it.UniqueKey == "post-p1" {
			assert.Equal(t, 2, it.CommentCount)
		}
	}
}

func TestFlattenFeedEmpty(t *testing.T) {
	assert.Empty(t, FlattenFeed(nil))
}

func TestHasPendingSubscription(t *testing.T) {
	users := []model.User{
		{ID: "1"},
		{ID: "2", Level: &model.UserLevel{Status: "active"}},
	}
	assert.False(t, HasPendingSubscription(users))

	users = append(users, model.User{ID: "3", Level: &model.UserLevel{Status: "requested"}})
	assert.True(t, HasPendingSubscription(users))

	assert.True(t, HasPendingSubscription([]model.User{
		{Level: &model.UserLevel{Status: "pending_approval"}},
	}))
}

func TestFilterFeed(t *testing.T) {
	items := FlattenFeed(samplePosts(time.Now()))

	assert.Len(t, FilterFeed(items, "", FeedFilterAll), 4)
	assert.Len(t, FilterFeed(items, "", FeedFilterPosts), 2)
	assert.Len(t, FilterFeed(items, "", FeedFilterComments), 2)
	assert.Len(t, FilterFeed(items, "ana", FeedFilterAll), 1)
	assert.Len(t, FilterFeed(items, "NICE", FeedFilterComments), 1)
	assert.Empty(t, FilterFeed(items, "missing", FeedFilterAll))
}

func TestFilterReports(t *testing.T) {
	reports := []model.Report{
		{ID: "r1", Reporter: model.Author{FullName: "Ana"}},
		{ID: "r2", Reporter: model.Author{FullName: "Ben"}, Post: &model.ReportedContent{
			Content: "spam offer", Author: model.Author{FullName: "Cia"},
		}},
	}

	assert.Len(t, FilterReports(reports, ""), 2)
	assert.Len(t, FilterReports(reports, "ana"), 1)
	assert.Len(t, FilterReports(reports, "spam"), 1)
	assert.Len(t, FilterReports(reports, "cia"), 1)
	// Deleted content still matches on the reporter, never panics on nil post.
	assert.Empty(t, FilterReports(reports, "ghost"))
}

func TestFilterUsers(t *testing.T) {
	users := []model.User{
		{ID: "1", FullName: "Ana", Email: "ana@mira.app", Status: "Monthly Premium"},
		{ID: "2", FullName: "Ben", Email: "ben@mira.app", Status: "Reguler"},
		{ID: "3", FullName: "Cia", Email: "cia@mira.app", Status: "Monthly Plus"},
	}

	assert.Len(t, FilterUsers(users, "", TierFilterAll), 3)
	assert.Len(t, FilterUsers(users, "", TierFilterPremium), 2)
	assert.Len(t, FilterUsers(users, "", TierFilterReguler), 1)
	assert.Len(t, FilterUsers(users, "ben@", TierFilterAll), 1)
	assert.Empty(t, FilterUsers(users, "ben", TierFilterPremium))
}
