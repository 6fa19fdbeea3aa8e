// Package aggregate contains the pure transformations that turn raw API
// payloads into render-ready views: feature-usage ranking, feed flattening,
// pending-request detection, and the in-memory list filters.
package aggregate

import (
	"sort"
	"strings"

	"github.com/mira-platform/miractl/internal/model"
)

// SummarizeFeatureUsage groups raw usage logs by feature name, counting hits
// and tracking the most recent use. The result is sorted by usage count
// descending; equal counts break on most recent LastUsedAt, then feature name,
// so the ranking is deterministic for any input order. Logs with an empty
// feature name are skipped.
func SummarizeFeatureUsage(logs []model.FeatureLog) []model.FeatureSummary {
	byName := make(map[string]*model.FeatureSummary)
	order := make([]string, 0, len(logs))

	for _, log := range logs {
		if log.FeatureName == "" {
			continue
		}
		s, ok := byName[log.FeatureName]
		if !ok {
			s = &model.FeatureSummary{FeatureName: log.FeatureName, LastUsedAt: log.CreatedAt}
			byName[log.FeatureName] = s
			order = append(order, log.FeatureName)
		}
		s.UsageCount++
		if log.CreatedAt.After(s.LastUsedAt) {
			s.LastUsedAt = log.CreatedAt
		}
	}

	out := make([]model.FeatureSummary, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		if !out[i].LastUsedAt.Equal(out[j].LastUsedAt) {
			return out[i].LastUsedAt.After(out[j].LastUsedAt)
		}
		return out[i].FeatureName < out[j].FeatureName
	})
	return out
}

// TopFeature returns the highest-ranked summary, if any.
func TopFeature(summaries []model.FeatureSummary) (model.FeatureSummary, bool) {
	if len(summaries) == 0 {
		return model.FeatureSummary{}, false
	}
	return summaries[0], true
}

// TotalHits is the number of raw log entries behind a summary set.
func TotalHits(summaries []model.FeatureSummary) int {
	total := 0
	for _, s := range summaries {
		total += s.UsageCount
	}
	return total
}

// AverageHits is the mean hits per feature, rounded to the nearest integer.
func AverageHits(summaries []model.FeatureSummary) int {
	if len(summaries) == 0 {
		return 0
	}
	return (TotalHits(summaries) + len(summaries)/2) / len(summaries)
}

// UsageShare returns count as a percentage of the top feature's count.
func UsageShare(summaries []model.FeatureSummary, count int) float64 {
	if len(summaries) == 0 || summaries[0].UsageCount == 0 {
		return 0
	}
	return float64(count) / float64(summaries[0].UsageCount) * 100
}

// FormatFeatureName turns a raw feature key like "second_brain" into
// "Second Brain". Tokens split on underscores and spaces; capitalization is
// ASCII-only. An empty name formats as "Unknown Feature".
func FormatFeatureName(raw string) string {
	if raw == "" {
		return "Unknown Feature"
	}
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '_' || r == ' '
	})
	for i, w := range words {
		if w[0] >= 'a' && w[0] <= 'z' {
			words[i] = string(w[0]-'a'+'A') + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// FlattenFeed turns the nested post-with-comments payload into one flat list:
// a Post item per post followed by a Comment item per attached comment, then
// the whole set sorted by creation time descending. The sort is stable, so
// items sharing a timestamp keep their emission order.
func FlattenFeed(posts []model.Post) []model.FeedItem {
	var items []model.FeedItem
	for _, post := range posts {
		items = append(items, model.FeedItem{
			ID:           post.ID,
			UniqueKey:    "post-" + post.ID,
			Type:         model.FeedPost,
			Author:       post.Author,
			Content:      post.Content,
			ImageURL:     post.ImageURL,
			CreatedAt:    post.CreatedAt,
			CommentCount: len(post.Comments),
		})
		for _, c := range post.Comments {
			items = append(items, model.FeedItem{
				ID:                c.ID,
				UniqueKey:         "comment-" + c.ID,
				Type:              model.FeedComment,
				Author:            c.Author,
				Content:           c.Content,
				CreatedAt:         c.CreatedAt,
				ParentPostContent: post.Content,
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

// HasPendingSubscription reports whether any user has an unresolved
// plan-upgrade request. It drives the notification badge only.
func HasPendingSubscription(users []model.User) bool {
	for _, u := range users {
		if u.Level == nil {
			continue
		}
		if u.Level.Status == "requested" || u.Level.Status == "pending_approval" {
			return true
		}
	}
	return false
}

// FeedTypeFilter selects which feed item types a filter keeps.
type FeedTypeFilter string

const (
	FeedFilterAll      FeedTypeFilter = "ALL"
	FeedFilterPosts    FeedTypeFilter = "POST"
	FeedFilterComments FeedTypeFilter = "COMMENT"
)

// FilterFeed keeps items whose content or author name contains query
// (case-insensitive) and whose type matches the filter.
func FilterFeed(items []model.FeedItem, query string, filter FeedTypeFilter) []model.FeedItem {
	q := strings.ToLower(query)
	out := make([]model.FeedItem, 0, len(items))
	for _, it := range items {
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Content), q) &&
			!strings.Contains(strings.ToLower(it.Author.FullName), q) {
			continue
		}
		switch filter {
		case FeedFilterPosts:
			if it.Type != model.FeedPost {
				continue
			}
		case FeedFilterComments:
			if it.Type != model.FeedComment {
				continue
			}
		}
		out = append(out, it)
	}
	return out
}

// FilterReports keeps reports matching query against the reporter name, the
// reported content, or the content's author. Reports whose content is already
// gone still match on the reporter.
func FilterReports(reports []model.Report, query string) []model.Report {
	q := strings.ToLower(query)
	if q == "" {
		return reports
	}
	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if strings.Contains(strings.ToLower(r.Reporter.FullName), q) {
			out = append(out, r)
			continue
		}
		if r.Post != nil &&
			(strings.Contains(strings.ToLower(r.Post.Content), q) ||
				strings.Contains(strings.ToLower(r.Post.Author.FullName), q)) {
			out = append(out, r)
		}
	}
	return out
}

// TierFilter narrows a user listing by subscription tier.
type TierFilter string

const (
	TierFilterAll     TierFilter = "ALL"
	TierFilterPremium TierFilter = "PREMIUM" // premium or plus
	TierFilterReguler TierFilter = "REGULER"
)

// FilterUsers keeps users matching query against name or email and the tier
// filter against the classified subscription status.
func FilterUsers(users []model.User, query string, filter TierFilter) []model.User {
	q := strings.ToLower(query)
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if q != "" &&
			!strings.Contains(strings.ToLower(u.DisplayName()), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		tier := u.Tier()
		switch filter {
		case TierFilterPremium:
			if tier == model.TierReguler {
				continue
			}
		case TierFilterReguler:
			if tier != model.TierReguler {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}
