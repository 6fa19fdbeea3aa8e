// Package model holds the data structures exchanged with the MIRA admin API
// and the enums derived from them at the API boundary.
package model

import (
	"strings"
	"time"
)

// Role is an administrator access level.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// ParseRole normalizes the role string the server returns. Older backends omit
// the field entirely; in that case the username is consulted as a fallback
// (accounts containing "super" are treated as super admins).
func ParseRole(raw, username string) Role {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_")) {
	case "SUPER_ADMIN", "SUPERADMIN":
		return RoleSuperAdmin
	case "ADMIN":
		return RoleAdmin
	}
	if strings.Contains(strings.ToLower(username), "super") {
		return RoleSuperAdmin
	}
	return RoleAdmin
}

// IsSuper reports whether the role carries super-admin privileges.
func (r Role) IsSuper() bool { return r == RoleSuperAdmin }

// Tier is a subscription tier classified from the free-form status string the
// server stores. Classification happens once, here, instead of substring
// checks scattered through the views.
type Tier string

const (
	TierReguler Tier = "REGULER"
	TierPlus    Tier = "PLUS"
	TierPremium Tier = "PREMIUM"
)

var tierByStatus = map[string]Tier{
	"reguler":         TierReguler,
	"free":            TierReguler,
	"monthly plus":    TierPlus,
	"plus":            TierPlus,
	"monthly premium": TierPremium,
	"yearly premium":  TierPremium,
	"premium":         TierPremium,
}

// ParseTier maps a server status string to a Tier. Unknown or empty statuses
// are Reguler, matching how the dashboard always rendered them.
func ParseTier(status string) Tier {
	s := strings.ToLower(strings.TrimSpace(status))
	if t, ok := tierByStatus[s]; ok {
		return t
	}
	if strings.Contains(s, "premium") {
		return TierPremium
	}
	if strings.Contains(s, "plus") {
		return TierPlus
	}
	return TierReguler
}

// PlanOptions are the subscription plans an operator may assign to a user.
var PlanOptions = []string{"Reguler", "Monthly Plus", "Monthly Premium", "Yearly Premium"}

// ValidPlan reports whether plan is one of PlanOptions.
func ValidPlan(plan string) bool {
	for _, p := range PlanOptions {
		if p == plan {
			return true
		}
	}
	return false
}

// Session is the authenticated operator state.
type Session struct {
	Token       string
	Role        Role
	DisplayName string
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool { return s.Token != "" }

// Author is the embedded profile the API attaches to user-generated content.
type Author struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// User is a platform end user.
type User struct {
	ID        string     `json:"id"`
	FullName  string     `json:"full_name"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	AvatarURL string     `json:"avatar_url"`
	Status    string     `json:"status"`
	Level     *UserLevel `json:"level"`
	CreatedAt time.Time  `json:"created_at"`
}

// UserLevel is the nested subscription-state object on a user record.
type UserLevel struct {
	Status string `json:"status"`
}

// DisplayName prefers the full name, falling back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return "User"
}

// Tier classifies the user's subscription status.
func (u User) Tier() Tier { return ParseTier(u.Status) }

// Admin is a dashboard administrator account.
type Admin struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a community comment nested under its post in API responses.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"author"`
}

// Post is a community post with its comments attached.
type Post struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"image_url"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"author"`
	Comments  []Comment `json:"comments"`
}

// FeedItemType tags a flattened feed entry.
type FeedItemType string

const (
	FeedPost    FeedItemType = "Post"
	FeedComment FeedItemType = "Comment"
)

// FeedItem is a normalized post or comment used for unified chronological
// display. UniqueKey is "post-<id>" or "comment-<id>" and never collides
// across the two types.
type FeedItem struct {
	ID                string
	UniqueKey         string
	Type              FeedItemType
	Author            Author
	Content           string
	ImageURL          *string
	CreatedAt         time.Time
	CommentCount      int
	ParentPostContent string
}

// ReportedContent is the content a report points at. The pointer on Report is
// nil when the content was already removed server-side.
type ReportedContent struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url"`
	Author   Author  `json:"author"`
}

// Report is a pending community content report.
type Report struct {
	ID        string           `json:"id"`
	Reason    string           `json:"reason"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UserID    string           `json:"user_id"`
	Reporter  Author           `json:"reporter"`
	PostID    string           `json:"post_id"`
	Post      *ReportedContent `json:"post"`
}

// ContentID returns the reported content's id, preferring the denormalized
// post_id field over the embedded record.
func (r Report) ContentID() string {
	if r.PostID != "" {
		return r.PostID
	}
	if r.Post != nil {
		return r.Post.ID
	}
	return ""
}

// SubscriptionRequest is a pending plan-upgrade request. Only pending requests
// are ever returned by the API.
type SubscriptionRequest struct {
	ID            string    `json:"id"`
	RequestedPlan string    `json:"requested_plan"`
	CreatedAt     time.Time `json:"created_at"`
	UserID        string    `json:"user_id"`
	Requester     Author    `json:"profiles"`
}

// FeatureLog is one raw feature-usage event.
type FeatureLog struct {
	ID          int64     `json:"id"`
	FeatureName string    `json:"feature_name"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      string    `json:"user_id"`
}

// FeatureSummary is the aggregated usage of one feature.
type FeatureSummary struct {
	FeatureName string
	UsageCount  int
	LastUsedAt  time.Time
}
