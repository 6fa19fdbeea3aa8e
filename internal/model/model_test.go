package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	cases := []struct {
		status string
		want   Tier
	}{
		{"Reguler", TierReguler},
		{"free", TierReguler},
		{"", TierReguler},
		{"something else", TierReguler},
		{"Monthly Plus", TierPlus},
		{"plus", TierPlus},
		{"Monthly Premium", TierPremium},
		{"Yearly Premium", TierPremium},
		{"PREMIUM", TierPremium},
		{"trial premium offer", TierPremium},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseTier(tc.status), "status %q", tc.status)
	}
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleSuperAdmin, ParseRole("SUPER_ADMIN", ""))
	assert.Equal(t, RoleSuperAdmin, ParseRole("Super Admin", ""))
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN", ""))
	assert.Equal(t, RoleAdmin, ParseRole("", "budi"))

	// Legacy backends omit the role field; the username fallback kicks in.
	assert.Equal(t, RoleSuperAdmin, ParseRole("", "superadmin-hq"))
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Budi Santoso", User{FullName: "Budi Santoso", Username: "budi"}.DisplayName())
	assert.Equal(t, "budi", User{Username: "budi"}.DisplayName())
	assert.Equal(t, "User", User{}.DisplayName())
}

func TestReportContentID(t *testing.T) {
	assert.Equal(t, "p1", Report{PostID: "p1"}.ContentID())
	assert.Equal(t, "p2", Report{Post: &ReportedContent{ID: "p2"}}.ContentID())
	assert.Equal(t, "", Report{}.ContentID())
}

func TestValidPlan(t *testing.T) {
	assert.True(t, ValidPlan("Monthly Plus"))
	assert.False(t, ValidPlan("Weekly Gold"))
}
