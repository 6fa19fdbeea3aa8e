package stores

import (
	"context"
	"errors"
	"sync"

	"github.com/mira-platform/miractl/internal/aggregate"
	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/model"
)

// Overview is the bootstrap summary shown on entry.
type Overview struct {
	Username      string
	TotalUsers    int
	PremiumUsers  int
	PremiumShare  float64
	TopFeature    string
	TopFeatureN   int
	TotalHits     int
	PendingBadge  bool
	UsersError    string
	FeaturesError string
}

// Dashboard performs the entry bootstrap: profile, users, and feature usage
// fetched concurrently.
type Dashboard struct {
	deps     Deps
	users    *Users
	features *Features
}

func NewDashboard(d Deps, users *Users, features *Features) *Dashboard {
	return &Dashboard{deps: d, users: users, features: features}
}

// Load fans out the three bootstrap fetches and assembles the overview.
// Branch failures degrade their own numbers and nothing else; the one hard
// abort is a 401 on the profile branch, which tears the session down and
// returns the error.
func (s *Dashboard) Load(ctx context.Context) (Overview, error) {
	var (
		wg          sync.WaitGroup
		username    string
		profileErr  error
		usersErr    error
		featuresErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		username, profileErr = s.deps.Client.Whoami(ctx)
	}()
	go func() {
		defer wg.Done()
		usersErr = s.users.List(ctx)
	}()
	go func() {
		defer wg.Done()
		featuresErr = s.features.List(ctx)
	}()
	wg.Wait()

	if profileErr != nil {
		if errors.Is(profileErr, api.ErrUnauthorized) {
			s.deps.fail(profileErr)
			return Overview{}, profileErr
		}
		s.deps.Log.Warn().Err(profileErr).Msg("profile fetch failed")
		username = s.deps.Session.Current().DisplayName
	}

	ov := Overview{Username: username}

	if usersErr != nil {
		ov.UsersError = api.UserMessage(usersErr)
	} else {
		users := s.users.Items()
		ov.TotalUsers = len(users)
		for _, u := range users {
			if u.Tier() == model.TierPremium {
				ov.PremiumUsers++
			}
		}
		if ov.TotalUsers > 0 {
			ov.PremiumShare = float64(ov.PremiumUsers) / float64(ov.TotalUsers)
		}
		ov.PendingBadge = aggregate.HasPendingSubscription(users)
	}

	if featuresErr != nil {
		ov.FeaturesError = api.UserMessage(featuresErr)
	} else {
		ov.TotalHits = s.features.TotalHits()
		if top, ok := s.features.Top(); ok {
			ov.TopFeature = aggregate.FormatFeatureName(top.FeatureName)
			ov.TopFeatureN = top.UsageCount
		}
	}

	return ov, nil
}
