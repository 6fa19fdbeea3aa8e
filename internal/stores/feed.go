package stores

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mira-platform/miractl/internal/aggregate"
	"github.com/mira-platform/miractl/internal/api"
	"github.com/mira-platform/miractl/internal/model"
	"github.com/mira-platform/miractl/internal/view"
)

// Feed manages the unified community feed of posts and comments.
type Feed struct {
	deps     Deps
	view     view.State
	inflight *view.Inflight

	mu    sync.RWMutex
	items []model.FeedItem
}

func NewFeed(d Deps) *Feed {
	return &Feed{deps: d, inflight: view.NewInflight()}
}

func (s *Feed) View() *view.State { return &s.view }

func (s *Feed) Items() []model.FeedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FeedItem, len(s.items))
	copy(out, s.items)
	return out
}

// Filter applies the search query and type filter to the local feed.
func (s *Feed) Filter(query string, filter aggregate.FeedTypeFilter) []model.FeedItem {
	return aggregate.FilterFeed(s.Items(), query, filter)
}

// List fetches posts with nested comments and flattens them into the unified
// chronological feed.
func (s *Feed) List(ctx context.Context) error {
	if !s.view.Begin() {
		return ErrBusy
	}
	posts, err := s.deps.Client.ListPosts(ctx)
	if err != nil {
		s.view.Fail(api.UserMessage(err))
		return s.deps.fail(err)
	}
	s.mu.Lock()
	s.items = aggregate.FlattenFeed(posts)
	s.mu.Unlock()
	s.view.Succeed("")
	return nil
}

// DeleteItem removes a feed entry, dispatching on its type. Deleting a post
// also takes its comments down server-side, so the whole feed re-syncs;
// deleting a comment removes just that entry locally.
func (s *Feed) DeleteItem(ctx context.Context, item model.FeedItem) error {
	if !s.inflight.Begin(item.UniqueKey) {
		return ErrBusy
	}
	defer s.inflight.End(item.UniqueKey)

	var err error
	switch item.Type {
	case model.FeedPost:
		err = s.deps.Client.DeletePost(ctx, item.ID)
	case model.FeedComment:
		err = s.deps.Client.DeleteComment(ctx, item.ID)
	default:
		return fmt.Errorf("unknown feed item type %q", item.Type)
	}
	s.deps.record(ctx, "delete_"+strings.ToLower(string(item.Type)), item.ID, err)
	if err != nil {
		return s.deps.fail(err)
	}

	if item.Type == model.FeedPost {
		s.view.Reset()
		return s.List(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.UniqueKey == item.UniqueKey {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}
