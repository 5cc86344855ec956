package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kairos-gateway/internal/kv"
)

// RecentItem is one entry of a user's recent items list.
type RecentItem struct {
	Doctype   string    `json:"doctype"`
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recent keeps a capped, newest-first list per user in a kv.Store.
// Adding an item already present moves it to the front.
type Recent struct {
	store kv.Store
	max   int
	now   func() time.Time
}

func NewRecent(store kv.Store, max int) *Recent {
	if max <= 0 {
		max = 10
	}
	return &Recent{store: store, max: max, now: time.Now}
}

func recentKey(user string) string { return "recent:" + user }

func (r *Recent) List(ctx context.Context, user string) ([]RecentItem, error) {
	raw, err := r.store.Get(ctx, recentKey(user))
	if errors.Is(err, kv.ErrNotFound) {
		return []RecentItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load recent items: %w", err)
	}
	var items []RecentItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// Unreadable lists are replaced on the next Add.
		return []RecentItem{}, nil
	}
	return items, nil
}

// Add records item as the most recent and returns the updated list. The
// item is stamped with the current time; any timestamp it carries is ignored.
func (r *Recent) Add(ctx context.Context, user string, item RecentItem) ([]RecentItem, error) {
	if item.Doctype == "" || item.Name == "" {
		return nil, fmt.Errorf("recent item needs doctype and name")
	}
	items, err := r.List(ctx, user)
	if err != nil {
		return nil, err
	}
	item.Timestamp = r.now()

	out := make([]RecentItem, 0, r.max)
	out = append(out, item)
	for _, it := range items {
		if it.Doctype == item.Doctype && it.Name == item.Name {
			continue
		}
		if len(out) == r.max {
			break
		}
		out = append(out, it)
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode recent items: %w", err)
	}
	if err := r.store.Set(ctx, recentKey(user), string(b)); err != nil {
		return nil, fmt.Errorf("save recent items: %w", err)
	}
	return out, nil
}

func (r *Recent) Clear(ctx context.Context, user string) error {
	return r.store.Remove(ctx, recentKey(user))
}
