package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hemisphere-labs/engine/internal/store"
)

// contentCacheTTL bounds how stale a cached content row may be. Content
// items are read-only in practice, so a short TTL only guards against an
// item being deactivated and is not a freshness requirement.
const contentCacheTTL = 10 * time.Minute

func contentCacheKey(id string) string { return "content:" + id }

// loadContent resolves ids through s.cache first, fetching only the misses
// from the repository and populating the cache for next time.
func (s *Service) loadContent(ctx context.Context, ids []string) ([]store.ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]store.ContentItem, 0, len(ids))
	var missing []string
	seen := make(map[string]bool, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		raw, ok, err := s.cache.Get(ctx, contentCacheKey(id))
		if err != nil || !ok {
			missing = append(missing, id)
			continue
		}
		var item store.ContentItem
		if err := json.Unmarshal(raw, &item); err != nil {
			missing = append(missing, id)
			continue
		}
		out = append(out, item)
	}

	if len(missing) > 0 {
		fetched, err := s.repo.ListContentByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, item := range fetched {
			out = append(out, item)
			if raw, err := json.Marshal(item); err == nil {
				_ = s.cache.Set(ctx, contentCacheKey(item.ID), raw, contentCacheTTL)
			}
		}
	}
	return out, nil
}
