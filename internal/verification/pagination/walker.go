// Package pagination walks cursor-paginated listings looking for a match,
// with a hard page bound.
package pagination

import (
	"context"

	"xverify/internal/xapi"
)

// DefaultMaxPages bounds a single walk.
const DefaultMaxPages = 50

// Walker holds the walk bounds.
type Walker struct {
	MaxPages int
}

// New returns a Walker. maxPages <= 0 selects DefaultMaxPages.
func New(maxPages int) Walker {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return Walker{MaxPages: maxPages}
}

// Stats describes the work a walk performed.
type Stats struct {
	PagesFetched int
	ItemsSeen    int
	// Truncated is set when the page bound stopped the walk before the
	// listing was exhausted.
	Truncated bool
	// Looped is set when the API handed back a continuation token it had
	// already issued. The listing was not fully inspected.
	Looped bool
}

// Incomplete reports whether the walk ended without inspecting the whole listing.
func (s Stats) Incomplete() bool {
	return s.Truncated || s.Looped
}

// FetchFunc fetches the page identified by token ("" for the first page).
type FetchFunc[T any] func(ctx context.Context, token string) (xapi.Page[T], error)

// Walk fetches pages sequentially until match returns true, the listing is
// exhausted or MaxPages pages were fetched. A fetch error aborts the walk and
// is returned with the stats so far. A continuation token seen before ends the
// walk with Looped set.
func Walk[T any](ctx context.Context, w Walker, fetch FetchFunc[T], match func(T) bool) (Stats, bool, error) {
	maxPages := w.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var stats Stats
	seen := make(map[string]struct{})
	token := ""

	for {
		if err := ctx.Err(); err != nil {
			return stats, false, err
		}

		page, err := fetch(ctx, token)
		if err != nil {
			return stats, false, err
		}
		stats.PagesFetched++
		stats.ItemsSeen += len(page.Items)

		for _, item := range page.Items {
			if match(item) {
				return stats, true, nil
			}
		}

		if page.NextToken == "" {
			return stats, false, nil
		}
		if _, loop := seen[page.NextToken]; loop || page.NextToken == token {
			stats.Looped = true
			return stats, false, nil
		}
		if stats.PagesFetched >= maxPages {
			stats.Truncated = true
			return stats, false, nil
		}
		seen[page.NextToken] = struct{}{}
		token = page.NextToken
	}
}
