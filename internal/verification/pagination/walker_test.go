package pagination

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xverify/internal/xapi"
)

// pagedSource serves pages of ints and records the tokens requested.
type pagedSource struct {
	pages    [][]int
	requests []string
	failAt   int
	err      error
}

func (p *pagedSource) fetch(_ context.Context, token string) (xapi.Page[int], error) {
	p.requests = append(p.requests, token)
	idx := 0
	if token != "" {
		idx, _ = strconv.Atoi(token)
	}
	if p.err != nil && idx == p.failAt {
		return xapi.Page[int]{}, p.err
	}
	page := xapi.Page[int]{Items: p.pages[idx]}
	if idx+1 < len(p.pages) {
		page.NextToken = strconv.Itoa(idx + 1)
	}
	return page, nil
}

func equals(v int) func(int) bool {
	return func(x int) bool { return x == v }
}

func TestWalkStopsOnPageWithMatch(t *testing.T) {
	for k := 0; k < 4; k++ {
		t.Run("match on page "+strconv.Itoa(k+1), func(t *testing.T) {
			src := &pagedSource{pages: [][]int{{1, 2}, {3, 4}, {5, 6}, {7, 8}}}

			stats, found, err := Walk(context.Background(), New(10), src.fetch, equals(2*k+2))

			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, k+1, stats.PagesFetched)
			assert.Len(t, src.requests, k+1, "page k+1 must not be requested")
		})
	}
}

func TestWalkExhaustsWithoutMatch(t *testing.T) {
	src := &pagedSource{pages: [][]int{{1}, {2}, {3}}}

	stats, found, err := Walk(context.Background(), New(10), src.fetch, equals(99))

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 3, stats.PagesFetched)
	assert.Equal(t, 3, stats.ItemsSeen)
	assert.False(t, stats.Truncated)
}

func TestWalkEmptyFirstPage(t *testing.T) {
	src := &pagedSource{pages: [][]int{{}}}

	stats, found, err := Walk(context.Background(), New(10), src.fetch, equals(1))

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, stats.PagesFetched)
}

func TestWalkHonoursPageBound(t *testing.T) {
	pages := make([][]int, 20)
	for i := range pages {
		pages[i] = []int{i}
	}
	src := &pagedSource{pages: pages}

	stats, found, err := Walk(context.Background(), New(5), src.fetch, equals(99))

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 5, stats.PagesFetched)
	assert.True(t, stats.Truncated)
	assert.Len(t, src.requests, 5)
}

func TestWalkMatchOnLastAllowedPageIsNotTruncated(t *testing.T) {
	src := &pagedSource{pages: [][]int{{1}, {2}, {3}}}

	stats, found, err := Walk(context.Background(), New(2), src.fetch, equals(2))

	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, stats.Truncated)
}

func TestWalkPropagatesFetchError(t *testing.T) {
	boom := errors.New("boom")
	src := &pagedSource{pages: [][]int{{1}, {2}, {3}}, failAt: 1, err: boom}

	stats, found, err := Walk(context.Background(), New(10), src.fetch, equals(3))

	assert.ErrorIs(t, err, boom)
	assert.False(t, found)
	assert.Equal(t, 1, stats.PagesFetched)
}

func TestWalkRepeatedTokenIsIncomplete(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, token string) (xapi.Page[int], error) {
		calls++
		return xapi.Page[int]{Items: []int{calls}, NextToken: "same"}, nil
	}

	stats, found, err := Walk(context.Background(), New(50), fetch, equals(99))

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 2, stats.PagesFetched)
	assert.False(t, stats.Truncated)
	assert.True(t, stats.Looped)
	assert.True(t, stats.Incomplete())
}

func TestWalkStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(_ context.Context, token string) (xapi.Page[int], error) {
		cancel()
		return xapi.Page[int]{Items: []int{1}, NextToken: "next"}, nil
	}

	stats, found, err := Walk(ctx, New(50), fetch, equals(99))

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, found)
	assert.Equal(t, 1, stats.PagesFetched)
}

func TestNewDefaultsPageBound(t *testing.T) {
	assert.Equal(t, DefaultMaxPages, New(0).MaxPages)
	assert.Equal(t, 7, New(7).MaxPages)
}
