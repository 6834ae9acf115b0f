// Package fake is an in-memory X platform implementing xapi.Client. It counts
// calls per operation and can inject failures, for tests and local demos.
package fake

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"xverify/internal/xapi"
)

// DefaultPageSize matches the smallest page the real API serves for the
// listings the checkers walk.
const DefaultPageSize = 100

// Platform is a goroutine-safe fake of the X API.
type Platform struct {
	mu         sync.Mutex
	pageSize   int
	delay      time.Duration
	users      map[string]xapi.User
	tweets     map[string]xapi.Tweet
	likers     map[string][]xapi.User
	retweeters map[string][]xapi.User
	followers  map[string][]xapi.User
	calls      map[string]int
	failures   map[string][]error
}

// Option configures a Platform.
type Option func(*Platform)

func WithPageSize(n int) Option {
	return func(p *Platform) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithDelay makes every call block for d or until its context ends.
func WithDelay(d time.Duration) Option {
	return func(p *Platform) {
		p.delay = d
	}
}

func New(opts ...Option) *Platform {
	p := &Platform{
		pageSize:   DefaultPageSize,
		users:      make(map[string]xapi.User),
		tweets:     make(map[string]xapi.Tweet),
		likers:     make(map[string][]xapi.User),
		retweeters: make(map[string][]xapi.User),
		followers:  make(map[string][]xapi.User),
		calls:      make(map[string]int),
		failures:   make(map[string][]error),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddUser registers a user and returns it.
func (p *Platform) AddUser(id, username string) xapi.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	u := xapi.User{ID: id, Username: username}
	p.users[strings.ToLower(username)] = u
	return u
}

func (p *Platform) AddTweet(t xapi.Tweet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t.ConversationID == "" {
		t.ConversationID = t.ID
		for _, ref := range t.ReferencedTweets {
			if ref.Type == xapi.ReferenceRepliedTo {
				if parent, ok := p.tweets[ref.ID]; ok {
					t.ConversationID = parent.ConversationID
				} else {
					t.ConversationID = ref.ID
				}
			}
		}
	}
	p.tweets[t.ID] = t
}

// AddReply posts a reply by author to parentID.
func (p *Platform) AddReply(id string, author xapi.User, parentID, text string) {
	p.AddTweet(xapi.Tweet{
		ID:               id,
		AuthorID:         author.ID,
		Text:             text,
		ReferencedTweets: []xapi.ReferencedTweet{{Type: xapi.ReferenceRepliedTo, ID: parentID}},
	})
}

func (p *Platform) AddLikes(tweetID string, users ...xapi.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.likers[tweetID] = append(p.likers[tweetID], users...)
}

func (p *Platform) AddRetweets(tweetID string, users ...xapi.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retweeters[tweetID] = append(p.retweeters[tweetID], users...)
}

// AddFollowers records that users follow userID.
func (p *Platform) AddFollowers(userID string, users ...xapi.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.followers[userID] = append(p.followers[userID], users...)
}

// FailNext queues err for the next call to op. Queued errors are consumed in order.
func (p *Platform) FailNext(op string, errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = append(p.failures[op], errs...)
}

// Calls returns how many times op was invoked.
func (p *Platform) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (p *Platform) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

// ResetCalls clears the call counters.
func (p *Platform) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = make(map[string]int)
}

func (p *Platform) LookupUserByHandle(ctx context.Context, handle string) (xapi.User, error) {
	if err := p.begin(ctx, xapi.OpLookupUser); err != nil {
		return xapi.User{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[strings.ToLower(strings.TrimPrefix(handle, "@"))]
	if !ok {
		return xapi.User{}, xapi.NewError(xapi.ErrorNotFound, xapi.OpLookupUser, "Could not find user with username: ["+handle+"].", nil)
	}
	return u, nil
}

func (p *Platform) GetLikers(ctx context.Context, tweetID, token string) (xapi.Page[xapi.User], error) {
	return p.userListing(ctx, xapi.OpGetLikers, tweetID, token, func() []xapi.User { return p.likers[tweetID] })
}

func (p *Platform) GetRetweeters(ctx context.Context, tweetID, token string) (xapi.Page[xapi.User], error) {
	return p.userListing(ctx, xapi.OpGetRetweeters, tweetID, token, func() []xapi.User { return p.retweeters[tweetID] })
}

func (p *Platform) GetFollowers(ctx context.Context, userID, token string) (xapi.Page[xapi.User], error) {
	if err := p.begin(ctx, xapi.OpGetFollowers); err != nil {
		return xapi.Page[xapi.User]{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return paginate(p.followers[userID], token, p.pageSize)
}

func (p *Platform) GetTweet(ctx context.Context, tweetID string) (xapi.Tweet, error) {
	if err := p.begin(ctx, xapi.OpGetTweet); err != nil {
		return xapi.Tweet{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tweets[tweetID]
	if !ok {
		return xapi.Tweet{}, xapi.NewError(xapi.ErrorNotFound, xapi.OpGetTweet, "Could not find tweet with id: ["+tweetID+"].", nil)
	}
	return t, nil
}

// SearchReplies understands the in_reply_to_tweet_id:, conversation_id: and
// from: operators.
func (p *Platform) SearchReplies(ctx context.Context, query, token string) (xapi.Page[xapi.Tweet], error) {
	if err := p.begin(ctx, xapi.OpSearchReplies); err != nil {
		return xapi.Page[xapi.Tweet]{}, err
	}
	var inReplyTo, conversation, from string
	for _, term := range strings.Fields(query) {
		if v, ok := strings.CutPrefix(term, "in_reply_to_tweet_id:"); ok {
			inReplyTo = v
		}
		if v, ok := strings.CutPrefix(term, "conversation_id:"); ok {
			conversation = v
		}
		if v, ok := strings.CutPrefix(term, "from:"); ok {
			from = v
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var authorID string
	if from != "" {
		u, ok := p.users[strings.ToLower(from)]
		if !ok {
			return xapi.Page[xapi.Tweet]{}, nil
		}
		authorID = u.ID
	}
	var hits []xapi.Tweet
	for _, t := range p.tweets {
		if inReplyTo != "" && !t.RepliesTo(inReplyTo) {
			continue
		}
		if conversation != "" && (t.ConversationID != conversation || t.ID == conversation) {
			continue
		}
		if authorID != "" && t.AuthorID != authorID {
			continue
		}
		hits = append(hits, t)
	}
	slices.SortFunc(hits, compareTweets)
	return paginate(hits, token, p.pageSize)
}

func (p *Platform) userListing(ctx context.Context, op, tweetID, token string, list func() []xapi.User) (xapi.Page[xapi.User], error) {
	if err := p.begin(ctx, op); err != nil {
		return xapi.Page[xapi.User]{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tweets[tweetID]; !ok {
		return xapi.Page[xapi.User]{}, xapi.NewError(xapi.ErrorNotFound, op, "Could not find tweet with id: ["+tweetID+"].", nil)
	}
	return paginate(list(), token, p.pageSize)
}

// begin counts the call, honours the configured delay and pops a queued failure.
func (p *Platform) begin(ctx context.Context, op string) error {
	p.mu.Lock()
	p.calls[op]++
	var queued error
	if q := p.failures[op]; len(q) > 0 {
		queued = q[0]
		p.failures[op] = q[1:]
	}
	delay := p.delay
	p.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return xapi.NewError(xapi.ErrorTimeout, op, "request timeout", ctx.Err())
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return xapi.NewError(xapi.ErrorTimeout, op, "request timeout", err)
	}
	return queued
}

func paginate[T any](items []T, token string, size int) (xapi.Page[T], error) {
	start := 0
	if token != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(token, "p"))
		if err != nil || n < 0 || n > len(items) {
			return xapi.Page[T]{}, xapi.NewError(xapi.ErrorBadData, "paginate", "invalid pagination token", err)
		}
		start = n
	}
	end := min(start+size, len(items))
	page := xapi.Page[T]{Items: append([]T(nil), items[start:end]...)}
	if end < len(items) {
		page.NextToken = "p" + strconv.Itoa(end)
	}
	return page, nil
}

// compareTweets orders snowflake ids numerically.
func compareTweets(a, b xapi.Tweet) int {
	if c := cmp.Compare(len(a.ID), len(b.ID)); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

var _ xapi.Client = (*Platform)(nil)
