package checker

import (
	"context"

	"xverify/internal/verification/pagination"
	"xverify/internal/xapi"
)

// Like walks the tweet's liking users for the actor's handle.
type Like struct {
	client xapi.Client
	walker pagination.Walker
}

func NewLike(client xapi.Client, walker pagination.Walker) *Like {
	return &Like{client: client, walker: walker}
}

func (c *Like) Check(ctx context.Context, t Target) (Finding, error) {
	fetch := func(ctx context.Context, token string) (xapi.Page[xapi.User], error) {
		return c.client.GetLikers(ctx, t.ContentID, token)
	}
	stats, found, err := pagination.Walk(ctx, c.walker, fetch, handleMatches(t.ActorHandle))
	return Finding{Found: found, Stats: stats}, err
}

// Retweet walks the tweet's retweeters for the actor's handle. The API usually
// returns a single page here; further pages are followed when offered.
type Retweet struct {
	client xapi.Client
	walker pagination.Walker
}

func NewRetweet(client xapi.Client, walker pagination.Walker) *Retweet {
	return &Retweet{client: client, walker: walker}
}

func (c *Retweet) Check(ctx context.Context, t Target) (Finding, error) {
	fetch := func(ctx context.Context, token string) (xapi.Page[xapi.User], error) {
		return c.client.GetRetweeters(ctx, t.ContentID, token)
	}
	stats, found, err := pagination.Walk(ctx, c.walker, fetch, handleMatches(t.ActorHandle))
	return Finding{Found: found, Stats: stats}, err
}

// Follow checks that the actor follows the tweet's author: the author id is
// resolved first, then the author's followers are walked for the actor's handle.
type Follow struct {
	client xapi.Client
	walker pagination.Walker
}

func NewFollow(client xapi.Client, walker pagination.Walker) *Follow {
	return &Follow{client: client, walker: walker}
}

func (c *Follow) Check(ctx context.Context, t Target) (Finding, error) {
	tweet, err := c.client.GetTweet(ctx, t.ContentID)
	if err != nil {
		return Finding{}, err
	}
	if tweet.AuthorID == "" {
		return Finding{}, xapi.NewError(xapi.ErrorBadData, xapi.OpGetTweet, "tweet has no author id", nil)
	}

	fetch := func(ctx context.Context, token string) (xapi.Page[xapi.User], error) {
		return c.client.GetFollowers(ctx, tweet.AuthorID, token)
	}
	stats, found, err := pagination.Walk(ctx, c.walker, fetch, handleMatches(t.ActorHandle))
	return Finding{Found: found, Stats: stats}, err
}
