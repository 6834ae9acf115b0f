package checker

import (
	"context"
	"fmt"

	"xverify/internal/verification/pagination"
	"xverify/internal/xapi"
)

// Comment looks for a reply by the actor whose replied_to reference is the
// tweet itself. The search only narrows candidates; a candidate counts when its
// author id is the actor's and its structured reference points at ContentID.
// Replies deeper in the thread, quotes and text mentions do not count even
// when the search returns them.
type Comment struct {
	client xapi.Client
	walker pagination.Walker
}

func NewComment(client xapi.Client, walker pagination.Walker) *Comment {
	return &Comment{client: client, walker: walker}
}

func (c *Comment) Check(ctx context.Context, t Target) (Finding, error) {
	query := ReplySearchQuery(t.ContentID, t.ActorHandle)
	fetch := func(ctx context.Context, token string) (xapi.Page[xapi.Tweet], error) {
		return c.client.SearchReplies(ctx, query, token)
	}
	match := func(tw xapi.Tweet) bool {
		return tw.AuthorID == t.ActorID && tw.RepliesTo(t.ContentID)
	}
	stats, found, err := pagination.Walk(ctx, c.walker, fetch, match)
	return Finding{Found: found, Stats: stats}, err
}

// ReplySearchQuery builds the recent-search query for the actor's direct
// replies to the tweet.
func ReplySearchQuery(contentID, handle string) string {
	return fmt.Sprintf("in_reply_to_tweet_id:%s from:%s", contentID, handle)
}
