// Package xapi is the outbound client for the X (Twitter) API v2.
//
// Client is the narrow capability set the verification checkers need. The HTTP
// implementation speaks the real API; Resilient and HandleCache decorate any
// Client with timeouts, retries, throttling, circuit breaking and caching.
package xapi

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Client

import "context"

// User is the subset of an X user object used for verification.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

// ReferencedTweet links a tweet to the tweet it replies to, quotes or retweets.
type ReferencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

const ReferenceRepliedTo = "replied_to"

// Tweet is the subset of an X tweet object used for verification.
type Tweet struct {
	ID               string            `json:"id"`
	AuthorID         string            `json:"author_id"`
	ConversationID   string            `json:"conversation_id,omitempty"`
	Text             string            `json:"text"`
	ReferencedTweets []ReferencedTweet `json:"referenced_tweets,omitempty"`
}

// RepliesTo reports whether t is a direct reply to tweetID.
func (t Tweet) RepliesTo(tweetID string) bool {
	for _, ref := range t.ReferencedTweets {
		if ref.Type == ReferenceRepliedTo && ref.ID == tweetID {
			return true
		}
	}
	return false
}

// Page is one page of a paginated listing. NextToken is empty exactly when
// there are no further pages.
type Page[T any] struct {
	Items     []T
	NextToken string
}

// Client is the outbound capability set. Implementations must be safe for
// concurrent use and classify failures with *Error.
type Client interface {
	LookupUserByHandle(ctx context.Context, handle string) (User, error)
	GetLikers(ctx context.Context, tweetID, token string) (Page[User], error)
	GetRetweeters(ctx context.Context, tweetID, token string) (Page[User], error)
	SearchReplies(ctx context.Context, query, token string) (Page[Tweet], error)
	GetTweet(ctx context.Context, tweetID string) (Tweet, error)
	GetFollowers(ctx context.Context, userID, token string) (Page[User], error)
}

// Operation names used in errors, metrics and spans.
const (
	OpLookupUser    = "lookup_user"
	OpGetLikers     = "get_likers"
	OpGetRetweeters = "get_retweeters"
	OpSearchReplies = "search_replies"
	OpGetTweet      = "get_tweet"
	OpGetFollowers  = "get_followers"
)

// AllOps lists every operation name in Client method order.
var AllOps = []string{OpLookupUser, OpGetLikers, OpGetRetweeters, OpSearchReplies, OpGetTweet, OpGetFollowers}
