package checker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"xverify/internal/verification/models"
	"xverify/internal/verification/pagination"
	"xverify/internal/xapi"
	"xverify/internal/xapi/fake"
	"xverify/internal/xapi/mocks"
)

type CheckerSuite struct {
	suite.Suite
	platform *fake.Platform
	walker   pagination.Walker
	alice    xapi.User
	carol    xapi.User
	dave     xapi.User
}

func TestCheckerSuite(t *testing.T) {
	suite.Run(t, new(CheckerSuite))
}

func (s *CheckerSuite) SetupTest() {
	s.platform = fake.New(fake.WithPageSize(2))
	s.walker = pagination.New(10)
	s.alice = s.platform.AddUser("1", "alice")
	s.carol = s.platform.AddUser("3", "carol")
	s.dave = s.platform.AddUser("4", "dave")
	s.platform.AddTweet(xapi.Tweet{ID: "123", AuthorID: s.carol.ID, Text: "launch day"})
	s.platform.AddTweet(xapi.Tweet{ID: "456", AuthorID: s.dave.ID, Text: "other launch"})
}

func (s *CheckerSuite) target(contentID string, u xapi.User) Target {
	return Target{ContentID: contentID, ActorID: u.ID, ActorHandle: u.Username}
}

func (s *CheckerSuite) filler(n int) []xapi.User {
	users := make([]xapi.User, n)
	for i := range users {
		users[i] = xapi.User{ID: "f" + string(rune('a'+i)), Username: "filler" + string(rune('a'+i))}
	}
	return users
}

func (s *CheckerSuite) TestLikeMatchesHandleCaseInsensitively() {
	s.platform.AddLikes("123", xapi.User{ID: "1", Username: "ALICE"})

	finding, err := NewLike(s.platform, s.walker).Check(context.Background(), s.target("123", s.alice))

	s.Require().NoError(err)
	s.True(finding.Found)
}

func (s *CheckerSuite) TestLikeStopsOnMatchingPage() {
	// pages of two: [a b] [c alice] [d e]
	users := s.filler(5)
	s.platform.AddLikes("123", users[0], users[1], users[2], s.alice, users[3], users[4])

	finding, err := NewLike(s.platform, s.walker).Check(context.Background(), s.target("123", s.alice))

	s.Require().NoError(err)
	s.True(finding.Found)
	s.Equal(2, finding.Stats.PagesFetched)
	s.Equal(2, s.platform.Calls(xapi.OpGetLikers))
}

func (s *CheckerSuite) TestLikeExhaustsWithoutMatch() {
	s.platform.AddLikes("123", s.filler(3)...)

	finding, err := NewLike(s.platform, s.walker).Check(context.Background(), s.target("123", s.alice))

	s.Require().NoError(err)
	s.False(finding.Found)
	s.Equal(2, finding.Stats.PagesFetched)
}

func (s *CheckerSuite) TestRetweetMatchesOnLaterPage() {
	s.platform.AddRetweets("123", append(s.filler(4), s.alice)...)

	finding, err := NewRetweet(s.platform, s.walker).Check(context.Background(), s.target("123", s.alice))

	s.Require().NoError(err)
	s.True(finding.Found)
	s.Equal(3, s.platform.Calls(xapi.OpGetRetweeters))
}

func (s *CheckerSuite) TestRetweetPropagatesErrors() {
	s.platform.FailNext(xapi.OpGetRetweeters, xapi.NewError(xapi.ErrorProviderOutage, xapi.OpGetRetweeters, "503", nil))

	_, err := NewRetweet(s.platform, s.walker).Check(context.Background(), s.target("123", s.alice))

	s.Equal(xapi.ErrorProviderOutage, xapi.CategoryOf(err))
}

func (s *CheckerSuite) TestFollowRequiresTheSpecificAuthor() {
	s.platform.AddFollowers(s.carol.ID, s.alice)
	follow := NewFollow(s.platform, s.walker)

	byCarol, err := follow.Check(context.Background(), s.target("123", s.alice))
	s.Require().NoError(err)
	s.True(byCarol.Found)

	byDave, err := follow.Check(context.Background(), s.target("456", s.alice))
	s.Require().NoError(err)
	s.False(byDave.Found, "alice follows carol, not dave")
}

func (s *CheckerSuite) TestFollowLooksUpTweetBeforeWalking() {
	_, err := NewFollow(s.platform, s.walker).Check(context.Background(), s.target("999", s.alice))

	s.Equal(xapi.ErrorNotFound, xapi.CategoryOf(err))
	s.Equal(1, s.platform.Calls(xapi.OpGetTweet))
	s.Zero(s.platform.Calls(xapi.OpGetFollowers))
}

func (s *CheckerSuite) TestCommentRequiresDirectReplyByActor() {
	s.platform.AddReply("900", s.alice, "123", "great launch")

	finding, err := NewComment(s.platform, s.walker).Check(context.Background(), s.target("123", s.alice))

	s.Require().NoError(err)
	s.True(finding.Found)
}

func (s *CheckerSuite) TestCommentIgnoresRepliesElsewhere() {
	s.platform.AddReply("901", s.alice, "456", "re 123, see https://x.com/carol/status/123")

	finding, err := NewComment(s.platform, s.walker).Check(context.Background(), s.target("123", s.alice))

	s.Require().NoError(err)
	s.False(finding.Found)
}

func TestCommentRejectsCandidatesWithoutStructuredReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	target := Target{ContentID: "123", ActorID: "1", ActorHandle: "alice"}

	// a search backend that over-approximates: text mentions, replies to other
	// tweets, quotes and someone else's reply all come back as candidates
	candidates := xapi.Page[xapi.Tweet]{Items: []xapi.Tweet{
		{ID: "a", AuthorID: "1", Text: "replying to 123"},
		{ID: "b", AuthorID: "1", Text: "123", ReferencedTweets: []xapi.ReferencedTweet{{Type: xapi.ReferenceRepliedTo, ID: "124"}}},
		{ID: "c", AuthorID: "1", ReferencedTweets: []xapi.ReferencedTweet{{Type: "quoted", ID: "123"}}},
		{ID: "d", AuthorID: "2", ReferencedTweets: []xapi.ReferencedTweet{{Type: xapi.ReferenceRepliedTo, ID: "123"}}},
	}}
	client.EXPECT().
		SearchReplies(gomock.Any(), "in_reply_to_tweet_id:123 from:alice", "").
		Return(candidates, nil)

	finding, err := NewComment(client, pagination.New(5)).Check(context.Background(), target)

	require.NoError(t, err)
	assert.False(t, finding.Found)
}

func TestCommentAcceptsStructuredReplyAmongCandidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	target := Target{ContentID: "123", ActorID: "1", ActorHandle: "alice"}

	gomock.InOrder(
		client.EXPECT().SearchReplies(gomock.Any(), gomock.Any(), "").Return(xapi.Page[xapi.Tweet]{
			Items:     []xapi.Tweet{{ID: "a", AuthorID: "1", Text: "123"}},
			NextToken: "n2",
		}, nil),
		client.EXPECT().SearchReplies(gomock.Any(), gomock.Any(), "n2").Return(xapi.Page[xapi.Tweet]{
			Items: []xapi.Tweet{{ID: "b", AuthorID: "1", ReferencedTweets: []xapi.ReferencedTweet{{Type: xapi.ReferenceRepliedTo, ID: "123"}}}},
		}, nil),
	)

	finding, err := NewComment(client, pagination.New(5)).Check(context.Background(), target)

	require.NoError(t, err)
	assert.True(t, finding.Found)
	assert.Equal(t, 2, finding.Stats.PagesFetched)
}

func TestRegistryCoversAllActions(t *testing.T) {
	registry := NewRegistry(fake.New(), pagination.New(0))
	assert.NoError(t, registry.Validate())

	delete(registry, models.ActionComment)
	err := registry.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comment")
}
