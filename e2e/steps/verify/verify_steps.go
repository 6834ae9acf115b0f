package verify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cucumber/godog"

	"xverify/internal/xapi"
	"xverify/internal/xapi/fake"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	Platform() *fake.Platform
	SetMaxPages(n int)
}

// RegisterSteps registers verification and platform setup steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &verifySteps{tc: tc, users: make(map[string]xapi.User)}

	// Platform setup
	ctx.Step(`^the X user "([^"]*)" has id "([^"]*)"$`, steps.userHasID)
	ctx.Step(`^"([^"]*)" posted tweet "([^"]*)"$`, steps.postedTweet)
	ctx.Step(`^"([^"]*)" liked tweet "([^"]*)"$`, steps.likedTweet)
	ctx.Step(`^"([^"]*)" retweeted tweet "([^"]*)"$`, steps.retweetedTweet)
	ctx.Step(`^"([^"]*)" replied "([^"]*)" to tweet "([^"]*)"$`, steps.repliedToTweet)
	ctx.Step(`^"([^"]*)" follows "([^"]*)"$`, steps.follows)
	ctx.Step(`^"([^"]*)" has (\d+) other followers$`, steps.hasOtherFollowers)
	ctx.Step(`^tweet "([^"]*)" has (\d+) other likers$`, steps.hasOtherLikers)
	ctx.Step(`^the X API fails the next "([^"]*)" call with "([^"]*)"$`, steps.failNext)
	ctx.Step(`^the X API rate limit resets in (\d+) seconds on the next "([^"]*)" call$`, steps.rateLimitNext)
	ctx.Step(`^verification walks at most (\d+) pages$`, steps.maxPages)

	// Requests
	ctx.Step(`^I verify that "([^"]*)" did "([^"]*)" on tweet "([^"]*)"$`, steps.verify)
	ctx.Step(`^I send a verification request with body '([^']*)'$`, steps.verifyRaw)

	// Assertions
	ctx.Step(`^the X API should have received no calls$`, steps.noCalls)
	ctx.Step(`^the X API should have received (\d+) "([^"]*)" calls?$`, steps.callsFor)
}

type verifySteps struct {
	tc    TestContext
	users map[string]xapi.User
}

func (s *verifySteps) user(handle string) (xapi.User, error) {
	u, ok := s.users[handle]
	if !ok {
		return xapi.User{}, fmt.Errorf("unknown user %q, declare it with 'the X user ... has id ...'", handle)
	}
	return u, nil
}

func (s *verifySteps) userHasID(ctx context.Context, handle, id string) error {
	s.users[handle] = s.tc.Platform().AddUser(id, handle)
	return nil
}

func (s *verifySteps) postedTweet(ctx context.Context, handle, tweetID string) error {
	author, err := s.user(handle)
	if err != nil {
		return err
	}
	s.tc.Platform().AddTweet(xapi.Tweet{ID: tweetID, AuthorID: author.ID, Text: "task tweet"})
	return nil
}

func (s *verifySteps) likedTweet(ctx context.Context, handle, tweetID string) error {
	u, err := s.user(handle)
	if err != nil {
		return err
	}
	s.tc.Platform().AddLikes(tweetID, u)
	return nil
}

func (s *verifySteps) retweetedTweet(ctx context.Context, handle, tweetID string) error {
	u, err := s.user(handle)
	if err != nil {
		return err
	}
	s.tc.Platform().AddRetweets(tweetID, u)
	return nil
}

func (s *verifySteps) repliedToTweet(ctx context.Context, handle, text, tweetID string) error {
	u, err := s.user(handle)
	if err != nil {
		return err
	}
	s.tc.Platform().AddReply("r-"+tweetID+"-"+u.ID, u, tweetID, text)
	return nil
}

func (s *verifySteps) follows(ctx context.Context, follower, followed string) error {
	f, err := s.user(follower)
	if err != nil {
		return err
	}
	target, err := s.user(followed)
	if err != nil {
		return err
	}
	s.tc.Platform().AddFollowers(target.ID, f)
	return nil
}

func (s *verifySteps) hasOtherFollowers(ctx context.Context, handle string, n int) error {
	target, err := s.user(handle)
	if err != nil {
		return err
	}
	s.tc.Platform().AddFollowers(target.ID, filler("follower", n)...)
	return nil
}

func (s *verifySteps) hasOtherLikers(ctx context.Context, tweetID string, n int) error {
	s.tc.Platform().AddLikes(tweetID, filler("liker"+tweetID, n)...)
	return nil
}

func filler(prefix string, n int) []xapi.User {
	users := make([]xapi.User, n)
	for i := range users {
		id := prefix + "-" + strconv.Itoa(i)
		users[i] = xapi.User{ID: id, Username: "u_" + strconv.Itoa(i)}
	}
	return users
}

func (s *verifySteps) failNext(ctx context.Context, op, category string) error {
	s.tc.Platform().FailNext(op, xapi.NewError(xapi.Category(category), op, "injected "+category, nil))
	return nil
}

func (s *verifySteps) rateLimitNext(ctx context.Context, seconds int, op string) error {
	rl := &xapi.RateLimit{Limit: 75, Remaining: 0, Reset: time.Now().Add(time.Duration(seconds) * time.Second)}
	s.tc.Platform().FailNext(op, xapi.NewError(xapi.ErrorRateLimited, op, "rate limit exceeded", nil).WithRateLimit(rl))
	return nil
}

func (s *verifySteps) maxPages(ctx context.Context, n int) error {
	s.tc.SetMaxPages(n)
	return nil
}

func (s *verifySteps) verify(ctx context.Context, handle, action, tweetID string) error {
	return s.tc.POST("/api/verify-twitter-action", map[string]string{
		"tweetId":    tweetID,
		"userHandle": handle,
		"actionType": action,
	})
}

func (s *verifySteps) verifyRaw(ctx context.Context, body string) error {
	return s.tc.POST("/api/verify-twitter-action", rawJSON(body))
}

func (s *verifySteps) noCalls(ctx context.Context) error {
	if n := s.tc.Platform().TotalCalls(); n != 0 {
		return fmt.Errorf("expected no X API calls but got %d", n)
	}
	return nil
}

func (s *verifySteps) callsFor(ctx context.Context, n int, op string) error {
	if got := s.tc.Platform().Calls(op); got != n {
		return fmt.Errorf("expected %d %s calls but got %d", n, op, got)
	}
	return nil
}

// rawJSON is sent as-is by json.Marshal.
type rawJSON string

func (r rawJSON) MarshalJSON() ([]byte, error) {
	return []byte(r), nil
}
