package submission

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTWithHeaders(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	IssueToken(userID string) (string, error)
	GetAccessToken() string
	SetAccessToken(token string)
	PublishedRewards() int
}

// RegisterSteps registers task submission steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &submissionSteps{tc: tc}

	ctx.Step(`^I am signed in as "([^"]*)"$`, steps.signedInAs)
	ctx.Step(`^I use the bearer token "([^"]*)"$`, steps.useToken)
	ctx.Step(`^I submit task "([^"]*)" with link "([^"]*)" as "([^"]*)" for "([^"]*)"$`, steps.submit)
	ctx.Step(`^I list my submissions$`, steps.list)
	ctx.Step(`^(\d+) reward events? should have been published$`, steps.rewardsPublished)
}

type submissionSteps struct {
	tc TestContext
}

func (s *submissionSteps) headers() map[string]string {
	if token := s.tc.GetAccessToken(); token != "" {
		return map[string]string{"Authorization": "Bearer " + token}
	}
	return nil
}

func (s *submissionSteps) signedInAs(ctx context.Context, userID string) error {
	token, err := s.tc.IssueToken(userID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	s.tc.SetAccessToken(token)
	return nil
}

func (s *submissionSteps) useToken(ctx context.Context, token string) error {
	s.tc.SetAccessToken(token)
	return nil
}

func (s *submissionSteps) submit(ctx context.Context, taskID, link, handle, action string) error {
	return s.tc.POSTWithHeaders("/api/tasks/"+taskID+"/submissions", map[string]string{
		"tweetLink":  link,
		"userHandle": handle,
		"actionType": action,
	}, s.headers())
}

func (s *submissionSteps) list(ctx context.Context) error {
	return s.tc.GET("/api/me/submissions", s.headers())
}

func (s *submissionSteps) rewardsPublished(ctx context.Context, n int) error {
	if got := s.tc.PublishedRewards(); got != n {
		return fmt.Errorf("expected %d reward events but got %d", n, got)
	}
	return nil
}
