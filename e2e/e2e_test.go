package e2e

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"

	"xverify/e2e/steps/common"
	"xverify/e2e/steps/submission"
	"xverify/e2e/steps/verify"
	"xverify/internal/xapi"
)

var opts = godog.Options{
	Output: colors.Colored(os.Stdout),
	Format: "pretty",
	Paths:  []string{"features"},
	Tags:   os.Getenv("E2E_TAGS"),
	Strict: true,
}

func init() {
	godog.BindCommandLineFlags("godog.", &opts)
}

func TestFeatures(t *testing.T) {
	flag.Parse()
	if testing.Short() {
		t.Skip("feature suite skipped in -short mode")
	}
	opts.TestingT = t

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options:             &opts,
	}
	if suite.Run() != 0 {
		t.Fatal("feature suite failed")
	}
}

// InitializeScenario gives every scenario a fresh app and fake platform.
func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &TestContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*tc = *NewTestContext()
		return ctx, nil
	})

	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		defer tc.Close()
		if err == nil {
			return ctx, nil
		}
		fmt.Printf("scenario %q failed\n  last status: %d\n  last body: %s\n  x api calls:",
			s.Name, tc.GetLastResponseStatus(), tc.GetLastResponseBody())
		for _, op := range xapi.AllOps {
			fmt.Printf(" %s=%d", op, tc.Platform().Calls(op))
		}
		fmt.Println()
		return ctx, nil
	})

	common.RegisterSteps(sc, tc)
	verify.RegisterSteps(sc, tc)
	submission.RegisterSteps(sc, tc)
}
