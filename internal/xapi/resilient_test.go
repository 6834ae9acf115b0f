package xapi_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"xverify/internal/xapi"
	"xverify/internal/xapi/fake"
	"xverify/internal/xapi/metrics"
	"xverify/internal/xapi/mocks"
	"xverify/pkg/platform/circuit"
)

type ResilientSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	inner   *mocks.MockClient
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func TestResilientSuite(t *testing.T) {
	suite.Run(t, new(ResilientSuite))
}

func (s *ResilientSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.inner = mocks.NewMockClient(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ResilientSuite) newClient(opts ...xapi.ResilientOption) *xapi.Resilient {
	base := []xapi.ResilientOption{
		xapi.WithBackoff(xapi.BackoffConfig{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxRetries: 1, Multiplier: 2}),
		xapi.WithMetrics(s.metrics),
		xapi.WithLogger(s.logger),
	}
	return xapi.NewResilient(s.inner, append(base, opts...)...)
}

func (s *ResilientSuite) TestRetriesOutageOnce() {
	outage := xapi.NewError(xapi.ErrorProviderOutage, xapi.OpGetLikers, "503", nil)
	gomock.InOrder(
		s.inner.EXPECT().GetLikers(gomock.Any(), "100", "").Return(xapi.Page[xapi.User]{}, outage),
		s.inner.EXPECT().GetLikers(gomock.Any(), "100", "").Return(xapi.Page[xapi.User]{Items: []xapi.User{{ID: "1"}}}, nil),
	)

	page, err := s.newClient().GetLikers(context.Background(), "100", "")

	s.Require().NoError(err)
	s.Len(page.Items, 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RetriesTotal.WithLabelValues(xapi.OpGetLikers)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CallsTotal.WithLabelValues(xapi.OpGetLikers, "ok")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CallsTotal.WithLabelValues(xapi.OpGetLikers, "provider_outage")))
}

func (s *ResilientSuite) TestGivesUpAfterOneRetry() {
	timeout := xapi.NewError(xapi.ErrorTimeout, xapi.OpGetTweet, "slow", nil)
	s.inner.EXPECT().GetTweet(gomock.Any(), "100").Return(xapi.Tweet{}, timeout).Times(2)

	_, err := s.newClient().GetTweet(context.Background(), "100")

	s.Equal(xapi.ErrorTimeout, xapi.CategoryOf(err))
}

func (s *ResilientSuite) TestDoesNotRetryPermanentFailures() {
	for _, category := range []xapi.Category{xapi.ErrorNotFound, xapi.ErrorRateLimited, xapi.ErrorAuthentication, xapi.ErrorBadData} {
		s.Run(string(category), func() {
			s.inner.EXPECT().
				LookupUserByHandle(gomock.Any(), "alice").
				Return(xapi.User{}, xapi.NewError(category, xapi.OpLookupUser, "no", nil)).
				Times(1)

			_, err := s.newClient().LookupUserByHandle(context.Background(), "alice")

			s.Equal(category, xapi.CategoryOf(err))
		})
	}
}

func (s *ResilientSuite) TestCircuitOpensAndRejects() {
	breaker := circuit.New("x-api", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	outage := xapi.NewError(xapi.ErrorProviderOutage, xapi.OpGetTweet, "down", nil)
	s.inner.EXPECT().GetTweet(gomock.Any(), "100").Return(xapi.Tweet{}, outage).Times(2)
	client := s.newClient(xapi.WithBreaker(breaker))

	_, err := client.GetTweet(context.Background(), "100")
	s.Equal(xapi.ErrorProviderOutage, xapi.CategoryOf(err))
	s.Equal(circuit.StateOpen, client.BreakerState())

	_, err = client.GetTweet(context.Background(), "100")
	s.Equal(xapi.ErrorProviderOutage, xapi.CategoryOf(err))
	s.False(xapi.IsRetryable(err))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CircuitRejections))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CircuitOpen))
}

func (s *ResilientSuite) TestNotFoundKeepsCircuitClosed() {
	breaker := circuit.New("x-api", circuit.WithFailureThreshold(1))
	s.inner.EXPECT().GetTweet(gomock.Any(), "gone").
		Return(xapi.Tweet{}, xapi.NewError(xapi.ErrorNotFound, xapi.OpGetTweet, "gone", nil))

	_, _ = s.newClient(xapi.WithBreaker(breaker)).GetTweet(context.Background(), "gone")

	s.Equal(circuit.StateClosed, breaker.State())
}

func (s *ResilientSuite) TestPerCallTimeout() {
	platform := fake.New(fake.WithDelay(200 * time.Millisecond))
	platform.AddTweet(xapi.Tweet{ID: "100", AuthorID: "9"})
	client := xapi.NewResilient(platform,
		xapi.WithCallTimeout(10*time.Millisecond),
		xapi.WithBackoff(xapi.BackoffConfig{InitialDelay: time.Millisecond, MaxRetries: 1, Multiplier: 2}),
		xapi.WithLogger(s.logger),
	)

	start := time.Now()
	_, err := client.GetTweet(context.Background(), "100")

	s.Equal(xapi.ErrorTimeout, xapi.CategoryOf(err))
	s.Equal(2, platform.Calls(xapi.OpGetTweet))
	s.Less(time.Since(start), 150*time.Millisecond)
}

func (s *ResilientSuite) TestLimiterHonoursCancellation() {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	s.Require().True(limiter.Allow())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.newClient(xapi.WithLimiter(limiter)).GetTweet(ctx, "100")

	s.Error(err)
	var xe *xapi.Error
	s.True(errors.As(err, &xe))
}
