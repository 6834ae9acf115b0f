package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) newBreaker(opts ...Option) *Breaker {
	opts = append(opts, WithClock(func() time.Time { return s.now }))
	return New("x-api", opts...)
}

func (s *BreakerSuite) TestOpensAfterConsecutiveFailures() {
	b := s.newBreaker(WithFailureThreshold(3))

	s.False(b.RecordFailure().Opened)
	s.False(b.RecordFailure().Opened)
	s.True(b.RecordFailure().Opened)
	s.Equal(StateOpen, b.State())
	s.False(b.Allow())
}

func (s *BreakerSuite) TestSuccessResetsFailureStreak() {
	b := s.newBreaker(WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	s.Equal(StateClosed, b.State())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestHalfOpenAdmitsSingleProbe() {
	b := s.newBreaker(WithFailureThreshold(1), WithCooldown(10*time.Second))
	b.RecordFailure()

	s.now = s.now.Add(9 * time.Second)
	s.False(b.Allow())

	s.now = s.now.Add(time.Second)
	s.Equal(StateHalfOpen, b.State())
	s.True(b.Allow())
	s.False(b.Allow(), "second caller must wait for the probe")

	s.True(b.RecordSuccess().Closed)
	s.Equal(StateClosed, b.State())
}

func (s *BreakerSuite) TestProbeFailureReopens() {
	b := s.newBreaker(WithFailureThreshold(1), WithCooldown(time.Second))
	b.RecordFailure()
	s.now = s.now.Add(time.Second)
	s.Require().True(b.Allow())

	s.True(b.RecordFailure().Opened)
	s.False(b.Allow())
}

func (s *BreakerSuite) TestReset() {
	b := s.newBreaker(WithFailureThreshold(1))
	b.RecordFailure()
	b.Reset()
	s.Equal(StateClosed, b.State())
	s.Equal("closed", b.State().String())
}

func (s *BreakerSuite) TestAbandonReleasesProbe() {
	b := s.newBreaker(WithFailureThreshold(1), WithCooldown(time.Second))
	b.RecordFailure()
	s.now = s.now.Add(time.Second)
	s.Require().True(b.Allow())

	b.Abandon()

	s.Equal(StateHalfOpen, b.State())
	s.True(b.Allow())
}
