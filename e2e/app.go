package e2e

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"time"

	jwttoken "xverify/internal/jwt_token"
	"xverify/internal/platform/health"
	subhandler "xverify/internal/submission/handler"
	submodels "xverify/internal/submission/models"
	subservice "xverify/internal/submission/service"
	"xverify/internal/submission/store"
	httptransport "xverify/internal/transport/http"
	verifyhandler "xverify/internal/verification/handler"
	"xverify/internal/verification/pagination"
	verifyservice "xverify/internal/verification/service"
	"xverify/internal/xapi/fake"
)

const (
	e2ePageSize = 2
	e2eSigning  = "e2e-signing-key"
)

type rewardRecorder struct {
	mu     sync.Mutex
	events []submodels.RewardGranted
}

func (r *rewardRecorder) Publish(_ context.Context, event submodels.RewardGranted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *rewardRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// testApp runs the full router in process against the fake platform. The
// server starts on the first request so Given steps can shape the platform.
type testApp struct {
	platform *fake.Platform
	maxPages int
	tokens   *jwttoken.Service
	rewards  *rewardRecorder
	server   *httptest.Server
}

func newTestApp() *testApp {
	return &testApp{
		platform: fake.New(fake.WithPageSize(e2ePageSize)),
		maxPages: pagination.DefaultMaxPages,
		tokens:   jwttoken.NewService(e2eSigning, "xverify", "rewards-spa", time.Hour, time.Now),
		rewards:  &rewardRecorder{},
	}
}

func (a *testApp) baseURL() (string, error) {
	if a.server != nil {
		return a.server.URL, nil
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gateway, err := verifyservice.New(a.platform, pagination.New(a.maxPages), verifyservice.WithLogger(logger))
	if err != nil {
		return "", err
	}
	submissions, err := subservice.New(gateway, store.NewInMemoryStore(), a.rewards, subservice.WithLogger(logger))
	if err != nil {
		return "", err
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         logger,
		AllowedOrigins: []string{"http://localhost:5173"},
		RequestTimeout: 5 * time.Second,
		Validator:      a.tokens,
		Public: []httptransport.Routes{
			health.New("e2e"),
			verifyhandler.New(gateway, logger),
		},
		Protected: []httptransport.Routes{
			subhandler.New(submissions, logger),
		},
	})
	a.server = httptest.NewServer(router)
	return a.server.URL, nil
}

func (a *testApp) close() {
	if a.server != nil {
		a.server.Close()
	}
}
