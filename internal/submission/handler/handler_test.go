package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"xverify/internal/submission/models"
	"xverify/internal/submission/service"
	"xverify/internal/submission/store"
	"xverify/internal/verification/pagination"
	verifyservice "xverify/internal/verification/service"
	"xverify/internal/xapi"
	"xverify/internal/xapi/fake"
	"xverify/pkg/requestcontext"
)

type countingPublisher struct {
	count int
}

func (p *countingPublisher) Publish(context.Context, models.RewardGranted) error {
	p.count++
	return nil
}

type HandlerSuite struct {
	suite.Suite
	router    chi.Router
	publisher *countingPublisher
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	platform := fake.New()
	alice := platform.AddUser("1", "alice")
	platform.AddUser("2", "bob")
	carol := platform.AddUser("3", "carol")
	platform.AddTweet(xapi.Tweet{ID: "123", AuthorID: carol.ID})
	platform.AddLikes("123", alice)

	gateway, err := verifyservice.New(platform, pagination.New(5), verifyservice.WithLogger(logger))
	s.Require().NoError(err)
	s.publisher = &countingPublisher{}
	svc, err := service.New(gateway, store.NewInMemoryStore(), s.publisher, service.WithLogger(logger))
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := r.Header.Get("X-Test-User"); user != "" {
				r = r.WithContext(requestcontext.WithUserID(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	})
	New(svc, logger).Register(s.router)
}

func (s *HandlerSuite) do(method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestVerifiedSubmissionCreated() {
	rec := s.do(http.MethodPost, "/api/tasks/t1/submissions", "u1",
		`{"tweetLink":"https://twitter.com/carol/status/123","userHandle":"alice","actionType":"like"}`)

	s.Equal(http.StatusCreated, rec.Code)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(true, body["verified"])
	sub, ok := body["submission"].(map[string]any)
	s.Require().True(ok)
	s.Equal("t1", sub["taskId"])
	s.Equal("123", sub["tweetId"])
	s.Equal("verified", sub["status"])
	s.Equal(1, s.publisher.count)
}

func (s *HandlerSuite) TestRepeatIsConflict() {
	body := `{"tweetLink":"123","userHandle":"alice","actionType":"like"}`
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/tasks/t1/submissions", "u1", body).Code)

	rec := s.do(http.MethodPost, "/api/tasks/t1/submissions", "u1", body)

	s.Equal(http.StatusConflict, rec.Code)
	s.JSONEq(`{"error":"conflict","error_description":"task already completed"}`, rec.Body.String())
	s.Equal(1, s.publisher.count)
}

func (s *HandlerSuite) TestNotVerifiedReturnsDecision() {
	rec := s.do(http.MethodPost, "/api/tasks/t1/submissions", "u2",
		`{"tweetLink":"123","userHandle":"bob","actionType":"like"}`)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"verified":false,"debug":{"userId":"2","actionType":"like","tweetId":"123","outcome":"action_not_detected","reason":"no_match","pagesFetched":1}}`, rec.Body.String())
	s.Zero(s.publisher.count)
}

func (s *HandlerSuite) TestInvalidBody() {
	rec := s.do(http.MethodPost, "/api/tasks/t1/submissions", "u1",
		`{"tweetLink":"123","userHandle":"not a handle","actionType":"like"}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.JSONEq(`{"error":"validation_error","error_description":"userHandle must be a valid X username"}`, rec.Body.String())
}

func (s *HandlerSuite) TestUnknownActorIsCompletedDecision() {
	rec := s.do(http.MethodPost, "/api/tasks/t1/submissions", "u1",
		`{"tweetLink":"123","userHandle":"ghost","actionType":"like"}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"outcome":"actor_not_found"`)
}

func (s *HandlerSuite) TestListSubmissions() {
	s.do(http.MethodPost, "/api/tasks/t1/submissions", "u1", `{"tweetLink":"123","userHandle":"alice","actionType":"like"}`)

	rec := s.do(http.MethodGet, "/api/me/submissions", "u1", "")
	s.Equal(http.StatusOK, rec.Code)
	var body ListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body.Submissions, 1)
	s.Equal("t1", body.Submissions[0].TaskID)

	rec = s.do(http.MethodGet, "/api/me/submissions", "u2", "")
	s.JSONEq(`{"submissions":[]}`, rec.Body.String())
}

func (s *HandlerSuite) TestListWithoutUser() {
	rec := s.do(http.MethodGet, "/api/me/submissions", "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}
