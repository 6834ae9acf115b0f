package xapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.twitter.com"

	maxUsersPerPage     = 100
	maxFollowersPerPage = 1000
	maxSearchPerPage    = 100
	maxResponseBytes    = 4 << 20
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPConfig configures the X API v2 client.
type HTTPConfig struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
	HTTPClient  HTTPDoer
}

// HTTPClient talks to the X API v2 with an app bearer token.
type HTTPClient struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// NewHTTPClient creates an X API client. The bearer token is required.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BearerToken) == "" {
		return nil, errors.New("xapi: bearer token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.BearerToken,
		client:  client,
	}, nil
}

type apiProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

type pageMeta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token"`
}

type envelope[T any] struct {
	Data   T            `json:"data"`
	Meta   pageMeta     `json:"meta"`
	Errors []apiProblem `json:"errors"`
}

func (c *HTTPClient) LookupUserByHandle(ctx context.Context, handle string) (User, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	var env envelope[*User]
	path := "/2/users/by/username/" + url.PathEscape(handle)
	if err := c.get(ctx, OpLookupUser, path, nil, &env); err != nil {
		return User{}, err
	}
	if env.Data == nil {
		return User{}, problemError(OpLookupUser, env.Errors)
	}
	return *env.Data, nil
}

func (c *HTTPClient) GetLikers(ctx context.Context, tweetID, token string) (Page[User], error) {
	return c.userPage(ctx, OpGetLikers, "/2/tweets/"+url.PathEscape(tweetID)+"/liking_users", token, maxUsersPerPage)
}

func (c *HTTPClient) GetRetweeters(ctx context.Context, tweetID, token string) (Page[User], error) {
	return c.userPage(ctx, OpGetRetweeters, "/2/tweets/"+url.PathEscape(tweetID)+"/retweeted_by", token, maxUsersPerPage)
}

func (c *HTTPClient) GetFollowers(ctx context.Context, userID, token string) (Page[User], error) {
	return c.userPage(ctx, OpGetFollowers, "/2/users/"+url.PathEscape(userID)+"/followers", token, maxFollowersPerPage)
}

func (c *HTTPClient) SearchReplies(ctx context.Context, query, token string) (Page[Tweet], error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("max_results", strconv.Itoa(maxSearchPerPage))
	q.Set("tweet.fields", "author_id,conversation_id,referenced_tweets")
	if token != "" {
		// search uses next_token; the other listings use pagination_token
		q.Set("next_token", token)
	}
	var env envelope[[]Tweet]
	if err := c.get(ctx, OpSearchReplies, "/2/tweets/search/recent", q, &env); err != nil {
		return Page[Tweet]{}, err
	}
	return Page[Tweet]{Items: env.Data, NextToken: env.Meta.NextToken}, nil
}

func (c *HTTPClient) GetTweet(ctx context.Context, tweetID string) (Tweet, error) {
	q := url.Values{}
	q.Set("tweet.fields", "author_id,conversation_id,referenced_tweets")
	var env envelope[*Tweet]
	if err := c.get(ctx, OpGetTweet, "/2/tweets/"+url.PathEscape(tweetID), q, &env); err != nil {
		return Tweet{}, err
	}
	if env.Data == nil {
		return Tweet{}, problemError(OpGetTweet, env.Errors)
	}
	return *env.Data, nil
}

func (c *HTTPClient) userPage(ctx context.Context, op, path, token string, pageSize int) (Page[User], error) {
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(pageSize))
	if token != "" {
		q.Set("pagination_token", token)
	}
	var env envelope[[]User]
	if err := c.get(ctx, op, path, q, &env); err != nil {
		return Page[User]{}, err
	}
	// a tweet that vanished comes back as 200 with errors and no data
	if env.Data == nil && len(env.Errors) > 0 {
		return Page[User]{}, problemError(op, env.Errors)
	}
	return Page[User]{Items: env.Data, NextToken: env.Meta.NextToken}, nil
}

func (c *HTTPClient) get(ctx context.Context, op, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return NewError(ErrorInternal, op, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return NewError(ErrorTimeout, op, "request timeout", err)
		}
		if ctx.Err() != nil {
			return NewError(ErrorInternal, op, "request cancelled", ctx.Err())
		}
		return NewError(ErrorProviderOutage, op, "failed to execute request", err)
	}
	defer resp.Body.Close()

	rl := parseRateLimit(resp.Header)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return NewError(ErrorTimeout, op, "response read timeout", err).WithRateLimit(rl)
		}
		return NewError(ErrorBadData, op, "failed to read response", err).WithRateLimit(rl)
	}

	if xe := classifyStatus(op, resp.StatusCode); xe != nil {
		return xe.WithRateLimit(rl)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return NewError(ErrorBadData, op, "failed to parse response", err).WithRateLimit(rl)
	}
	return nil
}

func classifyStatus(op string, status int) *Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return NewError(ErrorAuthentication, op, fmt.Sprintf("authentication failed: %d", status), nil)
	case status == http.StatusNotFound:
		return NewError(ErrorNotFound, op, "resource not found", nil)
	case status == http.StatusTooManyRequests:
		return NewError(ErrorRateLimited, op, "rate limit exceeded", nil)
	case status >= 500:
		return NewError(ErrorProviderOutage, op, fmt.Sprintf("api unavailable: %d", status), nil)
	default:
		return NewError(ErrorBadData, op, fmt.Sprintf("request rejected: %d", status), nil)
	}
}

// problemError turns the errors array of a data-less 200 response into a
// categorized error.
func problemError(op string, problems []apiProblem) *Error {
	for _, p := range problems {
		if strings.Contains(p.Type, "resource-not-found") || p.Title == "Not Found Error" {
			return NewError(ErrorNotFound, op, p.Detail, nil)
		}
	}
	if len(problems) > 0 {
		return NewError(ErrorBadData, op, problems[0].Title+": "+problems[0].Detail, nil)
	}
	return NewError(ErrorBadData, op, "response carried no data", nil)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func parseRateLimit(h http.Header) *RateLimit {
	limit, errL := strconv.Atoi(h.Get("x-rate-limit-limit"))
	remaining, errR := strconv.Atoi(h.Get("x-rate-limit-remaining"))
	reset, errT := strconv.ParseInt(h.Get("x-rate-limit-reset"), 10, 64)
	if errL != nil && errR != nil && errT != nil {
		return nil
	}
	rl := &RateLimit{Limit: limit, Remaining: remaining}
	if errT == nil {
		rl.Reset = time.Unix(reset, 0).UTC()
	}
	return rl
}

var _ Client = (*HTTPClient)(nil)
