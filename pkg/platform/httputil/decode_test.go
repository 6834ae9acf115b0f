package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "xverify/pkg/domain-errors"
)

type handleRequest struct {
	Handle string `json:"handle"`
}

func (r *handleRequest) Normalize() {
	r.Handle = strings.TrimPrefix(strings.TrimSpace(r.Handle), "@")
}

func (r *handleRequest) Validate() error {
	if r.Handle == "" {
		return errors.New("handle is required")
	}
	return nil
}

type domainValidated struct {
	TaskID string `json:"task_id"`
}

func (r *domainValidated) Validate() error {
	if r.TaskID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "task_id is required")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"handle":" @alice "}`))
		w := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[handleRequest](w, req, discardLogger())

		require.True(t, ok)
		assert.Equal(t, "alice", got.Handle)
	})

	t.Run("plain validation error becomes validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"handle":"@"}`))
		w := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[handleRequest](w, req, discardLogger())

		assert.False(t, ok)
		assert.Nil(t, got)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeBody(t, w)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Contains(t, resp.Description, "handle is required")
	})

	t.Run("domain validation error keeps its code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[domainValidated](w, req, discardLogger())

		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeBody(t, w).Error)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[handleRequest](w, req, discardLogger())

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[handleRequest](w, req, discardLogger())

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "request body is required", decodeBody(t, w).Description)
	})

	t.Run("trailing data after the object", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"handle":"a"}{"handle":"b"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[handleRequest](w, req, discardLogger())

		assert.False(t, ok)
		assert.Equal(t, "invalid request body", decodeBody(t, w).Description)
	})

	t.Run("oversized body", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"handle":"`+strings.Repeat("a", 64)+`"}`))
		req.Body = http.MaxBytesReader(w, req.Body, 16)

		_, ok := DecodeJSON[handleRequest](w, req, discardLogger())

		assert.False(t, ok)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{dErrors.New(dErrors.CodeConflict, "already submitted"), http.StatusConflict, "conflict"},
		{dErrors.New(dErrors.CodeRateLimited, "slow down"), http.StatusTooManyRequests, "rate_limited"},
		{dErrors.New(dErrors.CodeUnauthorized, "missing token"), http.StatusUnauthorized, "unauthorized"},
		{errors.New("driver: bad connection"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(w, tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.code, decodeBody(t, w).Error)
	}
}
