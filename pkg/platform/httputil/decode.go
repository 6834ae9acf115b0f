package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "xverify/pkg/domain-errors"
	"xverify/pkg/requestcontext"
)

// Request bodies may implement either or both; Prepare calls them in order.
type (
	Normalizer interface{ Normalize() }
	Validator  interface{ Validate() error }
)

// DecodeJSON reads exactly one JSON value from the request body into T.
// On failure it writes 400 (413 when BodyLimit tripped) and returns nil, false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var req T
	err := Decode(r.Body, &req)
	if err == nil {
		return &req, true
	}

	ctx := r.Context()
	logger.WarnContext(ctx, "failed to decode request body",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:       "request_too_large",
			Description: "request body too large",
		})
	case errors.Is(err, io.EOF):
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body is required"))
	default:
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
	}
	return nil, false
}

// ErrTrailingData is returned by Decode when the body holds more than one JSON value.
var ErrTrailingData = errors.New("unexpected data after JSON body")

// Decode reads exactly one JSON value from body into out. An empty body
// yields io.EOF.
func Decode(body io.Reader, out any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return ErrTrailingData
	}
	return nil
}

// Prepare normalizes then validates req.
func Prepare(req any) error {
	if n, ok := req.(Normalizer); ok {
		n.Normalize()
	}
	if v, ok := req.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare decodes the body, then runs Prepare. Validation errors
// without a domain code are reported as validation_failed.
//
//	req, ok := httputil.DecodeAndPrepare[models.SubmitRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger)
	if !ok {
		return nil, false
	}
	if err := Prepare(req); err != nil {
		ctx := r.Context()
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		var domainErr *dErrors.Error
		if !errors.As(err, &domainErr) {
			err = dErrors.New(dErrors.CodeValidation, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
