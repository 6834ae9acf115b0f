// Package tracer carries verification and X API spans. Callers describe
// spans with the names and keys below; OTelTracer maps them onto
// OpenTelemetry, NoopTracer drops them.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Handle carries a raw X handle. Exporting tracers record only HashHandle of it.
func Handle(handle string) Attribute {
	return Attribute{Key: AttrHandle, Value: handle}
}

// HashHandle returns a short stable hash of a lower-cased handle, so traces can
// be correlated without storing who engaged with what.
func HashHandle(handle string) string {
	if handle == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(handle)))
	return hex.EncodeToString(sum[:8])
}

// Span names.
const (
	SpanVerify = "verification.verify"
	SpanCheck  = "verification.check"
	SpanXAPI   = "xapi.call"
)

// Attribute keys.
const (
	AttrAction       = "verification.action"
	AttrContentID    = "verification.content_id"
	AttrHandle       = "verification.handle"
	AttrHandleHash   = "verification.handle_hash"
	AttrOutcome      = "verification.outcome"
	AttrPagesFetched = "verification.pages_fetched"
	AttrTruncated    = "verification.truncated"
	AttrXAPIOp       = "xapi.op"
	AttrXAPIAttempt  = "xapi.attempt"
	AttrXAPICategory = "xapi.error_category"
	AttrCacheHit     = "cache.hit"
)

// Event names.
const (
	EventRetry       = "xapi.retry"
	EventCircuitOpen = "xapi.circuit_open"
)
