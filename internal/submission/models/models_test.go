package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "xverify/pkg/domain-errors"
)

func TestSubmitRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr string
	}{
		{name: "valid link", req: SubmitRequest{TweetLink: "https://x.com/acme/status/123", UserHandle: "@alice", ActionType: "Like"}},
		{name: "valid id", req: SubmitRequest{TweetLink: "123", UserHandle: "alice_01", ActionType: "retweet"}},
		{name: "bad handle", req: SubmitRequest{TweetLink: "123", UserHandle: "not a handle", ActionType: "like"}, wantErr: "userHandle must be a valid X username"},
		{name: "handle too long", req: SubmitRequest{TweetLink: "123", UserHandle: "abcdefghijklmnop", ActionType: "like"}, wantErr: "userHandle must be a valid X username"},
		{name: "bad action", req: SubmitRequest{TweetLink: "123", UserHandle: "alice", ActionType: "share"}, wantErr: "actionType must be one of [like comment follow retweet]"},
		{name: "missing link", req: SubmitRequest{UserHandle: "alice", ActionType: "like"}, wantErr: "tweetLink must not be blank"},
		{name: "foreign link", req: SubmitRequest{TweetLink: "https://example.com/a/status/1", UserHandle: "alice", ActionType: "like"}, wantErr: "tweetId must be a tweet id or a tweet link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize()
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestVerificationRequest(t *testing.T) {
	req := SubmitRequest{TweetLink: " https://x.com/acme/status/123 ", UserHandle: "@Alice", ActionType: "FOLLOW"}
	req.Normalize()

	vr := req.VerificationRequest()

	assert.Equal(t, "Alice", vr.ActorHandle)
	assert.Equal(t, "follow", string(vr.Action))
	assert.Equal(t, "https://x.com/acme/status/123", vr.ContentID)
}
