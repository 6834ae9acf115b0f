// Package models holds the task submission ledger types.
package models

import (
	"strings"
	"time"

	verification "xverify/internal/verification/models"
	"xverify/pkg/validation"
)

// Status of a recorded submission. Only verified submissions are stored.
type Status string

const StatusVerified Status = "verified"

// Submission records that a user completed a task and was credited once.
type Submission struct {
	ID         string                  `json:"id"`
	TaskID     string                  `json:"taskId"`
	UserID     string                  `json:"userId"`
	Handle     string                  `json:"userHandle"`
	ContentID  string                  `json:"tweetId"`
	Action     verification.ActionKind `json:"actionType"`
	Status     Status                  `json:"status"`
	VerifiedAt time.Time               `json:"verifiedAt"`
}

// SubmitRequest is the body of a task submission.
type SubmitRequest struct {
	TweetLink  string `json:"tweetLink" validate:"notblank,max=512"`
	UserHandle string `json:"userHandle" validate:"notblank,xhandle"`
	ActionType string `json:"actionType" validate:"notblank,oneof=like comment follow retweet"`
}

func (r *SubmitRequest) Normalize() {
	r.TweetLink = strings.TrimSpace(r.TweetLink)
	r.UserHandle = strings.TrimPrefix(strings.TrimSpace(r.UserHandle), "@")
	r.ActionType = strings.ToLower(strings.TrimSpace(r.ActionType))
}

func (r *SubmitRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	_, err := verification.ParseContentID(r.TweetLink)
	return err
}

// VerificationRequest converts the submission into a gateway request.
func (r *SubmitRequest) VerificationRequest() verification.Request {
	return verification.Request{
		ContentID:   r.TweetLink,
		ActorHandle: r.UserHandle,
		Action:      verification.ActionKind(r.ActionType),
	}
}

// RewardGranted is published once per recorded submission.
type RewardGranted struct {
	EventID      string    `json:"eventId"`
	SubmissionID string    `json:"submissionId"`
	TaskID       string    `json:"taskId"`
	UserID       string    `json:"userId"`
	ActionType   string    `json:"actionType"`
	TweetID      string    `json:"tweetId"`
	GrantedAt    time.Time `json:"grantedAt"`
}

const EventRewardGranted = "reward.granted"
