// Package checker holds one Checker per action kind. Checkers only read from
// the X API; errors are returned untouched for the gateway to classify.
package checker

import (
	"context"
	"fmt"
	"strings"

	"xverify/internal/verification/models"
	"xverify/internal/verification/pagination"
	"xverify/internal/xapi"
)

// Target is the resolved claim a checker inspects.
type Target struct {
	ContentID   string
	ActorID     string
	ActorHandle string
}

// Finding is a checker verdict. Stats describe the walk that produced it.
type Finding struct {
	Found bool
	Stats pagination.Stats
}

// Checker decides whether the actor performed one kind of action.
type Checker interface {
	Check(ctx context.Context, t Target) (Finding, error)
}

// Registry is the dispatch table from action kind to checker.
type Registry map[models.ActionKind]Checker

// NewRegistry builds the standard checkers over client.
func NewRegistry(client xapi.Client, walker pagination.Walker) Registry {
	return Registry{
		models.ActionLike:    NewLike(client, walker),
		models.ActionRetweet: NewRetweet(client, walker),
		models.ActionFollow:  NewFollow(client, walker),
		models.ActionComment: NewComment(client, walker),
	}
}

// Validate reports an error unless every kind in models.AllActions has a checker.
func (r Registry) Validate() error {
	var missing []string
	for _, kind := range models.AllActions {
		if r[kind] == nil {
			missing = append(missing, string(kind))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no checker registered for action kinds: %s", strings.Join(missing, ", "))
	}
	return nil
}

func handleMatches(handle string) func(xapi.User) bool {
	return func(u xapi.User) bool {
		return strings.EqualFold(u.Username, handle)
	}
}
