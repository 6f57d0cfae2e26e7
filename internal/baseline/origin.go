package baseline

import (
	"context"
	"errors"
)

// ErrThrottled is returned by ResolveCommit when the origin's own request
// budget is exhausted. It says nothing about the remote's health.
var ErrThrottled = errors.New("origin request budget exhausted")

// Origin is the remote side of the cache: a repository host that can report
// the commit a ref points to and serve a ZIP archive of that commit.
type Origin interface {
	// ResolveCommit returns the commit SHA ref currently points to.
	// It must be cheap; it runs on every check. It must not wait for a
	// throttle: when the request budget is spent it returns ErrThrottled.
	ResolveCommit(ctx context.Context, ref RepoRef) (string, error)

	// FetchArchive downloads a ZIP archive of the repository at sha.
	// An empty sha means the ref's current tip.
	FetchArchive(ctx context.Context, ref RepoRef, sha string) ([]byte, error)
}
