package baseline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxArchiveBytes caps a downloaded archive.
	DefaultMaxArchiveBytes = 64 << 20

	// DefaultRequestsPerHour matches GitHub's unauthenticated quota.
	DefaultRequestsPerHour = 60

	// limiterBurst lets one check plus one archive fetch through without waiting.
	limiterBurst = 4

	userAgent = "canon-baseline/1.0"
)

// GitHubOptions configures a GitHubOrigin.
type GitHubOptions struct {
	// Token is a personal access or OAuth token. Empty means anonymous.
	Token string

	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string

	// RequestsPerHour is the proactive throttle. Zero or less disables it.
	RequestsPerHour int

	MaxArchiveBytes int64

	// HTTPClient is the base transport. Nil uses a default client.
	HTTPClient *http.Client
}

// GitHubOrigin serves commit SHAs and zipballs from the GitHub REST API.
// It never retries; a failed call is reported once.
type GitHubOrigin struct {
	client   *gh.Client
	http     *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// NewGitHubOrigin creates a GitHub-backed origin.
func NewGitHubOrigin(ctx context.Context, opts GitHubOptions) (*GitHubOrigin, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, httpClient), ts)
	}

	client := gh.NewClient(httpClient)
	client.UserAgent = userAgent
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		client.BaseURL = u
	}

	limit := rate.Inf
	if opts.RequestsPerHour > 0 {
		limit = rate.Every(time.Hour / time.Duration(opts.RequestsPerHour))
	}

	maxBytes := opts.MaxArchiveBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxArchiveBytes
	}

	return &GitHubOrigin{
		client:   client,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, limiterBurst),
		maxBytes: maxBytes,
	}, nil
}

// ResolveCommit uses the SHA-only commits endpoint, which returns a bare SHA
// instead of the full commit object. Checks never queue on the throttle;
// without a token they fail fast with ErrThrottled.
func (o *GitHubOrigin) ResolveCommit(ctx context.Context, ref RepoRef) (string, error) {
	if !o.limiter.Allow() {
		return "", ErrThrottled
	}

	sha, _, err := o.client.Repositories.GetCommitSHA1(ctx, ref.Owner, ref.Repo, ref.RefOrDefault(), "")
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	sha = strings.TrimSpace(sha)
	if sha == "" {
		return "", fmt.Errorf("resolve %s: empty commit SHA", ref)
	}
	return sha, nil
}

// FetchArchive resolves the zipball redirect and downloads the archive.
func (o *GitHubOrigin) FetchArchive(ctx context.Context, ref RepoRef, sha string) ([]byte, error) {
	target := sha
	if target == "" {
		target = ref.RefOrDefault()
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	link, _, err := o.client.Repositories.GetArchiveLink(ctx, ref.Owner, ref.Repo, gh.Zipball,
		&gh.RepositoryContentGetOptions{Ref: target}, 1)
	if err != nil {
		return nil, fmt.Errorf("archive link for %s: %w", ref, err)
	}

	return o.download(ctx, link.String())
}

func (o *GitHubOrigin) download(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("archive download failed: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	if int64(len(data)) > o.maxBytes {
		return nil, fmt.Errorf("archive exceeds %d bytes", o.maxBytes)
	}
	return data, nil
}
