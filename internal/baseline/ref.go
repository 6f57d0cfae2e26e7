// Package baseline fetches the shared governance corpus from a remote
// repository and caches it in tiers keyed by commit SHA.
package baseline

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/zeebo/xxh3"

	canonerrors "canon/internal/errors"
)

// DefaultRef is used when a reference names no branch, tag or commit.
const DefaultRef = "HEAD"

// RepoRef identifies a repository and a ref within it.
type RepoRef struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Ref   string `json:"ref,omitempty"`
}

// ParseRepoRef parses one of
//
//	owner/repo[@ref]
//	github:owner/repo[@ref]
//	https://github.com/owner/repo[.git][/tree/ref]
func ParseRepoRef(s string) (RepoRef, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return RepoRef{}, invalidRef(s, "empty reference")
	}

	var ownerRepo, ref string
	switch {
	case strings.HasPrefix(raw, "github:"):
		ownerRepo, ref = splitAt(strings.TrimPrefix(raw, "github:"))
	case strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "http://"):
		u, err := url.Parse(raw)
		if err != nil {
			return RepoRef{}, invalidRef(s, "unparseable URL")
		}
		if !strings.EqualFold(u.Host, "github.com") && !strings.EqualFold(u.Host, "www.github.com") {
			return RepoRef{}, invalidRef(s, "unsupported host "+u.Host)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 {
			return RepoRef{}, invalidRef(s, "expected owner/repo in URL path")
		}
		ownerRepo = parts[0] + "/" + strings.TrimSuffix(parts[1], ".git")
		rest := parts[2:]
		switch {
		case len(rest) == 0:
		case len(rest) >= 2 && rest[0] == "tree":
			ref = strings.Join(rest[1:], "/")
		default:
			return RepoRef{}, invalidRef(s, "unsupported URL path")
		}
	default:
		ownerRepo, ref = splitAt(raw)
	}

	owner, repo, ok := strings.Cut(ownerRepo, "/")
	if !ok || !validName(owner) || !validName(repo) {
		return RepoRef{}, invalidRef(s, "expected owner/repo")
	}
	if strings.ContainsAny(ref, " \t\n") || strings.Contains(ref, "..") {
		return RepoRef{}, invalidRef(s, "invalid ref")
	}
	return RepoRef{Owner: owner, Repo: repo, Ref: ref}, nil
}

// MustParseRepoRef is ParseRepoRef for literals known to be valid.
func MustParseRepoRef(s string) RepoRef {
	r, err := ParseRepoRef(s)
	if err != nil {
		panic(err)
	}
	return r
}

func splitAt(s string) (string, string) {
	ownerRepo, ref, _ := strings.Cut(s, "@")
	return ownerRepo, ref
}

func validName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func invalidRef(input, reason string) error {
	return canonerrors.New(canonerrors.InvalidReference,
		fmt.Sprintf("invalid repository reference %q: %s", input, reason), nil)
}

// RefOrDefault returns Ref, or DefaultRef when unset.
func (r RepoRef) RefOrDefault() string {
	if r.Ref == "" {
		return DefaultRef
	}
	return r.Ref
}

// URL is the repository's canonical web URL.
func (r RepoRef) URL() string {
	return "https://github.com/" + strings.ToLower(r.Owner) + "/" + strings.ToLower(r.Repo)
}

// String renders the reference in owner/repo[@ref] form.
func (r RepoRef) String() string {
	if r.Ref == "" {
		return r.Owner + "/" + r.Repo
	}
	return r.Owner + "/" + r.Repo + "@" + r.Ref
}

// Key is the stable cache key for (repoURL, ref).
func (r RepoRef) Key() string {
	return hashKey(r.URL() + "@" + r.RefOrDefault())
}

func hashKey(s string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(s))
}

// Cache key layout. Every entry carries the commit SHA it was built from.
func archiveKey(repoKey string) string { return "archive/" + repoKey }
func indexKey(repoKey string) string   { return "index/" + repoKey }
func shaKey(repoKey string) string     { return "sha/" + repoKey }
func filePrefix(repoKey string) string { return "file/" + repoKey + "/" }

func fileKey(repoKey, path string) string {
	return filePrefix(repoKey) + hashKey(path)
}
