package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"

	"orggrep/internal/fetcher"
	gh "orggrep/internal/github"
)

const defaultOrgRepoLimit = 1000

const listRetryAttempts = 3

// listRateLimitWaits bounds the rate-limit sleeps per listing page, matching
// the search governor's policy of waiting until the reported reset.
const listRateLimitWaits = 3

// Package variables so tests can run without sleeping.
var (
	listRetryPause = 2 * time.Second
	listNow        = time.Now
	listSleep      = func(ctx context.Context, d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
)

// ListOrgRepositories enumerates every repository of org visible to the
// token, following pagination until exhausted. The result is bounded by
// limit (0 means the built-in cap) and deduplicated.
//
// A 401 aborts with *AuthError. Rate-limit responses are waited out until
// the reported reset, failing with *fetcher.RateLimitExceededError once the
// wait budget runs out. Transient transport failures are retried a bounded
// number of times per page before failing with *fetcher.NetworkError.
func ListOrgRepositories(ctx context.Context, client *gh.Client, org string, limit int) ([]Repository, error) {
	if limit <= 0 {
		limit = defaultOrgRepoLimit
	}

	repos := make([]Repository, 0, min(limit, 100))
	seen := make(map[string]struct{})

	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := listOrgPage(ctx, client, org, opts)
		if err != nil {
			return nil, err
		}
		for _, repo := range page {
			if len(repos) >= limit {
				break
			}
			fullName := repo.GetFullName()
			if fullName == "" {
				fullName = repo.GetOwner().GetLogin() + "/" + repo.GetName()
			}
			if _, ok := seen[fullName]; ok {
				continue
			}
			seen[fullName] = struct{}{}
			repos = append(repos, Repository{
				FullName: fullName,
				URL:      repo.GetHTMLURL(),
			})
		}
		if len(repos) >= limit {
			break
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// listOrgPage fetches one page of the org listing. Rate-limit responses make
// it sleep until the reported reset (bounded by listRateLimitWaits) before
// retrying; transport failures are retried a bounded number of times.
func listOrgPage(ctx context.Context, client *gh.Client, org string, opts *github.RepositoryListByOrgOptions) ([]*github.Repository, *github.Response, error) {
	var waits, tries int
	for {
		page, resp, err := client.Repositories.ListByOrg(ctx, org, opts)
		if err == nil {
			return page, resp, nil
		}

		if wait, ok := fetcher.RateLimitWait(err, listNow()); ok {
			if waits >= listRateLimitWaits {
				return nil, nil, &fetcher.RateLimitExceededError{Waits: waits}
			}
			waits++
			if err := listSleep(ctx, wait); err != nil {
				return nil, nil, err
			}
			continue
		}

		var er *github.ErrorResponse
		if errors.As(err, &er) {
			// A definitive API answer; retrying will not change it.
			return nil, nil, fmt.Errorf("failed to list org repos: %w", classifyAPIError(err))
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}

		tries++
		if tries >= listRetryAttempts {
			return nil, nil, &fetcher.NetworkError{Attempts: tries, Err: err}
		}
		time.Sleep(listRetryPause)
	}
}

// NormalizeOrgSelector accepts an organization login or a GitHub URL form
// (https://github.com/acme, github.com/orgs/acme, ...) and returns the login.
func NormalizeOrgSelector(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "www.github.com/") {
		raw = "https://" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("invalid organization %q", raw)
		}
		host := strings.ToLower(u.Hostname())
		if host == "www.github.com" {
			host = "github.com"
		}
		if host != "github.com" {
			return "", fmt.Errorf("invalid organization %q", raw)
		}
		parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
		if len(parts) == 0 {
			return "", fmt.Errorf("invalid organization %q", raw)
		}
		if parts[0] == "orgs" {
			if len(parts) < 2 {
				return "", fmt.Errorf("invalid organization %q", raw)
			}
			return parts[1], nil
		}
		return parts[0], nil
	}
	if strings.Contains(raw, "/") {
		return "", fmt.Errorf("invalid organization %q", raw)
	}
	return raw, nil
}
