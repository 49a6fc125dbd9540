// Package github wraps GitHub's REST API v3. It is intentionally light,
// covering just the endpoints the agent tools and the offline sync require.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	gogithub "github.com/google/go-github/v84/github"

	"github.com/YancyGuo/githubhunt/internal/models"
)

var (
	// ErrNotFound signals a missing repository or README.
	ErrNotFound = errors.New("github: not found")

	// ErrRateLimited is returned once the retry budget is exhausted on
	// provider backoff responses. The agent feeds it back to the model as
	// an observation so it can retry, abandon, or answer with partial info.
	ErrRateLimited = errors.New("github: rate limited")
)

// browserUserAgent identifies us like a regular browser. GitHub's edge
// network throttles obviously automated clients harder.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

const searchPageSize = 50

// Client wraps the go-github client with authentication, a browser-like
// User-Agent and a bounded retry around every call. Safe for concurrent
// read-only use.
type Client struct {
	gh       *gogithub.Client
	retryMax uint64
}

// NewClient returns a ready-to-use GitHub API client. token may be an empty
// string, but you will be subject to very low rate-limits.
func NewClient(token string, retryMax int) *Client {
	gh := gogithub.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	gh.UserAgent = browserUserAgent

	if retryMax < 1 {
		retryMax = 1
	}
	return &Client{gh: gh, retryMax: uint64(retryMax)}
}

// SearchRepositories fetches one page of repository search results, sorted
// by stars. nextPage is 0 when this was the last page, so a caller can
// persist it as a cursor and resume later.
func (c *Client) SearchRepositories(ctx context.Context, query string, page int) (repos []models.Repo, nextPage int, err error) {
	if page < 1 {
		page = 1
	}

	var result *gogithub.RepositoriesSearchResult
	var resp *gogithub.Response
	err = c.withRetry(ctx, func() error {
		var callErr error
		result, resp, callErr = c.gh.Search.Repositories(ctx, query, &gogithub.SearchOptions{
			Sort: "stars",
			ListOptions: gogithub.ListOptions{
				Page:    page,
				PerPage: searchPageSize,
			},
		})
		return callErr
	})
	if err != nil {
		return nil, 0, err
	}

	repos = make([]models.Repo, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, toRecord(r))
	}
	return repos, resp.NextPage, nil
}

// FetchReadme returns the decoded README text for owner/name.
func (c *Client) FetchReadme(ctx context.Context, owner, name string) (string, error) {
	var readme *gogithub.RepositoryContent
	err := c.withRetry(ctx, func() error {
		var callErr error
		readme, _, callErr = c.gh.Repositories.GetReadme(ctx, owner, name, nil)
		return callErr
	})
	if err != nil {
		return "", err
	}

	content, err := readme.GetContent()
	if err != nil {
		return "", fmt.Errorf("github: decode readme for %s/%s: %w", owner, name, err)
	}
	return content, nil
}

// ListStarred returns the full names of every repository the user has
// starred, paginating internally until GitHub reports no next page.
func (c *Client) ListStarred(ctx context.Context, username string) ([]string, error) {
	var names []string
	opts := &gogithub.ActivityListStarredOptions{
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}

	for {
		var starred []*gogithub.StarredRepository
		var resp *gogithub.Response
		err := c.withRetry(ctx, func() error {
			var callErr error
			starred, resp, callErr = c.gh.Activity.ListStarred(ctx, username, opts)
			return callErr
		})
		if err != nil {
			return nil, err
		}

		for _, s := range starred {
			if repo := s.GetRepository(); repo != nil {
				names = append(names, repo.GetFullName())
			}
		}

		if resp.NextPage == 0 {
			return names, nil
		}
		opts.Page = resp.NextPage
	}
}

// withRetry runs fn through a small bounded retry budget. Provider backoff
// signals (primary and secondary rate limits) are honored before the next
// attempt; other retryable failures use exponential backoff. Anything the
// provider will not heal by waiting (404s, auth errors) fails immediately.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	rateLimited := false

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retryMax), ctx)
	attempt := func() error {
		err := fn()
		if err == nil {
			return nil
		}

		if delay, ok := providerBackoff(err); ok {
			rateLimited = true
			slog.Warn("github backoff requested by provider", "delay", delay)
			if err := sleepCtx(ctx, delay); err != nil {
				return backoff.Permanent(err)
			}
			return err // retryable
		}
		if isNotFound(err) {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrNotFound, err))
		}
		if isServerError(err) {
			return err // retryable
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(attempt, policy); err != nil {
		if rateLimited {
			return fmt.Errorf("%w after %d attempts: %v", ErrRateLimited, c.retryMax+1, err)
		}
		return err
	}
	return nil
}

// providerBackoff extracts the wait the provider asked for, if the error is
// a rate-limit signal.
func providerBackoff(err error) (time.Duration, bool) {
	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) {
		return time.Until(rateErr.Rate.Reset.Time), true
	}
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return abuseErr.GetRetryAfter(), true
	}
	return 0, false
}

func isNotFound(err error) bool {
	var respErr *gogithub.ErrorResponse
	return errors.As(err, &respErr) &&
		respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusNotFound
}

func isServerError(err error) bool {
	var respErr *gogithub.ErrorResponse
	return errors.As(err, &respErr) &&
		respErr.Response != nil &&
		respErr.Response.StatusCode >= http.StatusInternalServerError
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func toRecord(r *gogithub.Repository) models.Repo {
	return models.Repo{
		ID:          models.RepoID(r.GetFullName()),
		Owner:       r.GetOwner().GetLogin(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		Stars:       r.GetStargazersCount(),
		Language:    r.GetLanguage(),
		SyncedAt:    time.Now().UTC(),
	}
}
