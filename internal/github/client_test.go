package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, retryMax int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("test-token", retryMax)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.gh.BaseURL = base
	return client
}

func TestSearchRepositoriesMapsRecordsAndCursor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go redis", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")

		w.Header().Set("Link", `<https://api.github.com/search/repositories?q=go+redis&page=2>; rel="next"`)
		fmt.Fprint(w, `{
			"total_count": 1,
			"incomplete_results": false,
			"items": [{
				"id": 1,
				"name": "redcon",
				"full_name": "tidwall/redcon",
				"owner": {"login": "tidwall"},
				"description": "Redis compatible server framework for Go",
				"stargazers_count": 2100,
				"language": "Go"
			}]
		}`)
	})

	client := newTestClient(t, mux, 1)
	repos, next, err := client.SearchRepositories(context.Background(), "go redis", 1)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	assert.Equal(t, "tidwall/redcon", repos[0].FullName)
	assert.Equal(t, "tidwall--redcon", repos[0].ID)
	assert.Equal(t, "tidwall", repos[0].Owner)
	assert.Equal(t, 2100, repos[0].Stars)
	assert.Equal(t, "Go", repos[0].Language)
	assert.False(t, repos[0].SyncedAt.IsZero())
	assert.Equal(t, 2, next)
}

func TestFetchReadme(t *testing.T) {
	const text = "# redcon\n\nRedis compatible server framework."

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/tidwall/redcon/readme", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"type": "file",
			"name": "README.md",
			"encoding": "base64",
			"content": %q
		}`, base64.StdEncoding.EncodeToString([]byte(text)))
	})

	client := newTestClient(t, mux, 1)
	got, err := client.FetchReadme(context.Background(), "tidwall", "redcon")
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestFetchReadmeNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ghost/none/readme", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	client := newTestClient(t, mux, 1)
	_, err := client.FetchReadme(context.Background(), "ghost", "none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListStarredPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/alice/starred", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"starred_at":"2024-01-02T00:00:00Z","repo":{"id":2,"full_name":"b/two"}}]`)
			return
		}
		w.Header().Set("Link", `<https://api.github.com/users/alice/starred?page=2>; rel="next"`)
		fmt.Fprint(w, `[{"starred_at":"2024-01-01T00:00:00Z","repo":{"id":1,"full_name":"a/one"}}]`)
	})

	client := newTestClient(t, mux, 1)
	names, err := client.ListStarred(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one", "b/two"}, names)
}

func TestRateLimitExhaustsRetryBudget(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/readme", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprint(time.Now().Unix()))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "API rate limit exceeded for user"}`)
	})

	client := newTestClient(t, mux, 1)
	_, err := client.FetchReadme(context.Background(), "o", "r")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 2, attempts, "one initial attempt plus the retry budget")
}
