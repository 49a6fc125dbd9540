package index

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YancyGuo/githubhunt/internal/models"
)

// fakeEngine emulates the handful of Meilisearch endpoints the client
// touches, storing documents by primary key like the real engine does.
type fakeEngine struct {
	mu           sync.Mutex
	docs         map[string]map[string]any
	order        []string
	lastStrategy string
	taskSeq      int64
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{docs: map[string]map[string]any{}}
}

func (f *fakeEngine) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /indexes/repositories/documents", func(w http.ResponseWriter, r *http.Request) {
		var docs []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&docs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		for _, d := range docs {
			id, _ := d["id"].(string)
			if _, seen := f.docs[id]; !seen {
				f.order = append(f.order, id)
			}
			f.docs[id] = d
		}
		f.taskSeq++
		uid := f.taskSeq
		f.mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"taskUid":%d,"indexUid":"repositories","status":"enqueued","type":"documentAdditionOrUpdate","enqueuedAt":"2024-01-01T00:00:00Z"}`, uid)
	})

	mux.HandleFunc("GET /tasks/", func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimPrefix(r.URL.Path, "/tasks/")
		fmt.Fprintf(w, `{"uid":%s,"indexUid":"repositories","status":"succeeded","type":"documentAdditionOrUpdate","enqueuedAt":"2024-01-01T00:00:00Z"}`, uid)
	})

	mux.HandleFunc("POST /indexes/repositories/search", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Q                string `json:"q"`
			Limit            int    `json:"limit"`
			MatchingStrategy string `json:"matchingStrategy"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.lastStrategy = req.MatchingStrategy
		hits := make([]map[string]any, 0, len(f.order))
		for _, id := range f.order {
			hits = append(hits, f.docs[id])
		}
		f.mu.Unlock()
		if req.Limit > 0 && len(hits) > req.Limit {
			hits = hits[:req.Limit]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits":               hits,
			"offset":             0,
			"limit":              req.Limit,
			"estimatedTotalHits": len(hits),
			"processingTimeMs":   1,
			"query":              req.Q,
		})
	})

	mux.HandleFunc("GET /indexes/repositories/documents/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/indexes/repositories/documents/")
		f.mu.Lock()
		doc, ok := f.docs[id]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"message":"Document %q not found.","code":"document_not_found","type":"invalid_request","link":""}`, id)
			return
		}
		_ = json.NewEncoder(w).Encode(doc)
	})

	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeEngine) {
	t.Helper()
	engine := newFakeEngine()
	srv := httptest.NewServer(engine.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, "", "repositories"), engine
}

func TestUpsertIsIdempotentByIdentifier(t *testing.T) {
	client, engine := newTestClient(t)
	ctx := context.Background()

	first := models.Repo{FullName: "redis/redis", Description: "old description", Stars: 1}
	require.NoError(t, client.Upsert(ctx, []models.Repo{first}))

	second := models.Repo{FullName: "redis/redis", Description: "new description", Stars: 2}
	require.NoError(t, client.Upsert(ctx, []models.Repo{second}))

	engine.mu.Lock()
	defer engine.mu.Unlock()
	require.Len(t, engine.docs, 1, "same identifier must land on one document")
	doc := engine.docs[models.RepoID("redis/redis")]
	assert.Equal(t, "new description", doc["description"], "latest write wins")
}

func TestSearchUsesFrequencyMatching(t *testing.T) {
	client, engine := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Upsert(ctx, []models.Repo{
		{FullName: "redis/redis", Description: "in-memory data store", Stars: 60000, Language: "C"},
		{FullName: "tidwall/redcon", Description: "redis server framework for go", Stars: 2000, Language: "Go"},
	}))

	repos, err := client.Search(ctx, "go redis event loop", 5)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "redis/redis", repos[0].FullName)
	assert.Equal(t, "frequency", engine.lastStrategy)
}

func TestGet(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Upsert(ctx, []models.Repo{
		{FullName: "golang/go", Description: "the Go programming language"},
	}))

	repo, err := client.Get(ctx, "golang/go")
	require.NoError(t, err)
	assert.Equal(t, "golang/go", repo.FullName)

	_, err = client.Get(ctx, "nobody/nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnreachableEngineIsErrUnavailable(t *testing.T) {
	client := New("http://127.0.0.1:1", "", "repositories")
	ctx := context.Background()

	_, err := client.Search(ctx, "anything", 5)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = client.Upsert(ctx, []models.Repo{{FullName: "a/b"}})
	assert.ErrorIs(t, err, ErrUnavailable)
}
