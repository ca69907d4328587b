package store

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/strrl/copycat/internal/api"
	"github.com/strrl/copycat/internal/service"
)

// backend is a scripted fake of the REST API keyed by "METHOD /path"
type backend struct {
	mu      sync.Mutex
	replies map[string]string
	hits    map[string]int
}

func newBackend(t *testing.T, replies map[string]string) (*backend, *api.Client, *api.MemoryTokens) {
	t.Helper()
	b := &backend{replies: replies, hits: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.hits[key]++
		reply, ok := b.replies[key]
		b.mu.Unlock()
		if !ok {
			http.Error(w, "no route", http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	tokens := api.NewMemoryTokens("")
	c := api.NewClient(srv.URL, tokens, api.WithHTTPClient(srv.Client()))
	return b, c, tokens
}

func (b *backend) set(key, reply string) {
	b.mu.Lock()
	b.replies[key] = reply
	b.mu.Unlock()
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func newServices(c *api.Client) *service.Set {
	return service.NewSet(c)
}
