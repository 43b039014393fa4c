package relevance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/abhisek/questgen/internal/taxonomy"
)

type fakeBackend struct {
	status      string
	hits        string
	searchCode  int
	delay       time.Duration
	healthCalls atomic.Int32
	searchCalls atomic.Int32
	lastQuery   atomic.Value
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}
	switch {
	case r.URL.Path == "/_cluster/health":
		f.healthCalls.Add(1)
		_, _ = io.WriteString(w, `{"cluster_name":"test","status":"`+f.status+`"}`)
	case r.Method == http.MethodPost && r.URL.Path == "/questions/_search":
		f.searchCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.lastQuery.Store(string(body))
		if f.searchCode != 0 {
			w.WriteHeader(f.searchCode)
			return
		}
		_, _ = io.WriteString(w, `{"hits":{"hits":`+f.hits+`}}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestAdapter(t *testing.T, backend http.Handler, mutate ...func(*Config)) *Adapter {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	for _, m := range mutate {
		m(&cfg)
	}
	return NewAdapter(cfg)
}

var additionQuery = Query{
	Type:       "ADDITION",
	Category:   "number-operations",
	Difficulty: taxonomy.DifficultyMedium,
	Grade:      3,
}

func TestSearch_AggregatesHits(t *testing.T) {
	backend := &fakeBackend{
		status: "green",
		hits:   `[{"_id":"q1","_score":0.9},{"_id":"q2","_score":0.8},{"_id":"q3","_score":0.4}]`,
	}
	a := newTestAdapter(t, backend)

	sig, err := a.Search(context.Background(), additionQuery)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, sig.Score, 1e-9)
	assert.Equal(t, 0.9, sig.TopScore)
	assert.Equal(t, 3, sig.Candidates)
	assert.Equal(t, 2, sig.AboveThreshold)
	assert.Equal(t, []string{"q1", "q2", "q3"}, sig.Sources)
	assert.Equal(t, SourceSearch, sig.Source)
	assert.False(t, sig.Fallback)
}

func TestSearch_QueryFiltersEveryField(t *testing.T) {
	backend := &fakeBackend{status: "yellow", hits: `[{"_id":"q1","_score":0.5}]`}
	a := newTestAdapter(t, backend)

	_, err := a.Search(context.Background(), additionQuery)
	require.NoError(t, err)

	q := backend.lastQuery.Load().(string)
	filters := gjson.Get(q, "query.bool.filter").Array()
	require.Len(t, filters, 4)
	assert.Equal(t, "ADDITION", gjson.Get(q, "query.bool.filter.0.term.type").String())
	assert.Equal(t, "number-operations", gjson.Get(q, "query.bool.filter.1.term.category").String())
	assert.Equal(t, "MEDIUM", gjson.Get(q, "query.bool.filter.2.term.difficulty").String())
	assert.Equal(t, int64(3), gjson.Get(q, "query.bool.filter.3.term.grade").Int())
	assert.Equal(t, int64(10), gjson.Get(q, "size").Int())
}

func TestSearch_ClampsScores(t *testing.T) {
	backend := &fakeBackend{status: "green", hits: `[{"_id":"a","_score":7.5},{"_id":"b","_score":-1}]`}
	a := newTestAdapter(t, backend)

	sig, err := a.Search(context.Background(), additionQuery)
	require.NoError(t, err)
	assert.Equal(t, 0.5, sig.Score)
	assert.Equal(t, 1.0, sig.TopScore)
}

func TestSearch_NoCandidates(t *testing.T) {
	a := newTestAdapter(t, &fakeBackend{status: "green", hits: `[]`})

	_, err := a.Search(context.Background(), additionQuery)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestSearch_Unhealthy(t *testing.T) {
	backend := &fakeBackend{status: "red", hits: `[]`}
	a := newTestAdapter(t, backend)

	_, err := a.Search(context.Background(), additionQuery)
	var unhealthy *ErrUnhealthy
	require.ErrorAs(t, err, &unhealthy)
	assert.Equal(t, "red", unhealthy.Status)
	assert.Equal(t, int32(0), backend.searchCalls.Load())
}

func TestSearch_ServerError(t *testing.T) {
	a := newTestAdapter(t, &fakeBackend{status: "green", searchCode: http.StatusServiceUnavailable})

	_, err := a.Search(context.Background(), additionQuery)
	var unavail *ErrBackendUnavailable
	require.ErrorAs(t, err, &unavail)
	assert.Equal(t, "search", unavail.Op)
}

func TestSearch_Timeout(t *testing.T) {
	backend := &fakeBackend{status: "green", hits: `[]`, delay: 2 * time.Second}
	a := newTestAdapter(t, backend, func(c *Config) { c.Timeout = 50 * time.Millisecond })

	start := time.Now()
	_, err := a.Search(context.Background(), additionQuery)
	var unavail *ErrBackendUnavailable
	require.ErrorAs(t, err, &unavail)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSearch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = url
	a := NewAdapter(cfg)

	_, err := a.Search(context.Background(), additionQuery)
	var unavail *ErrBackendUnavailable
	require.ErrorAs(t, err, &unavail)
	assert.Equal(t, "health", unavail.Op)
}

func TestSearch_Disabled(t *testing.T) {
	a := NewAdapter(DefaultConfig())

	_, err := a.Search(context.Background(), additionQuery)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestHealthCache(t *testing.T) {
	backend := &fakeBackend{status: "green", hits: `[{"_id":"q1","_score":0.9}]`}
	a := newTestAdapter(t, backend)

	now := time.Unix(1000, 0)
	a.now = func() time.Time { return now }

	for range 3 {
		_, err := a.Search(context.Background(), additionQuery)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), backend.healthCalls.Load())
	assert.Equal(t, int32(3), backend.searchCalls.Load())

	now = now.Add(4 * time.Second)
	_, err := a.Search(context.Background(), additionQuery)
	require.NoError(t, err)
	assert.Equal(t, int32(2), backend.healthCalls.Load())
}

func TestHealthCache_ConcurrentLookups(t *testing.T) {
	backend := &fakeBackend{status: "green", hits: `[{"_id":"q1","_score":0.9}]`}
	a := newTestAdapter(t, backend)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Retrieve(context.Background(), additionQuery)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), backend.healthCalls.Load())
}

type countingObserver struct {
	mu      sync.Mutex
	sources []string
}

func (o *countingObserver) ObserveRelevance(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sources = append(o.sources, source)
}

func TestRetrieve_FallsBackOnError(t *testing.T) {
	backend := &fakeBackend{status: "green", hits: `[]`, delay: 2 * time.Second}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	obs := &countingObserver{}
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.Timeout = 30 * time.Millisecond
	a := NewAdapter(cfg, WithObserver(obs))

	sig := a.Retrieve(context.Background(), additionQuery)
	assert.True(t, sig.Fallback)
	assert.Equal(t, SourceFallback, sig.Source)
	assert.LessOrEqual(t, sig.Score, 0.8)
	assert.Equal(t, []string{SourceFallback}, obs.sources)
}

func TestRetrieve_ReturnsRealSignal(t *testing.T) {
	a := newTestAdapter(t, &fakeBackend{status: "green", hits: `[{"_id":"q1","_score":0.95}]`})

	sig := a.Retrieve(context.Background(), additionQuery)
	assert.False(t, sig.Fallback)
	assert.Equal(t, 0.95, sig.Score)
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want float64
	}{
		{"all boosts capped", Query{Type: "ADDITION", Category: "number-operations", Difficulty: taxonomy.DifficultyEasy}, 0.8},
		{"hard known type", Query{Type: "ADDITION", Category: "number-operations", Difficulty: taxonomy.DifficultyHard}, 0.8},
		{"type outside category", Query{Type: "AREA", Category: "number-operations", Difficulty: taxonomy.DifficultyHard}, 0.75},
		{"unknown category", Query{Type: "ADDITION", Category: "astrology", Difficulty: taxonomy.DifficultyMedium}, 0.75},
		{"nothing known", Query{Type: "X", Category: "astrology", Difficulty: taxonomy.DifficultyHard}, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Fallback(tt.q)
			assert.InDelta(t, tt.want, sig.Score, 1e-9)
			assert.True(t, sig.Fallback)
			assert.Equal(t, SourceFallback, sig.Source)
			assert.Zero(t, sig.Candidates)
		})
	}
}

func TestSignalJSON(t *testing.T) {
	data, err := json.Marshal(Fallback(additionQuery))
	require.NoError(t, err)
	assert.Equal(t, "fallback", gjson.GetBytes(data, "source").String())
	assert.True(t, gjson.GetBytes(data, "fallback").Bool())
}

func TestErrorMessages(t *testing.T) {
	err := &ErrBackendUnavailable{Op: "health", Err: errors.New("refused")}
	assert.Contains(t, err.Error(), "health")
	assert.Contains(t, (&ErrUnhealthy{Status: "red"}).Error(), "red")
}

func TestHealth(t *testing.T) {
	backend := &fakeBackend{status: "yellow"}
	a := newTestAdapter(t, backend)

	assert.NoError(t, a.Health(context.Background()))
	assert.NoError(t, a.Health(context.Background()))
	assert.Equal(t, int32(2), backend.healthCalls.Load(), "Health bypasses the cache")

	assert.ErrorIs(t, NewAdapter(DefaultConfig()).Health(context.Background()), ErrDisabled)
}
