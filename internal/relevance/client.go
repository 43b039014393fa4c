package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

type hit struct {
	id    string
	score float64
}

// checkHealth probes /_cluster/health, reusing a result younger than
// HealthCacheTTL. Probe failures are cached too so a down backend is not
// hammered by every concurrent type lookup.
func (a *Adapter) checkHealth(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.healthAt.IsZero() && a.now().Sub(a.healthAt) < a.cfg.HealthCacheTTL {
		return a.healthErr
	}

	err := a.probeHealth(ctx)
	// A caller's own cancellation says nothing about the backend.
	if ctx.Err() != nil {
		return err
	}
	a.healthAt = a.now()
	a.healthErr = err
	return err
}

// Health probes the backend without the cache. It returns ErrDisabled when
// no backend is configured.
func (a *Adapter) Health(ctx context.Context) error {
	if !a.cfg.Enabled() {
		return ErrDisabled
	}
	return a.probeHealth(ctx)
}

func (a *Adapter) probeHealth(ctx context.Context) error {
	body, err := a.do(ctx, "health", http.MethodGet, "/_cluster/health", nil)
	if err != nil {
		return err
	}
	status := gjson.GetBytes(body, "status").String()
	switch status {
	case "green", "yellow":
		return nil
	}
	return &ErrUnhealthy{Status: status}
}

// search runs the candidate query for q and returns the hits in rank order.
func (a *Adapter) search(ctx context.Context, q Query) ([]hit, error) {
	payload, err := json.Marshal(buildSearchBody(q, a.cfg.MaxCandidates))
	if err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	body, err := a.do(ctx, "search", http.MethodPost, "/"+a.cfg.Index+"/_search", payload)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, &ErrBackendUnavailable{Op: "search", Err: errors.New("malformed response body")}
	}

	var hits []hit
	gjson.GetBytes(body, "hits.hits").ForEach(func(_, v gjson.Result) bool {
		hits = append(hits, hit{
			id:    v.Get("_id").String(),
			score: v.Get("_score").Float(),
		})
		return true
	})
	return hits, nil
}

// buildSearchBody filters reference questions on every query field.
func buildSearchBody(q Query, size int) map[string]any {
	filters := []map[string]any{
		{"term": map[string]any{"type": q.Type}},
		{"term": map[string]any{"category": q.Category}},
	}
	if q.Difficulty != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"difficulty": string(q.Difficulty)}})
	}
	if q.Grade > 0 {
		filters = append(filters, map[string]any{"term": map[string]any{"grade": q.Grade}})
	}
	return map[string]any{
		"size":    size,
		"_source": false,
		"query": map[string]any{
			"bool": map[string]any{"filter": filters},
		},
	}
}

// do performs one timeout-bounded request. Transport errors, timeouts and
// 5xx answers become *ErrBackendUnavailable.
func (a *Adapter) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	url := strings.TrimRight(a.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &ErrBackendUnavailable{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrBackendUnavailable{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ErrBackendUnavailable{Op: op, Err: fmt.Errorf("HTTP %d for %s", resp.StatusCode, path)}
	}
	return data, nil
}
