package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultExperiment is the experiment expansion runs are filed under.
const DefaultExperiment = "query-expansion-production"

// MLflowTracker logs each record as a finished run through the MLflow REST
// API. The experiment is looked up (or created) on first use.
type MLflowTracker struct {
	base       string
	experiment string
	tags       Tags
	client     *http.Client

	mu           sync.Mutex
	experimentID string
}

// NewMLflow returns a tracker for the server at trackingURI.
func NewMLflow(trackingURI, experiment string, tags Tags, client *http.Client) *MLflowTracker {
	if experiment == "" {
		experiment = DefaultExperiment
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &MLflowTracker{
		base:       strings.TrimRight(trackingURI, "/") + "/api/2.0/mlflow",
		experiment: experiment,
		tags:       tags,
		client:     client,
	}
}

// mlflowError is a non-2xx response from the tracking server.
type mlflowError struct {
	status int
	Code   string `json:"error_code"`
	Msg    string `json:"message"`
}

func (e *mlflowError) Error() string {
	return fmt.Sprintf("mlflow: status %d: %s %s", e.status, e.Code, e.Msg)
}

func (e *mlflowError) StatusCode() int { return e.status }

type kv struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type metricJSON struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

// LogExpansion creates a run, logs params, metrics and tags in one batch and
// marks the run finished.
func (m *MLflowTracker) LogExpansion(ctx context.Context, r Record) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	expID, err := m.ensureExperiment(ctx)
	if err != nil {
		return err
	}
	ts := r.Timestamp.UnixMilli()

	var created struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	err = m.call(ctx, http.MethodPost, "/runs/create", map[string]any{
		"experiment_id": expID,
		"run_name":      r.RunName(),
		"start_time":    ts,
	}, &created)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	runID := created.Run.Info.RunID

	params := []kv{
		{Key: "original_query", Value: r.OriginalQuery},
		{Key: "expanded_query", Value: r.ExpandedQuery},
		{Key: "timestamp", Value: r.Timestamp.UTC().Format(time.RFC3339Nano)},
	}
	var metrics []metricJSON
	for _, mt := range r.Metrics() {
		metrics = append(metrics, metricJSON{Key: mt.Key, Value: mt.Value, Timestamp: ts})
	}
	var tags []kv
	for _, p := range m.tags.pairs() {
		tags = append(tags, kv{Key: p[0], Value: p[1]})
	}
	tags = append(tags, kv{Key: "degraded", Value: strconv.FormatBool(r.Degraded)})

	err = m.call(ctx, http.MethodPost, "/runs/log-batch", map[string]any{
		"run_id":  runID,
		"params":  params,
		"metrics": metrics,
		"tags":    tags,
	}, nil)
	if err != nil {
		return fmt.Errorf("log batch: %w", err)
	}
	err = m.call(ctx, http.MethodPost, "/runs/update", map[string]any{
		"run_id":   runID,
		"status":   "FINISHED",
		"end_time": time.Now().UnixMilli(),
	}, nil)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func (m *MLflowTracker) ensureExperiment(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.experimentID != "" {
		return m.experimentID, nil
	}
	var got struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	err := m.call(ctx, http.MethodGet, "/experiments/get-by-name?experiment_name="+url.QueryEscape(m.experiment), nil, &got)
	if err == nil && got.Experiment.ExperimentID != "" {
		m.experimentID = got.Experiment.ExperimentID
		return m.experimentID, nil
	}
	var me *mlflowError
	if err != nil && !(errors.As(err, &me) && me.status == http.StatusNotFound) {
		return "", fmt.Errorf("get experiment %q: %w", m.experiment, err)
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := m.call(ctx, http.MethodPost, "/experiments/create", map[string]any{"name": m.experiment}, &created); err != nil {
		return "", fmt.Errorf("create experiment %q: %w", m.experiment, err)
	}
	m.experimentID = created.ExperimentID
	return m.experimentID, nil
}

func (m *MLflowTracker) call(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		me := &mlflowError{status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(me)
		return me
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Close is a no-op; the HTTP client holds no per-tracker resources.
func (m *MLflowTracker) Close() error { return nil }
