package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"qexpand/internal/expand"
	"qexpand/internal/httpapi"
	"qexpand/internal/manager"
	"qexpand/pkg/types"
)

// wordTokenizer charges one token per four bytes.
type wordTokenizer struct{}

func (wordTokenizer) Tokenize(ctx context.Context, text string) ([]int32, error) {
	return make([]int32, len(text)/4+1), nil
}

func (wordTokenizer) Special() manager.SpecialTokens {
	return manager.SpecialTokens{BOS: "<|begin_of_text|>", EOS: "<|eot_id|>", EOSID: 128009}
}

// echoModel answers with the prompt followed by a canned continuation, the
// way a causal model echoes its input. delay holds the generation slot.
type echoModel struct {
	answer string
	delay  time.Duration
	mu     sync.Mutex
	calls  int
}

func (m *echoModel) Generate(ctx context.Context, prompt string, p manager.GenerateParams) (manager.Generation, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	time.Sleep(m.delay)
	return manager.Generation{Text: prompt + " " + m.answer + "\n"}, nil
}

func (m *echoModel) Close() error { return nil }

func (m *echoModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// staticLoader hands out the same handles every time, or fails the model load.
type staticLoader struct {
	model   *echoModel
	loadErr error
}

func (l staticLoader) LoadTokenizer(ctx context.Context, req manager.LoadRequest) (manager.Tokenizer, error) {
	return wordTokenizer{}, nil
}

func (l staticLoader) LoadModel(ctx context.Context, req manager.LoadRequest, plan manager.LoadPlan, tok manager.Tokenizer) (manager.Model, error) {
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return l.model, nil
}

// newStack builds manager, engine and HTTP server around loader and
// initializes the model before returning.
func newStack(t *testing.T, loader manager.Loader, cfg manager.ManagerConfig, opts httpapi.Options) (*httptest.Server, *manager.Manager) {
	t.Helper()
	cfg.Loader = loader
	cfg.Credential = func() string { return "hf_test" }
	cfg.Probe = func() bool { return false }
	mgr := manager.NewWithConfig(cfg)
	if err := mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(mgr.Teardown)
	eng := expand.New(mgr, expand.Options{MockDelay: time.Millisecond})
	srv := httptest.NewServer(httpapi.NewMux(service{mgr: mgr, eng: eng}, opts))
	t.Cleanup(srv.Close)
	return srv, mgr
}

type service struct {
	mgr *manager.Manager
	eng *expand.Engine
}

func (s service) Ready() bool                  { return s.mgr.Ready() }
func (s service) Status() types.StatusResponse { return s.mgr.Status() }
func (s service) Expand(ctx context.Context, q string) (expand.Result, error) {
	return s.eng.ExpandResult(ctx, q)
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func postExpand(t *testing.T, base string, req types.ExpandRequest) (int, types.ExpandResponse) {
	t.Helper()
	payload, _ := json.Marshal(req)
	hreq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, base+"/expand", bytes.NewReader(payload))
	if err != nil {
		t.Errorf("new req: %v", err)
		return 0, types.ExpandResponse{}
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(hreq)
	if err != nil {
		t.Errorf("do req: %v", err)
		return 0, types.ExpandResponse{}
	}
	defer resp.Body.Close()
	var out types.ExpandResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}
