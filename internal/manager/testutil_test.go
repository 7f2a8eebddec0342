package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeTokenizer charges one token per four bytes.
type fakeTokenizer struct {
	special SpecialTokens
	err     error
}

func (f fakeTokenizer) Tokenize(ctx context.Context, text string) ([]int32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return make([]int32, len(text)/4+1), nil
}

func (f fakeTokenizer) Special() SpecialTokens { return f.special }

// fakeModel returns a canned generation.
type fakeModel struct {
	mu     sync.Mutex
	text   string
	closed int
}

func (f *fakeModel) Generate(ctx context.Context, prompt string, params GenerateParams) (Generation, error) {
	return Generation{Text: f.text}, nil
}

func (f *fakeModel) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

func (f *fakeModel) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeLoader records the plans it was asked to load and fails the first
// failModel attempts.
type fakeLoader struct {
	mu        sync.Mutex
	tokErr    error
	failModel int
	special   SpecialTokens
	model     *fakeModel
	plans     []LoadPlan
	reqs      []LoadRequest
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		special: SpecialTokens{BOS: "<|begin_of_text|>", EOS: "<|eot_id|>", EOSID: 128009},
		model:   &fakeModel{text: "machine learning algorithms"},
	}
}

func (f *fakeLoader) LoadTokenizer(ctx context.Context, req LoadRequest) (Tokenizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.tokErr != nil {
		return nil, f.tokErr
	}
	return fakeTokenizer{special: f.special}, nil
}

func (f *fakeLoader) LoadModel(ctx context.Context, req LoadRequest, plan LoadPlan, tok Tokenizer) (Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, plan)
	if len(f.plans) <= f.failModel {
		return nil, errors.New("quantization backend unavailable")
	}
	return f.model, nil
}

func (f *fakeLoader) planNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.plans))
	for _, p := range f.plans {
		out = append(out, p.Name)
	}
	return out
}

func staticCredential(tok string) func() string { return func() string { return tok } }

func noAccelerator() bool { return false }

// newTestManager returns a manager with a credential, no accelerator and
// short admission/drain timeouts.
func newTestManager(t *testing.T, loader Loader) *Manager {
	t.Helper()
	return NewWithConfig(ManagerConfig{
		Loader:       loader,
		Credential:   staticCredential("hf_test"),
		Probe:        noAccelerator,
		MaxWait:      50 * time.Millisecond,
		DrainTimeout: 200 * time.Millisecond,
	})
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
