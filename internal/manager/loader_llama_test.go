//go:build !llama

package manager

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	config   []byte
	artifact string
	err      error
	quants   []string
}

func (f *fakeSource) Artifact(ctx context.Context, quant, token string) (string, error) {
	f.quants = append(f.quants, quant)
	if f.err != nil {
		return "", f.err
	}
	return f.artifact, nil
}

func (f *fakeSource) TokenizerConfig(ctx context.Context, modelID, token string) ([]byte, error) {
	if f.config == nil {
		return nil, errors.New("not found")
	}
	return f.config, nil
}

func TestLlamaLoader_TokenizerUnboundUntilModelLoads(t *testing.T) {
	src := &fakeSource{config: []byte(`{"eos_token": "<|eot_id|>"}`)}
	l := NewLlamaLoader(src, 0, nil)
	tok, err := l.LoadTokenizer(testCtx(t), LoadRequest{ModelID: DefaultModelID, Credential: "hf"})
	if err != nil {
		t.Fatalf("LoadTokenizer: %v", err)
	}
	if tok.Special().EOS != "<|eot_id|>" {
		t.Fatalf("special = %+v", tok.Special())
	}
	if _, err := tok.Tokenize(testCtx(t), "hello"); err == nil {
		t.Fatalf("expected unbound tokenizer error")
	}
}

func TestLlamaLoader_StubModelUnavailable(t *testing.T) {
	src := &fakeSource{config: []byte(`{"eos_token": "</s>"}`), artifact: "/models/x.gguf"}
	l := NewLlamaLoader(src, 2, nil)
	tok, err := l.LoadTokenizer(testCtx(t), LoadRequest{})
	if err != nil {
		t.Fatalf("LoadTokenizer: %v", err)
	}
	_, err = l.LoadModel(testCtx(t), LoadRequest{}, SelectPlan(DeviceCPU, PlanOptions{}), withPadToken(tok))
	if !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if len(src.quants) != 0 {
		t.Fatalf("stub build must not fetch artifacts, got %v", src.quants)
	}
}

func TestLlamaLoader_MissingArtifact(t *testing.T) {
	src := &fakeSource{config: []byte(`{"eos_token": "</s>"}`), err: errors.New("missing")}
	l := NewLlamaLoader(src, 1, nil)
	_, err := l.LoadModel(testCtx(t), LoadRequest{}, FallbackPlan(PlanOptions{}), nil)
	if !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if len(src.quants) != 0 {
		t.Fatalf("stub build must not fetch artifacts, got %v", src.quants)
	}
}

func TestInitialize_WithStubLoaderFallsBackToMock(t *testing.T) {
	src := &fakeSource{config: []byte(`{"eos_token": "</s>"}`), artifact: "/models/x.gguf"}
	m := newTestManager(t, NewLlamaLoader(src, 1, nil))
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if h, _ := m.Handles(); h.Strategy != StrategyMock {
		t.Fatalf("expected mock strategy, got %s", h.Strategy)
	}
	if len(src.quants) != 0 {
		t.Fatalf("stub build must not fetch artifacts, got %v", src.quants)
	}
}
