package manager

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// ArtifactSource resolves model files to local paths. *registry.Registry
// satisfies it.
type ArtifactSource interface {
	Artifact(ctx context.Context, quant, token string) (string, error)
	TokenizerConfig(ctx context.Context, modelID, token string) ([]byte, error)
}

// LlamaLoader loads GGUF models through llama.cpp. Without the 'llama'
// build tag LoadModel always fails with a dependency-unavailable error.
type LlamaLoader struct {
	src     ArtifactSource
	threads int
	log     zerolog.Logger
}

// NewLlamaLoader returns a loader reading artifacts from src.
func NewLlamaLoader(src ArtifactSource, threads int, logger *zerolog.Logger) *LlamaLoader {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	l := &LlamaLoader{src: src, threads: threads, log: zerolog.Nop()}
	if logger != nil {
		l.log = logger.With().Str("component", "llama").Logger()
	}
	return l
}

// LoadTokenizer reads the special tokens for req.ModelID. Tokenisation
// itself is bound once the model weights are loaded.
func (l *LlamaLoader) LoadTokenizer(ctx context.Context, req LoadRequest) (Tokenizer, error) {
	b, err := l.src.TokenizerConfig(ctx, req.ModelID, req.Credential)
	if err != nil {
		return nil, fmt.Errorf("tokenizer config: %w", err)
	}
	sp, err := ParseTokenizerConfig(b)
	if err != nil {
		return nil, err
	}
	return &llamaTokenizer{special: sp}, nil
}

// LoadModel resolves the artifact for plan.Quant and opens it. Builds
// without llama support fail before any artifact is fetched.
func (l *LlamaLoader) LoadModel(ctx context.Context, req LoadRequest, plan LoadPlan, tok Tokenizer) (Model, error) {
	if !llamaBuilt {
		return nil, ErrDependencyUnavailable("llama support not built")
	}
	path, err := l.src.Artifact(ctx, string(plan.Quant), req.Credential)
	if err != nil {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("artifact for %s: %v", plan.Quant, err))
	}
	if plan.Threads <= 0 {
		plan.Threads = l.threads
	}
	l.log.Debug().Str("path", path).Str("plan", plan.Name).Msg("opening model")
	return l.openModel(path, plan, baseTokenizer(tok))
}

// llamaTokenizer carries the special tokens until a model binds the
// tokenize function.
type llamaTokenizer struct {
	special SpecialTokens

	mu       sync.RWMutex
	tokenize func(text string) ([]int32, error)
}

func (t *llamaTokenizer) Special() SpecialTokens { return t.special }

func (t *llamaTokenizer) Tokenize(ctx context.Context, text string) ([]int32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	fn := t.tokenize
	t.mu.RUnlock()
	if fn == nil {
		return nil, errors.New("tokenizer not bound to a loaded model")
	}
	return fn(text)
}

func (t *llamaTokenizer) bind(fn func(text string) ([]int32, error)) {
	t.mu.Lock()
	t.tokenize = fn
	t.mu.Unlock()
}

// baseTokenizer strips the pad-token alias wrapper.
func baseTokenizer(t Tokenizer) Tokenizer {
	if p, ok := t.(paddedTokenizer); ok {
		return p.Tokenizer
	}
	return t
}
