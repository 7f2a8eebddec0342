//go:build llama

package manager

import (
	"context"
	"errors"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// llamaModel owns the loaded llama.cpp context.
type llamaModel struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
}

func (l *LlamaLoader) openModel(path string, plan LoadPlan, tok Tokenizer) (Model, error) {
	mo := []llama.ModelOption{
		llama.SetContext(plan.ContextSize),
		llama.SetMMap(plan.MMap),
	}
	if plan.GPULayers > 0 {
		mo = append(mo, llama.SetGPULayers(plan.GPULayers))
	}
	if plan.F16Memory {
		mo = append(mo, llama.EnableF16Memory)
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	lm := &llamaModel{model: m, threads: plan.Threads}
	if lt, ok := tok.(*llamaTokenizer); ok {
		lt.bind(lm.tokenize)
	}
	return lm, nil
}

func (s *llamaModel) tokenize(text string) ([]int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	_, toks, err := s.model.TokenizeString(text, llama.SetThreads(max(1, s.threads)))
	return toks, err
}

func (s *llamaModel) Generate(ctx context.Context, prompt string, params GenerateParams) (Generation, error) {
	if err := ctx.Err(); err != nil {
		return Generation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return Generation{}, errors.New("llama model not initialized")
	}
	text, err := s.model.Predict(prompt, predictOptions(params, s.threads)...)
	if err != nil {
		return Generation{}, err
	}
	return Generation{Text: text}, nil
}

func (s *llamaModel) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts our params into go-llama.cpp options. llama.cpp
// always samples; a non-sampling request is expressed as temperature 0.
func predictOptions(params GenerateParams, threads int) []llama.PredictOption {
	temp := zf(params.Temperature, llama.DefaultOptions.Temperature)
	if !params.Sample {
		temp = 0
	}
	po := []llama.PredictOption{
		llama.SetTokens(max(1, params.MaxNewTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(zf(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTemperature(temp),
		llama.SetPenalty(llama.DefaultOptions.Penalty),
	}
	if len(params.Stop) > 0 {
		po = append(po, llama.SetStopWords(params.Stop...))
	}
	return po
}
