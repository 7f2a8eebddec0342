//go:build !llama

package manager

// This file provides a no-CGO stub for the llama loader. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.
// Such binaries always run on the mock handles.

var llamaBuilt = false

func (l *LlamaLoader) openModel(path string, plan LoadPlan, tok Tokenizer) (Model, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
