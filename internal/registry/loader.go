package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qexpand/internal/common/fsutil"
	"qexpand/pkg/types"
)

// LoadDir scans a directory for *.gguf files and builds a listing from filenames.
// ID is the full filename (including extension); Path is the absolute file path.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		models = append(models, types.Model{ID: name, Name: name, Path: filepath.Join(abs, name), Quant: quantFromName(name)})
	}
	return models, nil
}

// quantFromName guesses the quantization suffix of a GGUF filename,
// e.g. "Meta-Llama-3.1-8B-Instruct-Q4_K_M.gguf" -> "q4_k_m".
func quantFromName(name string) string {
	stem := strings.TrimSuffix(strings.ToLower(name), ".gguf")
	for _, q := range []string{"q4_k_m", "q8_0", "f16", "f32"} {
		if strings.HasSuffix(stem, q) {
			return q
		}
	}
	return ""
}
