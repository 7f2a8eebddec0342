package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"qexpand/internal/common/fsutil"
)

// TokenizerConfigFile is the per-repo file describing special tokens.
const TokenizerConfigFile = "tokenizer_config.json"

// ErrArtifactMissing is returned when a file is neither cached locally nor
// downloadable.
var ErrArtifactMissing = errors.New("model artifact not found")

// DefaultArtifacts maps quantization names to GGUF filenames in DefaultArtifactRepo.
var DefaultArtifacts = map[string]string{
	"q8_0":   "Meta-Llama-3.1-8B-Instruct-Q8_0.gguf",
	"q4_k_m": "Meta-Llama-3.1-8B-Instruct-Q4_K_M.gguf",
	"f16":    "Meta-Llama-3.1-8B-Instruct-f16.gguf",
}

// DefaultArtifactRepo hosts GGUF conversions of the default model.
const DefaultArtifactRepo = "bartowski/Meta-Llama-3.1-8B-Instruct-GGUF"

// Options configures a Registry.
type Options struct {
	Dir          string
	ArtifactRepo string
	Artifacts    map[string]string
	// Hub enables downloads of missing files. Nil keeps the registry local-only.
	Hub    *Hub
	Logger *zerolog.Logger
}

// Registry resolves model files to local paths, downloading them on demand.
type Registry struct {
	dir   string
	repo  string
	files map[string]string
	hub   *Hub
	log   zerolog.Logger
}

// New builds a Registry rooted at o.Dir (a leading '~' is expanded).
func New(o Options) (*Registry, error) {
	dir, err := fsutil.ExpandHome(o.Dir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, errors.New("registry: empty models dir")
	}
	r := &Registry{
		dir:   dir,
		repo:  o.ArtifactRepo,
		files: make(map[string]string, len(DefaultArtifacts)),
		hub:   o.Hub,
		log:   zerolog.Nop(),
	}
	if r.repo == "" {
		r.repo = DefaultArtifactRepo
	}
	for k, v := range DefaultArtifacts {
		r.files[k] = v
	}
	for k, v := range o.Artifacts {
		r.files[strings.ToLower(k)] = v
	}
	if o.Logger != nil {
		r.log = o.Logger.With().Str("component", "registry").Logger()
	}
	return r, nil
}

// Dir returns the local models directory.
func (r *Registry) Dir() string { return r.dir }

// Artifact returns the local path of the GGUF file for quant.
func (r *Registry) Artifact(ctx context.Context, quant, token string) (string, error) {
	name, ok := r.files[strings.ToLower(quant)]
	if !ok || name == "" {
		return "", fmt.Errorf("%w: no artifact configured for %q", ErrArtifactMissing, quant)
	}
	return r.fetch(ctx, r.repo, name, filepath.Join(r.dir, name), token)
}

// TokenizerConfig returns the tokenizer_config.json contents for modelID.
func (r *Registry) TokenizerConfig(ctx context.Context, modelID, token string) ([]byte, error) {
	dest := filepath.Join(r.dir, repoDirName(modelID), TokenizerConfigFile)
	p, err := r.fetch(ctx, modelID, TokenizerConfigFile, dest, token)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (r *Registry) fetch(ctx context.Context, repo, file, dest, token string) (string, error) {
	if fi, err := os.Stat(dest); err == nil && !fi.IsDir() {
		return dest, nil
	}
	if r.hub == nil {
		return "", fmt.Errorf("%w: %s (downloads disabled)", ErrArtifactMissing, dest)
	}
	r.log.Info().Str("repo", repo).Str("file", file).Msg("downloading model artifact")
	if err := r.hub.Download(ctx, repo, file, token, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// repoDirName flattens "org/name" into a single directory component.
func repoDirName(repo string) string {
	return strings.ReplaceAll(repo, "/", "--")
}
