package manager

import "context"

// Tokenizer turns text into token ids and describes the special tokens of
// the model vocabulary.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]int32, error)
	Special() SpecialTokens
}

// Model runs generation. Implementations must be safe for concurrent use by
// read-only callers; the Manager serialises compute through BeginGeneration.
type Model interface {
	// Generate produces the continuation for prompt. Text never contains
	// special tokens.
	Generate(ctx context.Context, prompt string, params GenerateParams) (Generation, error)
	// Close releases the weights and any accelerator memory.
	Close() error
}

// TransientReleaser is implemented by models that hold per-call scratch
// memory on an accelerator that can be released between calls.
type TransientReleaser interface {
	ReleaseTransient()
}

// Loader acquires real tokenizer and model handles.
type Loader interface {
	LoadTokenizer(ctx context.Context, req LoadRequest) (Tokenizer, error)
	// LoadModel materialises the model for plan. tok is the tokenizer
	// returned by LoadTokenizer for the same request.
	LoadModel(ctx context.Context, req LoadRequest, plan LoadPlan, tok Tokenizer) (Model, error)
}

// LoadRequest identifies what to load and with which credential.
type LoadRequest struct {
	ModelID    string
	Credential string
}

// SpecialTokens describes the vocabulary markers generation depends on.
type SpecialTokens struct {
	BOS   string
	EOS   string
	PAD   string
	EOSID int32
	PADID int32
}

// GenerateParams captures sampling parameters for one generation call.
type GenerateParams struct {
	MaxNewTokens int
	Temperature  float32
	TopP         float32
	Sample       bool
	// Stop ends generation when produced; the EOS token is always included.
	Stop []string
}

// Generation is the decoded output of one call.
type Generation struct {
	Text   string
	Tokens []int32
}

// paddedTokenizer aliases a missing pad token to EOS.
type paddedTokenizer struct {
	Tokenizer
	special SpecialTokens
}

func (p paddedTokenizer) Special() SpecialTokens { return p.special }

// withPadToken returns tok unchanged when it defines a pad token, otherwise
// a wrapper whose pad token is the end-of-sequence token.
func withPadToken(tok Tokenizer) Tokenizer {
	sp := tok.Special()
	if sp.PAD != "" {
		return tok
	}
	sp.PAD = sp.EOS
	sp.PADID = sp.EOSID
	return paddedTokenizer{Tokenizer: tok, special: sp}
}
