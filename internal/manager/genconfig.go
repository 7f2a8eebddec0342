package manager

import (
	"fmt"
	"strings"
)

// QueryPlaceholder is the single insertion point in a prompt template.
const QueryPlaceholder = "{query}"

const (
	DefaultModelID      = "meta-llama/Llama-3.1-8B-Instruct"
	DefaultMaxLength    = 512
	DefaultMaxNewTokens = 100
	DefaultTemperature  = 0.7
	DefaultTopP         = 0.9
	DefaultAnswerMarker = "Improved query:"
)

// DefaultPromptTemplate asks the model for a single rewritten query.
const DefaultPromptTemplate = `You are a search query optimizer. Your task is to improve the given search query by:
1. Expanding abbreviations to full words
2. Correcting spelling mistakes
3. Adding relevant synonyms or related terms
4. Improving clarity while maintaining the original intent

Rules:
- Keep the expanded query concise (max 2x original length)
- Maintain the original search intent
- Use common, searchable terms
- Return only the improved query, no explanations

Original query: {query}
Improved query:`

// GenerationConfig is fixed at construction and never mutated afterwards.
// Build it with NewGenerationConfig.
type GenerationConfig struct {
	modelID        string
	maxLength      int
	maxNewTokens   int
	temperature    float32
	topP           float32
	promptTemplate string
	answerMarker   string
}

// GenerationOptions are the raw inputs to NewGenerationConfig. Zero values
// take the package defaults.
type GenerationOptions struct {
	ModelID        string
	MaxLength      int
	MaxNewTokens   int
	Temperature    float32
	TopP           float32
	PromptTemplate string
	AnswerMarker   string
}

// NewGenerationConfig validates opts and applies defaults. The template must
// contain exactly one QueryPlaceholder.
func NewGenerationConfig(opts GenerationOptions) (GenerationConfig, error) {
	c := GenerationConfig{
		modelID:        opts.ModelID,
		maxLength:      opts.MaxLength,
		maxNewTokens:   opts.MaxNewTokens,
		temperature:    opts.Temperature,
		topP:           opts.TopP,
		promptTemplate: opts.PromptTemplate,
		answerMarker:   opts.AnswerMarker,
	}
	if c.modelID == "" {
		c.modelID = DefaultModelID
	}
	if c.maxLength <= 0 {
		c.maxLength = DefaultMaxLength
	}
	if c.maxNewTokens <= 0 {
		c.maxNewTokens = DefaultMaxNewTokens
	}
	if c.temperature <= 0 {
		c.temperature = DefaultTemperature
	}
	if c.topP <= 0 || c.topP > 1 {
		c.topP = DefaultTopP
	}
	if c.promptTemplate == "" {
		c.promptTemplate = DefaultPromptTemplate
	}
	if c.answerMarker == "" {
		c.answerMarker = DefaultAnswerMarker
	}
	if n := strings.Count(c.promptTemplate, QueryPlaceholder); n != 1 {
		return GenerationConfig{}, fmt.Errorf("prompt template must contain exactly one %s, found %d", QueryPlaceholder, n)
	}
	return c, nil
}

// DefaultGenerationConfig returns the defaults; it cannot fail.
func DefaultGenerationConfig() GenerationConfig {
	c, _ := NewGenerationConfig(GenerationOptions{})
	return c
}

func (c GenerationConfig) ModelID() string      { return c.modelID }
func (c GenerationConfig) MaxLength() int       { return c.maxLength }
func (c GenerationConfig) MaxNewTokens() int    { return c.maxNewTokens }
func (c GenerationConfig) Temperature() float32 { return c.temperature }
func (c GenerationConfig) TopP() float32        { return c.topP }
func (c GenerationConfig) AnswerMarker() string { return c.answerMarker }

// Render substitutes query at the template's insertion point.
func (c GenerationConfig) Render(query string) string {
	return strings.Replace(c.promptTemplate, QueryPlaceholder, query, 1)
}
