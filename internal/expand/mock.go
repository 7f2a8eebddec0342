package expand

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"qexpand/internal/manager"
)

// mockExpansions maps known queries (lower-cased) to a fixed expansion.
var mockExpansions = map[string]string{
	"ml algos":       "machine learning algorithms",
	"ai/ml enginer":  "artificial intelligence machine learning engineer",
	"deep lerning":   "deep learning",
	"nlp techniques": "natural language processing techniques",
	"computer vison": "computer vision",
	"data sci":       "data science",
	"neural nets":    "neural networks",
	"cnn":            "convolutional neural networks",
	"rnn":            "recurrent neural networks",
}

type substitution struct {
	re      *regexp.Regexp
	repl    string
	applies func(lower string, words int) bool
}

// mockSubstitutions run in order, each at most once per query.
var mockSubstitutions = []substitution{
	{re: regexp.MustCompile(`(?i)algo`), repl: "algorithm", applies: func(lower string, _ int) bool {
		return !strings.Contains(lower, "algorithm")
	}},
	{re: regexp.MustCompile(`(?i)enginer`), repl: "engineer"},
	{re: regexp.MustCompile(`(?i)lerning`), repl: "learning"},
	{re: regexp.MustCompile(`(?i)vison`), repl: "vision"},
	{re: regexp.MustCompile(`(?i)\bsci\b`), repl: "science", applies: func(_ string, words int) bool {
		return words <= 2
	}},
}

const (
	enrichSuffix   = " techniques and applications"
	fallbackPrefix = "enhanced "
	shortMaxRunes  = 4
)

// MockExpand is the deterministic offline rewrite. It never returns query
// unchanged.
func MockExpand(query string) string {
	if v, ok := mockExpansions[strings.ToLower(strings.TrimSpace(query))]; ok {
		return v
	}
	expanded := query
	for _, s := range mockSubstitutions {
		lower := strings.ToLower(expanded)
		if s.applies != nil && !s.applies(lower, len(strings.Fields(expanded))) {
			continue
		}
		expanded = s.re.ReplaceAllString(expanded, s.repl)
	}
	if words := strings.Fields(expanded); len(words) == 1 && utf8.RuneCountInString(words[0]) <= shortMaxRunes {
		expanded = strings.TrimSpace(expanded) + enrichSuffix
	}
	if expanded == query {
		return fallbackPrefix + query
	}
	return expanded
}

// expandMock exercises the mock handles when the process is mock-backed,
// waits the simulated latency and returns the cleaned MockExpand result.
func (e *Engine) expandMock(ctx context.Context, h manager.Handles, query string) string {
	if h.Strategy == manager.StrategyMock {
		ids, _ := h.Tokenizer.Tokenize(ctx, query)
		gen, _ := h.Model.Generate(ctx, query, manager.GenerateParams{MaxNewTokens: e.cfg.MaxNewTokens()})
		e.log.Debug().Int("input_tokens", len(ids)).Int("output_tokens", len(gen.Tokens)).Msg("mock generation")
	}
	t := time.NewTimer(e.mockDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return Clean(MockExpand(query))
}
