package expand

import (
	"context"
	"fmt"
	"strings"

	"qexpand/internal/manager"
)

// maxFitAttempts bounds how often the query is shortened to fit MaxLength.
const maxFitAttempts = 8

func (e *Engine) expandReal(ctx context.Context, h manager.Handles, query string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during generation: %v", r)
		}
	}()

	release, err := e.lc.BeginGeneration(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	prompt, err := e.fitPrompt(ctx, h.Tokenizer, query)
	if err != nil {
		return "", err
	}
	sp := h.Tokenizer.Special()
	params := manager.GenerateParams{
		MaxNewTokens: e.cfg.MaxNewTokens(),
		Temperature:  e.cfg.Temperature(),
		TopP:         e.cfg.TopP(),
		Sample:       true,
	}
	if sp.EOS != "" {
		params.Stop = []string{sp.EOS}
	}
	gen, err := h.Model.Generate(ctx, prompt, params)
	if h.Device == manager.DeviceGPU {
		if r, ok := h.Model.(manager.TransientReleaser); ok {
			defer r.ReleaseTransient()
		}
	}
	if err != nil {
		return "", err
	}

	answer := Clean(ExtractAnswer(gen.Text, e.cfg.AnswerMarker()))
	if answer == "" {
		return "", errEmptyGeneration
	}
	return answer, nil
}

// fitPrompt renders the template and shortens the query until the prompt
// fits in MaxLength tokens. The template itself is never cut, so the answer
// marker always reaches the model.
func (e *Engine) fitPrompt(ctx context.Context, tok manager.Tokenizer, query string) (string, error) {
	limit := e.cfg.MaxLength()
	q := []rune(query)
	for i := 0; i < maxFitAttempts; i++ {
		prompt := e.cfg.Render(string(q))
		ids, err := tok.Tokenize(ctx, prompt)
		if err != nil {
			return "", err
		}
		over := len(ids) - limit
		if over <= 0 {
			return prompt, nil
		}
		if len(q) == 0 {
			return "", errPromptTooLong
		}
		// roughly four runes per token; always drop at least one rune
		cut := min(len(q), max(1, over*4))
		q = q[:len(q)-cut]
	}
	return "", errPromptTooLong
}

// ExtractAnswer returns the text after the last occurrence of marker, or
// the whole text when the marker is absent (the model did not echo the
// prompt).
func ExtractAnswer(text, marker string) string {
	if marker == "" {
		return text
	}
	if i := strings.LastIndex(text, marker); i >= 0 {
		return text[i+len(marker):]
	}
	return text
}
