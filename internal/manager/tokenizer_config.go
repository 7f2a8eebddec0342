package manager

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// tokenizerConfig mirrors the fields of a Hugging Face tokenizer_config.json
// that generation depends on. Special tokens are either plain strings or
// objects with a "content" field.
type tokenizerConfig struct {
	BOS          json.RawMessage            `json:"bos_token"`
	EOS          json.RawMessage            `json:"eos_token"`
	PAD          json.RawMessage            `json:"pad_token"`
	AddedDecoder map[string]addedTokenEntry `json:"added_tokens_decoder"`
}

type addedTokenEntry struct {
	Content string `json:"content"`
	Special bool   `json:"special"`
}

// ParseTokenizerConfig extracts the special tokens. A missing EOS token is
// an error; a missing pad token is left empty for the caller to alias.
func ParseTokenizerConfig(b []byte) (SpecialTokens, error) {
	var tc tokenizerConfig
	if err := json.Unmarshal(b, &tc); err != nil {
		return SpecialTokens{}, fmt.Errorf("parse tokenizer config: %w", err)
	}
	sp := SpecialTokens{
		BOS:   tokenContent(tc.BOS),
		EOS:   tokenContent(tc.EOS),
		PAD:   tokenContent(tc.PAD),
		EOSID: -1,
		PADID: -1,
	}
	if sp.EOS == "" {
		return SpecialTokens{}, fmt.Errorf("tokenizer config has no eos_token")
	}
	for id, e := range tc.AddedDecoder {
		n, err := strconv.ParseInt(id, 10, 32)
		if err != nil {
			continue
		}
		if e.Content == sp.EOS {
			sp.EOSID = int32(n)
		}
		if sp.PAD != "" && e.Content == sp.PAD {
			sp.PADID = int32(n)
		}
	}
	return sp, nil
}

func tokenContent(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Content
	}
	return ""
}
