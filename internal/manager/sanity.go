package manager

import "strings"

// SanityReport describes runtime checks for external dependencies.
type SanityReport struct {
	LlamaBuilt          bool   `json:"llama_built"`
	AcceleratorDetected bool   `json:"accelerator_detected"`
	CredentialPresent   bool   `json:"credential_present"`
	Device              string `json:"device"`
	Error               string `json:"error,omitempty"`
}

// SanityCheck reports what Initialize would find. It does not mutate state
// and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	r := SanityReport{
		LlamaBuilt:          llamaBuilt,
		AcceleratorDetected: m.probe(),
		CredentialPresent:   strings.TrimSpace(m.credential()) != "",
		Device:              string(m.detectDevice()),
	}
	switch {
	case !r.CredentialPresent:
		r.Error = CredentialEnv + " is not set"
	case !r.LlamaBuilt:
		r.Error = "llama support not built; expansions will use the mock strategy"
	}
	return r
}
