package types

// Model is a GGUF artifact found in the local models directory.
type Model struct {
	// Filename of the artifact.
	// example: Meta-Llama-3.1-8B-Instruct-Q4_K_M.gguf
	ID string `json:"id" example:"Meta-Llama-3.1-8B-Instruct-Q4_K_M.gguf"`
	Name string `json:"name"`
	// Absolute path on disk.
	// example: /var/lib/qexpand/models/Meta-Llama-3.1-8B-Instruct-Q4_K_M.gguf
	Path string `json:"path" example:"/var/lib/qexpand/models/Meta-Llama-3.1-8B-Instruct-Q4_K_M.gguf"`
	// Quantization guessed from the filename, empty when unknown.
	// example: q4_k_m
	Quant string `json:"quant,omitempty" example:"q4_k_m"`
}
