package types

// ExpandRequest is the payload of POST /expand.
type ExpandRequest struct {
	// Free-text search query to rewrite.
	// example: ML algos
	Query string `json:"query" example:"ML algos"`
	// Hand the request to the overload queue instead of expanding inline.
	// example: false
	UseQueue bool `json:"use_queue,omitempty" example:"false"`
}

// ExpandResponse is returned by POST /expand.
type ExpandResponse struct {
	// The query as received.
	// example: ML algos
	OriginalQuery string `json:"original_query" example:"ML algos"`
	// The rewritten query, or a placeholder when queued.
	// example: machine learning algorithms
	ExpandedQuery string `json:"expanded_query" example:"machine learning algorithms"`
	// Wall-clock handling time in seconds.
	// example: 0.104
	ProcessingTime float64 `json:"processing_time" example:"0.104"`
	// True when the request was queued for background processing.
	// example: false
	Queued bool `json:"queued" example:"false"`
	// Queue job id when queued.
	JobID string `json:"job_id,omitempty"`
	// True when the answer came from the mock strategy.
	// example: false
	Degraded bool `json:"degraded" example:"false"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: healthy
	Status      string `json:"status" example:"healthy"`
	ModelLoaded bool   `json:"model_loaded" example:"true"`
	// example: real
	Strategy string `json:"strategy,omitempty" example:"real"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// QueueStatus is returned by GET /queue/status.
type QueueStatus struct {
	QueueEnabled bool `json:"queue_enabled" example:"true"`
	// example: 3
	MessagesAvailable int `json:"messages_available" example:"3"`
	// example: 1
	MessagesInFlight int `json:"messages_in_flight" example:"1"`
	// example: 120
	MessagesDone int    `json:"messages_done" example:"120"`
	Error        string `json:"error,omitempty"`
}

// QueueJob describes one queued expansion.
type QueueJob struct {
	ID            string `json:"id"`
	Query         string `json:"query"`
	State         string `json:"state" example:"done"`
	ExpandedQuery string `json:"expanded_query,omitempty"`
	Error         string `json:"error,omitempty"`
	Attempts      int    `json:"attempts"`
	EnqueuedUnix  int64  `json:"enqueued_unix"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Model identifier the service was configured with.
	// example: meta-llama/Llama-3.1-8B-Instruct
	Model string `json:"model" example:"meta-llama/Llama-3.1-8B-Instruct"`
	// Lifecycle stage (idle, tokenizer, model, fallback_model, mock, ready, draining, torn_down).
	// example: ready
	Stage string `json:"stage" example:"ready"`
	// example: cpu
	Device string `json:"device" example:"cpu"`
	// Active expansion strategy (real or mock).
	// example: real
	Strategy string `json:"strategy,omitempty" example:"real"`
	Ready    bool   `json:"ready" example:"true"`
	// Last lifecycle error, if any.
	Error string `json:"error,omitempty"`
	// Requests waiting for the generation slot.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// example: 1
	LoadsTotal uint64 `json:"loads_total" example:"1"`
	// Number of times initialization fell back to the mock handles.
	// example: 0
	FallbacksTotal uint64 `json:"fallbacks_total" example:"0"`
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// InfoResponse is returned by GET /.
type InfoResponse struct {
	// example: LLM Query Expansion Service
	Message string `json:"message" example:"LLM Query Expansion Service"`
	// example: 1.0.0
	Version string `json:"version" example:"1.0.0"`
	Docs    string `json:"docs" example:"/swagger/index.html"`
	Health  string `json:"health" example:"/health"`
}
