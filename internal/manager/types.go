package manager

// Stage is the loading stage of the model lifecycle.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageTokenizer     Stage = "tokenizer"
	StageModel         Stage = "model"
	StageFallbackModel Stage = "fallback_model"
	StageMock          Stage = "mock"
	StageReady         Stage = "ready"
	StageDraining      Stage = "draining"
	StageTornDown      Stage = "torn_down"
)

// Device is the compute target a model is placed on.
type Device string

const (
	DeviceCPU Device = "cpu"
	DeviceGPU Device = "gpu"
)

// Strategy tags which expansion path the loaded handles support.
type Strategy string

const (
	StrategyReal Strategy = "real"
	StrategyMock Strategy = "mock"
)

// ModelState is a read-only projection of the lifecycle state.
type ModelState struct {
	Stage    Stage
	Device   Device
	Ready    bool
	Strategy Strategy
	Err      string
}

// Handles is the non-owning view of the loaded resources handed to callers
// that run inference. The Manager keeps ownership; callers must not Close.
type Handles struct {
	Strategy  Strategy
	Device    Device
	Tokenizer Tokenizer
	Model     Model
}
