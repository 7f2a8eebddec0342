package manager

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultDrainTimeout  = 10 * time.Second
	defaultContextSize   = 2048
	defaultGPULayers     = 99
)

// DevicePreference overrides accelerator detection.
type DevicePreference string

const (
	DeviceAuto DevicePreference = "auto"
	PreferCPU  DevicePreference = "cpu"
	PreferGPU  DevicePreference = "gpu"
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Generation GenerationConfig
	// Loader acquires real handles. Nil means the llama.cpp loader cannot be
	// used and Initialize goes straight to the mock handles.
	Loader Loader
	// Credential returns the hub token; defaults to reading HF_TOKEN.
	Credential func() string
	// Probe reports whether an accelerator is present; defaults to DetectAccelerator.
	Probe  func() bool
	Device DevicePreference

	ContextSize       int
	Threads           int
	GPULayers         int
	FallbackGPULayers int

	MaxQueueDepth int
	MaxWait       time.Duration
	DrainTimeout  time.Duration

	Publisher EventPublisher
	Logger    *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:  ModelState{Stage: StageIdle, Device: DeviceCPU},
		gen:    cfg.Generation,
		loader: cfg.Loader,
		device: cfg.Device,
		log:    zerolog.Nop(),
	}
	if m.gen.promptTemplate == "" {
		m.gen = DefaultGenerationConfig()
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	m.credential = cfg.Credential
	if m.credential == nil {
		m.credential = func() string { return os.Getenv(CredentialEnv) }
	}
	m.probe = cfg.Probe
	if m.probe == nil {
		m.probe = DetectAccelerator
	}
	if m.device == "" {
		m.device = DeviceAuto
	}
	m.plans = PlanOptions{
		ContextSize:       cfg.ContextSize,
		Threads:           cfg.Threads,
		GPULayers:         cfg.GPULayers,
		FallbackGPULayers: cfg.FallbackGPULayers,
	}
	if m.plans.ContextSize <= 0 {
		m.plans.ContextSize = defaultContextSize
	}
	if m.plans.GPULayers <= 0 {
		m.plans.GPULayers = defaultGPULayers
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	if cfg.DrainTimeout <= 0 {
		m.drainTimeout = defaultDrainTimeout
	} else {
		m.drainTimeout = cfg.DrainTimeout
	}
	m.publisher = cfg.Publisher
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	m.genCh = make(chan struct{}, 1)
	m.queueCh = make(chan struct{}, m.maxQueueDepth)
	m.startTime = time.Now()
	return m
}
