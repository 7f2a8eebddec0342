package manager

// Quant names a weight precision; each maps to a GGUF artifact.
type Quant string

const (
	QuantInt8 Quant = "q8_0"
	QuantInt4 Quant = "q4_k_m"
	QuantF16  Quant = "f16"
)

// LoadPlan is one attempt at materialising the model.
type LoadPlan struct {
	Name        string
	Device      Device
	Quant       Quant
	GPULayers   int
	F16Memory   bool
	MMap        bool
	ContextSize int
	Threads     int
}

// PlanOptions tunes plan selection.
type PlanOptions struct {
	ContextSize       int
	Threads           int
	GPULayers         int
	FallbackGPULayers int
}

// SelectPlan picks the primary configuration for the detected device:
// 8-bit weights kept on the CPU without an accelerator, 4-bit weights fully
// offloaded with a half-precision KV cache with one.
func SelectPlan(device Device, o PlanOptions) LoadPlan {
	if device == DeviceGPU {
		return LoadPlan{
			Name:        "gpu-int4",
			Device:      DeviceGPU,
			Quant:       QuantInt4,
			GPULayers:   o.GPULayers,
			F16Memory:   true,
			MMap:        true,
			ContextSize: o.ContextSize,
			Threads:     o.Threads,
		}
	}
	return LoadPlan{
		Name:        "cpu-int8",
		Device:      DeviceCPU,
		Quant:       QuantInt8,
		GPULayers:   0,
		MMap:        true,
		ContextSize: o.ContextSize,
		Threads:     o.Threads,
	}
}

// FallbackPlan is the conservative retry: unquantized weights, full
// precision KV cache, best-effort offload.
func FallbackPlan(o PlanOptions) LoadPlan {
	dev := DeviceCPU
	if o.FallbackGPULayers > 0 {
		dev = DeviceGPU
	}
	return LoadPlan{
		Name:        "fallback-fp",
		Device:      dev,
		Quant:       QuantF16,
		GPULayers:   o.FallbackGPULayers,
		F16Memory:   false,
		MMap:        true,
		ContextSize: o.ContextSize,
		Threads:     o.Threads,
	}
}
