// Package manager owns the model lifecycle: it acquires the tokenizer and
// model handles, chooses a load plan for the available compute, falls back
// to deterministic mock handles when the real model cannot be loaded, gates
// generation through a single in-flight slot, and tears everything down.
// It is structured into small files by concern:
//
//   - manager.go: core Manager type, readiness and handle snapshots.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - genconfig.go: the immutable GenerationConfig and prompt template.
//   - types.go: state types (Stage, Device, Strategy, ModelState, Handles).
//   - errors.go: error types and helpers (IsConfiguration, IsTooBusy).
//   - initialize.go: Initialize, the real load with one retry and the mock fallback.
//   - plan.go: load plan selection per device.
//   - queue_admission.go: single in-flight generation admission.
//   - unload.go: Teardown with drain.
//   - mock.go: mock tokenizer and model.
//
// Build tags and runtimes:
//
//   - In-process llama (standard):
//     Uses the go-llama.cpp binding. Enabled with `-tags=llama`.
//     Files: adapter_llama.go, llama_cgo.go (linker rpath hints).
//     A no-CGO stub exists when the tag is not set: adapter_llama_stub.go.
//     Binaries built without the tag always serve mock expansions.
package manager
