package manager

import (
	"errors"
	"reflect"
	"testing"
)

func TestInitialize_MissingCredential(t *testing.T) {
	loader := newFakeLoader()
	m := NewWithConfig(ManagerConfig{Loader: loader, Credential: staticCredential("  "), Probe: noAccelerator})

	err := m.Initialize(testCtx(t))
	if !IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	var ce *ConfigurationError
	if !errors.As(err, &ce) || ce.Key != CredentialEnv {
		t.Fatalf("expected key %s, got %+v", CredentialEnv, ce)
	}
	if m.Ready() {
		t.Fatalf("manager must not be ready without a credential")
	}
	if _, ok := m.Handles(); ok {
		t.Fatalf("no handles expected")
	}
	if st := m.State(); st.Stage != StageIdle || st.Err == "" {
		t.Fatalf("unexpected state %+v", st)
	}
	if len(loader.reqs) != 0 {
		t.Fatalf("loader must not be called, got %d requests", len(loader.reqs))
	}
}

func TestInitialize_RealLoadOnCPU(t *testing.T) {
	loader := newFakeLoader()
	pub := NewMemoryPublisher()
	m := NewWithConfig(ManagerConfig{
		Loader:     loader,
		Credential: staticCredential("hf_abc"),
		Probe:      noAccelerator,
		Publisher:  pub,
	})
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !m.Ready() {
		t.Fatalf("expected ready")
	}
	h, ok := m.Handles()
	if !ok {
		t.Fatalf("expected handles")
	}
	if h.Strategy != StrategyReal || h.Device != DeviceCPU {
		t.Fatalf("unexpected handles %+v", h)
	}
	if got := loader.planNames(); !reflect.DeepEqual(got, []string{"cpu-int8"}) {
		t.Fatalf("plans = %v", got)
	}
	if loader.reqs[0].Credential != "hf_abc" || loader.reqs[0].ModelID != DefaultModelID {
		t.Fatalf("unexpected request %+v", loader.reqs[0])
	}
	want := []Stage{StageTokenizer, StageModel}
	if got := pub.Stages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
	if st := m.State(); st.Stage != StageReady || st.Strategy != StrategyReal {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestInitialize_AliasesPadToEOS(t *testing.T) {
	loader := newFakeLoader()
	m := newTestManager(t, loader)
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	h, _ := m.Handles()
	sp := h.Tokenizer.Special()
	if sp.PAD != sp.EOS || sp.PADID != sp.EOSID {
		t.Fatalf("pad not aliased to eos: %+v", sp)
	}
}

func TestInitialize_KeepsExplicitPad(t *testing.T) {
	loader := newFakeLoader()
	loader.special.PAD = "<pad>"
	loader.special.PADID = 7
	m := newTestManager(t, loader)
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	h, _ := m.Handles()
	if sp := h.Tokenizer.Special(); sp.PAD != "<pad>" || sp.PADID != 7 {
		t.Fatalf("explicit pad overwritten: %+v", sp)
	}
}

func TestInitialize_GPUPlanWhenAcceleratorPresent(t *testing.T) {
	loader := newFakeLoader()
	m := NewWithConfig(ManagerConfig{
		Loader:     loader,
		Credential: staticCredential("hf_abc"),
		Probe:      func() bool { return true },
	})
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := loader.planNames(); !reflect.DeepEqual(got, []string{"gpu-int4"}) {
		t.Fatalf("plans = %v", got)
	}
	if h, _ := m.Handles(); h.Device != DeviceGPU {
		t.Fatalf("expected gpu handles, got %s", h.Device)
	}
}

func TestInitialize_DevicePreferenceOverridesProbe(t *testing.T) {
	loader := newFakeLoader()
	m := NewWithConfig(ManagerConfig{
		Loader:     loader,
		Credential: staticCredential("hf_abc"),
		Probe:      func() bool { return true },
		Device:     PreferCPU,
	})
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := loader.planNames(); !reflect.DeepEqual(got, []string{"cpu-int8"}) {
		t.Fatalf("plans = %v", got)
	}
}

func TestInitialize_RetriesWithFallbackPlan(t *testing.T) {
	loader := newFakeLoader()
	loader.failModel = 1
	pub := NewMemoryPublisher()
	m := newTestManager(t, loader)
	m.SetEventPublisher(pub)

	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := loader.planNames(); !reflect.DeepEqual(got, []string{"cpu-int8", "fallback-fp"}) {
		t.Fatalf("plans = %v", got)
	}
	h, _ := m.Handles()
	if h.Strategy != StrategyReal {
		t.Fatalf("fallback load should still be real, got %s", h.Strategy)
	}
	want := []Stage{StageTokenizer, StageModel, StageFallbackModel}
	if got := pub.Stages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
	if s := m.Status(); s.FallbacksTotal != 0 {
		t.Fatalf("fallbacks_total = %d, want 0", s.FallbacksTotal)
	}
}

func TestInitialize_BothLoadsFailServesMock(t *testing.T) {
	loader := newFakeLoader()
	loader.failModel = 2
	pub := NewMemoryPublisher()
	m := newTestManager(t, loader)
	m.SetEventPublisher(pub)

	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize should absorb load failures, got %v", err)
	}
	if !m.Ready() {
		t.Fatalf("expected ready on mock handles")
	}
	h, _ := m.Handles()
	if h.Strategy != StrategyMock || h.Device != DeviceCPU {
		t.Fatalf("unexpected handles %+v", h)
	}
	if len(loader.planNames()) != 2 {
		t.Fatalf("expected exactly one retry, plans = %v", loader.planNames())
	}
	want := []Stage{StageTokenizer, StageModel, StageFallbackModel, StageMock}
	if got := pub.Stages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
	if s := m.Status(); s.FallbacksTotal != 1 || s.LoadsTotal != 1 || s.Strategy != "mock" {
		t.Fatalf("unexpected status %+v", s)
	}
}

func TestInitialize_TokenizerFailureServesMock(t *testing.T) {
	loader := newFakeLoader()
	loader.tokErr = errors.New("401 unauthorized")
	m := newTestManager(t, loader)
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if len(loader.planNames()) != 0 {
		t.Fatalf("model load must be skipped after tokenizer failure")
	}
	if h, _ := m.Handles(); h.Strategy != StrategyMock {
		t.Fatalf("expected mock strategy, got %s", h.Strategy)
	}
}

func TestInitialize_NilLoaderServesMock(t *testing.T) {
	m := newTestManager(t, nil)
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	h, ok := m.Handles()
	if !ok || h.Strategy != StrategyMock {
		t.Fatalf("expected mock handles, got %+v ok=%v", h, ok)
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	loader := newFakeLoader()
	m := newTestManager(t, loader)
	for i := 0; i < 3; i++ {
		if err := m.Initialize(testCtx(t)); err != nil {
			t.Fatalf("Initialize #%d: %v", i, err)
		}
	}
	if len(loader.reqs) != 1 {
		t.Fatalf("expected a single load, got %d", len(loader.reqs))
	}
	if s := m.Status(); s.LoadsTotal != 1 {
		t.Fatalf("loads_total = %d", s.LoadsTotal)
	}
}

func TestMockHandles(t *testing.T) {
	ctx := testCtx(t)
	tok := newMockTokenizer()
	ids, err := tok.Tokenize(ctx, "anything at all")
	if err != nil || len(ids) != mockInputLen {
		t.Fatalf("Tokenize = %d ids, %v", len(ids), err)
	}
	if sp := tok.Special(); sp.PAD != sp.EOS {
		t.Fatalf("mock pad must alias eos: %+v", sp)
	}
	gen, err := newMockModel().Generate(ctx, "prompt", GenerateParams{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.Text != MockSentinel || len(gen.Tokens) != mockInputLen+mockOutputPad {
		t.Fatalf("unexpected generation %q (%d tokens)", gen.Text, len(gen.Tokens))
	}
}
