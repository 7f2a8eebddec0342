package manager

import (
	"context"
	"errors"
	"strings"
)

// Initialize acquires the tokenizer and model. It runs once at startup.
//
// A missing credential returns a *ConfigurationError and leaves the manager
// not ready. Every other failure is absorbed: after one conservative retry
// of the model load the manager falls back to mock handles, so a nil return
// always means Ready() is true.
func (m *Manager) Initialize(ctx context.Context) error {
	if m.Ready() {
		return nil
	}
	epoch := m.teardowns.Load()
	token := strings.TrimSpace(m.credential())
	if token == "" {
		err := &ConfigurationError{Key: CredentialEnv, Msg: "model hub token is required"}
		m.mu.Lock()
		m.state.Err = err.Error()
		m.mu.Unlock()
		m.log.Error().Err(err).Msg("cannot initialize model")
		return err
	}

	req := LoadRequest{ModelID: m.gen.ModelID(), Credential: token}
	device := m.detectDevice()
	m.log.Info().Str("model", req.ModelID).Str("device", string(device)).Msg("loading model")

	tok, model, device, err := m.loadReal(ctx, req, device)
	strategy := StrategyReal
	if err != nil {
		m.log.Warn().Err(err).Msg("real model unavailable, serving mock expansions")
		m.fallbacksTotal.Add(1)
		m.setStage(StageMock, DeviceCPU)
		tok, model, device, strategy = newMockTokenizer(), newMockModel(), DeviceCPU, StrategyMock
	}
	m.loadsTotal.Add(1)

	m.mu.Lock()
	if m.teardowns.Load() != epoch {
		m.mu.Unlock()
		if err := model.Close(); err != nil {
			m.log.Warn().Err(err).Msg("model close failed")
		}
		m.log.Warn().Msg("teardown during initialization; handles released")
		return ErrTornDown
	}
	m.tok = tok
	m.model = model
	m.state = ModelState{Stage: StageReady, Device: device, Ready: true, Strategy: strategy}
	m.mu.Unlock()

	m.log.Info().Str("strategy", string(strategy)).Str("device", string(device)).Msg("model initialization complete")
	m.events().Publish(Event{Name: "ready", Stage: StageReady, Fields: map[string]any{"strategy": string(strategy)}})
	return nil
}

// loadReal runs tokenizer acquisition, the primary model load and the single
// conservative retry. Any error it returns is a modelLoadError.
func (m *Manager) loadReal(ctx context.Context, req LoadRequest, device Device) (Tokenizer, Model, Device, error) {
	if m.loader == nil {
		return nil, nil, device, modelLoadError{stage: StageTokenizer, err: errors.New("no model loader configured")}
	}

	m.setStage(StageTokenizer, device)
	tok, err := m.loader.LoadTokenizer(ctx, req)
	if err != nil {
		return nil, nil, device, modelLoadError{stage: StageTokenizer, err: err}
	}
	tok = withPadToken(tok)
	m.log.Info().Str("eos", tok.Special().EOS).Str("pad", tok.Special().PAD).Msg("tokenizer loaded")

	plan := SelectPlan(device, m.plans)
	m.setStage(StageModel, plan.Device)
	m.log.Info().Str("plan", plan.Name).Str("quant", string(plan.Quant)).Int("gpu_layers", plan.GPULayers).Msg("loading model (this may take several minutes)")
	model, err := m.loader.LoadModel(ctx, req, plan, tok)
	if err == nil {
		return tok, model, plan.Device, nil
	}
	m.log.Error().Err(err).Str("plan", plan.Name).Msg("model load failed, trying fallback configuration")

	fb := FallbackPlan(m.plans)
	m.setStage(StageFallbackModel, fb.Device)
	model, err = m.loader.LoadModel(ctx, req, fb, tok)
	if err != nil {
		return nil, nil, device, modelLoadError{stage: StageFallbackModel, err: err}
	}
	m.log.Info().Str("plan", fb.Name).Msg("model loaded with fallback configuration")
	return tok, model, fb.Device, nil
}
