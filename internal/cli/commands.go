package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"qexpand/internal/config"
	"qexpand/internal/manager"
	"qexpand/internal/registry"
	"qexpand/internal/tracking"
	"qexpand/pkg/types"
)

// runExpand initializes the model once and expands each query in order.
func runExpand(ctx context.Context, cfg config.Config, queries []string, asJSON bool, out io.Writer) error {
	log := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	a, err := buildApp(cfg, log, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if err := a.mgr.Initialize(ctx); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for _, q := range queries {
		start := time.Now()
		res, err := a.eng.ExpandResult(ctx, q)
		if err != nil {
			return fmt.Errorf("expand %q: %w", q, err)
		}
		took := time.Since(start)
		a.tracker.Submit(tracking.Record{
			OriginalQuery:  q,
			ExpandedQuery:  res.Expanded,
			ProcessingTime: took,
			Degraded:       res.Degraded,
			Timestamp:      start,
		})
		if asJSON {
			if err := enc.Encode(types.ExpandResponse{
				OriginalQuery:  q,
				ExpandedQuery:  res.Expanded,
				ProcessingTime: took.Seconds(),
				Degraded:       res.Degraded,
			}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%s -> %s\n", q, res.Expanded)
	}
	return nil
}

// runCheck reports what serve would do without loading anything.
func runCheck(cfg config.Config, out io.Writer) error {
	shown := cfg
	if len(shown.APIKeys) > 0 {
		shown.APIKeys = []string{fmt.Sprintf("<%d keys>", len(cfg.APIKeys))}
	}
	b, err := yaml.Marshal(shown)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "# effective configuration")
	_, _ = out.Write(b)

	mgr := manager.NewWithConfig(manager.ManagerConfig{Device: manager.DevicePreference(cfg.Device)})
	sr := mgr.SanityCheck()
	fmt.Fprintln(out, "# environment")
	tok := "missing"
	if sr.CredentialPresent {
		tok = "set"
	}
	fmt.Fprintf(out, "%s: %s\n", manager.CredentialEnv, tok)
	fmt.Fprintf(out, "llama_built: %v\naccelerator_detected: %v\n", sr.LlamaBuilt, sr.AcceleratorDetected)
	if sr.Error != "" {
		fmt.Fprintf(out, "warning: %s\n", sr.Error)
	}

	dev := manager.Device(sr.Device)
	po := manager.PlanOptions{
		ContextSize:       cfg.ContextSize,
		Threads:           cfg.Threads,
		GPULayers:         cfg.GPULayers,
		FallbackGPULayers: cfg.FallbackGPULayers,
	}
	fmt.Fprintln(out, "# load plans")
	for _, p := range []manager.LoadPlan{manager.SelectPlan(dev, po), manager.FallbackPlan(po)} {
		fmt.Fprintf(out, "%s: device=%s quant=%s gpu_layers=%d ctx=%d\n", p.Name, p.Device, p.Quant, p.GPULayers, p.ContextSize)
	}

	fmt.Fprintln(out, "# local artifacts")
	models, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		fmt.Fprintf(out, "none (%v)\n", err)
		return nil
	}
	if len(models) == 0 {
		fmt.Fprintln(out, "none")
	}
	for _, m := range models {
		q := m.Quant
		if q == "" {
			q = "?"
		}
		fmt.Fprintf(out, "%s [%s] %s\n", m.ID, q, m.Path)
	}
	return nil
}
