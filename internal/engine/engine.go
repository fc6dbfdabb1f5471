// Package engine drives a render plan end to end: for each variation it
// reloads the base scene, applies the variation's mutations, configures
// render settings, and triggers a single still render. Variations are
// strictly sequential; the full reload is what isolates them from one
// another (no mutation state carries over).
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"renderplan/internal/apply"
	"renderplan/internal/host"
	"renderplan/internal/output"
	"renderplan/internal/plan"
)

// Exit code contract (documented in the render command help):
// 0 = run completed; skipped mutations show up in the run.finished summary,
//     not in the exit status
// 2 = plan validation failure (decided in the CLI, before the engine runs)
// 3 = fatal host error (scene load, render configuration, or render call)

// Options are per-run knobs that are not part of the plan document.
type Options struct {
	// DryRun describes every mutation without loading a scene, touching
	// the host, or writing to the filesystem.
	DryRun bool

	// RenderTimeout, when positive, bounds each render call with a context
	// deadline. Zero preserves the host's blocking behavior: a stuck
	// render blocks the batch.
	RenderTimeout time.Duration
}

type Engine struct {
	host host.Host
	out  *output.Manager
}

func New(h host.Host, out *output.Manager) *Engine {
	return &Engine{host: h, out: out}
}

// Run executes the plan and returns the process exit code.
func (e *Engine) Run(ctx context.Context, p *plan.RenderPlan, opts Options) int {
	_ = e.out.Write(output.Event{Type: "run.started", Variations: len(p.Variations)})

	if len(p.Variations) == 0 {
		_ = e.out.Write(output.Event{Type: "warning", Message: "no variations defined; nothing to render"})
		_ = e.out.Write(output.Event{Type: "run.finished", Variations: 0, ExitCode: 0})
		return 0
	}

	if !opts.DryRun {
		if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
			return e.fatal(fmt.Sprintf("cannot create output directory %s: %v", p.OutputDir, err))
		}
	}

	totalSkipped := 0
	for i := range p.Variations {
		v := &p.Variations[i]
		_ = e.out.Write(output.Event{Type: "variation.started", Variation: v.Name})

		var scene host.Scene
		if !opts.DryRun {
			// Fresh load per variation: the clean-slate contract.
			loaded, err := e.host.LoadScene(p.ScenePath)
			if err != nil {
				return e.fatal(fmt.Sprintf("variation %s: load scene %s: %v", v.Name, p.ScenePath, err))
			}
			scene = loaded
		}

		applier := apply.New(scene, e.out, p.CameraObject, opts.DryRun)
		applier.Apply(v)
		totalSkipped += applier.Skipped()

		settings := p.EffectiveSettings(v)
		artifact := filepath.Join(p.OutputDir, plan.ArtifactName(v.Name, settings))

		if opts.DryRun {
			_ = e.out.Write(output.Mutation{
				Variation: v.Name,
				Stage:     "render",
				Target:    artifact,
				Status:    output.StatusPlanned,
				Detail: fmt.Sprintf("would render with %s at %dx%d",
					settings.Engine, settings.ResolutionX, settings.ResolutionY),
			})
			continue
		}

		if err := e.renderVariation(ctx, scene, settings, artifact, opts); err != nil {
			return e.fatal(fmt.Sprintf("variation %s: %v", v.Name, err))
		}
		_ = e.out.Write(output.Event{Type: "variation.rendered", Variation: v.Name, Artifact: artifact})
	}

	_ = e.out.Write(output.Event{
		Type:       "run.finished",
		Variations: len(p.Variations),
		Skipped:    totalSkipped,
		ExitCode:   0,
	})
	return 0
}

func (e *Engine) renderVariation(ctx context.Context, scene host.Scene, settings plan.RenderSettings, artifact string, opts Options) error {
	cfg := host.RenderConfig{
		Engine:      settings.Engine,
		FilePath:    artifact,
		FileFormat:  settings.FileFormat,
		ColorMode:   settings.ColorMode,
		ResolutionX: settings.ResolutionX,
		ResolutionY: settings.ResolutionY,
	}
	if err := scene.ConfigureRender(cfg); err != nil {
		return fmt.Errorf("configure render: %w", err)
	}

	// Sampling is engine-specific; only recognized engines get it, exactly
	// matching the engine identifier. Anything else keeps the base config.
	switch settings.Engine {
	case "CYCLES":
		if err := scene.SetSampling(settings.Samples, settings.UseDenoise); err != nil {
			return fmt.Errorf("set sampling: %w", err)
		}
	case "BLENDER_EEVEE":
		if err := scene.SetSampling(settings.Samples, false); err != nil {
			return fmt.Errorf("set sampling: %w", err)
		}
	}

	renderCtx := ctx
	if opts.RenderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, opts.RenderTimeout)
		defer cancel()
	}
	if err := scene.Render(renderCtx); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func (e *Engine) fatal(message string) int {
	_ = e.out.Write(output.Event{Type: "warning", Message: message})
	_ = e.out.Write(output.Event{Type: "run.finished", ExitCode: 3})
	return 3
}
