package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Plan    Plan
	Output  Output
	Runtime Runtime
}

type Plan struct {
	// Path is the plan document location (see --plan).
	Path string

	// SceneOverride replaces the document's scene_path (see --scene).
	SceneOverride string

	// BlendOverride is the legacy spelling of SceneOverride (see --blend).
	// Validate folds it into SceneOverride.
	BlendOverride string

	// OutputOverride replaces the document's output_dir (see --output).
	OutputOverride string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format
	// (see --console-format). Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by mutation status
	// (see --console-filter-status). Allowed: APPLIED, SKIPPED, PLANNED.
	ConsoleFilterStatus []string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, inferred from the --out
	// file extension.
	OutFormat string

	// Emit writes an additional structured stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// DryRun describes planned mutations without touching the host
	// (see --dry-run).
	DryRun bool

	// Host selects the scene host backend (see --host).
	Host string

	// RenderTimeout bounds each render call; zero disables the watchdog
	// (see --render-timeout).
	RenderTimeout time.Duration

	// Verbose prints run and variation lifecycle lines in text console
	// mode (see --verbose).
	Verbose bool
}

func New() *Config {
	return &Config{
		Plan: Plan{
			Path: "plans/render_plan.yaml",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Host: "scenedoc",
		},
	}
}

func (c *Config) Validate() error {
	c.Output.Emit = splitCommaList(c.Output.Emit)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)

	// --blend is an alias for --scene.
	if c.Plan.BlendOverride != "" {
		if c.Plan.SceneOverride != "" && c.Plan.SceneOverride != c.Plan.BlendOverride {
			return errors.New("--scene and --blend are aliases; set only one")
		}
		c.Plan.SceneOverride = c.Plan.BlendOverride
	}

	if strings.TrimSpace(c.Plan.Path) == "" {
		return errors.New("--plan path must not be empty")
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		c.Output.ConsoleFormat = "text"
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
	}

	for _, st := range c.Output.ConsoleFilterStatus {
		switch strings.ToUpper(strings.TrimSpace(st)) {
		case "APPLIED", "SKIPPED", "PLANNED":
		default:
			return fmt.Errorf("unsupported --console-filter-status: %s (must be one of: APPLIED, SKIPPED, PLANNED)", st)
		}
	}

	if strings.TrimSpace(c.Runtime.Host) == "" {
		return errors.New("--host must not be empty")
	}
	if c.Runtime.RenderTimeout < 0 {
		return errors.New("--render-timeout must be >= 0")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
