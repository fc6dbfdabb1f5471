package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"renderplan/internal/config"
	"renderplan/internal/engine"
	"renderplan/internal/flags"
	"renderplan/internal/host"
	"renderplan/internal/output"
	"renderplan/internal/plan"
)

var cfg = config.New()

const renderHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Plan document:
	A YAML mapping with top-level keys scene_path, output_dir, camera_object,
	render_settings, and variations. Relative paths inside the document
	resolve against the document's own directory. Unknown keys are ignored.

	Each variation may carry node_overrides, collection_visibility,
	visibility, translations, additions, a camera instruction, and a
	render_settings override that merges field-by-field over the defaults.

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}Use "{{.CommandPath}} --help" for more information.
`

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Apply each variation in a plan and render a still image",
	Long: `Apply each variation in a plan and render one still image per variation.

For every variation the base scene is reloaded from disk, the variation's
mutations are applied in a fixed order (node overrides, collection
visibility, object visibility, translations, additions, camera), render
settings are configured, and a single-frame render is triggered. The fresh
reload guarantees variations are independent: nothing carries over.

A mutation whose target is missing (material, node, socket, object,
collection, primitive kind) is skipped with a warning; the batch continues.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --no-console: suppress the console sink (use with --emit/--out)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events
	with a "type" field (run.started, variation.started, mutation,
	variation.rendered, run.finished).

Exit codes:
	0 = run completed (skipped mutations are reported in the run summary)
	2 = plan validation failure
	3 = fatal host error

Examples:
  # Render a plan
  renderplan render --plan plans/render_plan.yaml

  # Override the scene file and output directory
  renderplan render --plan plans/render_plan.yaml --scene other.yaml --output /tmp/out

  # Describe planned mutations without touching the host
  renderplan render --plan plans/render_plan.yaml --dry-run

  # Stream machine-readable events to stdout
  renderplan render --plan plans/render_plan.yaml --no-console --emit ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		h, err := host.Open(cfg.Runtime.Host)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		p, err := plan.Load(cfg.Plan.Path, plan.Overrides{
			ScenePath: cfg.Plan.SceneOverride,
			OutputDir: cfg.Plan.OutputOverride,
		})
		if err != nil {
			var verr *plan.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", verr)
				os.Exit(2)
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		outMgr, err := setupOutputManager(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		eng := engine.New(h, outMgr)
		code := eng.Run(context.Background(), p, engine.Options{
			DryRun:        cfg.Runtime.DryRun,
			RenderTimeout: cfg.Runtime.RenderTimeout,
		})
		if err := outMgr.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if code == 0 {
				code = 3
			}
		}
		os.Exit(code)
	},
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console sink
	if !cfg.Output.NoConsole {
		console := output.NewConsoleSink(nil, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus)
		console.SetVerbose(cfg.Runtime.Verbose)
		if err := outMgr.AddSink(console); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.SetHelpTemplate(renderHelpTemplate)

	// Plan targeting
	renderCmd.Flags().StringVar(&cfg.Plan.Path, flags.FlagPlan, cfg.Plan.Path, "Path to the YAML plan document")
	renderCmd.Flags().StringVar(&cfg.Plan.SceneOverride, flags.FlagScene, "", "Override the plan's scene file path")
	renderCmd.Flags().StringVar(&cfg.Plan.BlendOverride, flags.FlagBlend, "", "Alias for --scene")
	renderCmd.Flags().StringVar(&cfg.Plan.OutputOverride, flags.FlagOutput, "", "Override the plan's render output directory")

	// Execution
	renderCmd.Flags().BoolVar(&cfg.Runtime.DryRun, flags.FlagDryRun, false, "Describe planned mutations without touching the host (no scene load, no renders)")
	renderCmd.Flags().StringVar(&cfg.Runtime.Host, flags.FlagHost, cfg.Runtime.Host, "Scene host backend")
	renderCmd.Flags().DurationVar(&cfg.Runtime.RenderTimeout, flags.FlagRenderTimeout, 0, "Per-render watchdog timeout (0 = wait forever)")

	// Output
	renderCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	renderCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (APPLIED, SKIPPED, PLANNED). Comma-separated.")
	renderCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	renderCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	renderCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	renderCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out)")
}
