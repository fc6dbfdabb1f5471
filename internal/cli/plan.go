package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"renderplan/internal/flags"
	"renderplan/internal/plan"
)

var planShowCfg struct {
	path           string
	sceneOverride  string
	outputOverride string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Inspect render plans",
	Long: `Inspect render plan documents.

This command group resolves a plan the same way "renderplan render" would
(path resolution, name defaulting, settings merging) without touching any
scene host.

Examples:
  # Print the resolved plan
  renderplan plan show --plan plans/render_plan.yaml
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a resolved plan",
	Long: `Load and validate a plan document, then print the resolved result:
absolute paths, defaulted variation names, merged render settings, and the
artifact each variation would produce.

Exit code 2 signals a validation failure, same as "renderplan render".

Examples:
  renderplan plan show --plan plans/render_plan.yaml
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := plan.Load(planShowCfg.path, plan.Overrides{
			ScenePath: planShowCfg.sceneOverride,
			OutputDir: planShowCfg.outputOverride,
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
		printPlan(cmd.OutOrStdout(), p)
	},
}

func printPlan(w io.Writer, p *plan.RenderPlan) {
	bold := color.New(color.Bold)

	bold.Fprintln(w, "PLAN")
	fmt.Fprintf(w, "  scene:   %s\n", p.ScenePath)
	fmt.Fprintf(w, "  output:  %s\n", p.OutputDir)
	fmt.Fprintf(w, "  camera:  %s\n", p.CameraObject)
	fmt.Fprintf(w, "  base:    %s\n", describeSettings(p.BaseSettings))
	fmt.Fprintln(w)

	bold.Fprintf(w, "VARIATIONS (%d)\n", len(p.Variations))
	for i := range p.Variations {
		v := &p.Variations[i]
		settings := p.EffectiveSettings(v)
		fmt.Fprintf(w, "  %s\n", v.Name)
		fmt.Fprintf(w, "    mutations: %d (%d node, %d collection, %d object, %d translation, %d addition",
			v.Mutations(), len(v.NodeOverrides), len(v.CollectionVisibility),
			len(v.Visibility), len(v.Translations), len(v.Additions))
		if v.Camera != nil {
			fmt.Fprint(w, ", camera")
		}
		fmt.Fprintln(w, ")")
		if v.Settings != nil {
			fmt.Fprintf(w, "    settings:  %s\n", describeSettings(settings))
		}
		fmt.Fprintf(w, "    artifact:  %s\n", filepath.Join(p.OutputDir, plan.ArtifactName(v.Name, settings)))
	}
}

func describeSettings(s plan.RenderSettings) string {
	denoise := "denoise off"
	if s.UseDenoise {
		denoise = "denoise on"
	}
	return fmt.Sprintf("%s %dx%d, %d samples, %s, %s %s",
		s.Engine, s.ResolutionX, s.ResolutionY, s.Samples, denoise, s.FileFormat, s.ColorMode)
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planShowCmd)

	planShowCmd.Flags().StringVar(&planShowCfg.path, flags.FlagPlan, "plans/render_plan.yaml", "Path to the YAML plan document")
	planShowCmd.Flags().StringVar(&planShowCfg.sceneOverride, flags.FlagScene, "", "Override the plan's scene file path")
	planShowCmd.Flags().StringVar(&planShowCfg.outputOverride, flags.FlagOutput, "", "Override the plan's render output directory")
}
