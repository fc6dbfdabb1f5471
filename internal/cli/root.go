package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"renderplan/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "renderplan",
	Short: "Batch-render variations of a 3D scene from a declarative plan",
	Long: `renderplan reads a YAML plan describing a base scene file, an output
directory, and a list of variations (visibility toggles, translations, new
primitives, material node-socket overrides, camera adjustments), then drives
the scene host to reload the scene, apply each variation's mutations, and
render one still image per variation.

Each variation starts from a freshly reloaded scene, so mutations never
accumulate across variations.

Examples:
	# Show available commands and global flags
	renderplan --help

	# Render every variation in a plan
	renderplan render --plan plans/render_plan.yaml

	# Describe what would happen without touching the host
	renderplan render --plan plans/render_plan.yaml --dry-run

	# Inspect the resolved plan
	renderplan plan show --plan plans/render_plan.yaml

	# Dump the scene's object inventory
	renderplan inventory --scene assets/diorama.yaml

	# Print build info
	renderplan version

Output:
	By default, commands write human-readable output to stdout.
	The render command supports structured output via emitter flags
	(see "renderplan render --help").`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Print run and variation lifecycle lines in text console mode")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
