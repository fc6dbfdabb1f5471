package flags

// Package flags defines canonical CLI flag names shared across commands.
// Keeping these as constants avoids drift between Cobra flag wiring and
// other code paths that reference flags in messages.
// IMPORTANT: These are flag *names* without leading dashes.
const (
	// Plan targeting
	FlagPlan   = "plan"
	FlagScene  = "scene"
	FlagBlend  = "blend"
	FlagOutput = "output"

	// Execution
	FlagDryRun        = "dry-run"
	FlagHost          = "host"
	FlagRenderTimeout = "render-timeout"
	FlagVerbose       = "verbose"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Inventory
	FlagIncludeHidden = "include-hidden"
	FlagFormat        = "format"
	FlagQuery         = "query"
)
