package main

import (
	"renderplan/internal/cli"
	_ "renderplan/internal/host/scenedoc"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
