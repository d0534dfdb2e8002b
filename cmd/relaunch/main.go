package main

import (
	"github.com/Paintersrp/relaunch/internal/cli"
	"github.com/Paintersrp/relaunch/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
