/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Command cepengine is the daemon entrypoint. Grounded on the teacher's
// interfaces/cli.CLI (src/interfaces/cli/cli.go): a hand-rolled
// os.Args[1] command switch rather than a flag-parsing framework, kept
// narrow to the subcommands this engine actually needs (run/version/
// help) instead of the teacher's full BPMN/job/message/token surface.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"cepengine/internal/config"
	"cepengine/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(os.Args[2:])
	case "version":
		printVersion()
	case "help", "--help", "-h":
		showHelp()
	default:
		err = fmt.Errorf("unknown command: %s", os.Args[1])
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func printVersion() {
	info := version.GetBuildInfo()
	fmt.Printf("%s %s\n", color.CyanString("cepengine"), color.GreenString(info["version"]))
	fmt.Printf("  git commit: %s\n", info["git_commit"])
	fmt.Printf("  built:      %s\n", info["build_time"])
	fmt.Printf("  go:         %s\n", info["go_version"])
	fmt.Printf("  platform:   %s\n", info["platform"])
}

func showHelp() {
	fmt.Println(color.New(color.Bold).Sprint("cepengine") + " — complex event processing rule engine with durable timers")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cepengine run [-config path]    start the engine and REST API")
	fmt.Println("  cepengine version               print build information")
	fmt.Println("  cepengine help                  show this message")
}

// loadConfig resolves the -config flag (if present) or falls back to
// config.Default(), matching the teacher's fail-fast config loading style
// (src/core/config).
func loadConfig(args []string) (*config.Config, error) {
	for i, a := range args {
		if a == "-config" && i+1 < len(args) {
			return config.Load(args[i+1])
		}
	}
	return config.Default(), nil
}
