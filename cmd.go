// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Handler is satisfied by every CLI subcommand. The signature matches
// the one the teacher's own subcommand types already implement; here
// it is promoted to a proper interface in place of the arvados.git
// dispatcher the teacher layers on top, since that dispatcher brings
// in a whole container-orchestration client this module has no use
// for.
type Handler interface {
	RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int
}

// Multi dispatches args[0] to the Handler registered under that name.
type Multi map[string]Handler

func (m Multi) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintf(stderr, "usage: %s command [args]\n", prog)
		m.listCommands(stderr)
		return 2
	}
	h, ok := m[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "%s: unrecognized command %q\n", prog, args[0])
		m.listCommands(stderr)
		return 2
	}
	return h.RunCommand(prog+" "+args[0], args[1:], stdin, stdout, stderr)
}

func (m Multi) listCommands(stderr io.Writer) {
	fmt.Fprintln(stderr, "available commands:")
	for name := range m {
		fmt.Fprintf(stderr, "  %s\n", name)
	}
}

type versionCmd struct{}

func (versionCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	version := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	fmt.Fprintf(stdout, "tsinfer %s\n", version)
	return 0
}

var handler = Multi{
	"version":         versionCmd{},
	"-version":        versionCmd{},
	"--version":       versionCmd{},
	"build-ancestors": &buildAncestorsCmd{},
	"build-panel":     &buildPanelCmd{},
	"match":           &matchCmd{},
	"stats":           &statsCmd{},
	"diff":            &diffCmd{},
}

func init() {
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(30)
	}
}

// Main is the tsinfer command-line entrypoint, invoked by
// cmd/tsinfer's main package.
func Main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logrus.StandardLogger().Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
	os.Exit(handler.RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
