/*
Copyright (c) The ltemobility Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cmd implements the ltemobility command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootCmd is the CLI's main entry point. It's exported so ltemobility could
// be embedded in another tool without touching the subcommands below.
var RootCmd = &cobra.Command{
	Use:   "ltemobility",
	Short: "Correlates LTE mobility events (handovers, RLF recovery) from a decoded diagnostic trace",
}

var rootVerboseFlag bool
var rootNoColorFlag bool
var rootFilterFlag string

func init() {
	RootCmd.PersistentFlags().BoolVarP(&rootVerboseFlag, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().BoolVar(&rootNoColorFlag, "no-color", false, "disable ANSI colors in warnings and command output")
	RootCmd.PersistentFlags().StringVar(&rootFilterFlag, "filter", "", "govaluate expression; events it evaluates falsy for are not dispatched (applied by run only)")
}

// ConfigureVerbosity configures log verbosity and coloring based on parsed
// persistent flags. Every subcommand calls this first.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if rootVerboseFlag {
		log.SetLevel(log.DebugLevel)
	}
	if rootNoColorFlag {
		color.NoColor = true
	}
}

// Execute is the main entry point for the CLI.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
