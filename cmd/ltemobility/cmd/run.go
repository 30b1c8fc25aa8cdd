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

package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/ltemobility/ltemobility/mobility"
)

// progressf prints a transient progress line to stderr, but only when stderr
// is an interactive terminal; piping into a file or another process should
// get clean report output with no interleaved chatter.
func progressf(format string, args ...interface{}) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// dumpReport spew-dumps a Report's fields to stderr when verbose logging is
// on, for debugging a correlation that looks wrong without reaching for a
// debugger.
func dumpReport(r mobility.Report) {
	if log.GetLevel() < log.DebugLevel {
		return
	}
	spew.Fdump(os.Stderr, r)
}

var runJobsFlag int

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runJobsFlag, "jobs", 1, "number of files to process concurrently (stdin input is always single-stream)")
}

// runFile runs one independent Dispatcher (its own Shared State, its own
// parser set) over a single file, printing every Report to stdout in the
// order the Dispatcher produced it.
func runFile(path string, out *sync.Mutex) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	d := mobility.NewDispatcher()
	if err := d.WithFilter(rootFilterFlag); err != nil {
		return err
	}

	reports, err := d.Run(f)

	out.Lock()
	for _, r := range reports {
		mobility.Fprint(os.Stdout, r)
		dumpReport(r)
	}
	out.Unlock()

	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run [files...]",
	Short: "Run the mobility-event correlation engine over a decoded trace",
	Long:  "Reads stdin when no files are given. With multiple files, each is processed by its own independent Dispatcher; up to --jobs files run concurrently.",
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		if len(args) == 0 {
			d := mobility.NewDispatcher()
			if err := d.WithFilter(rootFilterFlag); err != nil {
				log.Fatal(err)
			}
			reports, err := d.Run(os.Stdin)
			for _, r := range reports {
				mobility.Fprint(os.Stdout, r)
				dumpReport(r)
			}
			if err != nil {
				log.Fatal(err)
			}
			return
		}

		progressf("processing %d files with %d worker(s)...", len(args), runJobsFlag)

		var out sync.Mutex
		g := new(errgroup.Group)
		g.SetLimit(runJobsFlag)
		for _, path := range args {
			path := path
			g.Go(func() error {
				return runFile(path, &out)
			})
		}
		if err := g.Wait(); err != nil {
			log.Fatal(err)
		}
	},
}
