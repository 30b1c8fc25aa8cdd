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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ltemobility/ltemobility/event"
	"github.com/ltemobility/ltemobility/mobility"
)

var (
	okString   = color.GreenString("[ OK ]")
	failString = color.RedString("[FAIL]")
)

func init() {
	RootCmd.AddCommand(checkCmd)
}

// timestampOrder maps every timestamp seen in a trace to the 0-indexed line
// it first appeared on, for checking property P3 (monotone report windows)
// against the order events actually arrived in.
func timestampOrder(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	order := map[string]int{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		ev, err := event.Decode(scanner.Text())
		if err == nil {
			if _, seen := order[ev.Timestamp]; !seen {
				order[ev.Timestamp] = line
			}
		}
		line++
	}
	return order, scanner.Err()
}

// checkReportAtomicity verifies P2: every report's label is one of the
// recognized labels and the report carries only well-formed Field pairs
// (guaranteed by construction in this implementation, so this is a
// structural sanity check against regressions rather than a parser).
func checkReportAtomicity(reports []mobility.Report) (bool, string) {
	known := map[string]bool{
		"Handover Success":                     true,
		"Handover Success PDCP Disruption":      true,
		"Handover Failure":                      true,
		"Handover Failure PDCP Disruption":      true,
		"Fast Recovery After RLF (Self Reconnection)": true,
		"Fast Recovery After RLF (Psudo Handover)":    true,
		"Fast Recovery After RLF":              true,
		"Slow Recover After RLF (to prev serving cell)": true,
		"Slow Recover After RLF (to new cell)":          true,
		"Slow Recover After RLF PDCP Disruption":        true,
		"Connection Setup":                     true,
	}
	for _, r := range reports {
		if !known[r.Label] {
			return false, fmt.Sprintf("unrecognized report label %q", r.Label)
		}
		for _, f := range r.Fields {
			if f.Key == "" {
				return false, fmt.Sprintf("report %q has an empty field key", r.Label)
			}
		}
	}
	return true, ""
}

// checkMonotoneWindows verifies P3: for every report carrying a From/To
// pair, From's line precedes To's line in the input.
func checkMonotoneWindows(reports []mobility.Report, order map[string]int) (bool, string) {
	for _, r := range reports {
		var from, to string
		var haveFrom, haveTo bool
		for _, f := range r.Fields {
			switch f.Key {
			case "From":
				from, haveFrom = f.Value, true
			case "To":
				to, haveTo = f.Value, true
			}
		}
		if !haveFrom || !haveTo {
			continue
		}
		fromLine, fromOK := order[from]
		toLine, toOK := order[to]
		if !fromOK || !toOK {
			continue
		}
		if fromLine > toLine {
			return false, fmt.Sprintf("report %q has From (line %d) after To (line %d), %d lines out of order",
				r.Label, fromLine, toLine, gap(fromLine, toLine))
		}
	}
	return true, ""
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Run the correlation engine over a captured trace and check the testable properties",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		path := args[0]

		order, err := timestampOrder(path)
		if err != nil {
			log.Fatal(err)
		}

		f, err := os.Open(path)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		d := mobility.NewDispatcher()
		reports, runErr := d.Run(f)

		type checkResult struct {
			name string
			ok   bool
			msg  string
		}

		var checks []checkResult
		{
			ok, msg := checkReportAtomicity(reports)
			checks = append(checks, checkResult{"P2 report atomicity", ok, msg})
		}
		{
			ok, msg := checkMonotoneWindows(reports, order)
			checks = append(checks, checkResult{"P3 monotone report windows", ok, msg})
		}

		exitCode := 0
		for _, c := range checks {
			status := okString
			if !c.ok {
				status = failString
				exitCode = 1
			}
			line := fmt.Sprintf("%s %s", status, c.name)
			if c.msg != "" {
				line += ": " + c.msg
			}
			fmt.Println(line)
		}

		if runErr != nil {
			fmt.Printf("%s run failed: %s\n", failString, strings.TrimSpace(runErr.Error()))
			exitCode = 1
		}

		os.Exit(exitCode)
	},
}
