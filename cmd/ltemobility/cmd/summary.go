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
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/ltemobility/ltemobility/mobility"
)

var summaryFormatFlag string

func init() {
	RootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryFormatFlag, "format", "table", "output format: table, json or yaml")
}

func printSummaryTable(counts map[string]int) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(40)
	table.SetHeader([]string{"report", "count"})
	for _, label := range sortedLabels(counts) {
		table.Append([]string{label, fmt.Sprintf("%d", counts[label])})
	}
	table.Render()
}

func sortedLabels(counts map[string]int) []string {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

var summaryCmd = &cobra.Command{
	Use:   "summary <file>",
	Short: "Run the correlation engine and print a count of each report label",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		f, err := os.Open(args[0])
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		d := mobility.NewDispatcher()
		reports, err := d.Run(f)
		if err != nil {
			log.Fatal(err)
		}

		counts := mobility.ReportCounts(nil, reports)

		switch summaryFormatFlag {
		case "json":
			out, err := json.MarshalIndent(counts, "", "  ")
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(string(out))
		case "yaml":
			out, err := yaml.Marshal(counts)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Print(string(out))
		default:
			printSummaryTable(counts)
		}
	},
}
