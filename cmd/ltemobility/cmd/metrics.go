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
	"net"
	"net/http"
	"os"

	"github.com/coreos/go-systemd/daemon"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ltemobility/ltemobility/mobility"
)

// notifyReady tells systemd the /metrics endpoint is up, for units that set
// Type=notify. It is a no-op outside systemd (NOTIFY_SOCKET unset).
func notifyReady() {
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if supported && err != nil {
		log.Warnf("sd_notify failed: %s", err)
	}
}

var metricsAddrFlag string

func init() {
	RootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().StringVar(&metricsAddrFlag, "addr", ":9110", "address to serve /metrics on")
}

var metricsCmd = &cobra.Command{
	Use:   "serve-metrics <file>",
	Short: "Run the correlation engine over a trace while exposing its Stats registry over /metrics",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		f, err := os.Open(args[0])
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		stats := mobility.NewStats()
		d := mobility.NewDispatcher().WithStats(stats)

		http.Handle("/metrics", stats.Handler())
		ln, err := net.Listen("tcp", metricsAddrFlag)
		if err != nil {
			log.Fatal(err)
		}
		go func() {
			log.Infof("serving /metrics on %s", metricsAddrFlag)
			if err := http.Serve(ln, nil); err != nil {
				log.Fatal(err)
			}
		}()
		notifyReady()

		reports, err := d.Run(f)
		for _, r := range reports {
			mobility.Fprint(os.Stdout, r)
		}
		if err != nil {
			log.Fatal(err)
		}

		log.Infof("run complete, /metrics remains available on %s", metricsAddrFlag)
		select {}
	},
}
