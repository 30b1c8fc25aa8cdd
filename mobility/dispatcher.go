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

package mobility

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/cespare/xxhash"

	"github.com/ltemobility/ltemobility/event"
)

// ExceptionError wraps a parser failure with the 1-indexed trace line it
// occurred on, matching the "Exception at line <N>" fatal behavior: any
// error from any parser aborts the whole run.
type ExceptionError struct {
	Line int
	Err  error
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("Exception at line %d\n%s", e.Line, e.Err)
}

func (e *ExceptionError) Unwrap() error { return e.Err }

// statsTrackingSink decorates a WarningSink so every warning, regardless of
// which parser raised it, is also counted in Stats.Warnings.
type statsTrackingSink struct {
	inner WarningSink
	stats *Stats
}

func (s *statsTrackingSink) Warnf(parser, timestamp, format string, args ...interface{}) {
	s.stats.Warnings.WithLabelValues(parser).Inc()
	s.inner.Warnf(parser, timestamp, format, args...)
}

// Dispatcher drives the four parsers over a single event stream. Registration
// order is fixed (HSP, HFP, FRP, SRP) and every event is fed to all four in
// that order, single-threaded, before the next line is read.
type Dispatcher struct {
	parsers []Parser
	state   *State
	warn    WarningSink
	stats   *Stats

	filter *govaluate.EvaluableExpression

	lastLineHash uint64
	haveLastLine bool
}

// NewDispatcher builds a Dispatcher with the standard HSP/HFP/FRP/SRP
// registration order and a ColorWarningSink.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		parsers: []Parser{
			NewHandoverSuccessParser(),
			NewHandoverFailureParser(),
			NewFastRecoverAfterRLFParser(),
			NewSlowRecoverAfterRLFParser(),
		},
		state: NewState(),
		warn:  NewColorWarningSink(),
		stats: NewStats(),
	}
}

// WithWarningSink overrides the default WarningSink, primarily for tests.
func (d *Dispatcher) WithWarningSink(w WarningSink) *Dispatcher {
	d.warn = w
	return d
}

// WithStats overrides the default Stats, so the CLI can share one registry
// across several Dispatcher runs (e.g. --jobs fan-out).
func (d *Dispatcher) WithStats(s *Stats) *Dispatcher {
	d.stats = s
	return d
}

// WithFilter sets a govaluate expression evaluated against the parameters
// packet_type, timestamp and one field_<key> per event field (key characters
// outside [A-Za-z0-9_] become '_', e.g. field_Cell_ID); a falsy result skips
// dispatch for that line. An empty expr clears any existing filter.
func (d *Dispatcher) WithFilter(expr string) error {
	if expr == "" {
		d.filter = nil
		return nil
	}
	compiled, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}
	d.filter = compiled
	return nil
}

// State exposes the Dispatcher's Shared State, mostly for tests that want to
// assert on the final recorded cell.
func (d *Dispatcher) State() *State { return d.state }

// Stats exposes the Dispatcher's Stats registry.
func (d *Dispatcher) Stats() *Stats { return d.stats }

// Run reads newline-delimited trace lines from r and feeds them through the
// registered parsers, appending every emitted Report to the returned slice.
// It stops at EOF and returns the accumulated reports, or stops early and
// returns an *ExceptionError the instant any parser's Feed fails.
func (d *Dispatcher) Run(r io.Reader) ([]Report, error) {
	var reports []Report

	warn := &statsTrackingSink{inner: d.warn, stats: d.stats}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	var pendingLine string
	stallOnce := false

	for {
		var line string
		refeed := stallOnce
		if !stallOnce {
			if !scanner.Scan() {
				break
			}
			line = scanner.Text()
			lineNum++
			pendingLine = line
		} else {
			line = pendingLine
			stallOnce = false
		}

		if lineNum == 1 {
			if raw, ok := parseFormatHeader(line); ok {
				if err := checkFormatVersion(raw); err != nil {
					return reports, &ExceptionError{Line: lineNum, Err: err}
				}
				continue
			}
		}

		hash := xxhash.Sum64String(line)
		if !refeed && d.haveLastLine && hash == d.lastLineHash {
			warn.Warnf("Dispatcher", "", "duplicate line suppressed")
			d.stats.DuplicateLines.Inc()
			d.haveLastLine = true
			d.lastLineHash = hash
			continue
		}
		d.haveLastLine = true
		d.lastLineHash = hash

		ev, err := event.Decode(line)
		if err != nil {
			return reports, &ExceptionError{Line: lineNum, Err: err}
		}

		if d.filter != nil {
			pass, err := d.evaluateFilter(ev)
			if err != nil {
				return reports, &ExceptionError{Line: lineNum, Err: err}
			}
			if !pass {
				d.stats.FilteredLines.Inc()
				continue
			}
		}

		if d.state.Control.ResetAll {
			for _, p := range d.parsers {
				p.Reset()
			}
			d.state.Control.ResetAll = false
		}

		for _, p := range d.parsers {
			var emitted []Report
			if err := p.Feed(ev, d.state, warn, &emitted); err != nil {
				return reports, &ExceptionError{Line: lineNum, Err: err}
			}
			for _, rep := range emitted {
				d.stats.Reports.WithLabelValues(rep.Label).Inc()
			}
			reports = append(reports, emitted...)
		}

		if d.state.Control.StallOnce {
			d.state.Control.StallOnce = false
			stallOnce = true
		}
	}

	if err := scanner.Err(); err != nil {
		return reports, &ExceptionError{Line: lineNum, Err: err}
	}

	return reports, nil
}

func (d *Dispatcher) evaluateFilter(ev event.Event) (bool, error) {
	params := map[string]interface{}{
		"packet_type": ev.PacketType,
		"timestamp":   ev.Timestamp,
	}
	for k, v := range ev.Fields {
		params["field_"+sanitizeParam(k)] = v
	}
	result, err := d.filter.Evaluate(params)
	if err != nil {
		return false, fmt.Errorf("filter evaluation: %w", err)
	}
	truthy, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression did not evaluate to a boolean, got %T", result)
	}
	return truthy, nil
}

// sanitizeParam maps an arbitrary field key (e.g. "Cell ID") to a valid
// govaluate parameter identifier.
func sanitizeParam(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}
