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
	"fmt"
	"io"
	"strings"

	"github.com/ltemobility/ltemobility/event"
)

// Report is one mobility event line, ready to be rendered as
// "<Label> $ <key>: <value>, ...".
type Report struct {
	Label  string
	Fields []Field
}

// Field is a single key/value pair of a Report, kept as an ordered slice
// (not a map) so field order in the printed line is deterministic and
// matches the order each parser appends them in.
type Field struct {
	Key   string
	Value string
}

// F is a convenience constructor for a Report Field.
func F(key, value string) Field { return Field{Key: key, Value: value} }

// String renders a Report in the wire format from spec.md section 6.
func (r Report) String() string {
	var b strings.Builder
	b.WriteString(r.Label)
	b.WriteString(" $")
	for i, f := range r.Fields {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(f.Key)
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}

// Fprint writes a Report terminated by a newline to w.
func Fprint(w io.Writer, r Report) {
	fmt.Fprintln(w, r.String())
}

// Parser is the contract every state machine implements. Feed must be
// total: it is a no-op for any packet_type the parser does not react to,
// and it must never fail silently on a malformed field set for a
// packet_type it does handle (that is an event.MissingFieldError, which the
// Dispatcher treats as fatal). Reset returns the parser to the initial
// state of its normal transition graph; it never touches Shared State,
// since Shared State's cell fields model physical reality and outlive any
// single parser's view of it.
type Parser interface {
	// Name identifies the parser in warning text, e.g. "HSP".
	Name() string
	// Feed advances the state machine by one event, appending any
	// completed Report to out. A parser may append more than one Report
	// for a single event (e.g. a commit report followed by its PDCP
	// disruption report).
	Feed(ev event.Event, state *State, warn WarningSink, out *[]Report) error
	// Reset returns the parser to its initial normal-transition state.
	Reset()
}
