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
	"os"

	"github.com/fatih/color"
)

// WarningSink is where every parser routes its ProtocolAnomaly warnings.
// Parameterizing it out of the parsers, rather than writing to os.Stderr
// directly, is what lets tests disable ANSI coloring deterministically.
type WarningSink interface {
	Warnf(parser, timestamp, format string, args ...interface{})
}

// ColorWarningSink is the default WarningSink: it writes
//
//	Warning [<parser>] [<timestamp>]: <message>
//
// to w, wrapped in ANSI red unless color.NoColor is set (honoring NO_COLOR
// and non-terminal stderr automatically, same as fatih/color's package
// default).
type ColorWarningSink struct {
	w io.Writer
}

// NewColorWarningSink builds a ColorWarningSink writing to os.Stderr.
func NewColorWarningSink() *ColorWarningSink {
	return &ColorWarningSink{w: os.Stderr}
}

var warnColor = color.New(color.FgRed)

// Warnf implements WarningSink.
func (s *ColorWarningSink) Warnf(parser, timestamp, format string, args ...interface{}) {
	msg := fmt.Sprintf("Warning [%s] [%s]: %s", parser, timestamp, fmt.Sprintf(format, args...))
	warnColor.Fprintln(s.w, msg)
}

// BufferWarningSink records warnings verbatim, without ANSI codes, for use
// in tests that assert on warning text.
type BufferWarningSink struct {
	Messages []string
}

// Warnf implements WarningSink.
func (s *BufferWarningSink) Warnf(parser, timestamp, format string, args ...interface{}) {
	s.Messages = append(s.Messages, fmt.Sprintf("[%s] [%s]: %s", parser, timestamp, fmt.Sprintf(format, args...)))
}
