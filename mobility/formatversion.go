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
	"strings"

	version "github.com/hashicorp/go-version"
)

// formatHeaderPrefix marks an optional first line a trace may carry to
// declare which wire-format revision it was captured with, e.g.:
//
//	# ltemobility-trace-format: 1.0
const formatHeaderPrefix = "# ltemobility-trace-format:"

// SupportedFormatConstraint is the range of trace-format versions this
// Dispatcher understands. It widens only when the wire format itself gains a
// field that changes decoding, never for new packet types (those are already
// forwards-compatible: unrecognized packet_type values are a no-op).
var SupportedFormatConstraint = mustConstraint(">= 1.0, < 2.0")

func mustConstraint(c string) version.Constraints {
	parsed, err := version.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return parsed
}

// parseFormatHeader reports whether line declares a trace-format version,
// and the declared version string if so.
func parseFormatHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, formatHeaderPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, formatHeaderPrefix)), true
}

// checkFormatVersion returns an error if raw does not parse as a version, or
// parses but falls outside SupportedFormatConstraint.
func checkFormatVersion(raw string) error {
	v, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("trace declares format version %q: %w", raw, err)
	}
	if !SupportedFormatConstraint.Check(v) {
		return fmt.Errorf("trace format version %s is not supported (requires %s)", v, SupportedFormatConstraint)
	}
	return nil
}
