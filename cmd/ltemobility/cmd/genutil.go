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

import "golang.org/x/exp/constraints"

// gap returns the absolute difference between a and b, used to describe how
// far out of order two report-window line numbers are.
func gap[T constraints.Integer](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}
