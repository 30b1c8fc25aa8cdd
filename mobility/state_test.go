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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyFrequencyUnknownWhenUnset(t *testing.T) {
	require.Equal(t, FrequencyUnknown, ClassifyFrequency(Cell{}, "1800", "1700"))
}

func TestClassifyFrequencyIntra(t *testing.T) {
	prev := Cell{DLFreq: "1800", ULFreq: "1700"}
	require.Equal(t, FrequencyIntra, ClassifyFrequency(prev, "1800", "1700"))
}

func TestClassifyFrequencyInter(t *testing.T) {
	prev := Cell{DLFreq: "1800", ULFreq: "1700"}
	require.Equal(t, FrequencyInter, ClassifyFrequency(prev, "2100", "2000"))
}

func TestNewStateInitialCellIdentityUnknown(t *testing.T) {
	s := NewState()
	require.Equal(t, UnknownIdentity, s.Cell.Identity)
	require.False(t, s.Control.ResetAll)
	require.False(t, s.Control.StallOnce)
}
