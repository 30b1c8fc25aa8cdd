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

func TestSRPToPrevServingCell(t *testing.T) {
	p := NewSlowRecoverAfterRLFParser()
	state := NewState()
	state.Cell = Cell{ID: "7", Identity: "C7"}
	sink := &BufferWarningSink{}

	feedLine(t, p, state, sink, "T1 $ rrcConnectionReestablishmentRequest $ reestablishmentCause: otherFailure, LastPDCPPacketTimestamp: T0")
	feedLine(t, p, state, sink, "T2 $ LTE_MAC_Rach_Trigger $ Reason: RLF, LastPDCPPacketTimestamp: T0")
	feedLine(t, p, state, sink, "T3 $ LTE_MAC_Rach_Trigger $ Reason: CONNECTION_REQ")
	feedLine(t, p, state, sink, "T4 $ LTE_MAC_Rach_Attempt $ Result: Success")
	feedLine(t, p, state, sink, "T5 $ rrcConnectionSetup $")
	feedLine(t, p, state, sink, "T6 $ LTE_RRC_Serv_Cell_Info $ Cell ID: 7, Downlink frequency: 1800, Uplink frequency: 1700, Cell Identity: C7")
	feedLine(t, p, state, sink, "T7 $ rrcConnectionReconfiguration $ mobilityControlInfo: 0")
	reports := feedLine(t, p, state, sink, "T8 $ rrcConnectionReconfigurationComplete $")

	require.Equal(t, []string{"Slow Recover After RLF (to prev serving cell)"}, labels(reports))
	require.True(t, state.Control.ResetAll)
}

func TestSRPRejectAbortsCommit(t *testing.T) {
	p := NewSlowRecoverAfterRLFParser()
	state := NewState()
	state.Cell = Cell{ID: "7", Identity: "C7"}
	sink := &BufferWarningSink{}

	feedLine(t, p, state, sink, "T1 $ rrcConnectionReestablishmentRequest $ reestablishmentCause: otherFailure, LastPDCPPacketTimestamp: T0")
	feedLine(t, p, state, sink, "T2 $ LTE_MAC_Rach_Trigger $ Reason: RLF, LastPDCPPacketTimestamp: T0")
	feedLine(t, p, state, sink, "T3 $ LTE_MAC_Rach_Trigger $ Reason: CONNECTION_REQ")
	feedLine(t, p, state, sink, "T4 $ LTE_MAC_Rach_Attempt $ Result: Success")
	feedLine(t, p, state, sink, "T5 $ rrcConnectionSetup $")
	feedLine(t, p, state, sink, "T6 $ LTE_RRC_Serv_Cell_Info $ Cell ID: 55, Downlink frequency: 2100, Uplink frequency: 2000, Cell Identity: C55")
	feedLine(t, p, state, sink, "T7 $ rrcConnectionReconfiguration $ mobilityControlInfo: 0")
	feedLine(t, p, state, sink, "T7a $ rrcConnectionReestablishmentReject $")
	reports := feedLine(t, p, state, sink, "T8 $ rrcConnectionReconfigurationComplete $")

	require.Empty(t, reports)
	require.Equal(t, "7", state.Cell.ID)
}

func TestSRPResetLeavesPendingPDCPWindowIntact(t *testing.T) {
	p := NewSlowRecoverAfterRLFParser()
	state := NewState()
	state.Cell = Cell{ID: "7", Identity: "C7"}
	sink := &BufferWarningSink{}

	feedLine(t, p, state, sink, "T1 $ rrcConnectionReestablishmentRequest $ reestablishmentCause: otherFailure, LastPDCPPacketTimestamp: T0")
	feedLine(t, p, state, sink, "T2 $ LTE_MAC_Rach_Trigger $ Reason: RLF, LastPDCPPacketTimestamp: T0")
	feedLine(t, p, state, sink, "T3 $ LTE_MAC_Rach_Trigger $ Reason: CONNECTION_REQ")
	feedLine(t, p, state, sink, "T4 $ LTE_MAC_Rach_Attempt $ Result: Success")
	feedLine(t, p, state, sink, "T5 $ rrcConnectionSetup $")
	feedLine(t, p, state, sink, "T6 $ LTE_RRC_Serv_Cell_Info $ Cell ID: 55, Downlink frequency: 2100, Uplink frequency: 2000, Cell Identity: C55")
	feedLine(t, p, state, sink, "T7 $ rrcConnectionReconfiguration $ mobilityControlInfo: 0")
	reports := feedLine(t, p, state, sink, "T8 $ rrcConnectionReconfigurationComplete $")
	require.Len(t, reports, 1)
	require.True(t, p.justSwitched)

	p.Reset()
	require.True(t, p.justSwitched, "Reset must not clear a pending PDCP disruption report")

	reports = feedLine(t, p, state, sink, "T9 $ FirstPDCPPacketAfterDisruption $")
	require.Equal(t, []string{"Slow Recover After RLF PDCP Disruption"}, labels(reports))
}

func TestSRPColdStartConnectionSetup(t *testing.T) {
	p := NewSlowRecoverAfterRLFParser()
	state := NewState()
	sink := &BufferWarningSink{}

	feedLine(t, p, state, sink, "T1 $ LTE_MAC_Rach_Trigger $ Reason: CONNECTION_REQ")
	feedLine(t, p, state, sink, "T2 $ LTE_MAC_Rach_Attempt $ Result: Success")
	feedLine(t, p, state, sink, "T3 $ rrcConnectionSetup $")
	feedLine(t, p, state, sink, "T4 $ LTE_RRC_Serv_Cell_Info $ Cell ID: 10, Downlink frequency: 1800, Uplink frequency: 1700, Cell Identity: C10")
	feedLine(t, p, state, sink, "T5 $ rrcConnectionReconfiguration $ mobilityControlInfo: 0")
	reports := feedLine(t, p, state, sink, "T6 $ rrcConnectionReconfigurationComplete $")

	require.Equal(t, []string{"Connection Setup"}, labels(reports))
	require.False(t, p.justSwitched, "a pure cold start never sets justSwitched")
}
