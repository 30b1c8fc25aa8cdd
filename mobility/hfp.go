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
	"strings"

	"github.com/ltemobility/ltemobility/event"
)

// HandoverFailureParser (HFP) detects a handover command that fails and is
// recovered via reestablishment: handover command, MAC RACH triggered by
// HO, a reestablishment request citing handoverFailure, MAC RACH RLF
// success, a non-mobility reconfiguration, and its complete.
//
// Two source variants exist for the final commit: one that requires the
// recovered cell to match the original handover target, another that
// commits regardless and warns on mismatch. This implements the latter
// (spec.md section 9, open question 1).
type HandoverFailureParser struct {
	receivedHandoverCommand bool
	handoverCommandTimestamp string
	targetCellID            string
	lastPacketTimestampBeforeHO string

	haveSentMeasReportToCurrentCell bool
	macRachTriggeredReason          string
	handoverFailure                 bool
	macRachSucceededAfterHOFailure   bool
	connectionReconfigAfterHOFailure bool
	switchedToTargetCell             bool
	tryingCell                       Cell

	justHandovered bool
}

// NewHandoverFailureParser returns an HFP in its initial state.
func NewHandoverFailureParser() *HandoverFailureParser {
	p := &HandoverFailureParser{}
	p.Reset()
	return p
}

// Name implements Parser.
func (p *HandoverFailureParser) Name() string { return "HFP" }

// Reset implements Parser. Like HSP, it leaves justHandovered and
// lastPacketTimestampBeforeHO untouched: they carry a printed "Handover
// Failure" commit's pending PDCP-disruption report across the very
// reset_all the Dispatcher has not yet applied at that commit (HFP only
// raises reset_all once the disruption report itself is printed).
func (p *HandoverFailureParser) Reset() {
	p.receivedHandoverCommand = false
	p.handoverCommandTimestamp = ""
	p.targetCellID = ""
	p.haveSentMeasReportToCurrentCell = true
	p.macRachTriggeredReason = reasonNone
	p.handoverFailure = false
	p.macRachSucceededAfterHOFailure = false
	p.connectionReconfigAfterHOFailure = false
	p.switchedToTargetCell = false
	p.tryingCell = Cell{}
}

// Feed implements Parser.
func (p *HandoverFailureParser) Feed(ev event.Event, state *State, warn WarningSink, out *[]Report) error {
	switch ev.PacketType {
	case event.MeasResults:
		p.haveSentMeasReportToCurrentCell = true

	case event.RRCConnectionReconfiguration:
		mci, err := event.Require(ev.Fields, ev.PacketType, "mobilityControlInfo")
		if err != nil {
			return err
		}
		if mci == "1" {
			if !p.receivedHandoverCommand {
				targetCellID, err := event.Require(ev.Fields, ev.PacketType, "targetPhysCellId")
				if err != nil {
					return err
				}
				lastPDCP, err := event.Require(ev.Fields, ev.PacketType, "LastPDCPPacketTimestamp")
				if err != nil {
					return err
				}
				p.receivedHandoverCommand = true
				p.handoverCommandTimestamp = ev.Timestamp
				p.targetCellID = targetCellID
				p.lastPacketTimestampBeforeHO = lastPDCP
			} else {
				warn.Warnf(p.Name(), ev.Timestamp, "received handover command twice")
			}
			if !p.haveSentMeasReportToCurrentCell {
				warn.Warnf(p.Name(), ev.Timestamp, "received handover command but no measurement report was sent")
			}
		} else if p.macRachSucceededAfterHOFailure {
			p.connectionReconfigAfterHOFailure = true
		}

	case event.RRCConnectionReestablishmentRequest:
		cause, err := event.Require(ev.Fields, ev.PacketType, "reestablishmentCause")
		if err != nil {
			return err
		}
		if strings.Contains(cause, "handoverFailure") {
			if !p.receivedHandoverCommand {
				warn.Warnf(p.Name(), ev.Timestamp, "reestablishment cause handoverFailure with no prior handover command")
			}
			p.handoverFailure = true
		}

	case event.MACRachTrigger:
		reason, err := event.Require(ev.Fields, ev.PacketType, "Reason")
		if err != nil {
			return err
		}
		p.macRachTriggeredReason = reason
		if reason == "HO" && !p.receivedHandoverCommand {
			warn.Warnf(p.Name(), ev.Timestamp, "RACH triggered by handover with no prior handover command")
		}

	case event.MACRachAttempt:
		result, err := event.Require(ev.Fields, ev.PacketType, "Result")
		if err != nil {
			return err
		}
		if result == "Success" && p.handoverFailure && p.macRachTriggeredReason == "RLF" {
			p.macRachSucceededAfterHOFailure = true
		}

	case event.RRCServCellInfo:
		cellID, err := event.Require(ev.Fields, ev.PacketType, "Cell ID")
		if err != nil {
			return err
		}
		dlFreq, err := event.Require(ev.Fields, ev.PacketType, "Downlink frequency")
		if err != nil {
			return err
		}
		ulFreq, err := event.Require(ev.Fields, ev.PacketType, "Uplink frequency")
		if err != nil {
			return err
		}
		identity, err := event.Require(ev.Fields, ev.PacketType, "Cell Identity")
		if err != nil {
			return err
		}
		if cellID != state.Cell.ID {
			p.haveSentMeasReportToCurrentCell = false
		}
		p.tryingCell = Cell{DLFreq: dlFreq, ULFreq: ulFreq, ID: cellID, Identity: identity}
		if cellID == p.targetCellID {
			p.switchedToTargetCell = true
		}

	case event.RRCConnectionReconfigurationComplete:
		if p.connectionReconfigAfterHOFailure {
			if !p.switchedToTargetCell {
				warn.Warnf(p.Name(), ev.Timestamp, "recovered to a cell other than the handover target")
			}
			*out = append(*out, Report{
				Label: "Handover Failure",
				Fields: []Field{
					F("From", p.handoverCommandTimestamp),
					F("To", ev.Timestamp),
				},
			})
			state.Cell = p.tryingCell
			p.justHandovered = true
			p.receivedHandoverCommand = false
			p.targetCellID = ""
			p.macRachTriggeredReason = reasonNone
			p.handoverFailure = false
			p.macRachSucceededAfterHOFailure = false
			p.connectionReconfigAfterHOFailure = false
			p.switchedToTargetCell = false
		}

	case event.FirstPDCPPacketAfterDisruption:
		if p.justHandovered {
			*out = append(*out, Report{
				Label: "Handover Failure PDCP Disruption",
				Fields: []Field{
					F("From", p.lastPacketTimestampBeforeHO),
					F("To", ev.Timestamp),
				},
			})
			state.Control.ResetAll = true
			p.justHandovered = false
		}
	}

	return nil
}
