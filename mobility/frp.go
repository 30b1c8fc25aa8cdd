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

// FastRecoverAfterRLFParser (FRP) detects reestablishment-based recovery
// after a radio link failure, with no full connection setup: a
// reestablishment request citing otherFailure, MAC RACH RLF success, the
// reestablishment complete, a non-mobility reconfiguration, and its
// complete — provided no reject and no CONNECTION_REQ RACH diverted the UE
// to the slow path in between.
type FastRecoverAfterRLFParser struct {
	reestablishmentRequestedOnRLF bool
	reestablishmentRequestTimestamp string
	lastPacketTimestampBeforeRLF    string

	macRachTriggeredByRLF              bool
	macRachAttemptSucceeded             bool
	reestablishmentCompleted            bool
	rrcReconfigurationStarted           bool
	rrcReestablishmentRejected          bool
	macRachSwitchedToConnectionRequest bool

	tryingCell     Cell
	justSwitched   bool
}

// NewFastRecoverAfterRLFParser returns an FRP in its initial state.
func NewFastRecoverAfterRLFParser() *FastRecoverAfterRLFParser {
	p := &FastRecoverAfterRLFParser{}
	p.Reset()
	return p
}

// Name implements Parser.
func (p *FastRecoverAfterRLFParser) Name() string { return "FRP" }

// Reset implements Parser. FRP never raises shared.Control.ResetAll itself
// (spec.md section 4.5) — its two-stage commit relies entirely on
// lastPacketTimestampBeforeRLF, tryingCell and justSwitched surviving any
// reset_all some OTHER parser's commit triggers, so Reset leaves them
// untouched and only clears the in-progress match fields.
func (p *FastRecoverAfterRLFParser) Reset() {
	p.clearMatchProgress()
}

func (p *FastRecoverAfterRLFParser) clearMatchProgress() {
	p.reestablishmentRequestedOnRLF = false
	p.macRachTriggeredByRLF = false
	p.macRachAttemptSucceeded = false
	p.reestablishmentCompleted = false
	p.rrcReconfigurationStarted = false
	p.reestablishmentRequestTimestamp = ""
	p.rrcReestablishmentRejected = false
	p.macRachSwitchedToConnectionRequest = false
}

// Feed implements Parser.
func (p *FastRecoverAfterRLFParser) Feed(ev event.Event, state *State, warn WarningSink, out *[]Report) error {
	switch ev.PacketType {
	case event.RRCConnectionReestablishmentRequest:
		cause, err := event.Require(ev.Fields, ev.PacketType, "reestablishmentCause")
		if err != nil {
			return err
		}
		if strings.Contains(cause, "otherFailure") {
			lastPDCP, err := event.Require(ev.Fields, ev.PacketType, "LastPDCPPacketTimestamp")
			if err != nil {
				return err
			}
			p.reestablishmentRequestedOnRLF = true
			p.reestablishmentRequestTimestamp = ev.Timestamp
			p.lastPacketTimestampBeforeRLF = lastPDCP
		}

	case event.MACRachTrigger:
		reason, err := event.Require(ev.Fields, ev.PacketType, "Reason")
		if err != nil {
			return err
		}
		if reason == "RLF" && p.reestablishmentRequestedOnRLF {
			p.macRachTriggeredByRLF = true
		} else if reason == "CONNECTION_REQ" {
			p.macRachSwitchedToConnectionRequest = true
		}

	case event.MACRachAttempt:
		result, err := event.Require(ev.Fields, ev.PacketType, "Result")
		if err != nil {
			return err
		}
		if result == "Success" && p.macRachTriggeredByRLF {
			p.macRachAttemptSucceeded = true
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
		p.tryingCell.ID = cellID
		p.tryingCell.DLFreq = dlFreq
		p.tryingCell.ULFreq = ulFreq

	case event.RRCConnectionReestablishmentComplete:
		if p.macRachAttemptSucceeded {
			p.reestablishmentCompleted = true
		}

	case event.RRCConnectionReconfiguration:
		mci, err := event.Require(ev.Fields, ev.PacketType, "mobilityControlInfo")
		if err != nil {
			return err
		}
		if mci == "0" && p.reestablishmentCompleted {
			p.rrcReconfigurationStarted = true
		}

	case event.RRCConnectionReconfigurationComplete:
		if p.rrcReconfigurationStarted && !p.rrcReestablishmentRejected && !p.macRachSwitchedToConnectionRequest {
			label := "Fast Recovery After RLF (Psudo Handover)"
			if state.Cell.ID == p.tryingCell.ID {
				label = "Fast Recovery After RLF (Self Reconnection)"
			}
			*out = append(*out, Report{
				Label: label,
				Fields: []Field{
					F("From", p.reestablishmentRequestTimestamp),
					F("To", ev.Timestamp),
				},
			})
			p.justSwitched = true
			state.Cell.DLFreq = p.tryingCell.DLFreq
			state.Cell.ULFreq = p.tryingCell.ULFreq
			state.Cell.ID = p.tryingCell.ID
		}
		p.clearMatchProgress()

	case event.RRCConnectionReestablishmentReject:
		p.rrcReestablishmentRejected = true

	case event.FirstPDCPPacketAfterDisruption:
		if p.justSwitched {
			*out = append(*out, Report{
				Label: "Fast Recovery After RLF",
				Fields: []Field{
					F("From", p.lastPacketTimestampBeforeRLF),
					F("To", ev.Timestamp),
				},
			})
			// Clear justSwitched explicitly: Reset/clearMatchProgress leave it
			// untouched by design, so without this a PDCP packet arriving long
			// after the window closed would reprint the same report.
			p.justSwitched = false
			p.Reset()
		}
	}

	return nil
}
