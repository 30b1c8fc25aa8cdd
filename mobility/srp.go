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

const (
	connectionReasonNone    = ""
	connectionReasonRLF     = "radio link failure"
	connectionReasonColdStart = "connection setup"
)

// SlowRecoverAfterRLFParser (SRP) detects reestablishment after a radio
// link failure that goes all the way through a full connection setup
// rather than a bare reestablishment complete (FRP's path), and also
// detects a pure cold-start connection setup with no preceding RLF at
// all (spec.md section 9, open question 3: the bare "Connection Setup"
// report is only emitted when the RACH's CONNECTION_REQ was not itself
// preceded by an RLF-triggered RACH).
type SlowRecoverAfterRLFParser struct {
	reestablishmentRequestedOnRLF   bool
	reestablishmentRequestTimestamp string
	lastPacketTimestampBeforeRLF    string

	macRachTriggeredByRLF         bool
	macRachConnectionRequestReason string
	macRachAttemptSucceeded        bool
	connectionSetup                bool
	rrcReconfigurationStarted      bool
	rrcReestablishmentRejected     bool

	tryingCell   Cell
	justSwitched bool
}

// NewSlowRecoverAfterRLFParser returns an SRP in its initial state.
func NewSlowRecoverAfterRLFParser() *SlowRecoverAfterRLFParser {
	p := &SlowRecoverAfterRLFParser{}
	p.Reset()
	return p
}

// Name implements Parser.
func (p *SlowRecoverAfterRLFParser) Name() string { return "SRP" }

// Reset implements Parser. It leaves tryingCell, lastPacketTimestampBeforeRLF
// and justSwitched untouched, for the same reason FRP does: the
// reconfiguration-complete commit raises shared.Control.ResetAll itself,
// and the pending PDCP-disruption report keyed off justSwitched must
// survive that very reset_all to be completed by a later
// FirstPDCPPacketAfterDisruption event.
func (p *SlowRecoverAfterRLFParser) Reset() {
	p.clearMatchProgress()
}

func (p *SlowRecoverAfterRLFParser) clearMatchProgress() {
	p.reestablishmentRequestedOnRLF = false
	p.macRachTriggeredByRLF = false
	p.macRachConnectionRequestReason = connectionReasonNone
	p.macRachAttemptSucceeded = false
	p.connectionSetup = false
	p.rrcReconfigurationStarted = false
	p.reestablishmentRequestTimestamp = ""
	p.rrcReestablishmentRejected = false
}

// Feed implements Parser.
func (p *SlowRecoverAfterRLFParser) Feed(ev event.Event, state *State, warn WarningSink, out *[]Report) error {
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
		switch {
		case reason == "RLF" && p.reestablishmentRequestedOnRLF:
			p.macRachTriggeredByRLF = true
		case reason == "CONNECTION_REQ" && p.macRachTriggeredByRLF:
			p.macRachConnectionRequestReason = connectionReasonRLF
		case reason == "CONNECTION_REQ" && !p.macRachTriggeredByRLF:
			p.macRachConnectionRequestReason = connectionReasonColdStart
		}

	case event.MACRachAttempt:
		result, err := event.Require(ev.Fields, ev.PacketType, "Result")
		if err != nil {
			return err
		}
		if result == "Success" &&
			(p.macRachConnectionRequestReason == connectionReasonRLF ||
				p.macRachConnectionRequestReason == connectionReasonColdStart) {
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
		identity, err := event.Require(ev.Fields, ev.PacketType, "Cell Identity")
		if err != nil {
			return err
		}
		p.tryingCell = Cell{DLFreq: dlFreq, ULFreq: ulFreq, ID: cellID, Identity: identity}

	case event.RRCConnectionSetup:
		if p.macRachAttemptSucceeded {
			p.connectionSetup = true
		}

	case event.RRCConnectionReconfiguration:
		mci, err := event.Require(ev.Fields, ev.PacketType, "mobilityControlInfo")
		if err != nil {
			return err
		}
		if mci == "0" && p.connectionSetup {
			p.rrcReconfigurationStarted = true
		}

	case event.RRCConnectionReconfigurationComplete:
		if p.rrcReconfigurationStarted && !p.rrcReestablishmentRejected {
			switch p.macRachConnectionRequestReason {
			case connectionReasonRLF:
				label := "Slow Recover After RLF (to new cell)"
				if p.tryingCell.ID == state.Cell.ID {
					label = "Slow Recover After RLF (to prev serving cell)"
				}
				*out = append(*out, Report{
					Label: label,
					Fields: []Field{
						F("From", p.reestablishmentRequestTimestamp),
						F("To", ev.Timestamp),
						F("Previous Cell Identity", state.Cell.Identity),
						F("Current Cell Identity", p.tryingCell.Identity),
					},
				})
				p.justSwitched = true
				state.Cell = p.tryingCell
			case connectionReasonColdStart:
				*out = append(*out, Report{Label: "Connection Setup"})
			}
			state.Control.ResetAll = true
		}
		p.clearMatchProgress()

	case event.RRCConnectionReestablishmentReject:
		p.rrcReestablishmentRejected = true

	case event.FirstPDCPPacketAfterDisruption:
		if p.justSwitched {
			*out = append(*out, Report{
				Label: "Slow Recover After RLF PDCP Disruption",
				Fields: []Field{
					F("From", p.lastPacketTimestampBeforeRLF),
					F("To", ev.Timestamp),
				},
			})
			state.Control.ResetAll = true
			p.justSwitched = false
		}

	case event.RRCConnectionRelease:
		state.Control.ResetAll = true
	}

	return nil
}
