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
	"github.com/ltemobility/ltemobility/event"
)

// reasonNone marks mac_rach_triggered_reason as not-yet-set. Every RACH
// trigger overwrites the field with its Reason, whatever it is, so a later
// non-HO trigger replaces an earlier "HO".
const reasonNone = ""

// HandoverSuccessParser (HSP) detects: handover command, MAC RACH triggered
// by HO, MAC RACH success, serving-cell info for the target cell. Frequency
// classification and the PDCP-disruption window are resolved once the
// target cell's serving-cell info arrives.
type HandoverSuccessParser struct {
	receivedHandoverCommand bool
	macRachTriggeredReason  string
	macRachJustSucceeded    bool
	justHandovered          bool

	// Initial true suppresses a spurious "no measurement report" warning
	// on the very first handover command of a trace.
	haveSentMeasReportToCurrentCell bool

	handoverCommandTimestamp    string
	targetCellID                string
	lastPacketTimestampBeforeHO string
	macRachSuccessTimestamp     string

	firstPacketTimestampAfterHO    string
	firstPacketTimestampAfterHOSet bool
}

// NewHandoverSuccessParser returns an HSP in its initial state.
func NewHandoverSuccessParser() *HandoverSuccessParser {
	p := &HandoverSuccessParser{}
	p.Reset()
	return p
}

// Name implements Parser.
func (p *HandoverSuccessParser) Name() string { return "HSP" }

// Reset implements Parser. It returns the normal-transition-graph fields to
// their initial values. It deliberately leaves justHandovered,
// lastPacketTimestampBeforeHO and the deferred first-packet-after-HO
// bookkeeping untouched: those describe a commit already printed (or a PDCP
// packet already observed) whose matching disruption report is still
// pending, and must survive the very reset_all that the commit itself
// raised so the subsequent FirstPDCPPacketAfterDisruption event can still
// complete it.
func (p *HandoverSuccessParser) Reset() {
	p.receivedHandoverCommand = false
	p.macRachTriggeredReason = reasonNone
	p.macRachJustSucceeded = false
	p.haveSentMeasReportToCurrentCell = true
	p.handoverCommandTimestamp = ""
	p.targetCellID = ""
	p.macRachSuccessTimestamp = ""
}

// Feed implements Parser.
func (p *HandoverSuccessParser) Feed(ev event.Event, state *State, warn WarningSink, out *[]Report) error {
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
				p.receivedHandoverCommand = true
				p.handoverCommandTimestamp = ev.Timestamp
				p.targetCellID = targetCellID
			} else {
				warn.Warnf(p.Name(), ev.Timestamp, "received handover command twice")
			}
			if !p.haveSentMeasReportToCurrentCell {
				warn.Warnf(p.Name(), ev.Timestamp, "received handover command but no measurement report was sent")
			}
		}

	case event.MACRachTrigger:
		reason, err := event.Require(ev.Fields, ev.PacketType, "Reason")
		if err != nil {
			return err
		}
		// Tracks the most recent trigger reason unconditionally, so an
		// intervening non-HO trigger (e.g. RLF) clears a stale "HO" value
		// instead of leaving it latched for a later, unrelated RACH
		// success to match against.
		p.macRachTriggeredReason = reason
		if reason == "HO" {
			lastBeforeHO, err := event.Require(ev.Fields, ev.PacketType, "LastPDCPPacketTimestamp")
			if err != nil {
				return err
			}
			p.lastPacketTimestampBeforeHO = lastBeforeHO
			if !p.receivedHandoverCommand {
				warn.Warnf(p.Name(), ev.Timestamp, "RACH triggered by handover with no prior handover command")
			}
		}
		if reason != "HO" && reason != "UL_DATA" && reason != "DL_DATA" && p.macRachJustSucceeded {
			*out = append(*out, Report{
				Label: "Handover Success",
				Fields: []Field{
					F("From", p.handoverCommandTimestamp),
					F("To", p.macRachSuccessTimestamp),
					F("Frequecy Change", "unknown"),
				},
			})
			// The expected target-cell info never arrived; reset this
			// parser only, leaving HFP/FRP/SRP mid-match untouched.
			p.Reset()
		}

	case event.MACRachAttempt:
		result, err := event.Require(ev.Fields, ev.PacketType, "Result")
		if err != nil {
			return err
		}
		if result == "Success" && p.receivedHandoverCommand && p.macRachTriggeredReason == "HO" {
			p.macRachJustSucceeded = true
			p.macRachSuccessTimestamp = ev.Timestamp
		}

	case event.RRCServCellInfo:
		cellID, err := event.Require(ev.Fields, ev.PacketType, "Cell ID")
		if err != nil {
			return err
		}
		if cellID != state.Cell.ID {
			p.haveSentMeasReportToCurrentCell = false
		}
		if cellID == p.targetCellID && p.macRachJustSucceeded {
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

			fc := ClassifyFrequency(state.Cell, dlFreq, ulFreq)
			*out = append(*out, Report{
				Label: "Handover Success",
				Fields: []Field{
					F("From", p.handoverCommandTimestamp),
					F("To", p.macRachSuccessTimestamp),
					F("Frequecy Change", fc.String()),
					F("Previous Cell Identity", state.Cell.Identity),
				},
			})

			state.Control.ResetAll = true
			p.justHandovered = true
			state.Cell = Cell{DLFreq: dlFreq, ULFreq: ulFreq, ID: cellID, Identity: identity}

			if p.firstPacketTimestampAfterHOSet {
				*out = append(*out, Report{
					Label: "Handover Success PDCP Disruption",
					Fields: []Field{
						F("From", p.lastPacketTimestampBeforeHO),
						F("To", p.firstPacketTimestampAfterHO),
					},
				})
				p.justHandovered = false
				p.firstPacketTimestampAfterHOSet = false
			}
		}

	case event.FirstPDCPPacketAfterDisruption:
		switch {
		case p.justHandovered:
			*out = append(*out, Report{
				Label: "Handover Success PDCP Disruption",
				Fields: []Field{
					F("From", p.lastPacketTimestampBeforeHO),
					F("To", ev.Timestamp),
				},
			})
			state.Control.ResetAll = true
			p.justHandovered = false
		case p.macRachJustSucceeded && !p.firstPacketTimestampAfterHOSet:
			p.firstPacketTimestampAfterHO = ev.Timestamp
			p.firstPacketTimestampAfterHOSet = true
		case p.receivedHandoverCommand && p.macRachTriggeredReason == reasonNone:
			p.lastPacketTimestampBeforeHO = ev.Timestamp
		}

	case event.RRCConnectionRelease:
		state.Control.ResetAll = true
	}

	return nil
}
