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
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ltemobility/ltemobility/event"
)

// newTestDispatcher builds a Dispatcher around an explicit parser list,
// bypassing NewDispatcher's fixed HSP/HFP/FRP/SRP set so registration order
// and reset/stall behavior can be driven by mocks in isolation.
func newTestDispatcher(parsers ...Parser) *Dispatcher {
	return &Dispatcher{
		parsers: parsers,
		state:   NewState(),
		warn:    &BufferWarningSink{},
		stats:   NewStats(),
	}
}

func TestDispatcherFeedsParsersInRegistrationOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := NewMockParser(ctrl)
	second := NewMockParser(ctrl)

	gomock.InOrder(
		first.EXPECT().Feed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		second.EXPECT().Feed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
	)

	d := newTestDispatcher(first, second)
	_, err := d.Run(strings.NewReader("T1 $ measResults $\n"))
	require.NoError(t, err)
}

func TestDispatcherAppliesResetAllBeforeNextEventInRegistrationOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := NewMockParser(ctrl)
	second := NewMockParser(ctrl)

	first.EXPECT().Feed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ev event.Event, state *State, _ WarningSink, _ *[]Report) error {
			state.Control.ResetAll = true
			return nil
		})
	second.EXPECT().Feed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	gomock.InOrder(
		first.EXPECT().Reset(),
		second.EXPECT().Reset(),
	)
	first.EXPECT().Feed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	second.EXPECT().Feed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	d := newTestDispatcher(first, second)
	_, err := d.Run(strings.NewReader("T1 $ measResults $\nT2 $ measResults $\n"))
	require.NoError(t, err)
	require.False(t, d.State().Control.ResetAll, "reset_all must be cleared once applied")
}

func TestDispatcherStallOnceReFeedsSameEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := NewMockParser(ctrl)

	var seenTimestamps []string
	calls := 0
	p.EXPECT().Feed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ev event.Event, state *State, _ WarningSink, _ *[]Report) error {
			seenTimestamps = append(seenTimestamps, ev.Timestamp)
			calls++
			if calls == 1 {
				state.Control.StallOnce = true
			}
			return nil
		}).Times(3)

	d := newTestDispatcher(p)
	_, err := d.Run(strings.NewReader("T1 $ measResults $\nT2 $ measResults $\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"T1", "T1", "T2"}, seenTimestamps)
}

func TestDispatcherExceptionErrorReportsLineNumber(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := NewMockParser(ctrl)
	p.EXPECT().Feed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	p.EXPECT().Feed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(
		&event.MissingFieldError{PacketType: "measResults", Field: "x"})

	d := newTestDispatcher(p)
	_, err := d.Run(strings.NewReader("T1 $ measResults $\nT2 $ measResults $\n"))
	require.Error(t, err)
	var exc *ExceptionError
	require.ErrorAs(t, err, &exc)
	require.Equal(t, 2, exc.Line)
}
