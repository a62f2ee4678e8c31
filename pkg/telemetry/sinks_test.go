package telemetry

import (
	"testing"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []agent.Event
}

func (r *recordingSink) Emit(e agent.Event) { r.events = append(r.events, e) }

type panickingSink struct{}

func (panickingSink) Emit(agent.Event) { panic("boom") }

func TestFanOut_BroadcastsToAllSubscribers(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	f := NewFanOut(a, b)

	evt := agent.Event{Type: agent.EventAgentStarted, ExecutionID: "exec-1"}
	f.Emit(evt)

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, evt, a.events[0])
}

func TestFanOut_SubscribeAddsReceiver(t *testing.T) {
	f := NewFanOut()
	a := &recordingSink{}
	f.Subscribe(a)

	f.Emit(agent.Event{Type: agent.EventExecutionStarted})
	assert.Len(t, a.events, 1)
}

func TestFanOut_PanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	a := &recordingSink{}
	f := NewFanOut(panickingSink{}, a)

	assert.NotPanics(t, func() {
		f.Emit(agent.Event{Type: agent.EventExecutionCompleted})
	})
	assert.Len(t, a.events, 1)
}

func TestLoggingSink_EmitDoesNotPanic(t *testing.T) {
	s := NewLoggingSink(nil)
	assert.NotPanics(t, func() {
		s.Emit(agent.Event{Type: agent.EventAgentCompleted, ExecutionID: "exec-1"})
	})
}
