package hooks

import (
	"context"
	"testing"

	"github.com/diillson/krusty/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_RoundTrips(t *testing.T) {
	for e, name := range eventNames {
		parsed, ok := ParseEvent(name)
		require.True(t, ok, name)
		assert.Equal(t, e, parsed)
	}
	_, ok := ParseEvent("no:such")
	assert.False(t, ok)
}

func TestFire_RunsInProcessHandlers(t *testing.T) {
	b := New(nil, nil)
	var got []Payload
	b.Register(CommandAfter, func(p Payload) { got = append(got, p) })

	b.Fire(context.Background(), CommandAfter, Payload{Command: "ls", ExitCode: 2})
	b.Fire(context.Background(), CommandBefore, Payload{Command: "pwd"})

	require.Len(t, got, 1)
	assert.Equal(t, "ls", got[0].Command)
	assert.Equal(t, 2, got[0].ExitCode)
}

func TestFire_RunsEnabledConfigActionsByPriority(t *testing.T) {
	var ran []string
	b := New(nil, func(ctx context.Context, command string) error {
		ran = append(ran, command)
		return nil
	})
	b.LoadConfig(map[string][]config.HookAction{
		"shell:start": {
			{Command: "low", Priority: 1, Enabled: true},
			{Command: "disabled", Priority: 9, Enabled: false},
			{Command: "high", Priority: 5, Enabled: true},
		},
	})

	b.Fire(context.Background(), ShellStart, Payload{})
	assert.Equal(t, []string{"high", "low"}, ran)
}

func TestLoadConfig_SkipsUnknownEvents(t *testing.T) {
	b := New(nil, func(ctx context.Context, command string) error { return nil })
	b.LoadConfig(map[string][]config.HookAction{
		"bogus:event": {{Command: "x", Enabled: true}},
	})
	b.Fire(context.Background(), ShellStart, Payload{})
	assert.Empty(t, b.actions)
}

func TestFire_HandlerErrorDoesNotPropagate(t *testing.T) {
	b := New(nil, func(ctx context.Context, command string) error {
		return context.DeadlineExceeded
	})
	b.LoadConfig(map[string][]config.HookAction{
		"shell:stop": {{Command: "failing", Enabled: true}},
	})
	assert.NotPanics(t, func() {
		b.Fire(context.Background(), ShellStop, Payload{})
	})
}
