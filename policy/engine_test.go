package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyDecisions(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input AccessInput
		want  bool
	}{
		{"host may start", AccessInput{Action: "start", IsHost: true, IsParticipant: true}, true},
		{"admin may end", AccessInput{Action: "end", IsAdmin: true}, true},
		{"attendee may not record", AccessInput{Action: "record", IsParticipant: true}, false},
		{"attendee may view recording", AccessInput{Action: "view_recording", IsParticipant: true}, true},
		{"stranger may not view recording", AccessInput{Action: "view_recording"}, false},
		{"nobody in particular", AccessInput{Action: "start", UserID: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Allowed(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEngineRejectsInvalidModule(t *testing.T) {
	_, err := NewEngine(context.Background(), "package broken\n allow if {")
	assert.Error(t, err)
}
