package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdlbs/agentsup/internal/canonical"
)

func TestOpencodeNormalizerStepStartIsInit(t *testing.T) {
	n := newOpencodeNormalizer()
	events := n.Normalize(map[string]any{"type": "step_start", "model": "gpt", "session_id": "s1"}, fixedNow)
	require.Len(t, events, 1)
	require.Equal(t, canonical.TypeInit, events[0].Type)
}

func TestOpencodeNormalizerToolPartPendingIgnored(t *testing.T) {
	n := newOpencodeNormalizer()
	events := n.Normalize(map[string]any{
		"type": "part",
		"part": map[string]any{
			"type": "tool", "tool": "bash",
			"state": map[string]any{"status": "running"},
		},
	}, fixedNow)
	require.Nil(t, events)
}

func TestOpencodeNormalizerToolPartCompletedBash(t *testing.T) {
	n := newOpencodeNormalizer()
	events := n.Normalize(map[string]any{
		"type": "part",
		"part": map[string]any{
			"type": "tool", "tool": "bash",
			"state": map[string]any{"status": "completed", "input": map[string]any{"command": "rm x.go"}},
		},
	}, fixedNow)
	require.Len(t, events, 2)
	require.Equal(t, canonical.TypeBash, events[0].Type)
	require.Equal(t, canonical.TypeFileDelete, events[1].Type)
}

func TestOpencodeNormalizerToolPartErrorAppendsErrorEvent(t *testing.T) {
	n := newOpencodeNormalizer()
	events := n.Normalize(map[string]any{
		"type": "part",
		"part": map[string]any{
			"type": "tool", "tool": "read",
			"state": map[string]any{"status": "error", "error": "not found", "input": map[string]any{"filePath": "a.go"}},
		},
	}, fixedNow)
	require.Len(t, events, 2)
	require.Equal(t, canonical.TypeFileRead, events[0].Type)
	require.Equal(t, canonical.TypeError, events[1].Type)
}

func TestOpencodeNormalizerStepFinishErrorReason(t *testing.T) {
	n := newOpencodeNormalizer()
	events := n.Normalize(map[string]any{"type": "step_finish", "reason": "error"}, fixedNow)
	require.Len(t, events, 1)
	require.Equal(t, canonical.ResultError, events[0].Status)
}
