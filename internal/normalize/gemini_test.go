package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdlbs/agentsup/internal/canonical"
)

func TestGeminiNormalizerMessageDeltaWithoutContentDropped(t *testing.T) {
	n := newGeminiNormalizer()
	events := n.Normalize(map[string]any{"type": "message", "delta": true, "content": ""}, fixedNow)
	require.Nil(t, events)
}

func TestGeminiNormalizerToolCallThenResultPairing(t *testing.T) {
	n := newGeminiNormalizer()

	toolEvents := n.Normalize(map[string]any{
		"type": "tool_call", "call_id": "c1", "name": "write_file",
		"args": map[string]any{"file_path": "a.go"},
	}, fixedNow)
	require.Len(t, toolEvents, 1)
	require.Equal(t, canonical.TypeToolUse, toolEvents[0].Type)

	resultEvents := n.Normalize(map[string]any{"type": "tool_result", "call_id": "c1", "error": false}, fixedNow)
	require.Len(t, resultEvents, 1)
	require.Equal(t, canonical.TypeFileWrite, resultEvents[0].Type)
	require.Equal(t, "a.go", resultEvents[0].Path)
}

func TestGeminiNormalizerShellToolCallSynthesizesBash(t *testing.T) {
	n := newGeminiNormalizer()
	events := n.Normalize(map[string]any{
		"type": "tool_call", "call_id": "c2", "name": "run_shell_command",
		"args": map[string]any{"command": "cat a.go"},
	}, fixedNow)
	require.Len(t, events, 2)
	require.Equal(t, canonical.TypeBash, events[0].Type)
	require.Equal(t, canonical.TypeFileRead, events[1].Type)
}

func TestGeminiNormalizerStatsBecomesResultWithUsage(t *testing.T) {
	n := newGeminiNormalizer()
	events := n.Normalize(map[string]any{
		"type": "stats", "usage": map[string]any{"input_tokens": 10.0, "output_tokens": 5.0},
	}, fixedNow)
	require.Len(t, events, 1)
	require.Equal(t, canonical.TypeResult, events[0].Type)
	require.Equal(t, 10, events[0].Usage.InputTokens)
}
