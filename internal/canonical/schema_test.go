package canonical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormedEvent(t *testing.T) {
	err := Validate(Event{
		Type: TypeFileWrite, Agent: "claude", Timestamp: time.Now(), Path: "a.go",
	})
	require.NoError(t, err)
}

func TestValidateRejectsMissingAgent(t *testing.T) {
	err := Validate(Event{Type: TypeInit, Timestamp: time.Now()})
	require.Error(t, err)
}

func TestValidateRejectsUnknownType(t *testing.T) {
	err := Validate(Event{Type: Type("not_a_real_type"), Agent: "claude", Timestamp: time.Now()})
	require.Error(t, err)
}

func TestValidationSummaryStripsPrefix(t *testing.T) {
	err := Validate(Event{Type: TypeInit})
	require.Error(t, err)
	summary := ValidationSummary(err)
	require.NotContains(t, summary, "canonical: event failed schema validation: ")
}

func TestClassifyPriorityCriticalAndImportantAndVerbose(t *testing.T) {
	require.Equal(t, PriorityCritical, ClassifyPriority(Event{Type: TypeFileWrite}))
	require.Equal(t, PriorityCritical, ClassifyPriority(Event{Type: TypeError}))
	require.Equal(t, PriorityImportant, ClassifyPriority(Event{Type: TypeToolUse}))
	require.Equal(t, PriorityVerbose, ClassifyPriority(Event{Type: TypeThinking}))
	require.Equal(t, PriorityVerbose, ClassifyPriority(Event{Type: TypeUnknown}))
}

func TestClassifyPriorityMessageDependsOnComplete(t *testing.T) {
	require.Equal(t, PriorityImportant, ClassifyPriority(Event{Type: TypeMessage, Complete: BoolPtr(true)}))
	require.Equal(t, PriorityVerbose, ClassifyPriority(Event{Type: TypeMessage, Complete: BoolPtr(false)}))
	require.Equal(t, PriorityVerbose, ClassifyPriority(Event{Type: TypeMessage}))
}
