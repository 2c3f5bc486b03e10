package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadParsesAllFiveKinds(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	for _, k := range []Kind{KindClaude, KindCodex, KindGemini, KindCursor, KindOpencode} {
		cfg, ok := reg.Lookup(k)
		require.Truef(t, ok, "kind %s should be registered", k)
		require.NotEmpty(t, cfg.Program)
		require.NotEmpty(t, cfg.Normalizer)
	}
}

func TestLookupUnknownKindFails(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	_, ok := reg.Lookup(Kind("not-a-kind"))
	require.False(t, ok)
}

func TestBuildArgsSubstitutesPromptAndAppendsFlags(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	cfg, ok := reg.Lookup(KindClaude)
	require.True(t, ok)

	args := cfg.BuildArgs("fix the bug", ModeEdit, EffortDetailed)
	require.Contains(t, args, "fix the bug")
	require.Contains(t, args, "--permission-mode")
	require.Contains(t, args, "acceptEdits")
	require.Contains(t, args, "--max-turns")
	require.Contains(t, args, "80")
}

func TestBuildArgsEmptyEffortFlagsAppendNothing(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	cfg, ok := reg.Lookup(KindCursor)
	require.True(t, ok)

	base := cfg.BuildArgs("p", ModePlan, EffortFast)
	withDetailed := cfg.BuildArgs("p", ModePlan, EffortDetailed)
	require.Equal(t, base, withDetailed)
}

func TestValidModeAndEffort(t *testing.T) {
	require.True(t, ValidMode(ModePlan))
	require.True(t, ValidMode(ModeEdit))
	require.True(t, ValidMode(ModeRalph))
	require.False(t, ValidMode(Mode("yolo")))

	require.True(t, ValidEffort(EffortFast))
	require.True(t, ValidEffort(EffortDefault))
	require.True(t, ValidEffort(EffortDetailed))
	require.False(t, ValidEffort(Effort("extreme")))
}

func TestKindsReturnsAllLoadedKinds(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)
	require.Len(t, reg.Kinds(), 5)
}
