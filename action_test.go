package mia_test

import (
	"testing"

	"github.com/ElevenAndOne/mia"
	"github.com/stretchr/testify/assert"
)

func TestActions_CoversAllTokens(t *testing.T) {
	t.Parallel()
	all := mia.Actions()
	seen := make(map[mia.Action]bool, len(all))
	for _, a := range all {
		assert.NotEmpty(t, a)
		assert.False(t, seen[a], "duplicate action %q", a)
		seen[a] = true
	}
	for _, a := range []mia.Action{
		mia.ActionBegin,
		mia.ActionShowClicks,
		mia.ActionSkipClicks,
		mia.ActionStreamInsight,
		mia.ActionConnectPlatform,
		mia.ActionRetryConnect,
		mia.ActionSkipConnect,
		mia.ActionStreamCombined,
		mia.ActionFinish,
	} {
		assert.True(t, seen[a], "Actions() is missing %q", a)
	}
}

func TestPhase_Terminal(t *testing.T) {
	t.Parallel()
	assert.True(t, mia.PhaseComplete.Terminal())
	assert.True(t, mia.PhaseSkipped.Terminal())
	assert.False(t, mia.PhaseWelcome.Terminal())
	assert.False(t, mia.PhaseStreamingInsight.Terminal())
	assert.False(t, mia.PhaseLinkPending.Terminal())
}
