package mia_test

import (
	"testing"

	"github.com/ElevenAndOne/mia"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTheme(t *testing.T) {
	t.Parallel()
	theme := mia.DefaultTheme()
	// All defaults sit in the standard ANSI 0-15 range so they track the
	// user's terminal palette.
	for name, index := range map[string]int{
		"AgentMsg": theme.AgentMsg,
		"UserMsg":  theme.UserMsg,
		"Card":     theme.Card,
		"Choice":   theme.Choice,
		"Error":    theme.Error,
		"Success":  theme.Success,
		"Muted":    theme.Muted,
		"Accent":   theme.Accent,
	} {
		assert.GreaterOrEqual(t, index, 0, name)
		assert.LessOrEqual(t, index, 15, name)
	}
}
