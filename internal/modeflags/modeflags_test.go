package modeflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	assert.Equal(t, Modes{}, FromEnv())
}

func TestFromEnv_TruthyVariants(t *testing.T) {
	for _, v := range []string{"1", "true", "True", "TRUE", "yes", "Yes", "on", "ON", "  on  "} {
		t.Setenv("SAFETY_NET_STRICT", v)
		assert.True(t, FromEnv().Strict, "value %q should be truthy", v)
	}
}

func TestFromEnv_FalsyVariants(t *testing.T) {
	for _, v := range []string{"", "0", "false", "no", "off", "garbage"} {
		t.Setenv("SAFETY_NET_STRICT", v)
		assert.False(t, FromEnv().Strict, "value %q should be falsy", v)
	}
}

func TestFromEnv_IndependentFlags(t *testing.T) {
	t.Setenv("SAFETY_NET_PARANOID_RM", "1")
	modes := FromEnv()
	assert.False(t, modes.Strict)
	assert.True(t, modes.ParanoidRM)
	assert.False(t, modes.ParanoidInterpreters)
}

func TestFromEnv_ParanoidImpliesBoth(t *testing.T) {
	t.Setenv("SAFETY_NET_PARANOID", "true")
	modes := FromEnv()
	assert.True(t, modes.ParanoidRM)
	assert.True(t, modes.ParanoidInterpreters)
}

func TestFromEnv_ParanoidImpliesEvenWhenOthersExplicitlyOff(t *testing.T) {
	t.Setenv("SAFETY_NET_PARANOID", "yes")
	t.Setenv("SAFETY_NET_PARANOID_RM", "0")
	modes := FromEnv()
	assert.True(t, modes.ParanoidRM)
}
