package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTemplates(t *testing.T) {
	for _, tmpl := range Templates() {
		prompt := Resolve(tmpl.Kind, "")
		assert.Contains(t, prompt, "You are "+tmpl.Name, tmpl.Kind)
	}
}

func TestResolveCustom(t *testing.T) {
	assert.Equal(t,
		"You are an AI board member with a custom personality: a blunt ex-founder",
		Resolve(Custom, "  a blunt ex-founder "))

	// a template kind ignores stray custom text
	assert.Contains(t, Resolve(WiseMentor, "ignored"), "You are Sage")

	// custom without text behaves like an unknown tag
	assert.Contains(t, Resolve(Custom, " "), "You are Maya")
}

func TestResolveUnknownFallsBack(t *testing.T) {
	assert.Equal(t, Resolve(EmpatheticCounselor, ""), Resolve(Kind("pirate"), ""))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind(" Wise_Mentor ")
	assert.True(t, ok)
	assert.Equal(t, WiseMentor, k)

	k, ok = ParseKind("custom")
	assert.True(t, ok)
	assert.Equal(t, Custom, k)

	k, ok = ParseKind("pirate")
	assert.False(t, ok)
	assert.Equal(t, DefaultKind, k)
}

func TestDefaults(t *testing.T) {
	d := Defaults(DefaultSeedCount)
	if assert.Len(t, d, 2) {
		assert.Equal(t, "Maya", d[0].Name)
		assert.Equal(t, "Marcus", d[1].Name)
	}
	assert.Len(t, Defaults(99), 5)
	assert.Empty(t, Defaults(-1))

	// callers cannot mutate the registry
	d[0].Name = "changed"
	tmpl, _ := Lookup(EmpatheticCounselor)
	assert.Equal(t, "Maya", tmpl.Name)
}
