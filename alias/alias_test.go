package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetGetUnset(t *testing.T) {
	m := New()
	m.Set("ll", "ls -la")
	v, ok := m.Get("ll")
	assert.True(t, ok)
	assert.Equal(t, "ls -la", v)

	assert.True(t, m.Unset("ll"))
	_, ok = m.Get("ll")
	assert.False(t, ok)
	assert.False(t, m.Unset("ll"))
}

func TestExpand_AppendsArgsWhenNoPlaceholder(t *testing.T) {
	m := New()
	m.Set("ll", "ls -la")
	out, expanded := m.Expand("ll", []string{"/tmp"})
	assert.True(t, expanded)
	assert.Equal(t, "ls -la /tmp", out)
}

func TestExpand_NoAlias(t *testing.T) {
	m := New()
	out, expanded := m.Expand("ls", []string{"-l"})
	assert.False(t, expanded)
	assert.Equal(t, "ls -l", out)
}

func TestExpand_DollarAtPlaceholder(t *testing.T) {
	m := New()
	m.Set("run", "echo $@")
	out, expanded := m.Expand("run", []string{"a", "b c"})
	assert.True(t, expanded)
	assert.Contains(t, out, "echo")
	assert.Contains(t, out, "a")
}

func TestExpand_PositionalPlaceholder(t *testing.T) {
	m := New()
	m.Set("greet", "echo hello $1")
	out, _ := m.Expand("greet", []string{"world"})
	assert.Equal(t, "echo hello world", out)
}

func TestExpand_CycleDetectionStops(t *testing.T) {
	m := New()
	m.Set("a", "b x")
	m.Set("b", "a y")

	out, expanded := m.Expand("a", nil)
	assert.True(t, expanded)
	assert.NotEmpty(t, out)
}

func TestExpand_DepthCap(t *testing.T) {
	m := New()
	// a chain of aliases 11 deep, each pointing to the next
	for i := 0; i < 11; i++ {
		from := string(rune('a' + i))
		to := string(rune('a'+i+1)) + " x"
		m.Set(from, to)
	}
	out, expanded := m.Expand("a", nil)
	assert.True(t, expanded)
	assert.NotEmpty(t, out)
}

func TestAll_ReturnsRegisteredNames(t *testing.T) {
	m := New()
	m.Set("ll", "ls -la")
	m.Set("la", "ls -a")
	names := m.All()
	assert.ElementsMatch(t, []string{"ll", "la"}, names)
}
