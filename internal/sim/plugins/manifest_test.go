package plugins

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/dispatch/pkg/vtable"
)

const sampleYAML = `
plugins:
  - name: reporting
    operations:
      - describe-robot
      - describe-any
  - name: setup
    operations:
      - "*"
`

func TestLoadYAML(t *testing.T) {
	m, err := LoadYAML(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	require.Len(t, m.Plugins, 2)
	require.Equal(t, "reporting", m.Plugins[0].Name)
	require.Equal(t, []string{"describe-robot", "describe-any"}, m.Plugins[0].Operations)
}

func TestLoadJSON(t *testing.T) {
	m, err := LoadJSON(strings.NewReader(`{"plugins":[{"name":"p","operations":["a"]}]}`))
	require.NoError(t, err)
	require.True(t, m.Enabled("a"))
	require.False(t, m.Enabled("b"))
}

func TestEnabledWildcardAndNil(t *testing.T) {
	m, err := LoadYAML(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	require.True(t, m.Enabled("describe-robot"))
	require.True(t, m.Enabled("anything"), "wildcard enables everything")

	var none *Manifest
	require.True(t, none.Enabled("whatever"), "nil manifest enables everything")
}

func TestBootstrapAppliesAndFreezes(t *testing.T) {
	m := &Manifest{Plugins: []Spec{{Name: "p", Operations: []string{"enabled"}}}}
	d := vtable.New()

	applied := []string{}
	regs := []Registration{
		{Name: "enabled", Apply: func(d *vtable.Dispatcher) error {
			applied = append(applied, "enabled")
			return nil
		}},
		{Name: "disabled", Apply: func(d *vtable.Dispatcher) error {
			applied = append(applied, "disabled")
			return nil
		}},
	}
	require.NoError(t, Bootstrap(d, m, regs, nil))
	require.Equal(t, []string{"enabled"}, applied)
	require.True(t, d.Frozen())
}

func TestBootstrapPropagatesRegistrationError(t *testing.T) {
	d := vtable.New()
	regs := []Registration{
		{Name: "broken", Apply: func(d *vtable.Dispatcher) error {
			return vtable.ErrInvalidFamily
		}},
	}
	err := Bootstrap(d, nil, regs, nil)
	require.ErrorIs(t, err, vtable.ErrInvalidFamily)
	require.False(t, d.Frozen(), "a failed bootstrap must not freeze")
}
