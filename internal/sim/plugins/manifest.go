package plugins

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/dispatch/internal/observability/log"
	"github.com/zeusync/dispatch/pkg/vtable"
)

// Manifest declares which operations each plugin contributes. It can be
// written in JSON or YAML. A nil manifest enables everything.
type Manifest struct {
	Plugins []Spec `json:"plugins" yaml:"plugins"`
}

// Spec is one plugin block in the manifest.
type Spec struct {
	Name       string   `json:"name" yaml:"name"`
	Operations []string `json:"operations" yaml:"operations"`
}

// LoadJSON loads a manifest from a JSON reader.
func LoadJSON(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadYAML loads a manifest from a YAML reader.
func LoadYAML(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Enabled reports whether any plugin block lists the operation. The
// wildcard "*" enables a plugin's whole set.
func (m *Manifest) Enabled(operation string) bool {
	if m == nil {
		return true
	}
	for _, p := range m.Plugins {
		for _, op := range p.Operations {
			if op == operation || op == "*" {
				return true
			}
		}
	}
	return false
}

// Registration is one named (operation, subtype) binding ready to be
// applied to a dispatcher.
type Registration struct {
	Name  string
	Apply func(d *vtable.Dispatcher) error
}

// Bootstrap applies every registration enabled by the manifest, then
// freezes the dispatcher. Registration happens in one explicit step, in
// declaration order, so there is no dependence on package-init ordering;
// after Bootstrap returns, the dispatcher is immutable and safe for
// concurrent dispatch.
func Bootstrap(d *vtable.Dispatcher, m *Manifest, regs []Registration, logger log.Log) error {
	if logger == nil {
		logger = log.NewNop()
	}
	applied := 0
	for _, reg := range regs {
		if !m.Enabled(reg.Name) {
			logger.Debug("operation disabled by manifest", log.String("operation", reg.Name))
			continue
		}
		if err := reg.Apply(d); err != nil {
			return fmt.Errorf("register %s: %w", reg.Name, err)
		}
		applied++
	}
	d.Freeze()
	logger.Info("plugin bootstrap complete",
		log.Int("applied", applied),
		log.Int("declared", len(regs)))
	return nil
}
