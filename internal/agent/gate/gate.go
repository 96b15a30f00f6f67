// internal/agent/gate/gate.go

// Package gate decides whether a tool call executes immediately or needs
// explicit human confirmation.
package gate

import "household-agent/pkg/registry"

// Decider is a pure decision function over (tool, confidence, destructive).
type Decider struct {
	registry  *registry.Registry
	threshold float64
}

func NewDecider(reg *registry.Registry, threshold float64) *Decider {
	return &Decider{registry: reg, threshold: threshold}
}

// Threshold returns the configured confidence threshold.
func (d *Decider) Threshold() float64 { return d.threshold }

// RequiresConfirmation applies the gate rules in order: read-only tools
// never need confirmation, destructive tools always do, everything else is
// gated on the confidence threshold.
func (d *Decider) RequiresConfirmation(toolName string, confidence float64, isDestructive bool) bool {
	if tool, ok := d.registry.Find(toolName); ok && tool.ReadOnly {
		return false
	}
	if isDestructive {
		return true
	}
	return confidence < d.threshold
}

// IsDestructive reports the registry's destructive flag for a tool.
// Unregistered tools are treated as destructive, which fails safe.
func (d *Decider) IsDestructive(toolName string) bool {
	tool, ok := d.registry.Find(toolName)
	if !ok {
		return true
	}
	return tool.Destructive
}
