package forcegraph

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultLinkDistance is the target length of every link, in pixels.
	DefaultLinkDistance = 150.0

	// DefaultChargeStrength is the inter-node repulsion. Negative values repel.
	DefaultChargeStrength = -500.0
)

var (
	// ErrInvalidLinkDistance is returned by [Config.Validate] when the link
	// distance is not a positive finite number.
	ErrInvalidLinkDistance = errors.New("link distance must be positive")

	// ErrInvalidChargeStrength is returned by [Config.Validate] when the
	// charge strength is not a negative finite number.
	ErrInvalidChargeStrength = errors.New("charge strength must be negative")

	// ErrNilEngine is returned by [Configure] and [Activate] without an engine.
	ErrNilEngine = errors.New("nil simulation engine")
)

// Config holds the force tuning applied once per view activation.
type Config struct {
	LinkDistance   float64 `toml:"link_distance" json:"link_distance"`
	ChargeStrength float64 `toml:"charge_strength" json:"charge_strength"`
}

// DefaultConfig returns the standard tuning: 150px links and a -500 charge.
func DefaultConfig() Config {
	return Config{LinkDistance: DefaultLinkDistance, ChargeStrength: DefaultChargeStrength}
}

// WithDefaults returns c with zero fields replaced by their defaults.
func (c Config) WithDefaults() Config {
	if c.LinkDistance == 0 {
		c.LinkDistance = DefaultLinkDistance
	}
	if c.ChargeStrength == 0 {
		c.ChargeStrength = DefaultChargeStrength
	}
	return c
}

// Validate checks that the link distance is positive and the charge
// strength negative.
func (c Config) Validate() error {
	if !(c.LinkDistance > 0) || math.IsInf(c.LinkDistance, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidLinkDistance, c.LinkDistance)
	}
	if !(c.ChargeStrength < 0) || math.IsInf(c.ChargeStrength, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidChargeStrength, c.ChargeStrength)
	}
	return nil
}

// Simulation is the tuning surface of a physics engine.
type Simulation interface {
	SetLinkDistance(d float64)
	SetChargeStrength(s float64)
}

// Engine is an external force simulation. Start seeds it with the elements
// to lay out and resolves each link's Source and Target. Tick advances one
// frame, updating node positions in place, and reports whether the
// simulation is still running.
type Engine interface {
	Simulation
	Start(ctx context.Context, nodes []*Node, links []*Link) error
	Tick() bool
}

// Configure applies cfg to sim. [Activate] calls it exactly once per
// activation, before the engine starts.
func Configure(sim Simulation, cfg Config) error {
	if sim == nil {
		return ErrNilEngine
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sim.SetLinkDistance(cfg.LinkDistance)
	sim.SetChargeStrength(cfg.ChargeStrength)
	return nil
}
