package lumen

import (
	"context"
	"fmt"

	"github.com/photonq/lumen/pkg/circuit"
	"github.com/photonq/lumen/pkg/journal"
	"github.com/photonq/lumen/pkg/logging"
	"github.com/photonq/lumen/pkg/state"
)

// Config configures a simulator handle.
type Config struct {
	Precision   state.Precision // amplitude precision (default: Double)
	JournalPath string          // run journal database path; empty disables journaling
	Logger      logging.Logger  // logger (default: no-op)
}

// DefaultConfig returns the default configuration: double precision, no
// journal, no logging.
func DefaultConfig() Config {
	return Config{Precision: state.Double, Logger: logging.Nop()}
}

// Sim is a configured simulator handle.
type Sim struct {
	runner  *circuit.Runner
	journal *journal.Store
}

// Open builds a simulator from a configuration.
func Open(config Config) (*Sim, error) {
	if config.Precision == 0 {
		config.Precision = state.Double
	}
	if !config.Precision.Valid() {
		return nil, fmt.Errorf("lumen: unsupported precision %s", config.Precision)
	}
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}

	opts := []circuit.Option{
		circuit.WithPrecision(config.Precision),
		circuit.WithLogger(config.Logger),
	}

	var store *journal.Store
	if config.JournalPath != "" {
		store = journal.Open(config.JournalPath, journal.WithLogger(config.Logger))
		if err := store.Init(context.Background()); err != nil {
			return nil, err
		}
		opts = append(opts, circuit.WithJournal(store))
	}

	return &Sim{runner: circuit.NewRunner(opts...), journal: store}, nil
}

// Run executes a circuit against a fresh state.
func (s *Sim) Run(ctx context.Context, c *circuit.Circuit) (*circuit.RunResult, error) {
	return s.runner.Run(ctx, c)
}

// Journal returns the run journal, or nil when journaling is disabled.
func (s *Sim) Journal() *journal.Store {
	return s.journal
}

// Close releases the journal, if any.
func (s *Sim) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// Simulate executes a circuit with the default configuration and returns
// the measurement result: bare for one measurement, ordered slice for
// several.
func Simulate(ctx context.Context, c *circuit.Circuit) (any, error) {
	sim, err := Open(DefaultConfig())
	if err != nil {
		return nil, err
	}
	defer sim.Close()

	out, err := sim.Run(ctx, c)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}
