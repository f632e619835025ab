package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/gabapcia/chainscan/internal/pkg/types"
)

// ErrInvalidConfig roots every error reported by Config.Validate.
var ErrInvalidConfig = errors.New("invalid event configuration")

// StrategyKind selects how notifications are delivered.
type StrategyKind uint8

const (
	RealTime StrategyKind = iota
	Batch
	Priority
)

var strategyNames = map[StrategyKind]string{
	RealTime: "realtime",
	Batch:    "batch",
	Priority: "priority",
}

func (k StrategyKind) String() string {
	if name, ok := strategyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", uint8(k))
}

// ParseStrategy parses "realtime", "batch" or "priority".
func ParseStrategy(s string) (StrategyKind, error) {
	for kind, name := range strategyNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, s)
}

// Strategy is the delivery strategy and its parameters. Only the fields of
// the selected Kind are meaningful.
//
// Batch and Priority are accepted and validated but delivery is always
// real time.
type Strategy struct {
	Kind StrategyKind

	BatchSize    int
	BatchTimeout time.Duration

	High   []string
	Medium []string
	Low    []string
}

// Config is the process-wide event configuration. It is loaded once at
// startup and never modified afterwards.
type Config struct {
	// Enabled holds canonical event identifiers (e.g. "block-added").
	Enabled []string

	Strategy Strategy

	// BufferSize bounds the queue of every subscription receiver.
	BufferSize int

	// Deduplication is accepted for compatibility; delivery does not
	// deduplicate.
	// TODO: skip block-added notifications whose hash was already published
	// when Deduplication is set.
	Deduplication bool
}

// DefaultEnabled is the event set used when none is configured.
var DefaultEnabled = []string{
	BlockAdded.String(),
	UtxosChanged.String(),
	VirtualChainChanged.String(),
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Enabled:       append([]string(nil), DefaultEnabled...),
		Strategy:      Strategy{Kind: RealTime},
		BufferSize:    1000,
		Deduplication: true,
	}
}

// Validate checks c and returns an error rooted at ErrInvalidConfig listing
// every problem found.
func (c Config) Validate() error {
	var problems []error

	if len(c.Enabled) == 0 {
		problems = append(problems, errors.New("at least one event must be enabled"))
	}

	for _, name := range c.Enabled {
		if _, err := Parse(name); err != nil {
			problems = append(problems, fmt.Errorf("enabled event: %w", err))
		}
	}

	if c.BufferSize <= 0 {
		problems = append(problems, errors.New("buffer size must be greater than 0"))
	}

	switch c.Strategy.Kind {
	case RealTime:
	case Batch:
		if c.Strategy.BatchSize <= 0 {
			problems = append(problems, errors.New("batch size must be greater than 0"))
		}
		if c.Strategy.BatchTimeout <= 0 {
			problems = append(problems, errors.New("batch timeout must be greater than 0"))
		}
	case Priority:
		tiers := [][]string{c.Strategy.High, c.Strategy.Medium, c.Strategy.Low}
		for _, tier := range tiers {
			for _, name := range tier {
				if _, err := Parse(name); err != nil {
					problems = append(problems, fmt.Errorf("priority event: %w", err))
				}
			}
		}
	default:
		problems = append(problems, fmt.Errorf("unknown strategy %s", c.Strategy.Kind))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfig}, problems...)...)
}

// EnabledTypes returns the parsed set of enabled events.
func (c Config) EnabledTypes() (types.Set[Type], error) {
	parsed, err := ParseList(c.Enabled)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return types.NewSet(parsed...), nil
}
