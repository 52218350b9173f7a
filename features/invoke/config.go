package invoke

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"gopkg.in/yaml.v3"

	"goa.design/lambdatrace/runtime/telemetry"
)

// EnvPropagators names the environment variable consulted when a Config
// lists no propagators.
const EnvPropagators = "OTEL_PROPAGATORS"

// ErrUnknownPropagator is returned for propagator names other than
// tracecontext, baggage and none.
var ErrUnknownPropagator = errors.New("invoke: unknown propagator")

// Config is the file representation of Options.
//
//	propagators: [tracecontext, baggage]
//	skip_log_interval: 5m
type Config struct {
	// Propagators lists the propagators composed to serialize the trace
	// context. When empty, OTEL_PROPAGATORS is used, and when that is unset
	// the global propagator applies.
	Propagators []string `yaml:"propagators"`
	// Disabled turns propagation off.
	Disabled bool `yaml:"disabled"`
	// SkipLogInterval bounds the rate of skip warnings.
	SkipLogInterval time.Duration `yaml:"skip_log_interval"`
}

// LoadConfig decodes a YAML configuration and validates its propagators.
func LoadConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("invoke: decode config: %w", err)
	}
	if _, err := c.Propagator(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Propagator builds the propagator named by the configuration. A nil result
// with a nil error selects the global propagator.
func (c Config) Propagator() (propagation.TextMapPropagator, error) {
	names := c.Propagators
	if len(names) == 0 {
		if env := os.Getenv(EnvPropagators); env != "" {
			names = strings.Split(env, ",")
		}
	}
	var props []propagation.TextMapPropagator
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case "tracecontext":
			props = append(props, propagation.TraceContext{})
		case "baggage":
			props = append(props, propagation.Baggage{})
		case "none":
			return propagation.NewCompositeTextMapPropagator(), nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownPropagator, name)
		}
	}
	switch len(props) {
	case 0:
		return nil, nil
	case 1:
		return props[0], nil
	default:
		return propagation.NewCompositeTextMapPropagator(props...), nil
	}
}

// Options converts the configuration into middleware options.
func (c Config) Options(logger telemetry.Logger, metrics telemetry.Metrics) (Options, error) {
	prop, err := c.Propagator()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Propagator:      prop,
		Logger:          logger,
		Metrics:         metrics,
		SkipLogInterval: c.SkipLogInterval,
		Disabled:        c.Disabled,
	}, nil
}
