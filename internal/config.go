package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Dispatch defaults.
const (
	DefaultMapping    = "home/index"
	DefaultPhases     = "before/after"
	DefaultCronMarker = "_cron"
	DefaultViewPrefix = "~"
)

// HeadlessMode selects what happens when a headless view is requested but
// the renderer has no such view.
type HeadlessMode string

const (
	// HeadlessFallthrough continues with the controller's execution plan.
	HeadlessFallthrough HeadlessMode = "fallthrough"
	// HeadlessStrict checks the primary handler first and answers 404 when the
	// view is missing.
	HeadlessStrict HeadlessMode = "strict"
	// HeadlessOff never attempts headless views.
	HeadlessOff HeadlessMode = "off"
)

var (
	errInvalidMapping  = errors.New("relay: mapping must look like \"controller/action\"")
	errInvalidPhases   = errors.New("relay: phases must look like \"before/after\"")
	errInvalidHeadless = errors.New("relay: unknown headless mode")
)

// Config holds the dispatch settings.
// Field tags let the struct be filled by pkg/config from the environment.
type Config struct {
	Mapping     string `env:"RELAY_MAPPING" envDefault:"home/index"`
	Phases      string `env:"RELAY_PHASES" envDefault:"before/after"`
	CronMarker  string `env:"RELAY_CRON_MARKER" envDefault:"_cron"`
	ViewPrefix  string `env:"RELAY_VIEW_PREFIX" envDefault:"~"`
	BasePath    string `env:"RELAY_BASE_PATH"`
	Headless    string `env:"RELAY_HEADLESS" envDefault:"fallthrough"`
	AllPatterns bool   `env:"RELAY_ALL_PATTERNS"`
}

// mapping is the parsed default controller/action pair.
type mapping struct {
	controller string
	action     string
}

func (m mapping) String() string {
	return m.controller + "/" + m.action
}

// Phases names the two hook phases.
type Phases struct {
	Before string
	After  string
}

func (p Phases) String() string {
	return p.Before + "/" + p.After
}

func parseMapping(s string) (mapping, error) {
	ctrl, action, ok := strings.Cut(strings.Trim(s, "/"), "/")
	if !ok || ctrl == "" || action == "" || strings.Contains(action, "/") {
		return mapping{}, fmt.Errorf("%w: %q", errInvalidMapping, s)
	}
	return mapping{controller: ctrl, action: strings.ToLower(action)}, nil
}

func parsePhases(s string) (Phases, error) {
	before, after, ok := strings.Cut(s, "/")
	if !ok || before == "" || after == "" || strings.Contains(after, "/") {
		return Phases{}, fmt.Errorf("%w: %q", errInvalidPhases, s)
	}
	return Phases{Before: strings.ToLower(before), After: strings.ToLower(after)}, nil
}

func parseHeadlessMode(s string) (HeadlessMode, error) {
	switch m := HeadlessMode(strings.ToLower(s)); m {
	case HeadlessFallthrough, HeadlessStrict, HeadlessOff:
		return m, nil
	case "":
		return HeadlessFallthrough, nil
	default:
		return "", fmt.Errorf("%w: %q", errInvalidHeadless, s)
	}
}

// dispatchConfig is the resolved form of Config used at request time.
type dispatchConfig struct {
	mapping     mapping
	phases      Phases
	cronMarker  string
	viewPrefix  string
	basePath    string
	headless    HeadlessMode
	allPatterns bool
}

func defaultDispatchConfig() dispatchConfig {
	return dispatchConfig{
		mapping:    mapping{controller: "home", action: "index"},
		phases:     Phases{Before: "before", After: "after"},
		cronMarker: DefaultCronMarker,
		viewPrefix: DefaultViewPrefix,
		headless:   HeadlessFallthrough,
	}
}

// apply overlays the non-empty fields of cfg.
func (d *dispatchConfig) apply(cfg Config) error {
	if cfg.Mapping != "" {
		m, err := parseMapping(cfg.Mapping)
		if err != nil {
			return err
		}
		d.mapping = m
	}
	if cfg.Phases != "" {
		p, err := parsePhases(cfg.Phases)
		if err != nil {
			return err
		}
		d.phases = p
	}
	if cfg.CronMarker != "" {
		d.cronMarker = cfg.CronMarker
	}
	if cfg.ViewPrefix != "" {
		d.viewPrefix = cfg.ViewPrefix
	}
	if cfg.BasePath != "" {
		d.basePath = cfg.BasePath
	}
	if cfg.Headless != "" {
		h, err := parseHeadlessMode(cfg.Headless)
		if err != nil {
			return err
		}
		d.headless = h
	}
	if cfg.AllPatterns {
		d.allPatterns = true
	}
	return nil
}
