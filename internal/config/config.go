// Package config loads and validates the node configuration. Validation is
// deliberately strict: an interval the tick cadence cannot honor, or a
// storage layout where counter regions overlap, is a fatal misconfiguration
// at startup — never something to degrade around at runtime.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/meter-node/internal/counter"
	"github.com/sweeney/meter-node/internal/settings"
)

//go:embed meter-node.toml
var defaultConfigData []byte

// Duration wraps time.Duration so TOML strings like "10ms" decode via
// encoding.TextUnmarshaler.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Duration returns the wrapped value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config is the full node configuration.
type Config struct {
	// Tick is the main loop cadence; every meter is sampled once per tick.
	Tick Duration `toml:"tick"`

	// DebounceSamples is how many consecutive identical samples a level
	// must hold before it is accepted.
	DebounceSamples int `toml:"debounce_samples"`

	// MinPulseWidth is the narrowest pulse the meter hardware guarantees.
	// The tick cadence must be able to resolve it.
	MinPulseWidth Duration `toml:"min_pulse_width"`

	// ReportInterval is how often each meter flushes its delta and reports.
	ReportInterval Duration `toml:"report_interval"`

	// FlushInterval is how often each counter persists to storage. Keeping
	// this much coarser than ReportInterval is what bounds storage wear.
	FlushInterval Duration `toml:"flush_interval"`

	Storage StorageConfig `toml:"storage"`
	MQTT    MQTTConfig    `toml:"mqtt"`
	HTTP    HTTPConfig    `toml:"http"`
	Meters  []MeterConfig `toml:"meter"`
}

// StorageConfig describes the non-volatile region.
type StorageConfig struct {
	Path         string `toml:"path"`
	Size         int    `toml:"size"`
	SettingsAddr int    `toml:"settings_addr"`
}

// MQTTConfig describes the collector connection.
type MQTTConfig struct {
	Broker   string `toml:"broker"`
	ClientID string `toml:"client_id"`
}

// HTTPConfig describes the local status server.
type HTTPConfig struct {
	Listen string `toml:"listen"` // empty disables the server
}

// MeterConfig describes one pulse input and its counter region.
type MeterConfig struct {
	Name  string `toml:"name"`
	Pin   int    `toml:"pin"`
	Base  int    `toml:"base"`
	Slots int    `toml:"slots"`
}

// Load reads the config file at path, or the embedded defaults when path is
// empty, and validates it.
func Load(path string) (*Config, error) {
	data := defaultConfigData
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every startup invariant. Any error here is fatal.
func (c *Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("config: tick %v must be positive", c.Tick)
	}
	if c.DebounceSamples < 1 {
		return fmt.Errorf("config: debounce_samples %d must be >= 1", c.DebounceSamples)
	}
	if c.ReportInterval <= c.Tick {
		return fmt.Errorf("config: report_interval %v must exceed tick %v", c.ReportInterval, c.Tick)
	}
	if c.FlushInterval <= c.Tick {
		return fmt.Errorf("config: flush_interval %v must exceed tick %v", c.FlushInterval, c.Tick)
	}

	// A pulse must stay at each level long enough to be sampled
	// DebounceSamples times, plus one tick of sampling phase slack. If the
	// hardware's minimum pulse width is narrower than that, polling at this
	// cadence would silently drop pulses.
	needed := c.Tick.Duration() * time.Duration(c.DebounceSamples+1)
	if c.MinPulseWidth.Duration() < needed {
		return fmt.Errorf("config: min_pulse_width %v cannot be resolved at tick %v with %d debounce samples (need >= %v)",
			c.MinPulseWidth, c.Tick, c.DebounceSamples, needed)
	}

	if c.Storage.Size <= 0 {
		return fmt.Errorf("config: storage size %d must be positive", c.Storage.Size)
	}
	if c.Storage.SettingsAddr < 0 || c.Storage.SettingsAddr+settings.RecordSize > c.Storage.Size {
		return fmt.Errorf("config: settings record at %d does not fit in storage size %d",
			c.Storage.SettingsAddr, c.Storage.Size)
	}
	if len(c.Meters) == 0 {
		return fmt.Errorf("config: no meters configured")
	}

	// Counter regions must be disjoint from each other and from the
	// settings record. Overlap means cross-instance corruption.
	type region struct {
		name     string
		from, to int
	}
	regions := []region{{
		name: "settings",
		from: c.Storage.SettingsAddr,
		to:   c.Storage.SettingsAddr + settings.RecordSize,
	}}

	names := make(map[string]bool)
	pins := make(map[int]bool)
	for _, m := range c.Meters {
		if m.Name == "" {
			return fmt.Errorf("config: meter with empty name")
		}
		if names[m.Name] {
			return fmt.Errorf("config: duplicate meter name %q", m.Name)
		}
		names[m.Name] = true
		if pins[m.Pin] {
			return fmt.Errorf("config: meter %q: duplicate pin %d", m.Name, m.Pin)
		}
		pins[m.Pin] = true
		if m.Pin < 0 {
			return fmt.Errorf("config: meter %q: invalid pin %d", m.Name, m.Pin)
		}
		if m.Slots < 1 {
			return fmt.Errorf("config: meter %q: slots %d must be >= 1", m.Name, m.Slots)
		}
		end := m.Base + m.Slots*counter.SlotSize
		if m.Base < 0 || end > c.Storage.Size {
			return fmt.Errorf("config: meter %q: region [%d, %d) exceeds storage size %d",
				m.Name, m.Base, end, c.Storage.Size)
		}
		regions = append(regions, region{name: m.Name, from: m.Base, to: end})
	}

	for i := 0; i < len(regions); i++ {
		for j := i + 1; j < len(regions); j++ {
			a, b := regions[i], regions[j]
			if a.from < b.to && b.from < a.to {
				return fmt.Errorf("config: storage regions %q [%d, %d) and %q [%d, %d) overlap",
					a.name, a.from, a.to, b.name, b.from, b.to)
			}
		}
	}

	return nil
}
