package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/dioder/internal/logging"
)

// Runtime is the part of the config file applied without a restart.
type Runtime struct {
	// FrequencyHz is zero when the file does not set light.frequency_hz.
	FrequencyHz float64
	Logging     logging.Config
}

// LoadRuntime reads the reloadable settings from path. Unlike
// LoadLoggingConfig it reports read and parse errors, so a half-written
// file is not applied.
func LoadRuntime(path string) (Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Runtime{}, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Runtime{}, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	var rt Runtime
	switch hz := getNestedValue(raw, "light.frequency_hz").(type) {
	case nil:
	case int64:
		rt.FrequencyHz = float64(hz)
	case float64:
		rt.FrequencyHz = hz
	default:
		return Runtime{}, fmt.Errorf("light.frequency_hz: expected number, got %T", hz)
	}

	loggingCfg, err := parseLoggingConfig(data)
	if err != nil {
		return Runtime{}, err
	}

	rt.Logging = loggingCfg
	return rt, nil
}
