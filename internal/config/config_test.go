package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

// testOptions mirrors the shape of the service Options.
type testOptions struct {
	Config string

	Port             string   `toml:"server.port" env:"SERVER_PORT"`
	BusBackend       string   `toml:"i2c.backend" env:"I2C_BACKEND"`
	LightAddress     string   `toml:"light.address" env:"LIGHT_ADDRESS"`
	LightFrequencyHz float64  `toml:"light.frequency_hz" env:"LIGHT_FREQUENCY_HZ"`
	LightChannel     uint8    `toml:"light.channel" env:"LIGHT_CHANNEL"`
	MetricsEnabled   bool     `toml:"metrics.enabled" env:"METRICS_ENABLED"`
	RetryCount       int      `toml:"light.retries" env:"LIGHT_RETRIES"`
	AllowedOrigins   []string `toml:"server.allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleConfig = `
[server]
port = ":9000"
allowed_origins = ["http://a", "http://b"]

[i2c]
backend = "periph"

[light]
address = 0x41
frequency_hz = 1500
channel = 2
retries = 3

[metrics]
enabled = true
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeTempConfig(t, sampleConfig)}

	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := testOptions{
		Config:           opts.Config,
		Port:             ":9000",
		BusBackend:       "periph",
		LightAddress:     "65",
		LightFrequencyHz: 1500,
		LightChannel:     2,
		MetricsEnabled:   true,
		RetryCount:       3,
		AllowedOrigins:   []string{"http://a", "http://b"},
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("got %+v\nwant %+v", *opts, want)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("DIODER_SERVER_PORT", ":7000")
	t.Setenv("DIODER_LIGHT_ADDRESS", "0x40")
	t.Setenv("DIODER_LIGHT_FREQUENCY_HZ", "250.5")
	t.Setenv("DIODER_LIGHT_CHANNEL", "0x0F")
	t.Setenv("DIODER_METRICS_ENABLED", "false")
	t.Setenv("DIODER_SERVER_ALLOWED_ORIGINS", " x , y ")

	opts := &testOptions{MetricsEnabled: true}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Port != ":7000" {
		t.Errorf("Port = %q", opts.Port)
	}
	if opts.LightAddress != "0x40" {
		t.Errorf("LightAddress = %q", opts.LightAddress)
	}
	if opts.LightFrequencyHz != 250.5 {
		t.Errorf("LightFrequencyHz = %v", opts.LightFrequencyHz)
	}
	if opts.LightChannel != 15 {
		t.Errorf("LightChannel = %d", opts.LightChannel)
	}
	if opts.MetricsEnabled {
		t.Error("MetricsEnabled should be overridden to false")
	}
	if !reflect.DeepEqual(opts.AllowedOrigins, []string{"x", "y"}) {
		t.Errorf("AllowedOrigins = %v", opts.AllowedOrigins)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)
	t.Setenv("DIODER_SERVER_PORT", ":7000")
	t.Setenv("DIODER_I2C_BACKEND", "devfs")
	t.Setenv("DIODER_LIGHT_FREQUENCY_HZ", "800")

	opts := &testOptions{Config: path}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.Port, "port", ":8090", "")
	cmd.Flags().Float64Var(&opts.LightFrequencyHz, "light-frequency-hz", 1000, "")
	if err := cmd.Flags().Set("light-frequency-hz", "60"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// CLI beats env and file
	if opts.LightFrequencyHz != 60 {
		t.Errorf("LightFrequencyHz = %v, want CLI value 60", opts.LightFrequencyHz)
	}
	// env beats file
	if opts.Port != ":7000" {
		t.Errorf("Port = %q, want env value :7000", opts.Port)
	}
	if opts.BusBackend != "devfs" {
		t.Errorf("BusBackend = %q, want env value devfs", opts.BusBackend)
	}
	// file beats default
	if opts.RetryCount != 3 {
		t.Errorf("RetryCount = %d, want file value 3", opts.RetryCount)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
	}{
		{name: "channel overflows uint8", toml: "[light]\nchannel = 300\n"},
		{name: "negative unsigned", toml: "[light]\nchannel = -1\n"},
		{name: "string for number", toml: "[light]\nfrequency_hz = \"fast\"\n"},
		{name: "bad env float", env: map[string]string{"DIODER_LIGHT_FREQUENCY_HZ": "fast"}},
		{name: "bad env bool", env: map[string]string{"DIODER_METRICS_ENABLED": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &testOptions{}
			if tt.toml != "" {
				opts.Config = writeTempConfig(t, tt.toml)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if err := LoadConfig(opts, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "missing.toml"), Port: ":8090"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
	if opts.Port != ":8090" {
		t.Errorf("defaults should survive a missing file, Port = %q", opts.Port)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	opts := &testOptions{Config: writeTempConfig(t, "[light\ninvalid toml syntax\n")}
	if err := LoadConfig(opts, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid TOML")
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"light": map[string]any{
			"name":  "PiDioder",
			"color": map[string]any{"red": int64(255)},
		},
		"version": int64(1),
	}

	tests := []struct {
		path string
		want any
	}{
		{"version", int64(1)},
		{"light.name", "PiDioder"},
		{"light.color.red", int64(255)},
		{"missing", nil},
		{"light.missing", nil},
		{"version.nested", nil},
	}

	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.want {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":             "port",
		"LightFrequencyHz": "light-frequency-hz",
		"AuthUsername":     "auth-username",
		"LoggingHTTP":      "logging-http",
		"LoggingAPI":       "logging-api",
		"LoggingPCA9685":   "logging-pca9685",
		"HTTPServerPort":   "http-server-port",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantLevel   string
		wantFormat  string
		wantModules map[string]string
	}{
		{
			name:        "flat module keys",
			content:     "[logging]\nlevel = \"warn\"\nformat = \"json\"\npca9685 = \"debug\"\napi = \"error\"\n",
			wantLevel:   "warn",
			wantFormat:  "json",
			wantModules: map[string]string{"pca9685": "debug", "api": "error"},
		},
		{
			name:        "modules table",
			content:     "[logging]\nlevel = \"info\"\n\n[logging.modules]\nlight = \"debug\"\n",
			wantLevel:   "info",
			wantFormat:  "text",
			wantModules: map[string]string{"light": "debug"},
		},
		{
			name:        "no logging section",
			content:     "[light]\nname = \"x\"\n",
			wantLevel:   "info",
			wantFormat:  "text",
			wantModules: map[string]string{},
		},
		{
			name:        "invalid file falls back to defaults",
			content:     "[logging\n",
			wantLevel:   "info",
			wantFormat:  "text",
			wantModules: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadLoggingConfig(writeTempConfig(t, tt.content))
			if cfg.Level != tt.wantLevel || cfg.Format != tt.wantFormat {
				t.Errorf("level/format = %q/%q, want %q/%q", cfg.Level, cfg.Format, tt.wantLevel, tt.wantFormat)
			}
			if !reflect.DeepEqual(cfg.Modules, tt.wantModules) {
				t.Errorf("Modules = %v, want %v", cfg.Modules, tt.wantModules)
			}
		})
	}

	if cfg := LoadLoggingConfig(""); cfg.Level != "info" {
		t.Errorf("empty path level = %q", cfg.Level)
	}
}

func TestLoadRuntime(t *testing.T) {
	rt, err := LoadRuntime(writeTempConfig(t, "[light]\nfrequency_hz = 200\n\n[logging]\nlevel = \"debug\"\n"))
	if err != nil {
		t.Fatalf("LoadRuntime: %v", err)
	}
	if rt.FrequencyHz != 200 {
		t.Errorf("FrequencyHz = %v, want 200", rt.FrequencyHz)
	}
	if rt.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", rt.Logging.Level)
	}

	if _, err := LoadRuntime(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadRuntime(writeTempConfig(t, "[light\n")); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestLoadConfigPersistentFlags(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	opts := &testOptions{Config: path}
	root := &cobra.Command{Use: "root"}
	root.PersistentFlags().StringVar(&opts.BusBackend, "bus-backend", "devfs", "")
	if err := root.PersistentFlags().Set("bus-backend", "noop"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, root); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.BusBackend != "noop" {
		t.Errorf("BusBackend = %q, want persistent flag value noop", opts.BusBackend)
	}
}

func TestLoadLoggingConfigBufferSize(t *testing.T) {
	path := writeTempConfig(t, "[logging]\nlevel = \"debug\"\nbuffer_size = 250\n")
	cfg := LoadLoggingConfig(path)
	if cfg.BufferSize != 250 {
		t.Errorf("BufferSize = %d, want 250", cfg.BufferSize)
	}
	if _, isModule := cfg.Modules["buffer_size"]; isModule {
		t.Error("buffer_size should not be read as a module level")
	}
}
