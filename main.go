package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/dioder/cmd"
	"github.com/smazurov/dioder/internal/api"
	"github.com/smazurov/dioder/internal/config"
	"github.com/smazurov/dioder/internal/events"
	"github.com/smazurov/dioder/internal/i2c"
	"github.com/smazurov/dioder/internal/light"
	"github.com/smazurov/dioder/internal/logging"
	"github.com/smazurov/dioder/internal/metrics"
	"github.com/smazurov/dioder/internal/systemd"
	"github.com/smazurov/dioder/internal/version"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings, empty disables auth
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// I2C settings
	BusBackend string `help:"I2C backend (devfs, periph, noop)" default:"devfs" toml:"i2c.backend" env:"I2C_BACKEND"`
	BusDevice  string `help:"I2C bus device path or periph bus name" default:"/dev/i2c-1" toml:"i2c.bus" env:"I2C_BUS"`

	// Light settings
	LightName        string `help:"Light name" default:"PiDioder" toml:"light.name" env:"LIGHT_NAME"`
	LightAddress     string `help:"PCA9685 I2C address" default:"0x40" toml:"light.address" env:"LIGHT_ADDRESS"`
	LightFrequencyHz int    `help:"PWM frequency in Hz" default:"1000" toml:"light.frequency_hz" env:"LIGHT_FREQUENCY_HZ"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingBuffer  int    `help:"Log entries kept for /api/logs" default:"1000" toml:"logging.buffer_size" env:"LOGGING_BUFFER_SIZE"`
	LoggingPCA9685 string `help:"PWM driver logging level" default:"info" toml:"logging.pca9685" env:"LOGGING_PCA9685"`
	LoggingLight   string `help:"Light adapter logging level" default:"info" toml:"logging.light" env:"LOGGING_LIGHT"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP    string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingConfig  string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:      o.LoggingLevel,
		Format:     o.LoggingFormat,
		BufferSize: o.LoggingBuffer,
		Modules: map[string]string{
			"pca9685": o.LoggingPCA9685,
			"light":   o.LoggingLight,
			"api":     o.LoggingAPI,
			"http":    o.LoggingHTTP,
			"config":  o.LoggingConfig,
		},
	}
}

func (o *Options) device() (cmd.Device, error) {
	addr, err := i2c.ParseAddr(o.LightAddress)
	if err != nil {
		return cmd.Device{}, err
	}
	return cmd.Device{
		Name:        o.LightName,
		Backend:     o.BusBackend,
		Bus:         o.BusDevice,
		Address:     addr,
		FrequencyHz: float64(o.LightFrequencyHz),
	}, nil
}

func main() {
	var cli humacli.CLI
	var parsed *Options

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		parsed = opts

		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		hooks.OnStart(func() {
			if err := serve(opts, logger); err != nil {
				logger.Error("Server failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(stopServer)
	})

	root := cli.Root()
	root.Use = "dioder"
	root.Short = "PCA9685 RGB light strip service"
	root.Version = version.Get().Long()

	device := func() (cmd.Device, error) {
		if parsed == nil {
			return cmd.Device{}, errors.New("options not parsed")
		}
		return parsed.device()
	}
	root.AddCommand(
		cmd.CreateColorCmd(device),
		cmd.CreateOffCmd(device),
		cmd.CreateChannelCmd(device),
		cmd.CreateFrequencyCmd(device),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(c *cobra.Command, _ []string) {
				fmt.Fprintln(c.OutOrStdout(), version.Get().Long())
			},
		},
	)

	// Run the CLI
	cli.Run()
}

var (
	stopMu sync.Mutex
	stopFn func()
)

// stopServer runs the shutdown registered by serve, if any.
func stopServer() {
	stopMu.Lock()
	fn := stopFn
	stopFn = nil
	stopMu.Unlock()

	if fn != nil {
		fn()
	}
}

// serve opens the light and runs the HTTP API until stopped.
func serve(opts *Options, logger *slog.Logger) error {
	dev, err := opts.device()
	if err != nil {
		return err
	}

	// Create event bus for in-process event handling
	eventBus := events.New()

	// Forward buffered log entries to SSE clients
	logging.SetLogCallback(func(entry logging.LogEntry) {
		eventBus.Publish(events.LogEntryEvent{
			Seq:        entry.Seq,
			Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
			Level:      entry.Level,
			Module:     entry.Module,
			Message:    entry.Message,
			Attributes: entry.Attributes,
		})
	})

	driver, busCloser, err := light.OpenDriver(dev.Backend, dev.Bus, dev.Address, logging.GetLogger("pca9685"))
	if err != nil {
		return fmt.Errorf("open light driver: %w", err)
	}

	lt, err := light.New(driver, light.Config{Name: dev.Name, FrequencyHz: dev.FrequencyHz}, eventBus, logging.GetLogger("light"))
	if err != nil {
		_ = busCloser.Close()
		return fmt.Errorf("initialize light: %w", err)
	}
	unsubscribeMetrics := metrics.SubscribeLightState(eventBus)
	metrics.SetLightState(lt.IsOn(), lt.RGB()[0], lt.RGB()[1], lt.RGB()[2])

	apiOpts := &api.Options{
		AuthUsername: opts.AuthUsername,
		AuthPassword: opts.AuthPassword,
		Light:        lt,
		EventBus:     eventBus,
	}
	if opts.MetricsEnabled {
		apiOpts.MetricsHandler = metrics.Handler()
	}
	server := api.NewServer(apiOpts)

	notifier := systemd.NewNotifier(logger)
	watcher := newRuntimeWatcher(opts.Config, lt, eventBus, notifier)

	watchdogCtx, stopWatchdog := context.WithCancel(context.Background())
	go notifier.Watchdog(watchdogCtx)

	stopMu.Lock()
	stopFn = func() {
		logger.Info("Shutting down server")
		notifier.Stopping()
		stopWatchdog()

		if stopErr := server.Stop(); stopErr != nil {
			logger.Error("Error stopping HTTP server", "error", stopErr)
		}
		if watcher != nil {
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
		}
		unsubscribeMetrics()
		logging.SetLogCallback(nil)

		if _, offErr := lt.TurnOff(); offErr != nil {
			logger.Warn("Failed to turn light off", "error", offErr)
		}
		closeBus(busCloser, logger)
	}
	stopMu.Unlock()

	logger.Info("Starting HTTP server", "port", opts.Port, "version", version.String())
	notifier.Status("serving on " + opts.Port)
	notifier.Ready()
	if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
		return fmt.Errorf("start HTTP server: %w", startErr)
	}
	return nil
}

// newRuntimeWatcher applies logging levels and the PWM frequency from the
// config file whenever it changes. Returns nil when there is no file to watch.
func newRuntimeWatcher(path string, lt *light.Light, bus *events.Bus, notifier *systemd.Notifier) *config.Watcher[config.Runtime] {
	logger := logging.GetLogger("config")
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		logger.Info("Config file not found, hot reload disabled", "path", path)
		return nil
	}

	watcher := config.NewConfigWatcher(
		path,
		config.LoadRuntime,
		logger,
		config.WithErrorHandler[config.Runtime](func(err error) {
			logger.Warn("Config reload failed, keeping current settings", "error", err)
		}),
	)

	watcher.OnReload(func(rt config.Runtime) {
		notifier.Reloading()
		defer notifier.Ready()

		logging.SetLevels(rt.Logging)
		if rt.FrequencyHz != 0 && rt.FrequencyHz != lt.State().FrequencyHz {
			if _, err := lt.SetFrequency(rt.FrequencyHz); err != nil {
				logger.Warn("Ignoring frequency from config", "frequency_hz", rt.FrequencyHz, "error", err)
			}
		}

		logger.Info("Config reloaded", "path", path)
		bus.Publish(events.ConfigReloadedEvent{
			Path:      path,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	})

	if err := watcher.Start(); err != nil {
		logger.Warn("Failed to start config watcher", "error", err)
		return nil
	}
	return watcher
}

func closeBus(c io.Closer, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("Failed to close i2c bus", "error", err)
	}
}
