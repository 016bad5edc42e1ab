// Package light adapts a PCA9685-driven RGB strip to an on/off, color
// settable light and reports every state change on the event bus.
package light

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/dioder/internal/events"
	"github.com/smazurov/dioder/internal/logging"
	"github.com/smazurov/dioder/internal/pca9685"
)

const (
	DefaultName        = "PiDioder"
	DefaultFrequencyHz = 1000
)

// DefaultColor is the color shown on the first TurnOn without a color.
var DefaultColor = [3]uint8{255, 0, 10}

// ErrOutOfRange is returned by the adapter for inputs the driver would
// silently ignore.
var ErrOutOfRange = errors.New("value out of range")

// Config holds adapter settings.
type Config struct {
	Name        string
	FrequencyHz float64
}

// TurnOnOptions selects the color for TurnOn. HS wins when both are set.
type TurnOnOptions struct {
	RGB *[3]uint8
	HS  *[2]float64 // hue degrees, saturation percent
}

// State is a snapshot of the light.
type State struct {
	Name          string   `json:"name" example:"PiDioder" doc:"Light name"`
	On            bool     `json:"on" example:"false" doc:"Whether the light is on"`
	RGB           [3]uint8 `json:"rgb" doc:"Current color as red, green, blue (0-255)"`
	FrequencyHz   float64  `json:"frequency_hz" example:"1000" doc:"PWM frequency"`
	Available     bool     `json:"available" example:"true" doc:"Whether the light can be controlled"`
	SupportsColor bool     `json:"supports_color" example:"true" doc:"Whether color can be set"`
}

// Light owns the driver handle. All methods are safe for concurrent use;
// driver calls are serialized.
type Light struct {
	mu        sync.Mutex
	name      string
	driver    Driver
	bus       *events.Bus
	logger    *slog.Logger
	isSleep   bool
	rgb       [3]uint8
	frequency float64
}

// New programs the PWM frequency, puts the chip to sleep and returns a
// light in the off state. A frequency the chip cannot run returns
// ErrOutOfRange before the bus is touched. bus may be nil.
func New(driver Driver, cfg Config, bus *events.Bus, logger *slog.Logger) (*Light, error) {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.FrequencyHz == 0 {
		cfg.FrequencyHz = DefaultFrequencyHz
	}
	if logger == nil {
		logger = logging.GetLogger("light")
	}
	if _, ok := pca9685.Prescale(cfg.FrequencyHz); !ok {
		return nil, fmt.Errorf("%w: %v Hz gives a prescale outside %d..%d", ErrOutOfRange, cfg.FrequencyHz, pca9685.PrescaleMin, pca9685.PrescaleMax)
	}

	l := &Light{
		name:      cfg.Name,
		driver:    driver,
		bus:       bus,
		logger:    logger.With("light", cfg.Name),
		isSleep:   true,
		rgb:       DefaultColor,
		frequency: cfg.FrequencyHz,
	}

	if err := driver.SetFrequency(cfg.FrequencyHz); err != nil {
		return nil, fmt.Errorf("set frequency: %w", err)
	}
	if err := driver.SetSleep(true); err != nil {
		return nil, fmt.Errorf("sleep: %w", err)
	}

	l.logger.Info("Light initialized", "frequency_hz", cfg.FrequencyHz)
	return l, nil
}

// Name returns the light name.
func (l *Light) Name() string { return l.name }

// IsOn reports whether the chip is awake.
func (l *Light) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.isSleep
}

// RGB returns the current color.
func (l *Light) RGB() [3]uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rgb
}

// State returns a snapshot of the light.
func (l *Light) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

func (l *Light) stateLocked() State {
	return State{
		Name:          l.name,
		On:            !l.isSleep,
		RGB:           l.rgb,
		FrequencyHz:   l.frequency,
		Available:     true,
		SupportsColor: true,
	}
}

// TurnOn wakes the chip and shows the requested color, or the last color
// when opts is empty.
func (l *Light) TurnOn(opts TurnOnOptions) (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.driver.SetSleep(false); err != nil {
		return l.stateLocked(), fmt.Errorf("wake: %w", err)
	}
	l.isSleep = false

	rgb := l.rgb
	if opts.RGB != nil {
		rgb = *opts.RGB
	}
	if opts.HS != nil {
		r, g, b := HSVToRGB(opts.HS[0], opts.HS[1], 100)
		rgb = [3]uint8{r, g, b}
	}

	if err := l.driver.SetColor(float64(rgb[0])/255, float64(rgb[1])/255, float64(rgb[2])/255); err != nil {
		return l.stateLocked(), fmt.Errorf("set color: %w", err)
	}
	l.rgb = rgb

	l.logger.Info("Light turned on", "rgb", l.rgb)
	return l.notifyLocked(), nil
}

// TurnOff zeroes every channel and puts the chip to sleep.
func (l *Light) TurnOff() (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.driver.SetAllChannels(0); err != nil {
		return l.stateLocked(), fmt.Errorf("clear channels: %w", err)
	}
	if err := l.driver.SetSleep(true); err != nil {
		return l.stateLocked(), fmt.Errorf("sleep: %w", err)
	}
	l.isSleep = true

	l.logger.Info("Light turned off")
	return l.notifyLocked(), nil
}

// SetChannel writes a raw duty to one chip output without touching the
// tracked color.
func (l *Light) SetChannel(channel int, duty float64) error {
	if channel < 0 || channel >= pca9685.Channels {
		return fmt.Errorf("%w: channel %d not in 0..%d", ErrOutOfRange, channel, pca9685.Channels-1)
	}
	if _, ok := pca9685.DutyTicks(duty); !ok {
		return fmt.Errorf("%w: duty %v not in [0,1]", ErrOutOfRange, duty)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.driver.SetChannel(channel, duty)
}

// SetFrequency reprograms the PWM frequency. The driver always leaves the
// chip awake afterwards, so an off light is put back to sleep.
func (l *Light) SetFrequency(hz float64) (uint8, error) {
	prescale, ok := pca9685.Prescale(hz)
	if !ok {
		return 0, fmt.Errorf("%w: %v Hz gives a prescale outside %d..%d", ErrOutOfRange, hz, pca9685.PrescaleMin, pca9685.PrescaleMax)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.driver.SetFrequency(hz); err != nil {
		return 0, err
	}
	if l.isSleep {
		if err := l.driver.SetSleep(true); err != nil {
			return 0, fmt.Errorf("sleep: %w", err)
		}
	}
	l.frequency = hz

	if l.bus != nil {
		l.bus.Publish(events.FrequencyChangedEvent{
			Hz:        hz,
			Prescale:  prescale,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
	return prescale, nil
}

// notifyLocked publishes the current state and returns it.
func (l *Light) notifyLocked() State {
	st := l.stateLocked()
	if l.bus != nil {
		l.bus.Publish(events.LightStateChangedEvent{
			Name:      st.Name,
			On:        st.On,
			RGB:       st.RGB,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
	return st
}
