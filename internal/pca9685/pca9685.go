// Package pca9685 drives a PCA9685 16-channel PWM controller over I2C.
//
// Only the features needed for an RGB strip are implemented: software
// reset, sleep/wake, prescaler programming and per-channel or broadcast duty
// writes with the "on" tick fixed at zero. Every register write is its own
// bus transaction; auto-increment is never enabled.
package pca9685

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/smazurov/dioder/internal/i2c"
	"github.com/smazurov/dioder/internal/logging"
	"github.com/smazurov/dioder/internal/metrics"
)

var sleep = time.Sleep

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	WriteReg(reg, value byte) error
}

type broadcaster interface {
	Write(p []byte) error
}

// Device is one PCA9685 chip. It is not safe for concurrent use; the owner
// must serialize calls.
type Device struct {
	dev    regIO
	gc     broadcaster
	logger *slog.Logger
}

// Option configures a Device.
type Option func(*Device)

// WithLogger overrides the module logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// New binds the chip at addr on conn and issues a broadcast software reset.
// All chip registers return to power-on defaults.
func New(conn i2c.Conn, addr uint16, opts ...Option) (*Device, error) {
	if conn == nil {
		return nil, &Error{Code: ErrCodeInvalidArgument, Op: "init", Cause: fmt.Errorf("bus is nil")}
	}
	if addr == 0 || addr > 0x7F {
		return nil, &Error{Code: ErrCodeInvalidArgument, Op: "init", Cause: fmt.Errorf("invalid address 0x%02X", addr)}
	}
	return newWithIO(i2c.NewDev(conn, addr), i2c.GeneralCall(conn), addr, opts...)
}

func newWithIO(dev regIO, gc broadcaster, addr uint16, opts ...Option) (*Device, error) {
	d := &Device{
		dev:    dev,
		gc:     gc,
		logger: logging.GetLogger("pca9685"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.GetLogger("pca9685")
	}
	d.logger = d.logger.With("address", fmt.Sprintf("0x%02X", addr))

	if err := d.Reset(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reset writes SWRST to the general call address. Every PCA9685 on the bus
// resets, not only this one.
func (d *Device) Reset() error {
	if err := d.gc.Write([]byte{SoftwareReset}); err != nil {
		metrics.RecordBusError("reset")
		return &Error{Code: ErrCodeIO, Op: "reset", Reg: SoftwareReset, Cause: err}
	}
	metrics.RecordRegisterWrite("reset")
	d.logger.Debug("Software reset issued")
	return nil
}

// SetSleep sets or clears the MODE1 sleep bit, preserving the other bits,
// then waits SleepSettle before returning. The prescaler can only be written
// while asleep.
func (d *Device) SetSleep(active bool) error {
	old, err := d.dev.ReadRegU8(RegMode1)
	if err != nil {
		metrics.RecordBusError("sleep")
		return &Error{Code: ErrCodeIO, Op: "sleep", Reg: RegMode1, Cause: err}
	}

	mode := old &^ Mode1Sleep
	if active {
		mode = old | Mode1Sleep
	}
	if err := d.writeReg("sleep", RegMode1, mode); err != nil {
		return err
	}
	sleep(SleepSettle)

	d.logger.Debug("Sleep state changed", "sleep", active, "mode1", fmt.Sprintf("0x%02X", mode))
	return nil
}

// SetFrequency programs the PWM base frequency. Frequencies whose prescale
// falls outside 4..255 are ignored: nothing is written and nil is returned.
func (d *Device) SetFrequency(hz float64) error {
	prescale, ok := Prescale(hz)
	if !ok {
		metrics.RecordRejectedInput("frequency")
		d.logger.Warn("Ignoring PWM frequency outside prescaler range", "hz", hz)
		return nil
	}

	if err := d.SetSleep(true); err != nil {
		return err
	}
	if err := d.writeReg("frequency", RegPrescale, prescale); err != nil {
		return err
	}
	if err := d.SetSleep(false); err != nil {
		return err
	}

	d.logger.Info("PWM frequency set", "hz", hz, "prescale", prescale)
	return nil
}

// SetChannel writes duty in [0,1] to one output. Out-of-range duty or
// channel values are ignored without a write.
func (d *Device) SetChannel(channel int, duty float64) error {
	if channel < 0 || channel >= Channels {
		metrics.RecordRejectedInput("channel")
		d.logger.Warn("Ignoring write to nonexistent channel", "channel", channel)
		return nil
	}
	end, ok := DutyTicks(duty)
	if !ok {
		metrics.RecordRejectedInput("duty")
		d.logger.Warn("Ignoring duty outside [0,1]", "channel", channel, "duty", duty)
		return nil
	}

	if err := d.writeLED("channel", RegLED0OnL+byte(4*channel), end); err != nil {
		return err
	}
	metrics.SetChannelDuty(channel, duty)
	return nil
}

// SetAllChannels writes duty to the ALL_LED registers, updating every
// output at once.
func (d *Device) SetAllChannels(duty float64) error {
	end, ok := DutyTicks(duty)
	if !ok {
		metrics.RecordRejectedInput("duty")
		d.logger.Warn("Ignoring duty outside [0,1]", "channel", "all", "duty", duty)
		return nil
	}

	if err := d.writeLED("all_channels", RegAllLEDOnL, end); err != nil {
		return err
	}
	for ch := 0; ch < Channels; ch++ {
		metrics.SetChannelDuty(ch, duty)
	}
	return nil
}

// SetColor drives a DIODER strip: r on channel 0, b on channel 1, g on
// channel 2.
func (d *Device) SetColor(r, g, b float64) error {
	if err := d.SetChannel(ChannelRed, r); err != nil {
		return err
	}
	if err := d.SetChannel(ChannelBlue, b); err != nil {
		return err
	}
	return d.SetChannel(ChannelGreen, g)
}

// writeLED writes ON_L, ON_H, OFF_L, OFF_H starting at base. The on tick is
// always zero so each pulse starts at the beginning of the period.
func (d *Device) writeLED(op string, base byte, end uint16) error {
	values := [4]byte{0, 0, byte(end & 0xFF), byte(end >> 8)}
	for i, v := range values {
		if err := d.writeReg(op, base+byte(i), v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) writeReg(op string, reg, value byte) error {
	if err := d.dev.WriteReg(reg, value); err != nil {
		metrics.RecordBusError(op)
		return &Error{Code: ErrCodeIO, Op: op, Reg: reg, Cause: err}
	}
	metrics.RecordRegisterWrite(op)
	return nil
}

// Prescale converts hz to a PRE_SCALE register value. ok is false when the
// result is outside 4..255 or hz is not a positive finite number.
func Prescale(hz float64) (prescale byte, ok bool) {
	if !(hz > 0) || math.IsInf(hz, 0) {
		return 0, false
	}
	v := OscillatorHz/float64(Resolution)/hz - 1
	if v < PrescaleMin || v >= PrescaleMax+1 {
		return 0, false
	}
	return byte(int(v)), true
}

// DutyTicks converts duty in [0,1] to the OFF tick count floor(duty*MaxDuty).
func DutyTicks(duty float64) (end uint16, ok bool) {
	if math.IsNaN(duty) || duty < 0 || duty > 1 {
		return 0, false
	}
	return uint16(math.Floor(duty * MaxDuty)), true
}
